package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/mayedalfalasi/bizdoc-min/internal/analysis"
	"github.com/mayedalfalasi/bizdoc-min/internal/chart"
)

// US Letter in points, matching the original service's layout constants.
const (
	pageWidth     = 612.0
	pageHeight    = 792.0
	pageMargin    = 56.0
	usableWidth   = pageWidth - 2*pageMargin
	footerReserve = 28.0

	bodySize    = 11.0
	titleSize   = 16.0
	headingSize = 13.0
	bodyLine    = 15.0
	headingLine = 18.0

	riskLabelWidth  = 170.0
	riskBarMaxWidth = 200.0
	riskBarHeight   = 9.0
	riskRowHeight   = 16.0
)

// pdfLayout owns the render cursor. Every emission goes through ensureSpace
// first, so no line, table row, bullet, bar, or image is ever split across
// a page boundary: if it does not fit, the page breaks before drawing it.
type pdfLayout struct {
	pdf  *gofpdf.Fpdf
	tr   func(string) string
	opts Options
}

// PDF lays the analysis result out as a paginated PDF and returns the bytes.
func PDF(r *analysis.Result, charts []chart.Image, opts Options) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	l := &pdfLayout{pdf: pdf, tr: tr, opts: opts}

	docTitle := strings.TrimSpace(r.Title)
	if docTitle == "" {
		docTitle = "BizDoc Report"
	}
	dateLine := opts.generatedAt().Format("2006-01-02")

	// Running header on continuation pages: document title plus the
	// generation date, drawn inside the top margin.
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetY(20)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(usableWidth/2, 12, tr(docTitle), "", 0, "L", false, 0, "")
		pdf.CellFormat(usableWidth/2, 12, dateLine, "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetY(pageMargin)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-(pageMargin - 16))
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 12, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()

	l.title(docTitle, dateLine)
	l.summary(r)
	l.keyFindings(r)
	l.metricsTable(r)
	l.trendsNarrative(r)
	if err := l.charts(charts); err != nil {
		return nil, err
	}
	l.riskScores(r)
	l.sources(r)
	l.confidence(r)

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrRender, pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// ensureSpace performs the page-break transition when fewer than h points
// remain above the footer area.
func (l *pdfLayout) ensureSpace(h float64) {
	if l.pdf.GetY()+h > pageHeight-pageMargin-footerReserve {
		l.pdf.AddPage()
	}
}

// wrap implements the single wrapping algorithm used everywhere: greedy
// line-fill against the active font's string width.
func (l *pdfLayout) wrap(text string, maxW float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if l.pdf.GetStringWidth(l.tr(candidate)) <= maxW {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = w
	}
	return append(lines, line)
}

func (l *pdfLayout) drawLine(s string, lineH float64) {
	l.ensureSpace(lineH)
	l.pdf.CellFormat(0, lineH, l.tr(s), "", 1, "L", false, 0, "")
}

func (l *pdfLayout) paragraph(text string, maxW float64) {
	for _, line := range l.wrap(text, maxW) {
		l.drawLine(line, bodyLine)
	}
}

func (l *pdfLayout) heading(text string) {
	l.pdf.SetFont("Helvetica", "B", headingSize)
	l.ensureSpace(headingLine + bodyLine) // keep a heading with its first line
	l.pdf.CellFormat(0, headingLine, l.tr(text), "", 1, "L", false, 0, "")
	l.pdf.SetFont("Helvetica", "", bodySize)
}

func (l *pdfLayout) spacer(h float64) {
	l.ensureSpace(h)
	l.pdf.Ln(h)
}

func (l *pdfLayout) title(docTitle, dateLine string) {
	l.pdf.SetFont("Helvetica", "B", titleSize)
	for _, line := range l.wrap(docTitle, usableWidth) {
		l.drawLine(line, titleSize+6)
	}
	l.pdf.SetFont("Helvetica", "", 9)
	l.pdf.SetTextColor(120, 120, 120)
	l.drawLine("Generated "+dateLine, 12)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.SetFont("Helvetica", "", bodySize)
	l.spacer(10)
}

func (l *pdfLayout) summary(r *analysis.Result) {
	l.heading("Executive Summary")
	l.paragraph(orDash(r.ExecutiveSummary), usableWidth)
	l.spacer(8)
}

func (l *pdfLayout) keyFindings(r *analysis.Result) {
	items := r.KeyFindings
	if len(items) == 0 {
		items = r.Opportunities
	}
	if len(items) == 0 {
		return
	}
	l.heading("Key Findings")
	for _, item := range items {
		l.bullet(item)
	}
	if len(r.KeyFindings) > 0 && len(r.Opportunities) > 0 {
		l.spacer(4)
		l.heading("Opportunities")
		for _, item := range r.Opportunities {
			l.bullet(item)
		}
	}
	l.spacer(8)
}

// bullet draws one list item with a hanging indent. The item wraps but its
// lines stay together only per line; each wrapped line is its own emission.
func (l *pdfLayout) bullet(text string) {
	const indent = 14.0
	lines := l.wrap(text, usableWidth-indent)
	for i, line := range lines {
		l.ensureSpace(bodyLine)
		if i == 0 {
			l.pdf.CellFormat(indent, bodyLine, l.tr("•"), "", 0, "L", false, 0, "")
		} else {
			l.pdf.CellFormat(indent, bodyLine, "", "", 0, "L", false, 0, "")
		}
		l.pdf.CellFormat(0, bodyLine, l.tr(line), "", 1, "L", false, 0, "")
	}
}

func (l *pdfLayout) metricsTable(r *analysis.Result) {
	metrics := r.KeyMetrics
	if len(metrics) == 0 {
		return
	}
	metrics = append(append([]analysis.Metric{}, metrics...), deriveMetrics(r.KeyMetrics)...)

	l.heading("Key Metrics")
	const (
		labelW = 250.0
		valueW = 140.0
		unitW  = usableWidth - labelW - valueW
		rowH   = 17.0
	)
	drawHeader := func() {
		l.pdf.SetFont("Helvetica", "B", bodySize)
		l.pdf.CellFormat(labelW, rowH, "Metric", "B", 0, "L", false, 0, "")
		l.pdf.CellFormat(valueW, rowH, "Value", "B", 0, "R", false, 0, "")
		l.pdf.CellFormat(unitW, rowH, "Unit", "B", 1, "R", false, 0, "")
		l.pdf.SetFont("Helvetica", "", bodySize)
	}
	l.ensureSpace(rowH * 2)
	drawHeader()
	for _, m := range metrics {
		before := l.pdf.PageNo()
		l.ensureSpace(rowH)
		if l.pdf.PageNo() != before {
			drawHeader()
		}
		label := m.Label
		if label == "" {
			label = "Metric"
		}
		if m.Note != "" {
			label += " (" + m.Note + ")"
		}
		l.pdf.CellFormat(labelW, rowH, l.tr(label), "", 0, "L", false, 0, "")
		l.pdf.CellFormat(valueW, rowH, l.tr(formatMetricValue(m.Value, m.Unit)), "", 0, "R", false, 0, "")
		l.pdf.CellFormat(unitW, rowH, l.tr(metricUnitCell(m.Unit)), "", 1, "R", false, 0, "")
	}
	l.spacer(8)
}

func (l *pdfLayout) trendsNarrative(r *analysis.Result) {
	if strings.TrimSpace(r.Trends.Narrative) == "" {
		return
	}
	l.heading("Trends")
	l.paragraph(r.Trends.Narrative, usableWidth)
	l.spacer(8)
}

func (l *pdfLayout) charts(images []chart.Image) error {
	for i, img := range images {
		name := fmt.Sprintf("chart-%d", i)
		info := l.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(img.Bytes))
		if l.pdf.Err() {
			return fmt.Errorf("%w: chart %q: %v", ErrRender, img.Spec.Title, l.pdf.Error())
		}
		w := usableWidth
		h := w * info.Height() / info.Width()

		if title := strings.TrimSpace(img.Spec.Title); title != "" {
			l.heading(title)
		}
		// image plus its caption gap is one emission; never split
		l.ensureSpace(h + 6)
		y := l.pdf.GetY()
		l.pdf.ImageOptions(name, pageMargin, y, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		if l.pdf.Err() {
			return fmt.Errorf("%w: chart %q: %v", ErrRender, img.Spec.Title, l.pdf.Error())
		}
		l.pdf.SetY(y + h + 6)
		l.spacer(4)
	}
	return nil
}

func (l *pdfLayout) riskScores(r *analysis.Result) {
	l.heading("Risk Scores")
	for _, row := range riskRows(r.RiskScores) {
		l.ensureSpace(riskRowHeight)
		y := l.pdf.GetY()
		l.pdf.CellFormat(riskLabelWidth, riskRowHeight, l.tr(row.Label), "", 0, "L", false, 0, "")
		barW := float64(row.Value) / 5.0 * riskBarMaxWidth
		l.pdf.SetFillColor(60, 90, 160)
		l.pdf.Rect(pageMargin+riskLabelWidth, y+(riskRowHeight-riskBarHeight)/2, barW, riskBarHeight, "F")
		l.pdf.SetX(pageMargin + riskLabelWidth + riskBarMaxWidth + 10)
		l.pdf.CellFormat(0, riskRowHeight, fmt.Sprintf("%d / 5", row.Value), "", 1, "L", false, 0, "")
	}
	l.spacer(8)
}

func (l *pdfLayout) sources(r *analysis.Result) {
	if len(r.Sources) == 0 {
		return
	}
	l.heading("Sources")
	for i, s := range r.Sources {
		text := fmt.Sprintf("[%d] %s — %s", i+1, orDash(s.Title), s.URL)
		for _, line := range l.wrap(text, usableWidth) {
			l.drawLine(line, bodyLine)
		}
	}
	l.spacer(8)
}

func (l *pdfLayout) confidence(r *analysis.Result) {
	l.pdf.SetFont("Helvetica", "I", 10)
	l.drawLine("Confidence: "+displayConfidence(r.Confidence, l.opts.confidenceFloor()), bodyLine)
	l.pdf.SetFont("Helvetica", "", bodySize)
}
