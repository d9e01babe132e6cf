package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/mayedalfalasi/bizdoc-min/internal/analysis"
)

// DOCX renders the analysis as a flowing Word document. It mirrors the
// original service's docx path: headings and paragraphs, no absolute
// layout, charts omitted (the PDF is the fully illustrated artifact).
func DOCX(r *analysis.Result, opts Options) ([]byte, error) {
	w := docx.New().WithDefaultTheme()

	docTitle := strings.TrimSpace(r.Title)
	if docTitle == "" {
		docTitle = "BizDoc Report"
	}
	w.AddParagraph().AddText(docTitle).Size("32").Bold()
	w.AddParagraph().AddText("Generated " + opts.generatedAt().Format("2006-01-02")).Size("18").Italic()

	docxHeading(w, "Executive Summary")
	w.AddParagraph().AddText(orDash(r.ExecutiveSummary)).Size("22")

	items := r.KeyFindings
	if len(items) == 0 {
		items = r.Opportunities
	}
	if len(items) > 0 {
		docxHeading(w, "Key Findings")
		for _, item := range items {
			w.AddParagraph().AddText("• " + item).Size("22")
		}
	}

	if len(r.KeyMetrics) > 0 {
		docxHeading(w, "Key Metrics")
		metrics := append(append([]analysis.Metric{}, r.KeyMetrics...), deriveMetrics(r.KeyMetrics)...)
		for _, m := range metrics {
			label := m.Label
			if label == "" {
				label = "Metric"
			}
			line := fmt.Sprintf("• %s: %s", label, formatMetricValue(m.Value, m.Unit))
			if u := metricUnitCell(m.Unit); u != emDash {
				line += " " + u
			}
			if m.Note != "" {
				line += " — " + m.Note
			}
			w.AddParagraph().AddText(line).Size("22")
		}
	}

	if len(r.Recommendations) > 0 {
		docxHeading(w, "Recommendations")
		for _, rec := range r.Recommendations {
			w.AddParagraph().AddText("• " + rec.Title + " — " + orDash(rec.Detail)).Size("22")
		}
	}

	if strings.TrimSpace(r.Trends.Narrative) != "" {
		docxHeading(w, "Trends")
		w.AddParagraph().AddText(r.Trends.Narrative).Size("22")
	}

	docxHeading(w, "Risk Scores")
	for _, row := range riskRows(r.RiskScores) {
		w.AddParagraph().AddText(fmt.Sprintf("• %s: %d / 5", row.Label, row.Value)).Size("22")
	}

	if len(r.Sources) > 0 {
		docxHeading(w, "Sources")
		for i, s := range r.Sources {
			w.AddParagraph().AddText(fmt.Sprintf("[%d] %s — %s", i+1, orDash(s.Title), s.URL)).Size("22")
		}
	}

	w.AddParagraph().AddText("Confidence: " + displayConfidence(r.Confidence, opts.confidenceFloor())).Size("20").Italic()

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

func docxHeading(w *docx.Docx, text string) {
	w.AddParagraph().AddText(text).Size("26").Bold()
}
