package render

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mayedalfalasi/bizdoc-min/internal/analysis"
)

const emDash = "—"

var printer = message.NewPrinter(language.English)

// formatMetricValue renders a metric's stored value for display. Percent
// units are stored as ratios and shown multiplied by 100 with one decimal
// (0.15 + "%" → "15.0%"). Whole numbers get thousands grouping; fractional
// values keep two decimals.
func formatMetricValue(v float64, unit string) string {
	if strings.Contains(unit, "%") {
		return fmt.Sprintf("%.1f%%", v*100)
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

// metricUnitCell returns the unit column text; percent folds into the value
// column, so its unit cell shows the placeholder dash.
func metricUnitCell(unit string) string {
	u := strings.TrimSpace(unit)
	if u == "" || strings.Contains(u, "%") {
		return emDash
	}
	return u
}

// displayConfidence floors the stored confidence and renders it as a whole
// percentage, so a literal 0 still displays as the floor value.
func displayConfidence(confidence, floor float64) string {
	c := confidence
	if c < floor {
		c = floor
	}
	if c > 1 {
		c = 1
	}
	return fmt.Sprintf("%.0f%%", c*100)
}

var (
	revenueRe     = regexp.MustCompile(`(?i)\b(revenue|sales|turnover)\b`)
	grossProfitRe = regexp.MustCompile(`(?i)\bgross\s+profit\b`)
	netIncomeRe   = regexp.MustCompile(`(?i)\bnet\s+(income|profit|earnings)\b`)
)

// deriveMetrics computes margin ratios from the literal metrics when both
// inputs are present and nonzero. Derived entries carry a "%" unit with the
// ratio stored unscaled, so the normal percent formatting applies.
func deriveMetrics(metrics []analysis.Metric) []analysis.Metric {
	var revenue, gross, net float64
	for _, m := range metrics {
		switch {
		case revenue == 0 && revenueRe.MatchString(m.Label) && !grossProfitRe.MatchString(m.Label):
			revenue = m.Value
		case gross == 0 && grossProfitRe.MatchString(m.Label):
			gross = m.Value
		case net == 0 && netIncomeRe.MatchString(m.Label):
			net = m.Value
		}
	}
	if revenue == 0 {
		return nil
	}
	var out []analysis.Metric
	if gross != 0 {
		out = append(out, analysis.Metric{Label: "Gross Margin", Value: gross / revenue, Unit: "%", Note: "derived"})
	}
	if net != 0 {
		out = append(out, analysis.Metric{Label: "Net Margin", Value: net / revenue, Unit: "%", Note: "derived"})
	}
	return out
}

// riskRows flattens the five fixed dimensions in display order with their
// render-time clamped values.
func riskRows(rs analysis.RiskScores) []struct {
	Label string
	Value int
} {
	return []struct {
		Label string
		Value int
	}{
		{"Financial Stability", analysis.ClampScore(rs.FinancialStability)},
		{"Liquidity", analysis.ClampScore(rs.Liquidity)},
		{"Concentration Risk", analysis.ClampScore(rs.ConcentrationRisk)},
		{"Compliance", analysis.ClampScore(rs.Compliance)},
		{"Growth Outlook", analysis.ClampScore(rs.GrowthOutlook)},
	}
}

// orDash substitutes the placeholder for empty optional text.
func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return emDash
	}
	return s
}
