// Package chart derives chart specifications from an analysis result and
// rasterizes them through an external rendering service.
package chart

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/mayedalfalasi/bizdoc-min/internal/analysis"
)

// Kind enumerates supported chart shapes.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
)

// Axis units control y-axis formatting downstream.
const (
	AxisPercent  = "%"
	AxisCurrency = "currency"
	AxisCount    = "count"
)

// ErrRender tags rasterization failures. Charts are not optional once
// derived; the pipeline aborts the request on this error.
var ErrRender = errors.New("chart: render failed")

// Spec is a fully derived chart: labels and series are index-aligned and
// keep the input order of the data they came from.
type Spec struct {
	Title    string
	Kind     Kind
	Labels   []string
	Series   []float64
	AxisUnit string
}

// Image pairs a rasterized chart with the spec it came from.
type Image struct {
	Spec  Spec
	Bytes []byte
}

// Rasterizer turns one spec into image bytes.
type Rasterizer interface {
	Render(ctx context.Context, spec Spec) ([]byte, error)
}

// percentLabelRe matches metric labels that read as percentages even when
// the unit field doesn't say so.
var percentLabelRe = regexp.MustCompile(`(?i)\b(margin|rate|growth|yield|ratio|percent)\b`)

// Derive builds at most one bar chart from the key metrics and at most one
// line chart from the first KPI series. Series with fewer than two points
// don't chart meaningfully and are skipped.
func Derive(r *analysis.Result) []Spec {
	var specs []Spec

	if len(r.KeyMetrics) >= 2 {
		spec := Spec{
			Title:    "Key Metrics",
			Kind:     KindBar,
			AxisUnit: metricsAxisUnit(r.KeyMetrics),
		}
		for _, m := range r.KeyMetrics {
			label := m.Label
			if label == "" {
				label = "Metric"
			}
			spec.Labels = append(spec.Labels, label)
			spec.Series = append(spec.Series, m.Value)
		}
		specs = append(specs, spec)
	}

	if len(r.Trends.KPIs) > 0 {
		kpi := r.Trends.KPIs[0]
		if len(kpi.Points) >= 2 {
			title := kpi.Name
			if title == "" {
				title = "Trend"
			}
			spec := Spec{Title: title, Kind: KindLine, AxisUnit: AxisCount}
			if percentLabelRe.MatchString(kpi.Name) {
				spec.AxisUnit = AxisPercent
			}
			// Input order is the time axis; never re-sort.
			for _, p := range kpi.Points {
				spec.Labels = append(spec.Labels, p.X)
				spec.Series = append(spec.Series, p.Y)
			}
			specs = append(specs, spec)
		}
	}
	return specs
}

// metricsAxisUnit treats the whole chart as percentage-formatted when any
// metric's unit carries a percent sign or its label reads like a rate.
func metricsAxisUnit(metrics []analysis.Metric) string {
	for _, m := range metrics {
		if strings.Contains(m.Unit, "%") || percentLabelRe.MatchString(m.Label) {
			return AxisPercent
		}
	}
	for _, m := range metrics {
		u := strings.ToUpper(strings.TrimSpace(m.Unit))
		switch u {
		case "USD", "EUR", "GBP", "AED", "$", "€", "£":
			return AxisCurrency
		}
	}
	return AxisCount
}
