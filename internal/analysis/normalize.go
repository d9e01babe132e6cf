package analysis

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Normalize parses a raw JSON object returned by the extraction model and
// coerces it into the canonical Result shape. Only a top-level parse failure
// is an error; every missing or mistyped field inside the envelope is
// defaulted (empty string, empty slice, zero) rather than rejected, so a
// partially well-formed model answer still produces a renderable report.
func Normalize(raw []byte) (*Result, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return FromMap(doc), nil
}

// FromMap applies the same best-effort coercion to an already-decoded object.
func FromMap(doc map[string]any) *Result {
	r := &Result{
		Title:            asString(doc["title"]),
		ExecutiveSummary: asString(doc["executiveSummary"]),
		Opportunities:    asStringSlice(doc["opportunities"]),
		KeyFindings:      asStringSlice(doc["keyFindings"]),
		Confidence:       asFloat(doc["confidence"]),
	}

	if items, ok := doc["keyMetrics"].([]any); ok {
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			r.KeyMetrics = append(r.KeyMetrics, Metric{
				Label: asString(m["label"]),
				Value: asFloat(m["value"]),
				Unit:  asString(m["unit"]),
				Note:  asString(m["note"]),
			})
		}
	}
	if r.KeyMetrics == nil {
		r.KeyMetrics = []Metric{}
	}

	if rs, ok := doc["riskScores"].(map[string]any); ok {
		r.RiskScores = RiskScores{
			FinancialStability: asInt(rs["financialStability"]),
			Liquidity:          asInt(rs["liquidity"]),
			ConcentrationRisk:  asInt(rs["concentrationRisk"]),
			Compliance:         asInt(rs["compliance"]),
			GrowthOutlook:      asInt(rs["growthOutlook"]),
		}
	}

	if items, ok := doc["recommendations"].([]any); ok {
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			r.Recommendations = append(r.Recommendations, Recommendation{
				Title:  asString(m["title"]),
				Detail: asString(m["detail"]),
			})
		}
	}
	if r.Recommendations == nil {
		r.Recommendations = []Recommendation{}
	}

	if e, ok := doc["entities"].(map[string]any); ok {
		r.Entities = Entities{
			Companies:  asStringSlice(e["companies"]),
			Investors:  asStringSlice(e["investors"]),
			Regulators: asStringSlice(e["regulators"]),
			People:     asStringSlice(e["people"]),
		}
	} else {
		r.Entities = Entities{Companies: []string{}, Investors: []string{}, Regulators: []string{}, People: []string{}}
	}

	if t, ok := doc["trends"].(map[string]any); ok {
		r.Trends.Narrative = asString(t["narrative"])
		if kpis, ok := t["kpis"].([]any); ok {
			for _, it := range kpis {
				m, ok := it.(map[string]any)
				if !ok {
					continue
				}
				kpi := KPI{Name: asString(m["name"])}
				if pts, ok := m["points"].([]any); ok {
					for _, p := range pts {
						pm, ok := p.(map[string]any)
						if !ok {
							continue
						}
						kpi.Points = append(kpi.Points, Point{X: asString(pm["x"]), Y: asFloat(pm["y"])})
					}
				}
				r.Trends.KPIs = append(r.Trends.KPIs, kpi)
			}
		}
	}
	if r.Trends.KPIs == nil {
		r.Trends.KPIs = []KPI{}
	}

	if items, ok := doc["sources"].([]any); ok {
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			r.Sources = AppendSources(r.Sources, Source{
				Title: asString(m["title"]),
				URL:   asString(m["url"]),
			})
		}
	}
	if r.Sources == nil {
		r.Sources = []Source{}
	}

	if m, ok := doc["meta"].(map[string]any); ok {
		r.Meta = m
	}
	if m, ok := doc["input"].(map[string]any); ok {
		r.Input = m
	}
	return r
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := asString(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// asFloat accepts JSON numbers as well as numeric strings; models sometimes
// quote values they were asked to return as numbers.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	case int:
		return float64(n)
	}
	return 0
}

func asInt(v any) int {
	return int(asFloat(v))
}
