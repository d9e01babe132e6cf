package analysis

import (
	"encoding/json"
	"strings"
)

// Result is the canonical structured output of the analysis stage. It is the
// single contract between the upstream extraction model and the document
// renderer: whatever the model happened to return is normalized into this
// shape before anything downstream touches it.
type Result struct {
	Title            string           `json:"title"`
	ExecutiveSummary string           `json:"executiveSummary"`
	KeyMetrics       []Metric         `json:"keyMetrics"`
	RiskScores       RiskScores       `json:"riskScores"`
	Opportunities    []string         `json:"opportunities"`
	KeyFindings      []string         `json:"keyFindings"`
	Recommendations  []Recommendation `json:"recommendations"`
	Entities         Entities         `json:"entities"`
	Trends           Trends           `json:"trends"`
	Sources          []Source         `json:"sources"`
	Confidence       float64          `json:"confidence"`

	// Meta and Input are pass-through bags (requested filename, source URL,
	// byte counts). The pipeline records them but never interprets them.
	Meta  map[string]any `json:"meta,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

// Metric is a single labeled figure. Order within KeyMetrics is display
// order; labels are not required to be unique.
type Metric struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Note  string  `json:"note"`
}

// RiskScores holds the five fixed risk dimensions, each nominally in [1,5].
// Out-of-range values are kept as-is here and clamped at render time.
type RiskScores struct {
	FinancialStability int `json:"financialStability"`
	Liquidity          int `json:"liquidity"`
	ConcentrationRisk  int `json:"concentrationRisk"`
	Compliance         int `json:"compliance"`
	GrowthOutlook      int `json:"growthOutlook"`
}

// Recommendation pairs a short title with a one-or-two sentence detail.
type Recommendation struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Entities groups named entities found in the document. Duplicates are
// tolerated; order follows the model output.
type Entities struct {
	Companies  []string `json:"companies"`
	Investors  []string `json:"investors"`
	Regulators []string `json:"regulators"`
	People     []string `json:"people"`
}

// Trends carries a prose narrative plus zero or more KPI series. Points keep
// input order; the x axis is a time/category axis, never re-sorted.
type Trends struct {
	Narrative string `json:"narrative"`
	KPIs      []KPI  `json:"kpis"`
}

type KPI struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

type Point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Source is a single citation. Within Result.Sources the sequence is unique
// by URL; use AppendSources to preserve that invariant.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// AppendSources appends incoming sources to dst, skipping any whose URL is
// already present. Existing entries keep their positions; new entries are
// appended in the order received. The first occurrence of a URL wins.
func AppendSources(dst []Source, in ...Source) []Source {
	seen := make(map[string]struct{}, len(dst)+len(in))
	for _, s := range dst {
		seen[s.URL] = struct{}{}
	}
	for _, s := range in {
		u := strings.TrimSpace(s.URL)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		s.URL = u
		dst = append(dst, s)
	}
	return dst
}

// ClampScore clamps a risk score into the displayable [1,5] range.
func ClampScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

// MarshalIndent is a convenience for debug output and the CLI --json mode.
func (r *Result) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
