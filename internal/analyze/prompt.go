package analyze

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mayedalfalasi/bizdoc-min/internal/search"
)

// schemaDescription is shared by both passes so the model is asked for the
// same canonical shape each time.
const schemaDescription = `Return a STRICT JSON object with these keys:
- title (short string)
- executiveSummary (120-180 words, rigorous, concise; cite sources inline with bracketed numeric markers like [1])
- keyMetrics: array of {label, value (number), unit, note}
- riskScores: {financialStability, liquidity, concentrationRisk, compliance, growthOutlook} each an integer 1-5
- opportunities: 3 short bullet strings
- keyFindings: 3-6 short bullet strings
- recommendations: 3 items of {title, detail}
- entities: {companies, investors, regulators, people} (arrays of strings)
- trends: {narrative: string, kpis: [{name, points: [{x: "Q1", y: number}, ...]}]}
- sources: array of {title, url}
- confidence: number in [0,1]`

func draftPrompt(text, titleHint string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the business document below and produce a first-draft structured analysis.\n")
	sb.WriteString(schemaDescription)
	if strings.TrimSpace(titleHint) != "" {
		sb.WriteString("\nSuggested title: ")
		sb.WriteString(strings.TrimSpace(titleHint))
	}
	sb.WriteString("\n\nDocument text:\n---\n")
	sb.WriteString(text)
	sb.WriteString("\n---")
	return sb.String()
}

func factCheckPrompt(draft map[string]any, findings []search.Result) string {
	var sb strings.Builder
	sb.WriteString("You previously drafted the structured analysis below. Verify and correct it: ")
	sb.WriteString("fix inconsistent numbers, tighten the executive summary, attach [n] citation markers ")
	sb.WriteString("to claims backed by the research findings, and emit final riskScores, confidence, and sources.\n")
	sb.WriteString(schemaDescription)
	sb.WriteString("\n\nDraft analysis JSON:\n")
	if b, err := json.Marshal(draft); err == nil {
		sb.Write(b)
	}
	if len(findings) > 0 {
		sb.WriteString("\n\nResearch findings (use for verification and as sources; cite with [n]):\n")
		for i, f := range findings {
			sb.WriteString(fmt.Sprintf("%d. %s — %s\n", i+1, f.Title, f.URL))
			if f.Snippet != "" {
				sb.WriteString(f.Snippet)
				sb.WriteString("\n")
			}
		}
	} else {
		sb.WriteString("\n\nNo research findings are available; verify internally and keep sources you are certain of.")
	}
	sb.WriteString("\nOutput only the JSON object.")
	return sb.String()
}
