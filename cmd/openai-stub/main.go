// Command openai-stub serves a minimal OpenAI-compatible chat completions
// endpoint that returns a canned analysis payload. Point OPENAI_BASE_URL at
// it to exercise the report pipeline without a real key.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const draftAnalysis = `{
  "title": "Stub Business Review",
  "executiveSummary": "Draft summary of the submitted document.",
  "keyMetrics": [{"label": "Revenue", "value": 1000000, "unit": "USD", "note": ""}],
  "riskScores": {"financialStability": 3, "liquidity": 3, "concentrationRisk": 3, "compliance": 3, "growthOutlook": 3},
  "opportunities": ["Expand stub coverage"],
  "keyFindings": ["Document was processed by the stub"],
  "recommendations": [{"title": "Use a real model", "detail": "The stub returns fixed numbers."}],
  "entities": {"companies": ["Stub Co"], "investors": [], "regulators": [], "people": []},
  "trends": {"narrative": "Flat.", "kpis": [{"name": "Revenue", "points": [{"x": "Q1", "y": 1}, {"x": "Q2", "y": 1}]}]},
  "sources": [],
  "confidence": 0.5
}`

const finalAnalysis = `{
  "title": "Stub Business Review",
  "executiveSummary": "Verified summary of the submitted document [1].",
  "keyMetrics": [{"label": "Revenue", "value": 1000000, "unit": "USD", "note": ""}],
  "riskScores": {"financialStability": 3, "liquidity": 3, "concentrationRisk": 2, "compliance": 3, "growthOutlook": 4},
  "opportunities": ["Expand stub coverage"],
  "keyFindings": ["Document was processed by the stub", "Numbers are canned"],
  "recommendations": [{"title": "Use a real model", "detail": "The stub returns fixed numbers."}],
  "entities": {"companies": ["Stub Co"], "investors": [], "regulators": [], "people": []},
  "trends": {"narrative": "Flat.", "kpis": [{"name": "Revenue", "points": [{"x": "Q1", "y": 1}, {"x": "Q2", "y": 1}]}]},
  "sources": [{"title": "Stub reference", "url": "https://example.com/stub"}],
  "confidence": 0.9
}`

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		user := ""
		if len(req.Messages) >= 2 {
			user = req.Messages[1].Content
		}
		// The fact-check pass embeds the draft; the first pass does not.
		content := draftAnalysis
		if strings.Contains(user, "Draft analysis JSON") {
			content = finalAnalysis
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})

	log.Printf("openai-stub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
