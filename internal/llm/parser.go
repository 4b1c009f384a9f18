package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meridianhq/eventrecon/internal/model"
)

// extractJSON pulls the first JSON object out of a model response,
// tolerating markdown fences and stray prose around it.
func extractJSON(content string) (string, error) {
	trimmed := strings.TrimSpace(content)

	// Strip markdown code fences
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}

	return trimmed[start : end+1], nil
}

// parseScoreResponse decodes a candidate scoring reply.
func parseScoreResponse(content string) (ScoreResponse, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return ScoreResponse{}, err
	}

	var payload struct {
		Confidence     float64 `json:"confidence"`
		Reasoning      string  `json:"reasoning"`
		CriteriaScores struct {
			AmountMatch      float64 `json:"amount_match"`
			DateMatch        float64 `json:"date_match"`
			VendorMatch      float64 `json:"vendor_match"`
			CurrencyMatch    float64 `json:"currency_match"`
			DescriptionMatch float64 `json:"description_match"`
		} `json:"criteria_scores"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ScoreResponse{}, fmt.Errorf("failed to decode score response: %w", err)
	}

	return ScoreResponse{
		Confidence: clampScore(payload.Confidence),
		Reasoning:  payload.Reasoning,
		Criteria: model.CriteriaScores{
			AmountMatch:      clampScore(payload.CriteriaScores.AmountMatch),
			DateMatch:        clampScore(payload.CriteriaScores.DateMatch),
			VendorMatch:      clampScore(payload.CriteriaScores.VendorMatch),
			CurrencyMatch:    clampScore(payload.CriteriaScores.CurrencyMatch),
			DescriptionMatch: clampScore(payload.CriteriaScores.DescriptionMatch),
		},
	}, nil
}

// parseAnalysisResponse decodes an overall reconciliation analysis reply.
func parseAnalysisResponse(content string) (AnalysisResponse, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return AnalysisResponse{}, err
	}

	var payload struct {
		Confidence float64  `json:"confidence"`
		Reasoning  string   `json:"reasoning"`
		Concerns   []string `json:"concerns"`
		Criteria   struct {
			CrossSystemConsistency float64 `json:"cross_system_consistency"`
			OverallQuality         float64 `json:"overall_quality"`
		} `json:"criteria"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return AnalysisResponse{}, fmt.Errorf("failed to decode analysis response: %w", err)
	}

	return AnalysisResponse{
		Confidence:             clampScore(payload.Confidence),
		Reasoning:              payload.Reasoning,
		Concerns:               payload.Concerns,
		CrossSystemConsistency: clampScore(payload.Criteria.CrossSystemConsistency),
		OverallQuality:         clampScore(payload.Criteria.OverallQuality),
	}, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
