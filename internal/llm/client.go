// Package llm implements the model-backed scoring collaborator: an
// OpenAI-compatible client plus the prompt and parsing layer that turns
// model judgments into numeric criteria the engine can act on.
package llm

import (
	"context"

	"github.com/meridianhq/eventrecon/internal/model"
)

// Client defines the transport-level interface for model providers.
type Client interface {
	ScoreCandidate(ctx context.Context, prompt string) (ScoreResponse, error)
	AnalyzeReconciliation(ctx context.Context, prompt string) (AnalysisResponse, error)
}

// ScoreResponse is the model's judgment for one expense/candidate pair.
type ScoreResponse struct {
	Reasoning  string
	Criteria   model.CriteriaScores
	Confidence float64
}

// AnalysisResponse is the model's overall cross-system judgment.
type AnalysisResponse struct {
	Reasoning              string
	Concerns               []string
	Confidence             float64
	CrossSystemConsistency float64
	OverallQuality         float64
}
