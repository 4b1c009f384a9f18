package engine

import (
	"context"

	"github.com/meridianhq/eventrecon/internal/model"
)

// CandidateScorer judges how well a single transaction matches an
// expense. Implementations must produce a numeric criteria breakdown
// whether or not they consult an external collaborator, so the
// deterministic and model-backed scorers are interchangeable.
type CandidateScorer interface {
	ScoreCandidate(ctx context.Context, expense model.Expense, tx model.Transaction) (model.CandidateScore, error)
}

// Analyst produces the overall cross-system judgment for one expense.
// The model-backed implementation adds a reasoning narrative; when it is
// absent or fails, the reconciler uses its deterministic combination.
type Analyst interface {
	AnalyzeReconciliation(ctx context.Context, expense model.Expense, card, expenseSystem model.MatchOutcome) (model.OverallAnalysis, error)
}
