package engine

import (
	"context"
	"sync"

	"github.com/meridianhq/eventrecon/internal/model"
)

// MockScorer is a scripted CandidateScorer for tests. Scores are keyed by
// transaction external id; unknown transactions score zero.
type MockScorer struct {
	Err    error
	Scores map[string]model.CandidateScore
	mu     sync.Mutex
	Calls  int
}

// ScoreCandidate returns the scripted score for the transaction.
func (m *MockScorer) ScoreCandidate(_ context.Context, _ model.Expense, tx model.Transaction) (model.CandidateScore, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.Err != nil {
		return model.CandidateScore{}, m.Err
	}
	return m.Scores[tx.ExternalID], nil
}

// MockAnalyst is a scripted Analyst for tests.
type MockAnalyst struct {
	Err      error
	Analysis model.OverallAnalysis
	mu       sync.Mutex
	Calls    int
}

// AnalyzeReconciliation returns the scripted analysis.
func (m *MockAnalyst) AnalyzeReconciliation(_ context.Context, _ model.Expense, _, _ model.MatchOutcome) (model.OverallAnalysis, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.Err != nil {
		return model.OverallAnalysis{}, m.Err
	}
	return m.Analysis, nil
}
