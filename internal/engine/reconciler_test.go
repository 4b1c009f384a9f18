package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridianhq/eventrecon/internal/model"
)

func matched(confidence float64) model.MatchOutcome {
	return model.MatchOutcome{
		Transaction: &model.Transaction{ExternalID: "tx-1"},
		Confidence:  confidence,
	}
}

func unmatched() model.MatchOutcome {
	return model.MatchOutcome{Reasoning: "no candidates in feed"}
}

func TestReconcilerCombine(t *testing.T) {
	reconciler := NewReconciler(nil, DefaultConfig(), nil)

	tests := []struct {
		name            string
		card            model.MatchOutcome
		expenseSystem   model.MatchOutcome
		wantConfidence  float64
		wantConsistency float64
		delta           float64
	}{
		{
			name:            "both systems agree",
			card:            matched(0.9),
			expenseSystem:   matched(0.9),
			wantConfidence:  1.0, // 0.9 avg * 1.2 boost, capped
			wantConsistency: 1.0,
		},
		{
			name:            "boost caps at exactly one",
			card:            matched(0.9),
			expenseSystem:   matched(0.95),
			wantConfidence:  1.0,
			wantConsistency: 0.95,
			delta:           0.001,
		},
		{
			name:            "both matched below cap",
			card:            matched(0.6),
			expenseSystem:   matched(0.7),
			wantConfidence:  0.78, // 0.65 avg * 1.2
			wantConsistency: 0.9,
			delta:           0.001,
		},
		{
			name:            "card only",
			card:            matched(0.9),
			expenseSystem:   unmatched(),
			wantConfidence:  0.72, // 0.9 * 0.8 penalty
			wantConsistency: 0.5,
			delta:           0.001,
		},
		{
			name:            "expense system only",
			card:            unmatched(),
			expenseSystem:   matched(0.75),
			wantConfidence:  0.6,
			wantConsistency: 0.5,
			delta:           0.001,
		},
		{
			name:            "neither matched",
			card:            unmatched(),
			expenseSystem:   unmatched(),
			wantConfidence:  0.0,
			wantConsistency: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := reconciler.Combine(tt.card, tt.expenseSystem)

			if tt.delta > 0 {
				assert.InDelta(t, tt.wantConfidence, analysis.Confidence, tt.delta)
				assert.InDelta(t, tt.wantConsistency, analysis.Summary.CrossSystemConsistency, tt.delta)
			} else {
				assert.Equal(t, tt.wantConfidence, analysis.Confidence)
				assert.Equal(t, tt.wantConsistency, analysis.Summary.CrossSystemConsistency)
			}

			assert.Equal(t, tt.card.Matched(), analysis.Summary.HasCardMatch)
			assert.Equal(t, tt.expenseSystem.Matched(), analysis.Summary.HasExpenseSystemMatch)
			assert.Equal(t, tt.card.Confidence, analysis.Summary.CardConfidence)
			assert.Equal(t, tt.expenseSystem.Confidence, analysis.Summary.ExpenseSystemConfidence)
			assert.Equal(t, analysis.Confidence, analysis.Summary.OverallQuality)
			assert.NotEmpty(t, analysis.Reasoning)
		})
	}
}

func TestReconcilerUsesAnalystWhenAvailable(t *testing.T) {
	analyst := &MockAnalyst{
		Analysis: model.OverallAnalysis{
			Confidence: 0.85,
			Reasoning:  "model judgment",
			Summary:    model.CriteriaSummary{OverallQuality: 0.85},
		},
	}
	reconciler := NewReconciler(analyst, DefaultConfig(), nil)

	analysis := reconciler.Reconcile(context.Background(), model.Expense{ID: "exp-1"}, matched(0.9), matched(0.9))

	assert.Equal(t, 0.85, analysis.Confidence)
	assert.Equal(t, "model judgment", analysis.Reasoning)
	assert.Equal(t, 1, analyst.Calls)
}

func TestReconcilerClampsAnalystConfidence(t *testing.T) {
	analyst := &MockAnalyst{Analysis: model.OverallAnalysis{Confidence: 1.7}}
	reconciler := NewReconciler(analyst, DefaultConfig(), nil)

	analysis := reconciler.Reconcile(context.Background(), model.Expense{ID: "exp-1"}, matched(0.9), matched(0.9))
	assert.Equal(t, 1.0, analysis.Confidence)
}

func TestReconcilerFallsBackOnAnalystFailure(t *testing.T) {
	analyst := &MockAnalyst{Err: errors.New("provider down")}
	reconciler := NewReconciler(analyst, DefaultConfig(), nil)

	analysis := reconciler.Reconcile(context.Background(), model.Expense{ID: "exp-1"}, matched(0.9), matched(0.9))

	// Deterministic combination takes over.
	assert.Equal(t, 1.0, analysis.Confidence)
	assert.True(t, analysis.Summary.HasCardMatch)
	assert.True(t, analysis.Summary.HasExpenseSystemMatch)
}
