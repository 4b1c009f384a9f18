package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/eventrecon/internal/common"
	"github.com/meridianhq/eventrecon/internal/model"
	"github.com/meridianhq/eventrecon/internal/score"
)

func heuristicEngine() *Engine {
	return New(DefaultConfig(), score.DefaultConfig(), nil, nil, nil)
}

func expenseFixture() model.Expense {
	return model.Expense{
		ID:       "exp-1",
		EventID:  "event-q3",
		Amount:   decimal.RequireFromString("125.50"),
		Currency: "USD",
		Date:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Vendor:   "Marriott Hotels",
	}
}

func feedTx(id string, source model.SourceSystem, amount string, date time.Time, vendor string) model.Transaction {
	return model.Transaction{
		ExternalID: id,
		Source:     source,
		Amount:     decimal.RequireFromString(amount),
		Currency:   "USD",
		Date:       date,
		Vendor:     vendor,
	}
}

// Clean corroborated match: both feeds carry the expense on the right
// day for the right amount, so the boosted confidence confirms it.
func TestEngineConfirmsCorroboratedMatch(t *testing.T) {
	eng := heuristicEngine()
	expense := expenseFixture()
	expense.Amount = decimal.RequireFromString("285.50")
	expense.Vendor = "Marriott Downtown NYC"
	date := expense.Date

	card := []model.Transaction{
		feedTx("card-1", model.SourceCardFeed, "285.50", date, "Marriott Hotels"),
		feedTx("card-2", model.SourceCardFeed, "980.00", date.AddDate(0, 0, 20), "United Airlines"),
	}
	expSys := []model.Transaction{
		feedTx("es-1", model.SourceExpenseSystem, "285.50", date, "Marriott International"),
	}

	result := eng.Match(context.Background(), expense, card, expSys)

	assert.Equal(t, model.StatusConfirmed, result.Status)
	assert.Equal(t, 1.0, result.OverallConfidence)
	require.True(t, result.CardOutcome.Matched())
	require.True(t, result.ExpenseSystemOutcome.Matched())
	assert.Equal(t, "card-1", result.CardOutcome.Transaction.ExternalID)
	assert.Equal(t, "es-1", result.ExpenseSystemOutcome.Transaction.ExternalID)
	assert.InDelta(t, 0.9, result.CardOutcome.Confidence, 0.001)
	assert.True(t, result.Summary.HasCardMatch)
	assert.True(t, result.Summary.HasExpenseSystemMatch)
}

// Card-only match with a one day posting lag and a small amount delta
// inside the relative tolerance: strong on its own but uncorroborated,
// so it lands in review instead of confirmed.
func TestEngineSingleSystemMatchPendsForReview(t *testing.T) {
	eng := heuristicEngine()
	expense := expenseFixture()
	expense.Amount = decimal.RequireFromString("150.00")

	card := []model.Transaction{
		feedTx("card-1", model.SourceCardFeed, "148.75", expense.Date.AddDate(0, 0, 1), "Marriott Hotels"),
	}

	result := eng.Match(context.Background(), expense, card, nil)

	assert.Equal(t, model.StatusPending, result.Status)
	assert.InDelta(t, 0.72, result.OverallConfidence, 0.001)
	assert.True(t, result.CardOutcome.Matched())
	assert.False(t, result.ExpenseSystemOutcome.Matched())
	assert.Equal(t, 0.5, result.Summary.CrossSystemConsistency)
}

// Amount and date coincidences with unrelated merchants must not match:
// the vendor guard zeroes them out and the expense is rejected.
func TestEngineRejectsVendorMismatch(t *testing.T) {
	eng := heuristicEngine()
	expense := expenseFixture()
	expense.Vendor = "Uber Technologies"
	expense.Amount = decimal.RequireFromString("89.99")

	card := []model.Transaction{
		feedTx("card-1", model.SourceCardFeed, "89.99", expense.Date, "Burger King"),
	}
	expSys := []model.Transaction{
		feedTx("es-1", model.SourceExpenseSystem, "89.99", expense.Date, "Shell Oil"),
	}

	result := eng.Match(context.Background(), expense, card, expSys)

	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Equal(t, 0.0, result.OverallConfidence)
	assert.False(t, result.CardOutcome.Matched())
	assert.False(t, result.ExpenseSystemOutcome.Matched())
}

func TestEngineNoCandidatesAnywhere(t *testing.T) {
	eng := heuristicEngine()

	result := eng.Match(context.Background(), expenseFixture(), nil, nil)

	assert.Equal(t, model.StatusRejected, result.Status)
	assert.Equal(t, 0.0, result.OverallConfidence)
	assert.False(t, result.Summary.HasCardMatch)
	assert.False(t, result.Summary.HasExpenseSystemMatch)
}

// An unmatched outcome always carries zero confidence, never a residual
// score from a candidate that failed the floor.
func TestEngineUnmatchedOutcomeHasZeroConfidence(t *testing.T) {
	eng := heuristicEngine()
	expense := expenseFixture()

	card := []model.Transaction{
		feedTx("card-1", model.SourceCardFeed, "9999.00", expense.Date.AddDate(0, 0, 60), "Totally Different Co"),
	}

	result := eng.Match(context.Background(), expense, card, nil)

	assert.False(t, result.CardOutcome.Matched())
	assert.Equal(t, 0.0, result.CardOutcome.Confidence)
	assert.Nil(t, result.CardOutcome.Transaction)
}

func TestEngineIsDeterministic(t *testing.T) {
	eng := heuristicEngine()
	expense := expenseFixture()
	date := expense.Date

	card := []model.Transaction{
		feedTx("card-2", model.SourceCardFeed, "125.50", date, "Marriott Downtown"),
		feedTx("card-1", model.SourceCardFeed, "125.50", date, "MARRIOTT DOWNTOWN"),
	}
	expSys := []model.Transaction{
		feedTx("es-1", model.SourceExpenseSystem, "125.50", date, "Marriott Downtown"),
	}

	first := eng.Match(context.Background(), expense, card, expSys)
	for i := 0; i < 5; i++ {
		again := eng.Match(context.Background(), expense, card, expSys)
		assert.Equal(t, first, again, "run %d differed", i)
	}
}

// When the primary scorer is unavailable the engine must still produce a
// full answer through the deterministic fallback.
func TestEngineFallsBackWhenPrimaryUnavailable(t *testing.T) {
	primary := &MockScorer{Err: fmt.Errorf("%w: provider timeout", common.ErrScoringUnavailable)}
	eng := New(DefaultConfig(), score.DefaultConfig(), primary, nil, nil)

	expense := expenseFixture()
	card := []model.Transaction{
		feedTx("card-1", model.SourceCardFeed, "125.50", expense.Date, "Marriott Hotels"),
	}
	expSys := []model.Transaction{
		feedTx("es-1", model.SourceExpenseSystem, "125.50", expense.Date, "Marriott Hotels"),
	}

	result := eng.Match(context.Background(), expense, card, expSys)

	assert.Greater(t, primary.Calls, 0, "primary scorer should have been tried")
	assert.Equal(t, model.StatusConfirmed, result.Status)
	assert.True(t, result.CardOutcome.Matched())
	assert.True(t, result.ExpenseSystemOutcome.Matched())
}

func TestEngineUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &MockScorer{Scores: map[string]model.CandidateScore{
		"card-1": {Confidence: 0.95, Reasoning: "model says yes"},
		"es-1":   {Confidence: 0.9, Reasoning: "model says yes"},
	}}
	eng := New(DefaultConfig(), score.DefaultConfig(), primary, nil, nil)

	expense := expenseFixture()
	card := []model.Transaction{
		feedTx("card-1", model.SourceCardFeed, "125.50", expense.Date, "Marriott Hotels"),
	}
	expSys := []model.Transaction{
		feedTx("es-1", model.SourceExpenseSystem, "125.50", expense.Date, "Marriott Hotels"),
	}

	result := eng.Match(context.Background(), expense, card, expSys)

	assert.Equal(t, model.StatusConfirmed, result.Status)
	assert.Equal(t, 1.0, result.OverallConfidence)
	assert.Equal(t, "model says yes", result.CardOutcome.Reasoning)
}
