package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/eventrecon/internal/model"
)

func testStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Logf("Failed to close database: %v", closeErr)
		}
	})

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func storedResult(expenseID, eventID, amount string, status model.MatchStatus, confidence float64) *model.ReconciliationResult {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	tx := &model.Transaction{
		ExternalID: "card-" + expenseID,
		Source:     model.SourceCardFeed,
		Amount:     decimal.RequireFromString(amount),
		Currency:   "USD",
		Date:       date,
		Vendor:     "Marriott Hotels",
	}
	criteria := &model.CriteriaScores{AmountMatch: 1, DateMatch: 1, VendorMatch: 0.9, CurrencyMatch: 1}

	return &model.ReconciliationResult{
		Expense: model.Expense{
			ID:                   expenseID,
			EventID:              eventID,
			Amount:               decimal.RequireFromString(amount),
			Currency:             "USD",
			Date:                 date,
			Vendor:               "Marriott Hotels",
			Description:          "team dinner",
			Category:             "Meals",
			ExtractionConfidence: 0.9,
		},
		CardOutcome: model.MatchOutcome{
			Transaction: tx,
			Criteria:    criteria,
			Confidence:  0.9,
			Reasoning:   "amounts and dates align",
		},
		ExpenseSystemOutcome: model.MatchOutcome{Reasoning: "no candidates in feed"},
		Summary: model.CriteriaSummary{
			HasCardMatch:           true,
			CardConfidence:         0.9,
			CrossSystemConsistency: 0.5,
			OverallQuality:         confidence,
		},
		Reasoning:         "card feed only",
		OverallConfidence: confidence,
		Status:            status,
	}
}

func TestSaveAndGetResults(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	saved := storedResult("exp-1", "event-q3", "125.50", model.StatusConfirmed, 0.95)
	require.NoError(t, store.SaveResult(ctx, saved))
	assert.NotEmpty(t, saved.ID, "an id should be assigned on save")

	results, err := store.GetResultsByEvent(ctx, "event-q3")
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "exp-1", got.Expense.ID)
	assert.Equal(t, "event-q3", got.Expense.EventID)
	assert.True(t, got.Expense.Amount.Equal(decimal.RequireFromString("125.50")))
	assert.Equal(t, "Marriott Hotels", got.Expense.Vendor)
	assert.Equal(t, 0.9, got.Expense.ExtractionConfidence)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Equal(t, 0.95, got.OverallConfidence)

	require.True(t, got.CardOutcome.Matched())
	assert.Equal(t, "card-exp-1", got.CardOutcome.Transaction.ExternalID)
	assert.Equal(t, 0.9, got.CardOutcome.Confidence)
	require.NotNil(t, got.CardOutcome.Criteria)
	assert.Equal(t, 0.9, got.CardOutcome.Criteria.VendorMatch)

	assert.False(t, got.ExpenseSystemOutcome.Matched())
	assert.True(t, got.Summary.HasCardMatch)
	assert.Equal(t, 0.5, got.Summary.CrossSystemConsistency)
}

func TestSaveResultIsIdempotent(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	first := storedResult("exp-1", "event-q3", "125.50", model.StatusPending, 0.7)
	require.NoError(t, store.SaveResult(ctx, first))

	// Re-running the reconciliation for the same expense replaces the row
	// and hands back the row's persisted id.
	second := storedResult("exp-1", "event-q3", "125.50", model.StatusConfirmed, 0.95)
	require.NoError(t, store.SaveResult(ctx, second))
	assert.Equal(t, first.ID, second.ID, "a re-save must report the id it actually stored")

	results, err := store.GetResultsByEvent(ctx, "event-q3")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusConfirmed, results[0].Status)
	assert.Equal(t, first.ID, results[0].ID)
}

func TestGetResultsByEventEmpty(t *testing.T) {
	store := testStorage(t)

	results, err := store.GetResultsByEvent(context.Background(), "no-such-event")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGetEventSummary(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, storedResult("exp-1", "event-q3", "100.00", model.StatusConfirmed, 0.95)))
	require.NoError(t, store.SaveResult(ctx, storedResult("exp-2", "event-q3", "200.00", model.StatusConfirmed, 0.9)))
	require.NoError(t, store.SaveResult(ctx, storedResult("exp-3", "event-q3", "50.00", model.StatusPending, 0.7)))
	require.NoError(t, store.SaveResult(ctx, storedResult("exp-4", "event-q3", "75.00", model.StatusRejected, 0.2)))
	require.NoError(t, store.SaveResult(ctx, storedResult("exp-9", "other-event", "999.00", model.StatusConfirmed, 0.95)))

	summary, err := store.GetEventSummary(ctx, "event-q3")
	require.NoError(t, err)

	assert.Equal(t, "event-q3", summary.EventID)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Confirmed)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, 0.5, summary.MatchRate)
	assert.True(t, summary.ConfirmedTotal.Equal(decimal.RequireFromString("300.00")))
}

func TestGetEventSummaryUnknownEvent(t *testing.T) {
	store := testStorage(t)

	_, err := store.GetEventSummary(context.Background(), "no-such-event")
	require.Error(t, err)
}

func TestGetConfirmedTotal(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, storedResult("exp-1", "event-q3", "100.10", model.StatusConfirmed, 0.95)))
	require.NoError(t, store.SaveResult(ctx, storedResult("exp-2", "event-q3", "0.20", model.StatusConfirmed, 0.9)))
	require.NoError(t, store.SaveResult(ctx, storedResult("exp-3", "event-q3", "50.00", model.StatusRejected, 0.1)))

	total, err := store.GetConfirmedTotal(ctx, "event-q3")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("100.30")), "got %s", total)
}

func TestGetConfirmedTotalNoConfirmedRows(t *testing.T) {
	store := testStorage(t)

	total, err := store.GetConfirmedTotal(context.Background(), "event-q3")
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := testStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestNewSQLiteStorageRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	require.Error(t, err)
}
