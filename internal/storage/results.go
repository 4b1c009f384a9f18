package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianhq/eventrecon/internal/common"
	"github.com/meridianhq/eventrecon/internal/model"
	"github.com/meridianhq/eventrecon/internal/service"
)

// SaveResult persists a reconciliation result. Saving the same expense
// for the same event again replaces the earlier row, so re-running a
// reconciliation is idempotent.
func (s *SQLiteStorage) SaveResult(ctx context.Context, result *model.ReconciliationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("result must not be nil")
	}

	if result.ID == "" {
		result.ID = uuid.NewString()
	}

	cardJSON, err := json.Marshal(result.CardOutcome)
	if err != nil {
		return fmt.Errorf("failed to marshal card outcome: %w", err)
	}
	expSysJSON, err := json.Marshal(result.ExpenseSystemOutcome)
	if err != nil {
		return fmt.Errorf("failed to marshal expense system outcome: %w", err)
	}
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal criteria summary: %w", err)
	}

	query := `
		INSERT INTO reconciliation_results (
			id, event_id, expense_id, expense_hash,
			amount, currency, expense_date, vendor, description, category,
			extraction_confidence, status, overall_confidence,
			card_outcome, expense_system_outcome, summary, reasoning
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id, expense_hash) DO UPDATE SET
			expense_id = excluded.expense_id,
			amount = excluded.amount,
			currency = excluded.currency,
			expense_date = excluded.expense_date,
			vendor = excluded.vendor,
			description = excluded.description,
			category = excluded.category,
			extraction_confidence = excluded.extraction_confidence,
			status = excluded.status,
			overall_confidence = excluded.overall_confidence,
			card_outcome = excluded.card_outcome,
			expense_system_outcome = excluded.expense_system_outcome,
			summary = excluded.summary,
			reasoning = excluded.reasoning
		RETURNING id`

	// The update branch keeps the existing row id, so read the persisted
	// id back rather than trusting the one generated above.
	err = s.db.QueryRowContext(ctx, query,
		result.ID,
		result.Expense.EventID,
		result.Expense.ID,
		result.Expense.Hash(),
		result.Expense.Amount.String(),
		result.Expense.Currency,
		result.Expense.Date,
		result.Expense.Vendor,
		result.Expense.Description,
		result.Expense.Category,
		result.Expense.ExtractionConfidence,
		string(result.Status),
		result.OverallConfidence,
		string(cardJSON),
		string(expSysJSON),
		string(summaryJSON),
		result.Reasoning,
	).Scan(&result.ID)
	if err != nil {
		return fmt.Errorf("failed to save reconciliation result: %w", err)
	}

	return nil
}

// GetResultsByEvent returns all stored results for an event, newest first.
func (s *SQLiteStorage) GetResultsByEvent(ctx context.Context, eventID string) ([]model.ReconciliationResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, event_id, expense_id, amount, currency, expense_date,
			vendor, description, category, extraction_confidence,
			status, overall_confidence,
			card_outcome, expense_system_outcome, summary, reasoning
		FROM reconciliation_results
		WHERE event_id = ?
		ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.ReconciliationResult
	for rows.Next() {
		result, scanErr := scanResult(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return results, nil
}

func scanResult(rows *sql.Rows) (model.ReconciliationResult, error) {
	var (
		result      model.ReconciliationResult
		amountStr   string
		expenseDate time.Time
		status      string
		cardJSON    string
		expSysJSON  string
		summaryJSON string
	)

	err := rows.Scan(
		&result.ID,
		&result.Expense.EventID,
		&result.Expense.ID,
		&amountStr,
		&result.Expense.Currency,
		&expenseDate,
		&result.Expense.Vendor,
		&result.Expense.Description,
		&result.Expense.Category,
		&result.Expense.ExtractionConfidence,
		&status,
		&result.OverallConfidence,
		&cardJSON,
		&expSysJSON,
		&summaryJSON,
		&result.Reasoning,
	)
	if err != nil {
		return result, fmt.Errorf("failed to scan result: %w", err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return result, fmt.Errorf("failed to parse stored amount %q: %w", amountStr, err)
	}
	result.Expense.Amount = amount
	result.Expense.Date = expenseDate.UTC()
	result.Status = model.MatchStatus(status)

	if err := json.Unmarshal([]byte(cardJSON), &result.CardOutcome); err != nil {
		return result, fmt.Errorf("failed to unmarshal card outcome: %w", err)
	}
	if err := json.Unmarshal([]byte(expSysJSON), &result.ExpenseSystemOutcome); err != nil {
		return result, fmt.Errorf("failed to unmarshal expense system outcome: %w", err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &result.Summary); err != nil {
		return result, fmt.Errorf("failed to unmarshal criteria summary: %w", err)
	}

	return result, nil
}

// GetEventSummary aggregates stored outcomes for one event.
func (s *SQLiteStorage) GetEventSummary(ctx context.Context, eventID string) (*service.EventSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT status, amount
		FROM reconciliation_results
		WHERE event_id = ?`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summary := &service.EventSummary{
		EventID:        eventID,
		ConfirmedTotal: decimal.Zero,
	}

	for rows.Next() {
		var status, amountStr string
		if err := rows.Scan(&status, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}

		summary.Total++
		switch model.MatchStatus(status) {
		case model.StatusConfirmed:
			summary.Confirmed++
			amount, parseErr := decimal.NewFromString(amountStr)
			if parseErr != nil {
				return nil, fmt.Errorf("failed to parse stored amount %q: %w", amountStr, parseErr)
			}
			summary.ConfirmedTotal = summary.ConfirmedTotal.Add(amount)
		case model.StatusPending:
			summary.Pending++
		default:
			summary.Rejected++
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summary rows: %w", err)
	}

	if summary.Total == 0 {
		return nil, fmt.Errorf("event %s: %w", eventID, common.ErrNotFound)
	}

	summary.MatchRate = float64(summary.Confirmed) / float64(summary.Total)

	return summary, nil
}

// GetConfirmedTotal returns the sum of confirmed expense amounts for an
// event. Events with no confirmed expenses total zero.
func (s *SQLiteStorage) GetConfirmedTotal(ctx context.Context, eventID string) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}

	query := `
		SELECT amount
		FROM reconciliation_results
		WHERE event_id = ? AND status = ?`

	rows, err := s.db.QueryContext(ctx, query, eventID, string(model.StatusConfirmed))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query confirmed amounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, parseErr := decimal.NewFromString(amountStr)
		if parseErr != nil {
			return decimal.Zero, fmt.Errorf("failed to parse stored amount %q: %w", amountStr, parseErr)
		}
		total = total.Add(amount)
	}

	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate amounts: %w", err)
	}

	return total, nil
}
