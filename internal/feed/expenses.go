package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/meridianhq/eventrecon/internal/normalize"
)

// extractedExpense mirrors the JSON shape the document extraction
// collaborator emits per expense candidate.
type extractedExpense struct {
	ID          string      `json:"id"`
	EventID     string      `json:"event_id"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Date        string      `json:"expense_date"`
	Vendor      string      `json:"vendor_name"`
	Description string      `json:"description"`
	Category    string      `json:"expense_type"`
	Confidence  float64     `json:"confidence_score"`
}

// ExpenseReader parses the extraction collaborator's JSON output into
// raw expense records.
type ExpenseReader struct{}

// NewExpenseReader creates an extracted-expenses reader.
func NewExpenseReader() *ExpenseReader {
	return &ExpenseReader{}
}

// Read decodes a JSON array of extracted expense candidates.
func (r *ExpenseReader) Read(_ context.Context, reader io.Reader) ([]normalize.RawRecord, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read expenses file: %w", err)
	}

	var expenses []extractedExpense
	if err := json.Unmarshal(data, &expenses); err != nil {
		return nil, fmt.Errorf("failed to parse expenses file: %w", err)
	}

	records := make([]normalize.RawRecord, 0, len(expenses))
	for _, e := range expenses {
		records = append(records, normalize.RawRecord{
			ExternalID:           e.ID,
			EventID:              e.EventID,
			Amount:               e.Amount.String(),
			Currency:             e.Currency,
			Date:                 e.Date,
			Vendor:               e.Vendor,
			Description:          e.Description,
			Category:             e.Category,
			ExtractionConfidence: e.Confidence,
		})
	}

	return records, nil
}
