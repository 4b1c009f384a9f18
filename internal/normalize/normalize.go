// Package normalize converts raw feed records into the common shape the
// matching engine consumes. All functions are pure: a record either
// normalizes cleanly or fails with a MalformedRecordError, and the caller
// decides whether to skip it or abort the batch.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridianhq/eventrecon/internal/common"
	"github.com/meridianhq/eventrecon/internal/model"
)

// RawRecord is a feed record before normalization. Amounts and dates are
// kept as the source's strings so parsing failures can be reported
// per-field.
type RawRecord struct {
	Amount               string
	Currency             string
	Date                 string
	Vendor               string
	Description          string
	Category             string
	ExternalID           string
	EventID              string
	ExtractionConfidence float64 // expense records only, self-reported by the extractor
}

// Date layouts seen across the card feed, the expense system export, and
// extractor output.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"20060102",
}

// Expense normalizes an extracted expense candidate.
func Expense(raw RawRecord) (model.Expense, error) {
	amount, err := parseAmount(raw.Amount)
	if err != nil {
		return model.Expense{}, err
	}

	date, err := parseDate(raw.Date)
	if err != nil {
		return model.Expense{}, err
	}

	confidence := raw.ExtractionConfidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return model.Expense{
		ID:                   raw.ExternalID,
		EventID:              raw.EventID,
		Amount:               amount,
		Currency:             normalizeCurrency(raw.Currency),
		Date:                 date,
		Vendor:               strings.TrimSpace(raw.Vendor),
		Description:          strings.TrimSpace(raw.Description),
		Category:             strings.TrimSpace(raw.Category),
		ExtractionConfidence: confidence,
	}, nil
}

// Transaction normalizes a record from one of the two transaction feeds.
func Transaction(raw RawRecord, source model.SourceSystem) (model.Transaction, error) {
	amount, err := parseAmount(raw.Amount)
	if err != nil {
		return model.Transaction{}, err
	}

	date, err := parseDate(raw.Date)
	if err != nil {
		return model.Transaction{}, err
	}

	return model.Transaction{
		ExternalID:  strings.TrimSpace(raw.ExternalID),
		Source:      source,
		Amount:      amount,
		Currency:    normalizeCurrency(raw.Currency),
		Date:        date,
		Vendor:      strings.TrimSpace(raw.Vendor),
		Description: strings.TrimSpace(raw.Description),
	}, nil
}

// parseAmount coerces a source amount string to a decimal. Currency
// symbols and thousands separators are stripped; card feeds report debits
// as negative, so the sign is dropped.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	if cleaned == "" {
		return decimal.Decimal{}, common.NewMalformedRecordError("amount", s, fmt.Errorf("empty"))
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, common.NewMalformedRecordError("amount", s, err)
	}

	return amount.Abs(), nil
}

// parseDate parses a source date into a calendar date (midnight UTC).
func parseDate(s string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, common.NewMalformedRecordError("date", s, fmt.Errorf("empty"))
	}

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, cleaned)
		if err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, common.NewMalformedRecordError("date", s, fmt.Errorf("unrecognized date format"))
}

func normalizeCurrency(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
