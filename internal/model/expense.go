// Package model defines the core domain values exchanged between the
// matching engine and its collaborators.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a normalized expense candidate produced by the
// document extraction collaborator. Amounts are decimal, dates are
// calendar dates (midnight UTC), currency codes are uppercase ISO 4217.
// Values are immutable once handed to the engine.
type Expense struct {
	Date                 time.Time
	ID                   string
	EventID              string
	Vendor               string
	Description          string
	Category             string // empty when the extractor reported none
	Currency             string
	Amount               decimal.Decimal
	ExtractionConfidence float64
}

// Hash returns a stable identity for deduplication and caching.
func (e *Expense) Hash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		e.Date.Format("2006-01-02"),
		e.Amount.String(),
		e.Vendor,
		e.Currency)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}
