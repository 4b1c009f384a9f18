package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SourceSystem identifies which feed a transaction came from.
type SourceSystem string

// The two independent transaction feeds the engine reconciles against.
const (
	SourceCardFeed      SourceSystem = "CARD_FEED"
	SourceExpenseSystem SourceSystem = "EXPENSE_SYSTEM"
)

// Transaction represents a normalized transaction record from one of the
// two source feeds.
type Transaction struct {
	Date        time.Time
	ExternalID  string
	Vendor      string
	Description string
	Currency    string
	Source      SourceSystem
	Amount      decimal.Decimal
}

// Hash returns a stable identity for caching scorer judgments.
func (t *Transaction) Hash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		string(t.Source),
		t.ExternalID,
		t.Date.Format("2006-01-02"),
		t.Amount.String(),
		t.Vendor)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}
