// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridianhq/eventrecon/internal/model"
)

// Storage defines the contract for the reconciliation result store.
type Storage interface {
	SaveResult(ctx context.Context, result *model.ReconciliationResult) error
	GetResultsByEvent(ctx context.Context, eventID string) ([]model.ReconciliationResult, error)
	GetEventSummary(ctx context.Context, eventID string) (*EventSummary, error)
	GetConfirmedTotal(ctx context.Context, eventID string) (decimal.Decimal, error)

	Migrate(ctx context.Context) error
	Close() error
}

// EventSummary aggregates reconciliation outcomes for one event.
type EventSummary struct {
	EventID        string
	Total          int
	Confirmed      int
	Pending        int
	Rejected       int
	MatchRate      float64
	ConfirmedTotal decimal.Decimal
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
