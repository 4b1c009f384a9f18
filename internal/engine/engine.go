// Package engine implements the expense matching engine: per-system
// candidate selection, cross-system reconciliation, and the confidence
// decision policy. Each Match call is stateless and independent, so
// concurrent calls for different expenses need no coordination.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/meridianhq/eventrecon/internal/model"
	"github.com/meridianhq/eventrecon/internal/score"
)

// Engine matches one expense against the two transaction feeds and
// produces a reconciliation result. The primary scorer may consult an
// external collaborator; every failure along that path degrades to the
// deterministic scorer, so Match always returns a usable answer.
type Engine struct {
	primary    *Matcher // nil when no model-backed scorer is configured
	fallback   *Matcher
	reconciler *Reconciler
	logger     *slog.Logger
	cfg        Config
}

// New creates a matching engine. primary and analyst may be nil, in which
// case the deterministic path is used directly.
func New(cfg Config, scoring score.Config, primary CandidateScorer, analyst Analyst, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		fallback:   NewMatcher(score.NewHeuristicScorer(scoring), cfg, logger),
		reconciler: NewReconciler(analyst, cfg, logger),
		logger:     logger,
		cfg:        cfg,
	}
	if primary != nil {
		e.primary = NewMatcher(primary, cfg, logger)
	}
	return e
}

// Match reconciles one expense against the candidate pools of both
// feeds. The two pools are matched concurrently; the outcome order in
// the result is fixed, so output is deterministic for fixed inputs and a
// deterministic scorer.
func (e *Engine) Match(ctx context.Context, expense model.Expense, cardCandidates, expenseSystemCandidates []model.Transaction) model.ReconciliationResult {
	var card, expenseSystem model.MatchOutcome

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		card = e.matchFeed(ctx, expense, cardCandidates, model.SourceCardFeed)
	}()
	go func() {
		defer wg.Done()
		expenseSystem = e.matchFeed(ctx, expense, expenseSystemCandidates, model.SourceExpenseSystem)
	}()
	wg.Wait()

	analysis := e.reconciler.Reconcile(ctx, expense, card, expenseSystem)
	status := ClassifyConfidence(analysis.Confidence, e.cfg)

	e.logger.Info("expense reconciled",
		"expense", expense.ID,
		"vendor", expense.Vendor,
		"card_match", card.Matched(),
		"expense_system_match", expenseSystem.Matched(),
		"overall_confidence", analysis.Confidence,
		"status", string(status))

	return model.ReconciliationResult{
		Expense:              expense,
		CardOutcome:          card,
		ExpenseSystemOutcome: expenseSystem,
		Summary:              analysis.Summary,
		Reasoning:            analysis.Reasoning,
		OverallConfidence:    analysis.Confidence,
		Status:               status,
	}
}

// matchFeed runs the per-system matcher with the primary scorer and
// falls back to the deterministic scorer when the primary is unavailable.
// The fallback cannot fail, so a feed always yields an outcome.
func (e *Engine) matchFeed(ctx context.Context, expense model.Expense, candidates []model.Transaction, source model.SourceSystem) model.MatchOutcome {
	if e.primary != nil {
		outcome, err := e.primary.BestMatch(ctx, expense, candidates)
		if err == nil {
			return outcome
		}
		e.logger.Warn("primary scorer unavailable, using deterministic fallback",
			"expense", expense.ID,
			"source", string(source),
			"error", err)
	}

	outcome, err := e.fallback.BestMatch(ctx, expense, candidates)
	if err != nil {
		// The deterministic scorer has no failure modes; guard anyway so
		// a feed never aborts the pipeline.
		e.logger.Error("fallback matching failed",
			"expense", expense.ID,
			"source", string(source),
			"error", err)
		return noMatch("fallback matching failed")
	}
	return outcome
}
