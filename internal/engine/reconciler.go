package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridianhq/eventrecon/internal/model"
)

// Consistency defaults for the deterministic combination when the
// analyst's richer judgment is unavailable.
const singleSystemConsistency = 0.5

// Reconciler combines the two per-system outcomes into one overall
// confidence and criteria summary. The combination deliberately rewards
// corroboration and penalizes single-source matches; the decision
// thresholds are calibrated against exactly this shape.
type Reconciler struct {
	analyst Analyst // optional; nil means deterministic only
	logger  *slog.Logger
	cfg     Config
}

// NewReconciler creates a cross-system reconciler. analyst may be nil.
func NewReconciler(analyst Analyst, cfg Config, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{analyst: analyst, cfg: cfg, logger: logger}
}

// Reconcile produces the overall analysis for one expense. When the
// analyst is present its judgment is used; any analyst failure degrades
// to the deterministic combination. This path never fails.
func (r *Reconciler) Reconcile(ctx context.Context, expense model.Expense, card, expenseSystem model.MatchOutcome) model.OverallAnalysis {
	if r.analyst != nil {
		analysis, err := r.analyst.AnalyzeReconciliation(ctx, expense, card, expenseSystem)
		if err == nil {
			analysis.Confidence = clamp01(analysis.Confidence)
			return analysis
		}
		r.logger.Warn("overall analysis unavailable, using deterministic combination",
			"expense", expense.ID,
			"error", err)
	}

	return r.Combine(card, expenseSystem)
}

// Combine is the deterministic combination rule: averaged confidence
// times the agreement boost (capped at 1.0) when both systems matched,
// the single confidence times the isolation penalty when one did, zero
// when neither did.
func (r *Reconciler) Combine(card, expenseSystem model.MatchOutcome) model.OverallAnalysis {
	hasCard := card.Matched()
	hasExpenseSystem := expenseSystem.Matched()

	var overall, consistency float64
	var reasoning string

	switch {
	case hasCard && hasExpenseSystem:
		overall = (card.Confidence + expenseSystem.Confidence) / 2 * r.cfg.AgreementBoost
		consistency = 1 - abs(card.Confidence-expenseSystem.Confidence)
		if consistency < 0 {
			consistency = 0
		}
		reasoning = fmt.Sprintf(
			"both systems matched (card %.2f, expense system %.2f); averaged confidence boosted by %.1fx for cross-system agreement",
			card.Confidence, expenseSystem.Confidence, r.cfg.AgreementBoost)
	case hasCard || hasExpenseSystem:
		single := card.Confidence
		source := "card feed"
		if hasExpenseSystem {
			single = expenseSystem.Confidence
			source = "expense system"
		}
		overall = single * r.cfg.IsolationPenalty
		consistency = singleSystemConsistency
		reasoning = fmt.Sprintf(
			"only the %s matched (%.2f); confidence reduced by %.1fx for the missing corroboration",
			source, single, r.cfg.IsolationPenalty)
	default:
		overall = 0
		consistency = 0
		reasoning = "no acceptable candidate in either system"
	}

	overall = clamp01(overall)

	return model.OverallAnalysis{
		Confidence: overall,
		Reasoning:  reasoning,
		Summary: model.CriteriaSummary{
			HasCardMatch:            hasCard,
			HasExpenseSystemMatch:   hasExpenseSystem,
			CardConfidence:          card.Confidence,
			ExpenseSystemConfidence: expenseSystem.Confidence,
			CrossSystemConsistency:  consistency,
			OverallQuality:          overall,
		},
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
