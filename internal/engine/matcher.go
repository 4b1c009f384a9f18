package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridianhq/eventrecon/internal/model"
)

// Matcher selects the single best candidate for an expense from one
// source system's pool.
type Matcher struct {
	scorer CandidateScorer
	logger *slog.Logger
	cfg    Config
}

// NewMatcher creates a per-system matcher backed by the given scorer.
func NewMatcher(scorer CandidateScorer, cfg Config, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{scorer: scorer, cfg: cfg, logger: logger}
}

// BestMatch scores every candidate and returns the best one, or a
// no-match outcome when the pool is empty or nothing clears the
// acceptance floor. An error is returned only when the scorer itself is
// unavailable, in which case the caller switches to the fallback scorer.
func (m *Matcher) BestMatch(ctx context.Context, expense model.Expense, candidates []model.Transaction) (model.MatchOutcome, error) {
	if len(candidates) == 0 {
		return noMatch("no candidates in feed"), nil
	}

	var best *model.Transaction
	var bestScore model.CandidateScore

	for i := range candidates {
		tx := &candidates[i]

		score, err := m.scorer.ScoreCandidate(ctx, expense, *tx)
		if err != nil {
			return model.MatchOutcome{}, fmt.Errorf("scoring candidate %s: %w", tx.ExternalID, err)
		}

		if best == nil || beats(tx, score.Confidence, best, bestScore.Confidence) {
			best = tx
			bestScore = score
		}
	}

	if bestScore.Confidence < m.cfg.AcceptanceFloor {
		m.logger.Debug("best candidate below acceptance floor",
			"source", string(best.Source),
			"candidate", best.ExternalID,
			"confidence", bestScore.Confidence,
			"floor", m.cfg.AcceptanceFloor)
		return noMatch(fmt.Sprintf("best candidate %s scored %.2f, below acceptance floor %.2f",
			best.ExternalID, bestScore.Confidence, m.cfg.AcceptanceFloor)), nil
	}

	criteria := bestScore.Criteria
	return model.MatchOutcome{
		Transaction: best,
		Confidence:  bestScore.Confidence,
		Criteria:    &criteria,
		Reasoning:   bestScore.Reasoning,
	}, nil
}

// beats reports whether the challenger should replace the incumbent.
// Strictly higher confidence wins; exact ties are broken by earliest
// transaction date, then lexicographically smallest external id, so
// repeated runs over the same pool are deterministic regardless of input
// order.
func beats(challenger *model.Transaction, challengerConf float64, incumbent *model.Transaction, incumbentConf float64) bool {
	if challengerConf != incumbentConf {
		return challengerConf > incumbentConf
	}
	if !challenger.Date.Equal(incumbent.Date) {
		return challenger.Date.Before(incumbent.Date)
	}
	return challenger.ExternalID < incumbent.ExternalID
}

func noMatch(reason string) model.MatchOutcome {
	return model.MatchOutcome{
		Transaction: nil,
		Confidence:  0,
		Reasoning:   reason,
	}
}
