package score

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridianhq/eventrecon/internal/model"
)

// amountDecayFactor bounds the linear decay of the amount score: a
// perfect score inside the tolerance, zero at decayFactor times the
// tolerance.
const amountDecayFactor = 5

// HeuristicScorer scores candidates with deterministic arithmetic only.
// It is the engine's fallback whenever the model-backed scorer is
// unavailable, and a complete scorer in its own right. It never fails:
// degenerate input produces a zero-confidence judgment, not an error.
type HeuristicScorer struct {
	cfg Config
}

// NewHeuristicScorer creates a deterministic scorer with the given policy.
func NewHeuristicScorer(cfg Config) *HeuristicScorer {
	return &HeuristicScorer{cfg: cfg}
}

// ScoreCandidate computes the per-criterion breakdown and the weighted
// confidence for one expense/transaction pair. The error return exists
// only to satisfy the scorer contract; it is always nil.
func (s *HeuristicScorer) ScoreCandidate(_ context.Context, expense model.Expense, tx model.Transaction) (model.CandidateScore, error) {
	criteria := model.CriteriaScores{
		AmountMatch:      s.amountScore(expense.Amount, tx.Amount),
		DateMatch:        s.dateScore(expense.Date, tx.Date),
		VendorMatch:      VendorSimilarity(expense.Vendor, tx.Vendor),
		CurrencyMatch:    currencyScore(expense.Currency, tx.Currency),
		DescriptionMatch: TokenOverlap(expense.Description, tx.Description),
	}

	w := s.cfg.Weights
	confidence := w.Amount*criteria.AmountMatch +
		w.Date*criteria.DateMatch +
		w.Vendor*criteria.VendorMatch +
		w.Currency*criteria.CurrencyMatch

	// An amount/date coincidence between unrelated merchants must not
	// look like a match.
	if criteria.VendorMatch < s.cfg.VendorFloor && expense.Vendor != "" && tx.Vendor != "" {
		confidence *= criteria.VendorMatch
	}

	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return model.CandidateScore{
		Criteria:   criteria,
		Confidence: confidence,
		Reasoning: fmt.Sprintf(
			"heuristic scoring: amount %.2f, date %.2f, vendor %.2f, currency %.2f",
			criteria.AmountMatch, criteria.DateMatch, criteria.VendorMatch, criteria.CurrencyMatch),
	}, nil
}

// amountScore is 1.0 when the difference is within the relative
// tolerance, then decays linearly to zero at amountDecayFactor times the
// tolerance. A zero expense amount only matches exactly.
func (s *HeuristicScorer) amountScore(expense, tx decimal.Decimal) float64 {
	diff := expense.Sub(tx).Abs()
	tolerance := expense.Abs().Mul(decimal.NewFromFloat(s.cfg.AmountTolerance))

	if tolerance.IsZero() {
		if diff.IsZero() {
			return 1
		}
		return 0
	}
	if diff.LessThanOrEqual(tolerance) {
		return 1
	}

	limit := tolerance.Mul(decimal.NewFromInt(amountDecayFactor))
	if diff.GreaterThanOrEqual(limit) {
		return 0
	}

	num, _ := limit.Sub(diff).Float64()
	den, _ := limit.Sub(tolerance).Float64()
	return num / den
}

// dateScore is 1.0 at zero day difference and decays linearly to zero at
// the configured tolerance.
func (s *HeuristicScorer) dateScore(a, b time.Time) float64 {
	days := daysApart(a, b)
	if s.cfg.DateToleranceDays <= 0 || days >= s.cfg.DateToleranceDays {
		return 0
	}
	return 1 - float64(days)/float64(s.cfg.DateToleranceDays)
}

// currencyScore grants no partial credit.
func currencyScore(a, b string) float64 {
	if a != "" && a == b {
		return 1
	}
	return 0
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
