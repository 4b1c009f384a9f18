package model

// CriteriaScores is the per-criterion breakdown a scorer produces for one
// expense/transaction pair. All values are in [0, 1].
type CriteriaScores struct {
	AmountMatch      float64
	DateMatch        float64
	VendorMatch      float64
	CurrencyMatch    float64
	DescriptionMatch float64
}

// CandidateScore is one scorer judgment for an expense/transaction pair.
type CandidateScore struct {
	Reasoning  string
	Criteria   CriteriaScores
	Confidence float64
}

// MatchOutcome is the result of matching one expense against a single
// source system. A nil Transaction means no acceptable candidate was
// found, in which case Confidence is always 0.
type MatchOutcome struct {
	Transaction *Transaction
	Criteria    *CriteriaScores
	Reasoning   string
	Confidence  float64
}

// Matched reports whether this system produced an acceptable candidate.
func (o *MatchOutcome) Matched() bool {
	return o.Transaction != nil
}

// CriteriaSummary records the decision-relevant facts of a cross-system
// reconciliation.
type CriteriaSummary struct {
	HasCardMatch            bool
	HasExpenseSystemMatch   bool
	CardConfidence          float64
	ExpenseSystemConfidence float64
	CrossSystemConsistency  float64
	OverallQuality          float64
}

// OverallAnalysis is the cross-system judgment for one expense: the
// combined confidence, the criteria summary, and a reasoning narrative.
type OverallAnalysis struct {
	Reasoning  string
	Summary    CriteriaSummary
	Confidence float64
}

// MatchStatus is the engine's decision for one expense.
type MatchStatus string

// Match statuses, ordered from worst to best.
const (
	StatusRejected  MatchStatus = "REJECTED"
	StatusPending   MatchStatus = "PENDING"
	StatusConfirmed MatchStatus = "CONFIRMED"
)

// Rank orders statuses so that a higher confidence never maps to a lower
// status: REJECTED < PENDING < CONFIRMED.
func (s MatchStatus) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusConfirmed:
		return 2
	default:
		return 0
	}
}

// ReconciliationResult is the engine's complete answer for one expense.
type ReconciliationResult struct {
	ID                   string
	Expense              Expense
	CardOutcome          MatchOutcome
	ExpenseSystemOutcome MatchOutcome
	Summary              CriteriaSummary
	Reasoning            string
	OverallConfidence    float64
	Status               MatchStatus
}
