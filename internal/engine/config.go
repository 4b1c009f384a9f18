package engine

// Config holds the matching and decision policy constants. The thresholds
// are business policy calibrated against the reconciler's boost/penalty
// behavior; they are isolated here so tests can assert exact boundary
// behavior and tuning never touches matching logic.
type Config struct {
	// AcceptanceFloor gates whether a best candidate is worth reporting at
	// all. It is deliberately lower than ReviewThreshold: it asks "is this
	// a candidate", not "is this trustworthy".
	AcceptanceFloor float64

	// AgreementBoost multiplies the averaged confidence when both systems
	// matched. The combined value is capped at 1.0.
	AgreementBoost float64

	// IsolationPenalty multiplies the confidence of a single-system match.
	IsolationPenalty float64

	// ConfirmThreshold and above is CONFIRMED; ReviewThreshold and above
	// is PENDING; anything lower is REJECTED. Boundaries are inclusive.
	ConfirmThreshold float64
	ReviewThreshold  float64
}

// DefaultConfig returns the production matching policy.
func DefaultConfig() Config {
	return Config{
		AcceptanceFloor:  0.3,
		AgreementBoost:   1.2,
		IsolationPenalty: 0.8,
		ConfirmThreshold: 0.8,
		ReviewThreshold:  0.6,
	}
}
