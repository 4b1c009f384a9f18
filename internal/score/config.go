// Package score implements the deterministic candidate scoring policy:
// the per-criterion breakdown and weighted confidence the engine uses when
// the model-backed scorer is absent or unavailable.
package score

// Config holds the scoring policy constants. These are tuning knobs, not
// invariants; tests exercise multiple tolerance regimes by constructing
// scorers with different configs.
type Config struct {
	// AmountTolerance is the relative amount difference that still counts
	// as a perfect amount match. The amount score decays linearly to zero
	// at five times this tolerance.
	AmountTolerance float64

	// DateToleranceDays is the day difference at which the date score
	// reaches zero.
	DateToleranceDays int

	// VendorFloor guards against coincidental matches: when the vendor
	// similarity falls below it, the combined confidence is scaled down by
	// the vendor score so that an amount/date coincidence between
	// unrelated merchants cannot clear the acceptance floor.
	VendorFloor float64

	Weights Weights
}

// Weights are the criterion weights of the combined confidence. The
// description criterion is deliberately excluded from the weighted sum;
// it is reported for reasoning only.
type Weights struct {
	Amount   float64
	Date     float64
	Vendor   float64
	Currency float64
}

// DefaultConfig returns the production scoring policy.
func DefaultConfig() Config {
	return Config{
		AmountTolerance:   0.01,
		DateToleranceDays: 3,
		VendorFloor:       0.2,
		Weights: Weights{
			Amount:   0.4,
			Date:     0.3,
			Vendor:   0.2,
			Currency: 0.1,
		},
	}
}
