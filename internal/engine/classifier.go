package engine

import "github.com/meridianhq/eventrecon/internal/model"

// ClassifyConfidence maps an overall confidence to a match status. Pure
// function; boundary values belong to the lower-inclusive branch, so the
// confirm threshold itself is CONFIRMED and the review threshold itself
// is PENDING.
func ClassifyConfidence(confidence float64, cfg Config) model.MatchStatus {
	switch {
	case confidence >= cfg.ConfirmThreshold:
		return model.StatusConfirmed
	case confidence >= cfg.ReviewThreshold:
		return model.StatusPending
	default:
		return model.StatusRejected
	}
}
