package score

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// levenshteinNoiseFloor is the full-string similarity ratio below which
// two vendor strings are indistinguishable from unrelated merchants.
// Ratios between arbitrary English merchant names cluster around 0.2-0.3,
// so anything under the floor contributes nothing.
const levenshteinNoiseFloor = 0.3

// containmentScore is the minimum similarity granted when one normalized
// vendor string contains the other (abbreviations, truncated card feed
// descriptors).
const containmentScore = 0.9

// VendorSimilarity scores how likely two vendor strings name the same
// merchant, in [0, 1]. It combines full-string edit distance with token
// overlap and boosts containment toward 1.0.
func VendorSimilarity(a, b string) float64 {
	na := normalizeVendor(a)
	nb := normalizeVendor(b)

	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return containmentScore
	}

	sim := rescaledLevenshtein(na, nb)
	if tok := TokenOverlap(na, nb); tok > sim {
		sim = tok
	}
	return sim
}

// TokenOverlap is the overlap coefficient between the token sets of two
// strings: |intersection| / min(|a|, |b|). Zero when either side has no
// tokens.
func TokenOverlap(a, b string) float64 {
	ta := tokenSet(normalizeVendor(a))
	tb := tokenSet(normalizeVendor(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}

	minLen := len(ta)
	if len(tb) < minLen {
		minLen = len(tb)
	}
	return float64(shared) / float64(minLen)
}

// rescaledLevenshtein maps the raw similarity ratio onto [0, 1] above the
// noise floor.
func rescaledLevenshtein(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}

	ratio := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	if ratio <= levenshteinNoiseFloor {
		return 0
	}
	return (ratio - levenshteinNoiseFloor) / (1 - levenshteinNoiseFloor)
}

// normalizeVendor lowercases and strips punctuation so that formatting
// differences between feeds do not depress similarity.
func normalizeVendor(s string) string {
	var sb strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				sb.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func tokenSet(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		tokens[tok] = struct{}{}
	}
	return tokens
}
