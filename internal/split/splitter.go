// Package split apportions a reconciled event total among participants.
// Shares are computed in whole cents and always sum exactly to the
// total; leftover cents are distributed deterministically.
package split

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Method selects how the total is apportioned.
type Method string

// Supported apportionment methods.
const (
	MethodEqual    Method = "equal"
	MethodWeighted Method = "weighted"
)

// Participant is someone who shares in the event cost.
type Participant struct {
	ID     string
	Name   string
	Email  string
	Weight float64 // used by MethodWeighted only
}

// Share is one participant's portion of the total.
type Share struct {
	Participant Participant
	Amount      decimal.Decimal
	Portion     float64 // fraction of the total, in [0, 1]
}

// Result is a complete apportionment of one event's confirmed total.
type Result struct {
	EventID string
	Method  Method
	Total   decimal.Decimal
	Shares  []Share
}

// Apportion splits total among participants. The total is rounded to
// cents first; shares preserve the participants' input order.
func Apportion(eventID string, total decimal.Decimal, participants []Participant, method Method) (Result, error) {
	if len(participants) == 0 {
		return Result{}, fmt.Errorf("no participants to split among")
	}
	if total.IsNegative() {
		return Result{}, fmt.Errorf("cannot split a negative total %s", total.String())
	}

	total = total.Round(2)
	totalCents := total.Shift(2).IntPart()

	var cents []int64
	var err error

	switch method {
	case MethodEqual, "":
		cents = equalCents(totalCents, len(participants))
	case MethodWeighted:
		cents, err = weightedCents(totalCents, participants)
		if err != nil {
			return Result{}, err
		}
	default:
		return Result{}, fmt.Errorf("unknown splitting method %q", method)
	}

	shares := make([]Share, len(participants))
	for i, p := range participants {
		portion := 0.0
		if totalCents > 0 {
			portion = float64(cents[i]) / float64(totalCents)
		}
		shares[i] = Share{
			Participant: p,
			Amount:      decimal.New(cents[i], -2),
			Portion:     portion,
		}
	}

	if method == "" {
		method = MethodEqual
	}

	return Result{
		EventID: eventID,
		Method:  method,
		Total:   total,
		Shares:  shares,
	}, nil
}

// equalCents divides totalCents evenly; the first totalCents%n
// participants absorb the leftover cents.
func equalCents(totalCents int64, n int) []int64 {
	base := totalCents / int64(n)
	remainder := totalCents % int64(n)

	cents := make([]int64, n)
	for i := range cents {
		cents[i] = base
		if int64(i) < remainder {
			cents[i]++
		}
	}
	return cents
}

// weightedCents allocates proportionally to participant weights using the
// largest-remainder method, so rounding never creates or destroys cents.
func weightedCents(totalCents int64, participants []Participant) ([]int64, error) {
	var totalWeight float64
	for _, p := range participants {
		if p.Weight < 0 {
			return nil, fmt.Errorf("participant %s has negative weight %.2f", p.ID, p.Weight)
		}
		totalWeight += p.Weight
	}
	if totalWeight <= 0 {
		return nil, fmt.Errorf("total participant weight must be positive")
	}

	type allocation struct {
		index    int
		fraction float64
	}

	cents := make([]int64, len(participants))
	remainders := make([]allocation, len(participants))
	var allocated int64

	for i, p := range participants {
		exact := float64(totalCents) * p.Weight / totalWeight
		floor := int64(exact)
		cents[i] = floor
		allocated += floor
		remainders[i] = allocation{index: i, fraction: exact - float64(floor)}
	}

	// Hand leftover cents to the largest fractional remainders; ties go
	// to the earlier participant for determinism.
	sort.SliceStable(remainders, func(a, b int) bool {
		return remainders[a].fraction > remainders[b].fraction
	})
	leftover := totalCents - allocated
	for i := int64(0); i < leftover; i++ {
		cents[remainders[i].index]++
	}

	return cents, nil
}
