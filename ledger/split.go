package ledger

import (
	"fmt"
	"math"

	"fairshare-backend/money"

	"github.com/google/uuid"
)

// SplitType selects the rule for dividing an expense total among its
// participants.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitPercentage SplitType = "percentage"
	SplitExact      SplitType = "exact"
	SplitShares     SplitType = "shares"
)

// ParseSplitType validates a wire-format split type string.
func ParseSplitType(s string) (SplitType, error) {
	switch SplitType(s) {
	case SplitEqual, SplitPercentage, SplitExact, SplitShares:
		return SplitType(s), nil
	}
	return "", validationErrorf("unknown split type %q", s)
}

// BasisPoints converts a percentage from a request body (e.g. 33.33) to
// integer basis points (3333). Boundary conversion only.
func BasisPoints(percent float64) int64 {
	return int64(math.Round(percent * 100))
}

// ReuseSplitInputs vets stored split inputs for a recompute under the
// requested type. Stored values are denominated in their own type's units
// (basis points, minor units, share counts), so they only carry over when the
// type is unchanged; a type change needs a fresh participant list.
func ReuseSplitInputs(stored []SplitInput, storedType, requested SplitType) ([]SplitInput, error) {
	if storedType != requested {
		return nil, validationErrorf("cannot reuse %s split values for a %s split, provide new splits", storedType, requested)
	}
	return stored, nil
}

// totalBasisPoints is 100% expressed in basis points.
const totalBasisPoints = 10000

// percentTolerance is how far the basis-point sum may drift from 100%
// (one basis point == 0.01 percentage points).
const percentTolerance = 1

// Strategy computes the owed amounts for one split type. The set of
// strategies is closed: the unexported method keeps implementations inside
// this package, so a switch over StrategyFor covers every case.
type Strategy interface {
	Type() SplitType

	// validate rejects a malformed configuration before anything is computed.
	validate(total money.Money, parts []SplitInput) error

	// owedMinor returns each participant's owed amount in minor units, in
	// input order, summing exactly to the total. Called only after validate.
	owedMinor(total money.Money, parts []SplitInput) []int64
}

// StrategyFor returns the strategy for the given split type.
func StrategyFor(st SplitType) (Strategy, error) {
	switch st {
	case SplitEqual:
		return EqualSplit{}, nil
	case SplitPercentage:
		return PercentageSplit{}, nil
	case SplitExact:
		return ExactSplit{}, nil
	case SplitShares:
		return SharesSplit{}, nil
	}
	return nil, validationErrorf("unknown split type %q", st)
}

// ComputeSplit divides an expense total among its participants according to
// the split type, attributes paid amounts from paidBy, and returns one
// Participant per input, in input order.
//
// Guarantees on success: the owed amounts sum exactly to the total, every
// owed amount is >= 0, and the result is deterministic including remainder
// placement. On any validation failure no partial result is returned.
func ComputeSplit(total money.Money, parts []SplitInput, st SplitType, paidBy []Payment) ([]Participant, error) {
	strat, err := StrategyFor(st)
	if err != nil {
		return nil, err
	}

	if len(parts) == 0 {
		return nil, validationErrorf("expense has no participants")
	}
	if !total.IsPositive() {
		return nil, validationErrorf("total amount must be positive, got %s", total)
	}

	seen := make(map[uuid.UUID]bool, len(parts))
	for _, p := range parts {
		if p.UserID == uuid.Nil {
			return nil, validationErrorf("participant has no user id")
		}
		if seen[p.UserID] {
			return nil, validationErrorf("duplicate participant %s", p.UserID)
		}
		seen[p.UserID] = true
	}

	paid := make(map[uuid.UUID]int64, len(paidBy))
	for _, pay := range paidBy {
		if pay.Amount.Currency() != total.Currency() {
			return nil, fmt.Errorf("payment by %s: %w: %s and %s",
				pay.UserID, money.ErrCurrencyMismatch, pay.Amount.Currency(), total.Currency())
		}
		if pay.Amount.IsNegative() {
			return nil, validationErrorf("payment by %s is negative", pay.UserID)
		}
		paid[pay.UserID] += pay.Amount.Minor()
	}

	if err := strat.validate(total, parts); err != nil {
		return nil, err
	}
	owed := strat.owedMinor(total, parts)

	cur := total.Currency()
	result := make([]Participant, len(parts))
	for i, p := range parts {
		owedM := money.MustMinor(owed[i], cur)
		paidM := money.MustMinor(paid[p.UserID], cur)
		result[i] = Participant{
			UserID:     p.UserID,
			SplitValue: p.Value,
			OwedAmount: owedM,
			PaidAmount: paidM,
			NetAmount:  money.MustMinor(paidM.Minor()-owedM.Minor(), cur),
		}
	}
	return result, nil
}

// EqualSplit divides the total evenly. The remainder of the integer division
// (always < n minor units) goes one unit at a time to the first participants
// in list order.
type EqualSplit struct{}

func (EqualSplit) Type() SplitType { return SplitEqual }

func (EqualSplit) validate(total money.Money, parts []SplitInput) error {
	return nil
}

func (EqualSplit) owedMinor(total money.Money, parts []SplitInput) []int64 {
	n := int64(len(parts))
	quotient := total.Minor() / n
	remainder := total.Minor() % n

	owed := make([]int64, len(parts))
	for i := range parts {
		owed[i] = quotient
		if int64(i) < remainder {
			owed[i]++
		}
	}
	return owed
}

// PercentageSplit divides the total by per-participant percentages carried
// as basis points. The percentages must sum to 100% within 0.01.
type PercentageSplit struct{}

func (PercentageSplit) Type() SplitType { return SplitPercentage }

func (PercentageSplit) validate(total money.Money, parts []SplitInput) error {
	var sum int64
	for _, p := range parts {
		if p.Value < 0 || p.Value > totalBasisPoints {
			return validationErrorf("percentage for %s out of range: %d.%02d%%", p.UserID, p.Value/100, abs64(p.Value%100))
		}
		sum += p.Value
	}
	if sum < totalBasisPoints-percentTolerance || sum > totalBasisPoints+percentTolerance {
		return validationErrorf("percentages must sum to 100, got %d.%02d", sum/100, abs64(sum%100))
	}
	return nil
}

func (PercentageSplit) owedMinor(total money.Money, parts []SplitInput) []int64 {
	n := len(parts)
	owed := make([]int64, n)
	var sum int64
	for i, p := range parts {
		// round half up; both factors are non-negative here
		owed[i] = (total.Minor()*p.Value + totalBasisPoints/2) / totalBasisPoints
		sum += owed[i]
	}

	// Force the rounded sum back to the exact total against the final
	// participants in list order, one minor unit at a time. Entries that
	// would go negative are passed over.
	diff := total.Minor() - sum
	step := int64(1)
	if diff < 0 {
		step = -1
	}
	for i := n - 1; diff != 0; i = (i - 1 + n) % n {
		if owed[i]+step < 0 {
			continue
		}
		owed[i] += step
		diff -= step
	}
	return owed
}

// ExactSplit takes each participant's owed amount verbatim, in minor units.
// The amounts must sum exactly to the total.
type ExactSplit struct{}

func (ExactSplit) Type() SplitType { return SplitExact }

func (ExactSplit) validate(total money.Money, parts []SplitInput) error {
	var sum int64
	for _, p := range parts {
		if p.Value < 0 {
			return validationErrorf("exact amount for %s is negative", p.UserID)
		}
		sum += p.Value
	}
	if sum != total.Minor() {
		return validationErrorf("exact amounts sum to %d, expense total is %d", sum, total.Minor())
	}
	return nil
}

func (ExactSplit) owedMinor(total money.Money, parts []SplitInput) []int64 {
	owed := make([]int64, len(parts))
	for i, p := range parts {
		owed[i] = p.Value
	}
	return owed
}

// SharesSplit divides the total proportionally to positive integer share
// counts, with the floor-division remainder distributed like an equal split:
// one minor unit each to the first participants in list order.
type SharesSplit struct{}

func (SharesSplit) Type() SplitType { return SplitShares }

func (SharesSplit) validate(total money.Money, parts []SplitInput) error {
	for _, p := range parts {
		if p.Value <= 0 {
			return validationErrorf("share count for %s must be a positive integer, got %d", p.UserID, p.Value)
		}
	}
	return nil
}

func (SharesSplit) owedMinor(total money.Money, parts []SplitInput) []int64 {
	var totalShares int64
	for _, p := range parts {
		totalShares += p.Value
	}

	owed := make([]int64, len(parts))
	var sum int64
	for i, p := range parts {
		owed[i] = total.Minor() * p.Value / totalShares
		sum += owed[i]
	}

	// The floor deficit is < len(parts) minor units.
	remainder := total.Minor() - sum
	for i := int64(0); i < remainder; i++ {
		owed[i]++
	}
	return owed
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
