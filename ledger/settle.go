package ledger

import (
	"fmt"
	"sort"

	"fairshare-backend/money"

	"github.com/google/uuid"
)

// Suggestion is a proposed transfer that would reduce outstanding balances.
// It is derived data, regenerated whenever balances change; recording an
// actual payment is the Settlement model's job, not this package's.
type Suggestion struct {
	FromUserID uuid.UUID   `json:"from_user_id"`
	ToUserID   uuid.UUID   `json:"to_user_id"`
	Amount     money.Money `json:"amount"`
}

// SuggestSettlements reduces a map of net balances to a short list of
// peer-to-peer transfers that zeroes every balance.
//
// Greedy matching: the largest remaining debtor pays the largest remaining
// creditor as much as possible, both lists re-sorted between rounds, ties
// broken by ascending user id so the output is deterministic. The result is
// near-minimal (at most creditors+debtors-1 transfers), not the NP-hard
// optimum.
//
// All non-zero balances must share one currency; otherwise
// money.ErrCurrencyMismatch is returned.
func SuggestSettlements(balances map[uuid.UUID]money.Money) ([]Suggestion, error) {
	type party struct {
		id     uuid.UUID
		amount int64 // always positive
	}

	var cur money.Code
	var creditors, debtors []party
	for id, b := range balances {
		if b.IsZero() {
			continue
		}
		if cur == "" {
			cur = b.Currency()
		} else if b.Currency() != cur {
			return nil, fmt.Errorf("%w: %s and %s", money.ErrCurrencyMismatch, cur, b.Currency())
		}
		if b.IsPositive() {
			creditors = append(creditors, party{id: id, amount: b.Minor()})
		} else {
			debtors = append(debtors, party{id: id, amount: -b.Minor()})
		}
	}

	byAmountDesc := func(s []party) {
		sort.Slice(s, func(i, j int) bool {
			if s[i].amount != s[j].amount {
				return s[i].amount > s[j].amount
			}
			return s[i].id.String() < s[j].id.String()
		})
	}

	var suggestions []Suggestion
	for len(debtors) > 0 && len(creditors) > 0 {
		byAmountDesc(debtors)
		byAmountDesc(creditors)

		debtor := &debtors[0]
		creditor := &creditors[0]

		amount := debtor.amount
		if creditor.amount < amount {
			amount = creditor.amount
		}

		suggestions = append(suggestions, Suggestion{
			FromUserID: debtor.id,
			ToUserID:   creditor.id,
			Amount:     money.MustMinor(amount, cur),
		})

		debtor.amount -= amount
		creditor.amount -= amount
		if debtor.amount == 0 {
			debtors = debtors[1:]
		}
		if creditor.amount == 0 {
			creditors = creditors[1:]
		}
	}

	return suggestions, nil
}
