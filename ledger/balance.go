package ledger

import (
	"fmt"
	"sort"

	"fairshare-backend/money"

	"github.com/google/uuid"
)

// CalculateBalance aggregates one user's position across every expense they
// participate in, restricted to a single currency. Expenses in other
// currencies are ignored for this summary rather than converted; callers
// wanting another currency's view call again with that currency. Settled
// expenses contribute nothing. An unknown currency code is a validation
// error, never a panic.
func CalculateBalance(userID uuid.UUID, expenses []Expense, currency money.Code) (DebtSummary, error) {
	if !currency.IsValid() {
		return DebtSummary{}, validationErrorf("unknown currency code %q", currency)
	}

	var owed, owing int64
	count := 0

	for i := range expenses {
		e := &expenses[i]
		if e.Settled || e.Total.Currency() != currency {
			continue
		}
		p, ok := findParticipant(e, userID)
		if !ok {
			continue
		}
		net := p.NetAmount.Minor()
		if net > 0 {
			owed += net
		} else {
			owing += -net
		}
		count++
	}

	return DebtSummary{
		UserID:       userID,
		TotalOwed:    money.MustMinor(owed, currency),
		TotalOwing:   money.MustMinor(owing, currency),
		Net:          money.MustMinor(owed-owing, currency),
		ExpenseCount: count,
		Currency:     currency,
	}, nil
}

// CalculateGroupBalance nets every member's position inside one group,
// considering only that group's expenses. A member's group balance is
// independent of anything they owe outside the group. Returns an error if
// the group's expenses span more than one currency.
func CalculateGroupBalance(groupID uuid.UUID, expenses []Expense) (map[uuid.UUID]money.Money, error) {
	var cur money.Code
	net := make(map[uuid.UUID]int64)

	for i := range expenses {
		e := &expenses[i]
		if e.GroupID != groupID || e.Settled {
			continue
		}
		if cur == "" {
			cur = e.Total.Currency()
		} else if e.Total.Currency() != cur {
			return nil, fmt.Errorf("group %s: %w: %s and %s",
				groupID, money.ErrCurrencyMismatch, cur, e.Total.Currency())
		}
		for _, p := range e.Participants {
			net[p.UserID] += p.NetAmount.Minor()
		}
	}

	balances := make(map[uuid.UUID]money.Money, len(net))
	for id, amount := range net {
		balances[id] = money.MustMinor(amount, cur)
	}
	return balances, nil
}

// UserDebts breaks a user's balance down per counterparty: for every other
// user sharing at least one expense with them, the net of what each paid on
// the other's behalf. The result is partitioned into owes (the user's net
// toward that counterparty is negative) and owed (positive), both carrying
// absolute amounts and the number of shared expenses, sorted by user id for
// a stable order.
func UserDebts(userID uuid.UUID, expenses []Expense, currency money.Code) (owes, owed []DebtSummary, err error) {
	if !currency.IsValid() {
		return nil, nil, validationErrorf("unknown currency code %q", currency)
	}

	type pairAgg struct {
		net   int64
		count int
	}
	pairs := make(map[uuid.UUID]*pairAgg)
	agg := func(id uuid.UUID) *pairAgg {
		if p, ok := pairs[id]; ok {
			return p
		}
		p := &pairAgg{}
		pairs[id] = p
		return p
	}

	for i := range expenses {
		e := &expenses[i]
		if e.Settled || e.Total.Currency() != currency {
			continue
		}
		if _, ok := findParticipant(e, userID); !ok {
			continue
		}

		owesMatrix := pairwiseOwes(e)
		touched := make(map[uuid.UUID]bool)

		for to, amount := range owesMatrix[userID] {
			agg(to).net -= amount
			touched[to] = true
		}
		for from, tos := range owesMatrix {
			if from == userID {
				continue
			}
			if amount, ok := tos[userID]; ok {
				agg(from).net += amount
				touched[from] = true
			}
		}
		for id := range touched {
			agg(id).count++
		}
	}

	for id, p := range pairs {
		if p.net == 0 {
			continue
		}
		s := DebtSummary{
			UserID:       id,
			ExpenseCount: p.count,
			Currency:     currency,
			Net:          money.MustMinor(p.net, currency),
			TotalOwed:    money.Zero(currency),
			TotalOwing:   money.Zero(currency),
		}
		if p.net < 0 {
			s.TotalOwing = money.MustMinor(-p.net, currency)
			owes = append(owes, s)
		} else {
			s.TotalOwed = money.MustMinor(p.net, currency)
			owed = append(owed, s)
		}
	}

	byUserID := func(s []DebtSummary) {
		sort.Slice(s, func(i, j int) bool { return s[i].UserID.String() < s[j].UserID.String() })
	}
	byUserID(owes)
	byUserID(owed)
	return owes, owed, nil
}

// pairwiseOwes attributes each participant's owed amount to the expense's
// payers, proportionally to what each payer put in, with the floor remainder
// going to the earliest payers in payment order. Self-debt (a payer's own
// share of their own payment) is dropped. Returns owes[from][to] in minor
// units.
func pairwiseOwes(e *Expense) map[uuid.UUID]map[uuid.UUID]int64 {
	var paidTotal int64
	for _, pay := range e.Payments {
		paidTotal += pay.Amount.Minor()
	}
	if paidTotal == 0 {
		return nil
	}

	owes := make(map[uuid.UUID]map[uuid.UUID]int64)
	for _, p := range e.Participants {
		share := p.OwedAmount.Minor()
		if share == 0 {
			continue
		}

		alloc := make([]int64, len(e.Payments))
		var sum int64
		for i, pay := range e.Payments {
			alloc[i] = share * pay.Amount.Minor() / paidTotal
			sum += alloc[i]
		}
		for i := 0; sum < share; i++ {
			alloc[i]++
			sum++
		}

		for i, pay := range e.Payments {
			if pay.UserID == p.UserID || alloc[i] == 0 {
				continue
			}
			m := owes[p.UserID]
			if m == nil {
				m = make(map[uuid.UUID]int64)
				owes[p.UserID] = m
			}
			m[pay.UserID] += alloc[i]
		}
	}
	return owes
}

func findParticipant(e *Expense, userID uuid.UUID) (*Participant, bool) {
	for i := range e.Participants {
		if e.Participants[i].UserID == userID {
			return &e.Participants[i], true
		}
	}
	return nil, false
}
