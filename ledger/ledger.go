// Package ledger is the expense-sharing engine: it splits a single expense
// among its participants, aggregates net balances across a whole expense
// collection, and suggests the transfers that would settle everyone up.
//
// Everything in this package is a pure function over an explicitly passed
// snapshot of expenses. Nothing is retained between calls, inputs are never
// mutated, and identical inputs always produce identical outputs. The caller
// (the HTTP layer, backed by Postgres) owns the collections and rebuilds the
// snapshot whenever its data changes.
//
// Amounts in different currencies are tracked separately and never summed;
// there is deliberately no conversion anywhere in this package.
package ledger

import (
	"fmt"

	"fairshare-backend/money"

	"github.com/google/uuid"
)

// SplitInput is one participant of an expense as supplied by the caller,
// in the order the caller wants remainders distributed.
//
// Value depends on the split type: integer basis points for percentage
// splits (50.25% == 5025), minor currency units for exact splits, a share
// count for shares splits, and ignored for equal splits.
type SplitInput struct {
	UserID uuid.UUID
	Value  int64
}

// Payment is an amount one user paid toward an expense. An expense can have
// several payers.
type Payment struct {
	UserID uuid.UUID
	Amount money.Money
}

// Participant is the computed result of splitting an expense for one user.
// NetAmount = PaidAmount - OwedAmount; positive means the user is owed money.
// These fields are derived and recomputed whenever the expense changes.
type Participant struct {
	UserID     uuid.UUID   `json:"user_id"`
	SplitValue int64       `json:"split_value,omitempty"`
	OwedAmount money.Money `json:"owed_amount"`
	PaidAmount money.Money `json:"paid_amount"`
	NetAmount  money.Money `json:"net_amount"`
}

// Expense is an immutable snapshot of one shared expense. Participants embed
// value data only; users are referenced by id.
type Expense struct {
	ID           uuid.UUID
	Description  string
	GroupID      uuid.UUID // uuid.Nil for non-group expenses
	Total        money.Money
	SplitType    SplitType
	Participants []Participant
	Payments     []Payment
	Settled      bool
}

// DebtSummary aggregates one user's position, either overall or toward a
// single counterparty. TotalOwed is what others owe this user, TotalOwing
// what this user owes others; Net = TotalOwed - TotalOwing. A summary is
// always single-currency and always derived, never stored.
type DebtSummary struct {
	UserID       uuid.UUID   `json:"user_id"`
	TotalOwed    money.Money `json:"total_owed"`
	TotalOwing   money.Money `json:"total_owing"`
	Net          money.Money `json:"net_amount"`
	ExpenseCount int         `json:"expense_count"`
	Currency     money.Code  `json:"currency"`
}

// ValidationError reports an invalid split configuration. It is raised
// before any amounts are computed; no partial result accompanies it.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid split: " + e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
