package models

import "github.com/google/uuid"

// Transfer is one suggested payment between two users, produced by the
// debt-simplification engine. It is a suggestion, not a recorded payment.
type Transfer struct {
	From        uuid.UUID `json:"from"`
	FromName    string    `json:"from_name"`
	To          uuid.UUID `json:"to"`
	ToName      string    `json:"to_name"`
	Amount      float64   `json:"amount"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
}

// MemberBalance is one member's net position within a group.
// Positive = the group owes them, negative = they owe the group.
type MemberBalance struct {
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Amount      float64   `json:"amount"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
}

// FriendBalance is the overall pairwise balance with a single friend.
// Positive = they owe you, negative = you owe them.
type FriendBalance struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Amount       float64   `json:"amount"`
	AmountMinor  int64     `json:"amount_minor"`
	Currency     string    `json:"currency"`
	ExpenseCount int       `json:"expense_count"`
}

// GroupBalanceSummary is returned for GET /api/groups/:id/balances.
type GroupBalanceSummary struct {
	GroupID         uuid.UUID       `json:"group_id"`
	GroupName       string          `json:"group_name"`
	Currency        string          `json:"currency"`
	Members         []MemberBalance `json:"members"`
	Suggestions     []Transfer      `json:"suggestions"`
	TotalSpent      float64         `json:"total_spent"`
	TotalSpentMinor int64           `json:"total_spent_minor"`
}

// OverallBalanceSummary is returned for GET /api/balances.
type OverallBalanceSummary struct {
	TotalOwed    float64         `json:"total_owed"`  // total others owe you
	TotalOwing   float64         `json:"total_owing"` // total you owe others
	Net          float64         `json:"net"`
	Currency     string          `json:"currency"`
	ExpenseCount int             `json:"expense_count"`
	Friends      []FriendBalance `json:"friends"`
}

// UserDebtsResponse is returned for GET /api/balances/debts: the current
// user's pairwise position split into the two directions.
type UserDebtsResponse struct {
	Currency string          `json:"currency"`
	Owes     []FriendBalance `json:"owes"`
	Owed     []FriendBalance `json:"owed"`
}
