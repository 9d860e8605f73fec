package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fairshare-backend/config"
	"fairshare-backend/database"
	"fairshare-backend/ledger"
	"fairshare-backend/models"
	"fairshare-backend/money"
	"fairshare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Cached group summaries are pure functions of the group's expenses and
// settlements, so the TTL is generous; every mutating handler deletes the
// key anyway.
const balanceCacheTTL = time.Hour

func groupBalancesCacheKey(groupID uuid.UUID) string {
	return "balances:" + groupID.String()
}

// GET /api/groups/:id/balances
func GetGroupBalances(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	if !isMember(groupID, userID) {
		utils.Unauthorized(c, "You are not a member of this group")
		return
	}

	ctx := context.Background()
	cacheKey := groupBalancesCacheKey(groupID)
	if cached, ok := database.CacheGet(ctx, cacheKey); ok {
		var summary models.GroupBalanceSummary
		if json.Unmarshal([]byte(cached), &summary) == nil {
			utils.SuccessResponse(c, http.StatusOK, "", summary)
			return
		}
	}

	var group models.Group
	database.DB.First(&group, groupID)

	snapshot := loadGroupLedger(groupID)

	balances, err := ledger.CalculateGroupBalance(groupID, snapshot)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	suggestions, err := ledger.SuggestSettlements(balances)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	names := memberNames(groupID)

	var members []models.MemberBalance
	for id, b := range balances {
		if b.IsZero() {
			continue
		}
		members = append(members, models.MemberBalance{
			UserID:      id,
			Name:        names[id],
			Amount:      b.Float(),
			AmountMinor: b.Minor(),
			Currency:    string(b.Currency()),
		})
	}

	var transfers []models.Transfer
	for _, s := range suggestions {
		transfers = append(transfers, models.Transfer{
			From:        s.FromUserID,
			FromName:    names[s.FromUserID],
			To:          s.ToUserID,
			ToName:      names[s.ToUserID],
			Amount:      s.Amount.Float(),
			AmountMinor: s.Amount.Minor(),
			Currency:    string(s.Amount.Currency()),
		})
	}

	var totalSpent int64
	database.DB.Model(&models.Expense{}).Where("group_id = ?", groupID).
		Select("COALESCE(SUM(amount_minor), 0)").Scan(&totalSpent)

	summary := models.GroupBalanceSummary{
		GroupID:         groupID,
		GroupName:       group.Name,
		Currency:        group.Currency,
		Members:         members,
		Suggestions:     transfers,
		TotalSpent:      money.MustMinor(totalSpent, money.Code(group.Currency)).Float(),
		TotalSpentMinor: totalSpent,
	}

	if encoded, err := json.Marshal(summary); err == nil {
		database.CacheSet(ctx, cacheKey, string(encoded), balanceCacheTTL)
	}

	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

// GET /api/balances - overall balances across all expenses for current user.
// Only expenses in the requested currency (default: the user's preferred
// currency) contribute; other currencies are reported separately, never
// converted.
func GetOverallBalances(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	currency, err := requestedCurrency(c, userID)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	snapshot := loadUserLedger(userID)

	summary, err := ledger.CalculateBalance(userID, snapshot, currency)
	if err != nil {
		splitError(c, err)
		return
	}
	owes, owed, err := ledger.UserDebts(userID, snapshot, currency)
	if err != nil {
		splitError(c, err)
		return
	}

	var friends []models.FriendBalance
	for _, d := range owed {
		friends = append(friends, friendBalance(d, d.TotalOwed.Minor()))
	}
	for _, d := range owes {
		friends = append(friends, friendBalance(d, -d.TotalOwing.Minor()))
	}

	utils.SuccessResponse(c, http.StatusOK, "", models.OverallBalanceSummary{
		TotalOwed:    summary.TotalOwed.Float(),
		TotalOwing:   summary.TotalOwing.Float(),
		Net:          summary.Net.Float(),
		Currency:     string(currency),
		ExpenseCount: summary.ExpenseCount,
		Friends:      friends,
	})
}

// GET /api/balances/debts - pairwise breakdown for the current user
func GetUserDebts(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	currency, err := requestedCurrency(c, userID)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	snapshot := loadUserLedger(userID)
	owes, owed, err := ledger.UserDebts(userID, snapshot, currency)
	if err != nil {
		splitError(c, err)
		return
	}

	resp := models.UserDebtsResponse{Currency: string(currency)}
	for _, d := range owes {
		resp.Owes = append(resp.Owes, friendBalance(d, -d.TotalOwing.Minor()))
	}
	for _, d := range owed {
		resp.Owed = append(resp.Owed, friendBalance(d, d.TotalOwed.Minor()))
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// requestedCurrency resolves the ?currency= query parameter, falling back to
// the user's preferred currency, then the app default. An explicit but
// unknown code is rejected here; a stale stored preference falls through to
// the default rather than failing every balance request.
func requestedCurrency(c *gin.Context, userID uuid.UUID) (money.Code, error) {
	if q := c.Query("currency"); q != "" {
		code := money.Code(strings.ToUpper(q))
		if !code.IsValid() {
			return "", fmt.Errorf("unsupported currency %q", q)
		}
		return code, nil
	}
	var user models.User
	if err := database.DB.First(&user, userID).Error; err == nil && money.Code(user.Currency).IsValid() {
		return money.Code(user.Currency), nil
	}
	return money.Code(config.AppConfig.DefaultCurrency), nil
}

func friendBalance(d ledger.DebtSummary, signedMinor int64) models.FriendBalance {
	var user models.User
	database.DB.First(&user, d.UserID)

	return models.FriendBalance{
		UserID:       d.UserID,
		Name:         user.Name,
		Email:        user.Email,
		AvatarURL:    user.AvatarURL,
		Amount:       money.MustMinor(signedMinor, d.Currency).Float(),
		AmountMinor:  signedMinor,
		Currency:     string(d.Currency),
		ExpenseCount: d.ExpenseCount,
	}
}

func memberNames(groupID uuid.UUID) map[uuid.UUID]string {
	var members []models.GroupMember
	database.DB.Where("group_id = ?", groupID).Preload("User").Find(&members)

	names := make(map[uuid.UUID]string, len(members))
	for _, m := range members {
		names[m.UserID] = m.User.Name
	}
	return names
}

// loadGroupLedger builds the immutable snapshot the ledger engine works on:
// every expense of the group plus its settlements, the latter expressed as
// exact-split pseudo-expenses so the pure functions need no special case.
func loadGroupLedger(groupID uuid.UUID) []ledger.Expense {
	var expenses []models.Expense
	database.DB.Where("group_id = ?", groupID).Order("created_at ASC").Find(&expenses)

	snapshot := make([]ledger.Expense, 0, len(expenses))
	for i := range expenses {
		snapshot = append(snapshot, toLedgerExpense(&expenses[i]))
	}

	var settlements []models.Settlement
	database.DB.Where("group_id = ?", groupID).Order("created_at ASC").Find(&settlements)

	for _, s := range settlements {
		snapshot = append(snapshot, settlementAsExpense(&s))
	}
	return snapshot
}

// loadUserLedger collects every expense the user participates in, across all
// groups, plus the settlements they are party to.
func loadUserLedger(userID uuid.UUID) []ledger.Expense {
	var expenseIDs []uuid.UUID
	database.DB.Model(&models.ExpenseSplit{}).Where("user_id = ?", userID).
		Distinct("expense_id").Pluck("expense_id", &expenseIDs)

	var expenses []models.Expense
	if len(expenseIDs) > 0 {
		database.DB.Where("id IN ?", expenseIDs).Order("created_at ASC").Find(&expenses)
	}

	snapshot := make([]ledger.Expense, 0, len(expenses))
	for i := range expenses {
		snapshot = append(snapshot, toLedgerExpense(&expenses[i]))
	}

	var settlements []models.Settlement
	database.DB.Where("paid_by = ? OR paid_to = ?", userID, userID).
		Order("created_at ASC").Find(&settlements)

	for _, s := range settlements {
		snapshot = append(snapshot, settlementAsExpense(&s))
	}
	return snapshot
}

func toLedgerExpense(e *models.Expense) ledger.Expense {
	currency := money.Code(e.Currency)

	var splits []models.ExpenseSplit
	database.DB.Where("expense_id = ?", e.ID).Order("position ASC").Find(&splits)

	participants := make([]ledger.Participant, 0, len(splits))
	for _, s := range splits {
		participants = append(participants, ledger.Participant{
			UserID:     s.UserID,
			SplitValue: s.SplitValue,
			OwedAmount: money.MustMinor(s.OwedMinor, currency),
			PaidAmount: money.MustMinor(s.PaidMinor, currency),
			NetAmount:  money.MustMinor(s.PaidMinor-s.OwedMinor, currency),
		})
	}

	var paymentRows []models.ExpensePayment
	database.DB.Where("expense_id = ?", e.ID).Order("position ASC").Find(&paymentRows)

	payments := make([]ledger.Payment, 0, len(paymentRows))
	for _, p := range paymentRows {
		payments = append(payments, ledger.Payment{
			UserID: p.UserID,
			Amount: money.MustMinor(p.AmountMinor, currency),
		})
	}

	return ledger.Expense{
		ID:           e.ID,
		Description:  e.Description,
		GroupID:      e.GroupID,
		Total:        money.MustMinor(e.AmountMinor, currency),
		SplitType:    ledger.SplitType(e.SplitType),
		Participants: participants,
		Payments:     payments,
		Settled:      e.Settled,
	}
}

// settlementAsExpense turns a recorded payment into an exact-split expense:
// the payee "owes" the full amount and the payer paid it, which nets to
// payer +amount, payee -amount, exactly the balance offset a cash payment
// produces.
func settlementAsExpense(s *models.Settlement) ledger.Expense {
	currency := money.Code(s.Currency)
	amount := money.MustMinor(s.AmountMinor, currency)
	zero := money.Zero(currency)

	return ledger.Expense{
		ID:          s.ID,
		Description: "settlement",
		GroupID:     s.GroupID,
		Total:       amount,
		SplitType:   ledger.SplitExact,
		Participants: []ledger.Participant{
			{UserID: s.PaidTo, OwedAmount: amount, PaidAmount: zero, NetAmount: amount.Neg()},
			{UserID: s.PaidBy, OwedAmount: zero, PaidAmount: amount, NetAmount: amount},
		},
		Payments: []ledger.Payment{{UserID: s.PaidBy, Amount: amount}},
	}
}
