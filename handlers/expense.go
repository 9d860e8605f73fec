package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"fairshare-backend/database"
	"fairshare-backend/ledger"
	"fairshare-backend/models"
	"fairshare-backend/money"
	"fairshare-backend/services"
	"fairshare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/groups/:id/expenses
func CreateExpense(c *gin.Context) {
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

	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var group models.Group
	database.DB.First(&group, groupID)

	// All expenses in a group share the group's currency; nothing is ever
	// converted between currencies.
	if req.Currency != "" && req.Currency != group.Currency {
		utils.BadRequest(c, fmt.Sprintf("Group expenses are in %s", group.Currency))
		return
	}
	currency := money.Code(group.Currency)

	total, err := money.FromFloat(req.Amount, currency)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	splitType, err := ledger.ParseSplitType(req.SplitType)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	parts, err := ledgerInputs(splitType, req.Splits, groupID, currency)
	if err != nil {
		splitError(c, err)
		return
	}

	payments, err := ledgerPayments(req.Payers, userID, total)
	if err != nil {
		splitError(c, err)
		return
	}

	computed, err := ledger.ComputeSplit(total, parts, splitType, payments)
	if err != nil {
		splitError(c, err)
		return
	}

	// Parse expense date
	expenseDate := time.Now()
	if req.ExpenseDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpenseDate)
		if err == nil {
			expenseDate = parsed
		}
	}

	expense := models.Expense{
		GroupID:     groupID,
		Description: req.Description,
		AmountMinor: total.Minor(),
		Currency:    string(currency),
		Category:    req.Category,
		SplitType:   string(splitType),
		Notes:       req.Notes,
		ExpenseDate: expenseDate,
	}

	if err := database.DB.Create(&expense).Error; err != nil {
		utils.InternalError(c, "Failed to create expense")
		return
	}

	splits := persistSplitResults(expense.ID, computed, payments)

	// Log activity
	var author models.User
	database.DB.First(&author, userID)

	database.DB.Create(&models.Activity{
		GroupID:     groupID,
		UserID:      userID,
		Type:        "expense_added",
		ReferenceID: expense.ID,
		Description: fmt.Sprintf("%s added \"%s\" (%s)", author.Name, expense.Description, total),
	})

	// Send notifications asynchronously
	go services.GetNotificationService().NotifyExpenseAdded(expense, splits, author, group)

	invalidateGroupBalances(groupID)

	response := buildExpenseResponse(expense.ID)
	utils.SuccessResponse(c, http.StatusCreated, "Expense added", response)
}

// GET /api/groups/:id/expenses
func GetGroupExpenses(c *gin.Context) {
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

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	var expenses []models.Expense
	database.DB.Where("group_id = ?", groupID).
		Order("expense_date DESC, created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&expenses)

	var responses []models.ExpenseResponse
	for _, e := range expenses {
		responses = append(responses, buildExpenseResponse(e.ID))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/expenses/:id
func GetExpense(c *gin.Context) {
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	response := buildExpenseResponse(expenseID)
	if response.ID == uuid.Nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", response)
}

// PUT /api/expenses/:id
func UpdateExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	if !isMember(expense.GroupID, userID) {
		utils.Unauthorized(c, "You are not a member of this group")
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	currency := money.Code(expense.Currency)

	updates := map[string]interface{}{}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}

	// Recompute derived splits when anything affecting them changed. The
	// split rows are replaced wholesale, never patched.
	if req.Amount > 0 || req.SplitType != "" || len(req.Splits) > 0 || len(req.Payers) > 0 {
		total := money.MustMinor(expense.AmountMinor, currency)
		if req.Amount > 0 {
			total, err = money.FromFloat(req.Amount, currency)
			if err != nil {
				utils.BadRequest(c, err.Error())
				return
			}
		}

		splitType := ledger.SplitType(expense.SplitType)
		if req.SplitType != "" {
			splitType, err = ledger.ParseSplitType(req.SplitType)
			if err != nil {
				utils.BadRequest(c, err.Error())
				return
			}
		}

		var parts []ledger.SplitInput
		if len(req.Splits) > 0 {
			parts, err = ledgerInputs(splitType, req.Splits, expense.GroupID, currency)
			if err != nil {
				splitError(c, err)
				return
			}
		} else {
			parts, err = ledger.ReuseSplitInputs(storedSplitInputs(expenseID), ledger.SplitType(expense.SplitType), splitType)
			if err != nil {
				splitError(c, err)
				return
			}
		}

		var payments []ledger.Payment
		if len(req.Payers) > 0 {
			payments, err = ledgerPayments(req.Payers, userID, total)
			if err != nil {
				splitError(c, err)
				return
			}
		} else {
			payments = storedPayments(expenseID, currency)
			if len(payments) == 0 {
				payments = []ledger.Payment{{UserID: userID, Amount: total}}
			}
		}

		computed, err := ledger.ComputeSplit(total, parts, splitType, payments)
		if err != nil {
			splitError(c, err)
			return
		}

		database.DB.Where("expense_id = ?", expenseID).Delete(&models.ExpenseSplit{})
		database.DB.Where("expense_id = ?", expenseID).Delete(&models.ExpensePayment{})
		persistSplitResults(expenseID, computed, payments)

		updates["amount_minor"] = total.Minor()
		updates["split_type"] = string(splitType)
	}

	database.DB.Model(&expense).Updates(updates)

	// Log activity
	var editor models.User
	database.DB.First(&editor, userID)

	database.DB.Create(&models.Activity{
		GroupID:     expense.GroupID,
		UserID:      userID,
		Type:        "expense_updated",
		ReferenceID: expense.ID,
		Description: fmt.Sprintf("%s updated \"%s\"", editor.Name, expense.Description),
	})

	invalidateGroupBalances(expense.GroupID)

	response := buildExpenseResponse(expense.ID)
	utils.SuccessResponse(c, http.StatusOK, "Expense updated", response)
}

// PUT /api/expenses/:id/settle
func SettleExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	if !isMember(expense.GroupID, userID) {
		utils.Unauthorized(c, "You are not a member of this group")
		return
	}

	var req models.SettleExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	database.DB.Model(&expense).Update("settled", *req.Settled)

	var actor models.User
	database.DB.First(&actor, userID)

	verb := "marked as settled"
	if !*req.Settled {
		verb = "reopened"
	}
	database.DB.Create(&models.Activity{
		GroupID:     expense.GroupID,
		UserID:      userID,
		Type:        "expense_settled",
		ReferenceID: expense.ID,
		Description: fmt.Sprintf("%s %s \"%s\"", actor.Name, verb, expense.Description),
	})

	invalidateGroupBalances(expense.GroupID)

	utils.SuccessResponse(c, http.StatusOK, "Expense updated", buildExpenseResponse(expenseID))
}

// DELETE /api/expenses/:id
func DeleteExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	if !isMember(expense.GroupID, userID) {
		utils.Unauthorized(c, "You are not a member of this group")
		return
	}

	// Log before deleting
	var deleter models.User
	database.DB.First(&deleter, userID)

	amount := money.MustMinor(expense.AmountMinor, money.Code(expense.Currency))
	database.DB.Create(&models.Activity{
		GroupID:     expense.GroupID,
		UserID:      userID,
		Type:        "expense_deleted",
		Description: fmt.Sprintf("%s deleted \"%s\" (%s)", deleter.Name, expense.Description, amount),
	})

	// Delete splits, payments and the expense itself
	database.DB.Where("expense_id = ?", expenseID).Delete(&models.ExpenseSplit{})
	database.DB.Where("expense_id = ?", expenseID).Delete(&models.ExpensePayment{})
	database.DB.Delete(&expense)

	invalidateGroupBalances(expense.GroupID)

	utils.SuccessResponse(c, http.StatusOK, "Expense deleted", nil)
}

// splitError maps engine errors to responses: bad configurations are the
// caller's fault, anything else is ours.
func splitError(c *gin.Context, err error) {
	var vErr *ledger.ValidationError
	if errors.As(err, &vErr) || errors.Is(err, money.ErrCurrencyMismatch) {
		utils.BadRequest(c, err.Error())
		return
	}
	utils.InternalError(c, err.Error())
}

// ledgerInputs converts request split inputs into engine inputs, doing the
// one-time float-to-integer conversion per split type. For an equal split
// with no explicit participant list, the whole group participates in
// joined-at order.
func ledgerInputs(splitType ledger.SplitType, inputs []models.SplitInput, groupID uuid.UUID, currency money.Code) ([]ledger.SplitInput, error) {
	if len(inputs) == 0 {
		if splitType != ledger.SplitEqual {
			return nil, &ledger.ValidationError{Reason: fmt.Sprintf("splits required for %s split type", splitType)}
		}
		var members []models.GroupMember
		database.DB.Where("group_id = ?", groupID).Order("joined_at ASC").Find(&members)

		parts := make([]ledger.SplitInput, 0, len(members))
		for _, m := range members {
			parts = append(parts, ledger.SplitInput{UserID: m.UserID})
		}
		return parts, nil
	}

	parts := make([]ledger.SplitInput, 0, len(inputs))
	for _, in := range inputs {
		uid, err := uuid.Parse(in.UserID)
		if err != nil {
			return nil, &ledger.ValidationError{Reason: fmt.Sprintf("invalid user ID: %s", in.UserID)}
		}

		var value int64
		switch splitType {
		case ledger.SplitEqual:
			// no per-participant value
		case ledger.SplitPercentage:
			value = ledger.BasisPoints(in.Value)
		case ledger.SplitExact:
			m, err := money.FromFloat(in.Value, currency)
			if err != nil {
				return nil, err
			}
			value = m.Minor()
		case ledger.SplitShares:
			if in.Value != math.Trunc(in.Value) {
				return nil, &ledger.ValidationError{Reason: fmt.Sprintf("share count for %s must be a whole number", in.UserID)}
			}
			value = int64(in.Value)
		}

		parts = append(parts, ledger.SplitInput{UserID: uid, Value: value})
	}
	return parts, nil
}

// ledgerPayments converts payer inputs; with none given, the submitting user
// paid the whole amount.
func ledgerPayments(payers []models.PayerInput, fallback uuid.UUID, total money.Money) ([]ledger.Payment, error) {
	if len(payers) == 0 {
		return []ledger.Payment{{UserID: fallback, Amount: total}}, nil
	}

	payments := make([]ledger.Payment, 0, len(payers))
	for _, p := range payers {
		uid, err := uuid.Parse(p.UserID)
		if err != nil {
			return nil, &ledger.ValidationError{Reason: fmt.Sprintf("invalid user ID: %s", p.UserID)}
		}
		amount, err := money.FromFloat(p.Amount, total.Currency())
		if err != nil {
			return nil, err
		}
		payments = append(payments, ledger.Payment{UserID: uid, Amount: amount})
	}
	return payments, nil
}

// storedSplitInputs reloads an expense's participant list, in stored order,
// for recomputation when an edit doesn't resupply splits.
func storedSplitInputs(expenseID uuid.UUID) []ledger.SplitInput {
	var splits []models.ExpenseSplit
	database.DB.Where("expense_id = ?", expenseID).Order("position ASC").Find(&splits)

	parts := make([]ledger.SplitInput, 0, len(splits))
	for _, s := range splits {
		parts = append(parts, ledger.SplitInput{UserID: s.UserID, Value: s.SplitValue})
	}
	return parts
}

func storedPayments(expenseID uuid.UUID, currency money.Code) []ledger.Payment {
	var rows []models.ExpensePayment
	database.DB.Where("expense_id = ?", expenseID).Order("position ASC").Find(&rows)

	payments := make([]ledger.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, ledger.Payment{
			UserID: r.UserID,
			Amount: money.MustMinor(r.AmountMinor, currency),
		})
	}
	return payments
}

// persistSplitResults writes the engine's computed participants and the payer
// rows, preserving list order in the position column.
func persistSplitResults(expenseID uuid.UUID, computed []ledger.Participant, payments []ledger.Payment) []models.ExpenseSplit {
	splits := make([]models.ExpenseSplit, 0, len(computed))
	for i, p := range computed {
		split := models.ExpenseSplit{
			ExpenseID:  expenseID,
			UserID:     p.UserID,
			Position:   i,
			SplitValue: p.SplitValue,
			OwedMinor:  p.OwedAmount.Minor(),
			PaidMinor:  p.PaidAmount.Minor(),
		}
		database.DB.Create(&split)
		splits = append(splits, split)
	}

	for i, pay := range payments {
		database.DB.Create(&models.ExpensePayment{
			ExpenseID:   expenseID,
			UserID:      pay.UserID,
			Position:    i,
			AmountMinor: pay.Amount.Minor(),
		})
	}
	return splits
}

// invalidateGroupBalances drops the cached balance summary for a group after
// any mutation that changes the expense collection.
func invalidateGroupBalances(groupID uuid.UUID) {
	database.CacheDel(context.Background(), groupBalancesCacheKey(groupID))
}

// Build expense response with user names, split and payer details
func buildExpenseResponse(expenseID uuid.UUID) models.ExpenseResponse {
	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		return models.ExpenseResponse{}
	}

	currency := money.Code(expense.Currency)

	var dbSplits []models.ExpenseSplit
	database.DB.Where("expense_id = ?", expenseID).Order("position ASC").Find(&dbSplits)

	var splitResponses []models.SplitResponse
	for _, s := range dbSplits {
		var user models.User
		database.DB.First(&user, s.UserID)
		splitResponses = append(splitResponses, models.SplitResponse{
			UserID:     s.UserID,
			UserName:   user.Name,
			OwedAmount: money.MustMinor(s.OwedMinor, currency).Float(),
			PaidAmount: money.MustMinor(s.PaidMinor, currency).Float(),
			NetAmount:  money.MustMinor(s.PaidMinor-s.OwedMinor, currency).Float(),
			OwedMinor:  s.OwedMinor,
			PaidMinor:  s.PaidMinor,
		})
	}

	var dbPayments []models.ExpensePayment
	database.DB.Where("expense_id = ?", expenseID).Order("position ASC").Find(&dbPayments)

	var payerResponses []models.PayerResponse
	for _, p := range dbPayments {
		var user models.User
		database.DB.First(&user, p.UserID)
		payerResponses = append(payerResponses, models.PayerResponse{
			UserID:      p.UserID,
			UserName:    user.Name,
			Amount:      money.MustMinor(p.AmountMinor, currency).Float(),
			AmountMinor: p.AmountMinor,
		})
	}

	return models.ExpenseResponse{
		ID:          expense.ID,
		GroupID:     expense.GroupID,
		Description: expense.Description,
		Amount:      money.MustMinor(expense.AmountMinor, currency).Float(),
		AmountMinor: expense.AmountMinor,
		Currency:    expense.Currency,
		Category:    expense.Category,
		SplitType:   expense.SplitType,
		Settled:     expense.Settled,
		Notes:       expense.Notes,
		ExpenseDate: expense.ExpenseDate,
		Splits:      splitResponses,
		Payers:      payerResponses,
		CreatedAt:   expense.CreatedAt,
	}
}
