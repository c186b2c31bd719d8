package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// ExpenseRequest is the payload for creating or editing an expense. Exactly
// one of account_id and credit_card_id must be given.
type ExpenseRequest struct {
	AccountID        *string         `json:"account_id"`
	CreditCardID     *string         `json:"credit_card_id"`
	Description      string          `json:"description" binding:"required,min=1,max=255"`
	Category         string          `json:"category" binding:"max=100"`
	Value            decimal.Decimal `json:"value" swaggertype:"string" example:"149.90"`
	DueDate          string          `json:"due_date" binding:"required,calendar_date" example:"2025-07-10"`
	Status           string          `json:"status" binding:"omitempty,expense_status"`
	InstallmentTotal int             `json:"installment_total" binding:"omitempty,min=1,max=72"`
	IsRecurring      bool            `json:"is_recurring"`
}

func (r ExpenseRequest) toInput() (services.ExpenseInput, error) {
	accountID, err := optionalID("account_id", r.AccountID)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	cardID, err := optionalID("credit_card_id", r.CreditCardID)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	dueDate, err := parseDate("due_date", r.DueDate)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	return services.ExpenseInput{
		AccountID:        accountID,
		CreditCardID:     cardID,
		Description:      r.Description,
		Category:         r.Category,
		Value:            r.Value,
		DueDate:          dueDate,
		Status:           models.ExpenseStatus(r.Status),
		InstallmentTotal: r.InstallmentTotal,
		IsRecurring:      r.IsRecurring,
	}, nil
}

// CreateExpense records an expense on an account or a credit card.
// @Summary     Create an expense
// @Description Account expenses debit the account at once. Card purchases may be split into monthly installments.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExpenseRequest true "Expense details"
// @Success     201 {object} map[string]interface{} "Created expenses and the debited account"
// @Failure     400 {object} ErrorResponse "Invalid input or target conflict"
// @Failure     404 {object} ErrorResponse "Account or card not found"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenses, account, err := h.expenseService.PostExpense(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expenses": expenses, "account": account})
}

// GetExpenses lists expenses.
// @Summary     List expenses
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       account_id     query string false "Filter by account"
// @Param       credit_card_id query string false "Filter by card"
// @Param       status         query string false "pending, paid or overdue"
// @Param       from_date      query string false "Earliest due date (YYYY-MM-DD)"
// @Param       to_date        query string false "Latest due date (YYYY-MM-DD)"
// @Param       page           query int    false "Page number (default 1)"
// @Param       page_size      query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.ExpenseFilter
	if filter.AccountID, err = optionalID("account_id", queryPtr(c, "account_id")); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.CreditCardID, err = optionalID("credit_card_id", queryPtr(c, "credit_card_id")); err != nil {
		respondWithError(c, err)
		return
	}
	if v := c.Query("status"); v != "" {
		status := models.ExpenseStatus(v)
		switch status {
		case models.ExpenseStatusPending, models.ExpenseStatusPaid, models.ExpenseStatusOverdue:
			filter.Status = &status
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be pending, paid or overdue"))
			return
		}
	}
	if filter.FromDate, err = parseOptionalDate("from_date", queryPtr(c, "from_date")); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.ToDate, err = parseOptionalDate("to_date", queryPtr(c, "to_date")); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.GetUserExpenses(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExpense returns one expense.
// @Summary     Get expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense edits an expense, reversing and re-applying its effect.
// @Summary     Update expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Expense ID"
// @Param       request body ExpenseRequest true "New expense values"
// @Success     200 {object} map[string]interface{} "Expense and affected accounts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Expense, account or card not found"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, accounts, err := h.expenseService.EditExpense(userID, expenseID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense, "accounts": accounts})
}

// DeleteExpense removes an expense and reverses any debit it made.
// @Summary     Delete expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]interface{} "Account after the reversal, if any"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.expenseService.DeleteExpense(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully", "account": account})
}
