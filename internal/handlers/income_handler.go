package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
)

// IncomeHandler handles income-related requests.
type IncomeHandler struct {
	incomeService services.IncomeServicer
}

// NewIncomeHandler creates a new IncomeHandler.
func NewIncomeHandler(incomeService services.IncomeServicer) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService}
}

// IncomeRequest is the payload for creating or editing an income.
type IncomeRequest struct {
	AccountID   string          `json:"account_id" binding:"required,uuid_id"`
	Description string          `json:"description" binding:"required,min=1,max=255"`
	Value       decimal.Decimal `json:"value" swaggertype:"string" example:"3500.00"`
	Date        string          `json:"date" binding:"required,calendar_date" example:"2025-07-05"`
	IsRecurring bool            `json:"is_recurring"`
}

func (r IncomeRequest) toInput() (services.IncomeInput, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return services.IncomeInput{}, err
	}
	return services.IncomeInput{
		AccountID:   r.AccountID,
		Description: r.Description,
		Value:       r.Value,
		Date:        date,
		IsRecurring: r.IsRecurring,
	}, nil
}

// CreateIncome records an income, crediting the account when its date has come.
// @Summary     Create an income
// @Description Records an income. Incomes dated today or earlier credit the account immediately; later ones are posted by the daily job.
// @Tags        incomes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body IncomeRequest true "Income details"
// @Success     201 {object} map[string]interface{} "Income and resulting account"
// @Failure     400 {object} ErrorResponse "Invalid input or inactive account"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /incomes [post]
func (h *IncomeHandler) CreateIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	income, account, err := h.incomeService.PostIncome(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"income": income, "account": account})
}

// GetIncomes lists incomes.
// @Summary     List incomes
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       account_id query string false "Filter by account"
// @Param       from_date  query string false "Earliest date (YYYY-MM-DD)"
// @Param       to_date    query string false "Latest date (YYYY-MM-DD)"
// @Param       posted     query bool   false "Filter by posted state"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Income] "Paginated incomes"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /incomes [get]
func (h *IncomeHandler) GetIncomes(c *gin.Context) {
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

	var filter services.IncomeFilter
	if filter.AccountID, err = optionalID("account_id", queryPtr(c, "account_id")); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.FromDate, err = parseOptionalDate("from_date", queryPtr(c, "from_date")); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.ToDate, err = parseOptionalDate("to_date", queryPtr(c, "to_date")); err != nil {
		respondWithError(c, err)
		return
	}
	if v := c.Query("posted"); v != "" {
		posted, parseErr := strconv.ParseBool(v)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "posted must be true or false"))
			return
		}
		filter.Posted = &posted
	}

	result, err := h.incomeService.GetUserIncomes(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetIncome returns one income.
// @Summary     Get income
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income ID"
// @Success     200 {object} models.Income "Income"
// @Failure     404 {object} ErrorResponse "Income not found"
// @Router      /incomes/{id} [get]
func (h *IncomeHandler) GetIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	incomeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	income, err := h.incomeService.GetIncomeByID(userID, incomeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"income": income})
}

// UpdateIncome edits an income, moving its effect between accounts if needed.
// @Summary     Update income
// @Tags        incomes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string        true "Income ID"
// @Param       request body IncomeRequest true "New income values"
// @Success     200 {object} map[string]interface{} "Income and affected accounts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Income or account not found"
// @Router      /incomes/{id} [put]
func (h *IncomeHandler) UpdateIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	incomeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	income, accounts, err := h.incomeService.EditIncome(userID, incomeID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"income": income, "accounts": accounts})
}

// DeleteIncome removes an income and reverses its credit.
// @Summary     Delete income
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income ID"
// @Success     200 {object} map[string]interface{} "Account after the reversal"
// @Failure     404 {object} ErrorResponse "Income not found"
// @Router      /incomes/{id} [delete]
func (h *IncomeHandler) DeleteIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	incomeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.incomeService.DeleteIncome(userID, incomeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Income deleted successfully", "account": account})
}

// queryPtr returns a pointer to a query value, or nil when absent.
func queryPtr(c *gin.Context, key string) *string {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	return &v
}
