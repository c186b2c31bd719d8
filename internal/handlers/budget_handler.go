package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/models"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	calendar      *services.Calendar
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, calendar *services.Calendar) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, calendar: calendar}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	Name         string          `json:"name" binding:"required,min=1,max=100"`
	Type         string          `json:"type" binding:"required,budget_type"`
	CreditCardID *string         `json:"credit_card_id"`
	PeriodStart  string          `json:"period_start" binding:"required,calendar_date" example:"2025-07-01"`
	PeriodEnd    string          `json:"period_end" binding:"required,calendar_date" example:"2025-07-31"`
	PlannedValue decimal.Decimal `json:"planned_value" swaggertype:"string" example:"2000.00"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
type UpdateBudgetRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=1,max=100"`
	PeriodStart  *string          `json:"period_start" binding:"omitempty,calendar_date"`
	PeriodEnd    *string          `json:"period_end" binding:"omitempty,calendar_date"`
	PlannedValue *decimal.Decimal `json:"planned_value" swaggertype:"string"`
}

// CreateBudget handles budget creation
// @Summary     Create a budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	cardID, err := optionalID("credit_card_id", req.CreditCardID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	start, err := parseDate("period_start", req.PeriodStart)
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseDate("period_end", req.PeriodEnd)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, services.BudgetInput{
		Name:         req.Name,
		Type:         models.BudgetType(req.Type),
		CreditCardID: cardID,
		PeriodStart:  start,
		PeriodEnd:    end,
		PlannedValue: req.PlannedValue,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets lists budgets
// @Summary     List budgets
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       type      query string false "general or card"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
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

	var budgetType *models.BudgetType
	if v := c.Query("type"); v != "" {
		bt := models.BudgetType(v)
		if bt != models.BudgetTypeGeneral && bt != models.BudgetTypeCard {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be general or card"))
			return
		}
		budgetType = &bt
	}

	result, err := h.budgetService.GetUserBudgets(userID, page, budgetType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudget returns one budget
// @Summary     Get budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles budget updates
// @Summary     Update budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to change"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.BudgetUpdateFields{Name: req.Name, PlannedValue: req.PlannedValue}
	if fields.PeriodStart, err = parseOptionalDate("period_start", req.PeriodStart); err != nil {
		respondWithError(c, err)
		return
	}
	if fields.PeriodEnd, err = parseOptionalDate("period_end", req.PeriodEnd); err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles budget deletion
// @Summary     Delete budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]string "Budget deleted"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

// GetBudgetProgress returns planned vs utilized for a budget.
// @Summary     Budget progress
// @Description Card budgets never count paid charges. For general budgets exclude_paid chooses whether paid expenses count.
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id           path  string true  "Budget ID"
// @Param       date         query string false "As-of date (YYYY-MM-DD, default today)"
// @Param       exclude_paid query bool   false "Leave paid expenses out of a general budget"
// @Success     200 {object} services.BudgetProgress "Progress"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asOf, err := dateQuery(c, "date", h.calendar.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	var policy services.UtilizationPolicy
	if v := c.Query("exclude_paid"); v != "" {
		if policy.ExcludePaid, err = strconv.ParseBool(v); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "exclude_paid must be true or false"))
			return
		}
	}

	progress, err := h.budgetService.GetBudgetProgress(userID, budgetID, asOf, policy)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}
