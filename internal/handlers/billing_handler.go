package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
)

// BillingHandler exposes the date-driven sweeps to the external scheduler.
// Routes are guarded by the scheduler key, not by user tokens.
type BillingHandler struct {
	billingService services.BillingServicer
	dailyJob       *services.DailyJob
	calendar       *services.Calendar
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billingService services.BillingServicer, dailyJob *services.DailyJob, calendar *services.Calendar) *BillingHandler {
	return &BillingHandler{billingService: billingService, dailyJob: dailyJob, calendar: calendar}
}

// CloseDueBills closes every card's due charges.
// @Summary     Close due bills
// @Tags        billing
// @Produce     json
// @Security    SchedulerKey
// @Param       date query string false "Run date (YYYY-MM-DD, default today)"
// @Success     200 {object} services.CloseResult "Sweep result"
// @Failure     401 {object} ErrorResponse "Invalid scheduler key"
// @Router      /billing/close [post]
func (h *BillingHandler) CloseDueBills(c *gin.Context) {
	asOf, err := dateQuery(c, "date", h.calendar.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.billingService.CloseDueBills(c.Request.Context(), asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// ProcessAutoDebits pays the invoices due today from their configured accounts.
// @Summary     Process auto-debits
// @Tags        billing
// @Produce     json
// @Security    SchedulerKey
// @Param       date query string false "Run date (YYYY-MM-DD, default today)"
// @Success     200 {object} services.AutoDebitResult "Run result"
// @Failure     401 {object} ErrorResponse "Invalid scheduler key"
// @Router      /billing/auto-debits [post]
func (h *BillingHandler) ProcessAutoDebits(c *gin.Context) {
	asOf, err := dateQuery(c, "date", h.calendar.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.billingService.ProcessAutoDebits(c.Request.Context(), asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// RunDaily runs every daily step. Steps that fail are listed in the report
// and the response status is 500.
// @Summary     Run daily job
// @Tags        billing
// @Produce     json
// @Security    SchedulerKey
// @Param       date query string false "Run date (YYYY-MM-DD, default today)"
// @Success     200 {object} services.DailyReport "Report"
// @Failure     401 {object} ErrorResponse "Invalid scheduler key"
// @Failure     500 {object} services.DailyReport "Report with failed steps"
// @Router      /billing/run [post]
func (h *BillingHandler) RunDaily(c *gin.Context) {
	asOf, err := dateQuery(c, "date", h.calendar.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.dailyJob.Run(c.Request.Context(), asOf)
	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"report": report})
}
