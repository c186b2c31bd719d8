package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
)

// CreditCardHandler handles card configuration, invoices and payments.
type CreditCardHandler struct {
	cardService    services.CreditCardServicer
	billingService services.BillingServicer
	calendar       *services.Calendar
}

// NewCreditCardHandler creates a new CreditCardHandler.
func NewCreditCardHandler(cardService services.CreditCardServicer, billingService services.BillingServicer, calendar *services.Calendar) *CreditCardHandler {
	return &CreditCardHandler{cardService: cardService, billingService: billingService, calendar: calendar}
}

// CreateCardRequest is the payload for registering a card.
type CreateCardRequest struct {
	Name               string          `json:"name" binding:"required,min=1,max=100"`
	Brand              string          `json:"brand" binding:"max=50"`
	ClosingDay         int             `json:"closing_day" binding:"required,day_of_month"`
	DueDay             int             `json:"due_day" binding:"required,day_of_month"`
	LimitValue         decimal.Decimal `json:"limit_value" swaggertype:"string" example:"5000.00"`
	AutoDebit          bool            `json:"auto_debit"`
	AutoDebitAccountID *string         `json:"auto_debit_account_id"`
}

// UpdateCardRequest is the payload for changing a card.
type UpdateCardRequest struct {
	Name               *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Brand              *string          `json:"brand" binding:"omitempty,max=50"`
	ClosingDay         *int             `json:"closing_day" binding:"omitempty,day_of_month"`
	DueDay             *int             `json:"due_day" binding:"omitempty,day_of_month"`
	LimitValue         *decimal.Decimal `json:"limit_value" swaggertype:"string"`
	AutoDebit          *bool            `json:"auto_debit"`
	AutoDebitAccountID *string          `json:"auto_debit_account_id"`
}

// PayBillRequest is the payload for paying an invoice.
type PayBillRequest struct {
	AccountID     string          `json:"account_id" binding:"required,uuid_id"`
	IsFullPayment bool            `json:"is_full_payment"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"200.00"`
	PaymentDate   *string         `json:"payment_date" binding:"omitempty,calendar_date"`
	ReferenceDate *string         `json:"reference_date" binding:"omitempty,calendar_date"`
}

// CreateCard registers a credit card.
// @Summary     Create a credit card
// @Tags        credit-cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCardRequest true "Card details"
// @Success     201 {object} models.CreditCard "Card created"
// @Failure     400 {object} ErrorResponse "Invalid input or billing days"
// @Router      /credit-cards [post]
func (h *CreditCardHandler) CreateCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	autoDebitAccountID, err := optionalID("auto_debit_account_id", req.AutoDebitAccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.cardService.CreateCard(userID, services.CardInput{
		Name:               req.Name,
		Brand:              req.Brand,
		ClosingDay:         req.ClosingDay,
		DueDay:             req.DueDay,
		LimitValue:         req.LimitValue,
		AutoDebit:          req.AutoDebit,
		AutoDebitAccountID: autoDebitAccountID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"credit_card": card})
}

// GetCards lists the caller's cards.
// @Summary     List credit cards
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.CreditCard] "Paginated cards"
// @Router      /credit-cards [get]
func (h *CreditCardHandler) GetCards(c *gin.Context) {
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

	result, err := h.cardService.GetUserCards(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCard returns one card.
// @Summary     Get credit card
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} models.CreditCard "Card"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id} [get]
func (h *CreditCardHandler) GetCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.cardService.GetCardByID(userID, cardID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"credit_card": card})
}

// UpdateCard changes a card's settings.
// @Summary     Update credit card
// @Tags        credit-cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Card ID"
// @Param       request body UpdateCardRequest true "Fields to change"
// @Success     200 {object} models.CreditCard "Updated card"
// @Failure     400 {object} ErrorResponse "Invalid input or billing days"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id} [put]
func (h *CreditCardHandler) UpdateCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	autoDebitAccountID, err := optionalID("auto_debit_account_id", req.AutoDebitAccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.cardService.UpdateCard(userID, cardID, services.CardUpdateFields{
		Name:               req.Name,
		Brand:              req.Brand,
		ClosingDay:         req.ClosingDay,
		DueDay:             req.DueDay,
		LimitValue:         req.LimitValue,
		AutoDebit:          req.AutoDebit,
		AutoDebitAccountID: autoDebitAccountID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"credit_card": card})
}

// DeleteCard removes a card that has no charges.
// @Summary     Delete credit card
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} map[string]string "Card deleted"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Failure     409 {object} ErrorResponse "Card has charges"
// @Router      /credit-cards/{id} [delete]
func (h *CreditCardHandler) DeleteCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.cardService.DeleteCard(userID, cardID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Credit card deleted successfully"})
}

// GetPeriods returns the current and next billing periods.
// @Summary     Billing periods
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string true  "Card ID"
// @Param       date query string false "Reference date (YYYY-MM-DD, default today)"
// @Success     200 {object} billing.Periods "Current and next period"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id}/periods [get]
func (h *CreditCardHandler) GetPeriods(c *gin.Context) {
	userID, cardID, ref, ok := h.cardAndDate(c)
	if !ok {
		return
	}

	periods, err := h.cardService.GetPeriods(userID, cardID, ref)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

// GetInvoice returns the invoice of the period current at the reference date.
// @Summary     Card invoice
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string true  "Card ID"
// @Param       date query string false "Reference date (YYYY-MM-DD, default today)"
// @Success     200 {object} services.Invoice "Invoice"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id}/invoice [get]
func (h *CreditCardHandler) GetInvoice(c *gin.Context) {
	userID, cardID, ref, ok := h.cardAndDate(c)
	if !ok {
		return
	}

	invoice, err := h.cardService.GetInvoice(userID, cardID, ref)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// GetUsage returns how much of the limit unpaid charges take.
// @Summary     Card limit usage
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} services.CardUsage "Usage"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id}/usage [get]
func (h *CreditCardHandler) GetUsage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	usage, err := h.cardService.GetUsage(userID, cardID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

// CloseBill closes the card's due charges now instead of waiting for the daily job.
// @Summary     Close bill
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string true  "Card ID"
// @Param       date query string false "Closing reference date (YYYY-MM-DD, default today)"
// @Success     200 {object} services.CloseResult "What was closed"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id}/close [post]
func (h *CreditCardHandler) CloseBill(c *gin.Context) {
	userID, cardID, asOf, ok := h.cardAndDate(c)
	if !ok {
		return
	}

	result, err := h.billingService.CloseBill(c.Request.Context(), userID, cardID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// PayBill pays the invoice current at the reference date from an account.
// @Summary     Pay invoice
// @Description A full payment settles every unpaid charge of the invoice. A partial payment debits the amount and leaves charge statuses unchanged.
// @Tags        credit-cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Card ID"
// @Param       request body PayBillRequest true "Payment details"
// @Success     201 {object} map[string]interface{} "Payment and debited account"
// @Failure     400 {object} ErrorResponse "Invalid input, nothing to pay or insufficient funds"
// @Failure     404 {object} ErrorResponse "Card or account not found"
// @Router      /credit-cards/{id}/payments [post]
func (h *CreditCardHandler) PayBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PayBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.PayBillInput{IsFullPayment: req.IsFullPayment, Amount: req.Amount}
	paymentDate, err := parseOptionalDate("payment_date", req.PaymentDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if paymentDate != nil {
		input.PaymentDate = *paymentDate
	}
	refDate, err := parseOptionalDate("reference_date", req.ReferenceDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if refDate != nil {
		input.ReferenceDate = *refDate
	}

	payment, account, err := h.billingService.PayBill(c.Request.Context(), userID, cardID, req.AccountID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": payment, "account": account})
}

// GetPayments lists the payments made to a card.
// @Summary     List card payments
// @Tags        credit-cards
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Card ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.CreditCardPayment] "Paginated payments"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /credit-cards/{id}/payments [get]
func (h *CreditCardHandler) GetPayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.billingService.GetCardPayments(userID, cardID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// cardAndDate reads the caller, the card path id and the optional date
// query. It writes the error response itself and reports ok=false.
func (h *CreditCardHandler) cardAndDate(c *gin.Context) (userID, cardID string, date time.Time, ok bool) {
	var err error
	if userID, err = getUserID(c); err != nil {
		respondWithError(c, err)
		return "", "", time.Time{}, false
	}
	if cardID, err = parsePathID(c, "id"); err != nil {
		respondWithError(c, err)
		return "", "", time.Time{}, false
	}
	if date, err = dateQuery(c, "date", h.calendar.Today()); err != nil {
		respondWithError(c, err)
		return "", "", time.Time{}, false
	}
	return userID, cardID, date, true
}
