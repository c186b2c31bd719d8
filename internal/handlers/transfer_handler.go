package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/pagination"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/services"
)

// TransferHandler handles transfer-related requests.
type TransferHandler struct {
	transferService services.TransferServicer
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService services.TransferServicer) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// TransferRequest is the payload for creating or editing a transfer.
// Leaving a side empty makes it a third party.
type TransferRequest struct {
	FromAccountID *string         `json:"from_account_id"`
	ToAccountID   *string         `json:"to_account_id"`
	Value         decimal.Decimal `json:"value" swaggertype:"string" example:"250.00"`
	Date          string          `json:"date" binding:"required,calendar_date" example:"2025-07-15"`
	Description   string          `json:"description" binding:"max=255"`
}

func (r TransferRequest) toInput() (services.TransferInput, error) {
	from, err := optionalID("from_account_id", r.FromAccountID)
	if err != nil {
		return services.TransferInput{}, err
	}
	to, err := optionalID("to_account_id", r.ToAccountID)
	if err != nil {
		return services.TransferInput{}, err
	}
	date, err := parseDate("date", r.Date)
	if err != nil {
		return services.TransferInput{}, err
	}
	return services.TransferInput{
		FromAccountID: from,
		ToAccountID:   to,
		Value:         r.Value,
		Date:          date,
		Description:   r.Description,
	}, nil
}

// CreateTransfer moves money out of and/or into the caller's accounts.
// @Summary     Create a transfer
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransferRequest true "Transfer details"
// @Success     201 {object} map[string]interface{} "Transfer and affected accounts"
// @Failure     400 {object} ErrorResponse "Invalid input, insufficient funds or currency mismatch"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, accounts, err := h.transferService.CreateTransfer(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transfer": transfer, "accounts": accounts})
}

// GetTransfers lists transfers, optionally those touching one account.
// @Summary     List transfers
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       account_id query string false "Only transfers from or to this account"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transfer] "Paginated transfers"
// @Router      /transfers [get]
func (h *TransferHandler) GetTransfers(c *gin.Context) {
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

	accountID, err := optionalID("account_id", queryPtr(c, "account_id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transferService.GetUserTransfers(userID, page, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransfer returns one transfer.
// @Summary     Get transfer
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transfer ID"
// @Success     200 {object} models.Transfer "Transfer"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /transfers/{id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transferService.GetTransferByID(userID, transferID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer})
}

// UpdateTransfer edits a transfer. The old effect is reversed and the new one
// applied in the same transaction.
// @Summary     Update transfer
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true "Transfer ID"
// @Param       request body TransferRequest true "New transfer values"
// @Success     200 {object} map[string]interface{} "Transfer and affected accounts"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient funds"
// @Failure     404 {object} ErrorResponse "Transfer or account not found"
// @Router      /transfers/{id} [put]
func (h *TransferHandler) UpdateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, accounts, err := h.transferService.EditTransfer(userID, transferID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer, "accounts": accounts})
}

// DeleteTransfer removes a transfer and reverses both sides.
// @Summary     Delete transfer
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transfer ID"
// @Success     200 {object} map[string]interface{} "Accounts after the reversal"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /transfers/{id} [delete]
func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transferID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.transferService.DeleteTransfer(userID, transferID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transfer deleted successfully", "accounts": accounts})
}
