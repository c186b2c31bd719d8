package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ronieruas/Finance-CursorApp-sub000/internal/errors"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/logger"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/uuid"
	"github.com/ronieruas/Finance-CursorApp-sub000/internal/validator"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userID")
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseDate parses a YYYY-MM-DD calendar date.
func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(validator.DateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+field+", expected YYYY-MM-DD")
	}
	return d, nil
}

// parseOptionalDate parses value when present.
func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	d, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// dateQuery reads a date query parameter, defaulting to fallback.
func dateQuery(c *gin.Context, field string, fallback time.Time) (time.Time, error) {
	raw := c.Query(field)
	if raw == "" {
		return fallback, nil
	}
	return parseDate(field, raw)
}

// optionalID returns nil for an empty id and validates any other value.
func optionalID(field string, value *string) (*string, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	if !uuid.IsValid(*value) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+field)
	}
	return value, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
