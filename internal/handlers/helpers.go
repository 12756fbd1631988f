package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/logger"
)

// OwnerIDKey is the Gin context key the auth middleware stores the owner under.
const OwnerIDKey = "ownerID"

// getOwnerID extracts the authenticated owner ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getOwnerID(c *gin.Context) (string, error) {
	ownerID, ok := c.Get(OwnerIDKey)
	if !ok {
		return "", apperrors.ErrUnauthorized
	}
	id, ok := ownerID.(string)
	if !ok || id == "" {
		return "", apperrors.ErrUnauthorized
	}
	return id, nil
}

// parseDate accepts a calendar date (2006-01-02) or an RFC3339 timestamp.
// An empty string yields the zero time.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+field+": use YYYY-MM-DD")
}

// parseOptionalDate is parseDate for query filters, returning nil when absent.
func parseOptionalDate(field, raw string) (*time.Time, error) {
	t, err := parseDate(field, raw)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
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

// MessageResponse is returned by endpoints that only acknowledge an action.
type MessageResponse struct {
	Message string `json:"message"`
}
