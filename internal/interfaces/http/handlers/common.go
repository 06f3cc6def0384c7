// internal/interfaces/http/handlers/common.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/domain/analytics"
	"github.com/your-org/pos-backend/internal/domain/inventory"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/domain/sale"
	"github.com/your-org/pos-backend/internal/domain/settings"
	"github.com/your-org/pos-backend/internal/domain/user"
	"github.com/your-org/pos-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/pos-backend/internal/pkg/auth"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch sale.KindOf(err) {
	case sale.KindUnauthenticated:
		return http.StatusUnauthorized
	case sale.KindRequestDefect, sale.KindStateConflict:
		return http.StatusBadRequest
	case sale.KindPersistence:
		return http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, product.ErrCategoryNotFound),
		errors.Is(err, sale.ErrSaleNotFound):
		return http.StatusNotFound

	case errors.Is(err, user.ErrDuplicateUser),
		errors.Is(err, product.ErrDuplicateBarcode),
		errors.Is(err, product.ErrDuplicateCategory),
		errors.Is(err, product.ErrProductHasSales),
		errors.Is(err, product.ErrCategoryInUse),
		errors.Is(err, inventory.ErrNegativeStock):
		return http.StatusConflict

	case errors.Is(err, user.ErrCannotDeleteSelf),
		errors.Is(err, user.ErrWrongPassword),
		errors.Is(err, user.ErrCurrentPasswordEmpty),
		errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, product.ErrInvalidInput),
		errors.Is(err, product.ErrInvalidCategory),
		errors.Is(err, inventory.ErrInvalidAdjustment),
		errors.Is(err, settings.ErrInvalidSettings),
		errors.Is(err, analytics.ErrInvalidDateRange):
		return http.StatusBadRequest
	}

	if postgres.IsUniqueViolation(err) || postgres.IsForeignKeyViolation(err) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Server errors are logged through the
// gin context and replaced with a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		c.JSON(status, gin.H{
			"error": "Internal server error",
		})
		return
	}

	body := gin.H{"error": err.Error()}
	if kind := sale.KindOf(err); kind != sale.KindUnknown {
		body["kind"] = kind.String()
	}
	c.JSON(status, body)
}

// respondBindError reports a body or query that could not be bound
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// parseIDParam reads a positive numeric path parameter
func parseIDParam(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + label + " ID",
		})
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an integer query parameter, falling back to def
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
