// Package httpx maps core error kinds onto HTTP status codes.
package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mliu/prompthub/internal/domain/errs"
)

// Error writes the JSON error response for err. Validation problems keep
// their field-level message; not-found and conflict map to their status
// codes; anything else is an opaque server error.
func Error(c *gin.Context, err error) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
