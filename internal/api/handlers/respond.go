package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finworks/accrual-engine-go/internal/database"
	"github.com/finworks/accrual-engine-go/internal/middleware"
	"github.com/finworks/accrual-engine-go/internal/utils"
)

// respondServiceError maps service failures onto HTTP responses: validation
// failures are the caller's fault, missing snapshots and missing actuals are
// 404s, everything else is a 500 recorded on the request span.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrVersionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Forecast version not found"})
	case errors.Is(err, database.ErrNoActuals):
		c.JSON(http.StatusNotFound, gin.H{"error": "No actuals reported for this period"})
	default:
		middleware.RecordError(c, err, "request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
