package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finworks/accrual-engine-go/internal/middleware"
	"github.com/finworks/accrual-engine-go/internal/models"
	"github.com/finworks/accrual-engine-go/internal/services"
	"github.com/finworks/accrual-engine-go/internal/utils"
)

// ForecastService is the service surface the forecast endpoints depend on.
// *services.ForecastService satisfies it.
type ForecastService interface {
	RunForecast(ctx context.Context, req services.RunRequest) (*models.ForecastVersion, error)
	GetVersion(ctx context.Context, id string) (*models.ForecastVersion, error)
	GetLatestForPeriod(ctx context.Context, period models.Period) (*models.ForecastVersion, error)
	ListVersions(ctx context.Context, period *models.Period, limit int) ([]models.ForecastVersion, error)
}

type ForecastHandler struct {
	service ForecastService
}

func NewForecastHandler(service ForecastService) *ForecastHandler {
	return &ForecastHandler{
		service: service,
	}
}

// RunForecastRequest is the body of a forecast run. Weights are optional
// and, when present, override the stored adaptive weights for this run only.
type RunForecastRequest struct {
	Period  models.Period               `json:"period" binding:"required"`
	Label   string                      `json:"label"`
	Notes   string                      `json:"notes"`
	Series  []models.HistoricalSeries   `json:"series" binding:"required"`
	Weights map[string]models.WeightSet `json:"weights"`
}

// VersionListResponse wraps a version listing.
type VersionListResponse struct {
	Versions  []models.ForecastVersion `json:"versions"`
	Total     int                      `json:"total"`
	Timestamp time.Time                `json:"timestamp"`
}

// RunForecast executes one forecast run and returns the persisted version
// snapshot.
func (h *ForecastHandler) RunForecast(c *gin.Context) {
	var req RunForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	middleware.AddSpanAttribute(c, "forecast.period", req.Period.Key())
	middleware.AddSpanAttribute(c, "forecast.series_count", len(req.Series))

	version, err := h.service.RunForecast(c.Request.Context(), services.RunRequest{
		Period:  req.Period,
		Label:   req.Label,
		Notes:   req.Notes,
		Series:  req.Series,
		Weights: req.Weights,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, version)
}

// ListVersions returns version snapshots in creation order. The year and
// month query parameters filter to one period and must be given together.
func (h *ForecastHandler) ListVersions(c *gin.Context) {
	var period *models.Period
	yearStr := c.Query("year")
	monthStr := c.Query("month")
	if yearStr != "" || monthStr != "" {
		if yearStr == "" || monthStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year and month must be provided together"})
			return
		}
		parsed, err := utils.ParsePeriod(yearStr, monthStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		period = &parsed
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	versions, err := h.service.ListVersions(c.Request.Context(), period, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, VersionListResponse{
		Versions:  versions,
		Total:     len(versions),
		Timestamp: time.Now(),
	})
}

// GetVersion returns one version snapshot by ID, read through the cache.
func (h *ForecastHandler) GetVersion(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Version ID must be a UUID"})
		return
	}

	version, err := h.service.GetVersion(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, version)
}

// GetLatestForPeriod returns the most recent version covering a period.
func (h *ForecastHandler) GetLatestForPeriod(c *gin.Context) {
	period, err := utils.ParsePeriod(c.Param("year"), c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	version, err := h.service.GetLatestForPeriod(c.Request.Context(), period)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, version)
}
