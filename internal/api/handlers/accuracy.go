package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finworks/accrual-engine-go/internal/middleware"
	"github.com/finworks/accrual-engine-go/internal/models"
	"github.com/finworks/accrual-engine-go/internal/utils"
)

// AccuracyService is the tracker surface the accuracy endpoints depend on.
// *services.AccuracyTracker satisfies it.
type AccuracyService interface {
	RecordActuals(ctx context.Context, records []models.ActualRecord) ([]models.ActualRecord, error)
	ComputeAccuracy(ctx context.Context, period models.Period) ([]models.AccuracyMetric, error)
	GetVersionMetrics(ctx context.Context, versionID string) ([]models.AccuracyMetric, error)
	GetPerformance(ctx context.Context, category string) ([]models.MethodPerformance, error)
}

type AccuracyHandler struct {
	service AccuracyService
}

func NewAccuracyHandler(service AccuracyService) *AccuracyHandler {
	return &AccuracyHandler{
		service: service,
	}
}

// RecordActualsRequest is the batch ingestion body. Each record upserts:
// a later report for the same period and category overwrites the earlier one.
type RecordActualsRequest struct {
	Actuals []models.ActualRecord `json:"actuals" binding:"required"`
}

// RecordActualsResponse confirms a batch ingestion.
type RecordActualsResponse struct {
	Recorded int                   `json:"recorded"`
	Actuals  []models.ActualRecord `json:"actuals"`
}

// ComputeAccuracyResponse carries the metrics produced for one period.
type ComputeAccuracyResponse struct {
	Period     models.Period           `json:"period"`
	Metrics    []models.AccuracyMetric `json:"metrics"`
	Total      int                     `json:"total"`
	ComputedAt time.Time               `json:"computed_at"`
}

// VersionMetricsResponse lists the stored metrics of one version.
type VersionMetricsResponse struct {
	VersionID string                  `json:"version_id"`
	Metrics   []models.AccuracyMetric `json:"metrics"`
	Total     int                     `json:"total"`
}

// MethodPerformanceResponse summarizes per-method accuracy for a category.
type MethodPerformanceResponse struct {
	Category string                     `json:"category"`
	Methods  []models.MethodPerformance `json:"methods"`
}

// RecordActuals ingests a batch of reported actuals.
func (h *AccuracyHandler) RecordActuals(c *gin.Context) {
	var req RecordActualsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	middleware.AddSpanAttribute(c, "actuals.count", len(req.Actuals))

	recorded, err := h.service.RecordActuals(c.Request.Context(), req.Actuals)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, RecordActualsResponse{
		Recorded: len(recorded),
		Actuals:  recorded,
	})
}

// ComputeAccuracy scores the latest version of a period against its
// reported actuals and refreshes the adaptive weights of every category
// that received new metrics.
func (h *AccuracyHandler) ComputeAccuracy(c *gin.Context) {
	period, err := utils.ParsePeriod(c.Param("year"), c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	middleware.AddSpanAttribute(c, "accuracy.period", period.Key())

	metrics, err := h.service.ComputeAccuracy(c.Request.Context(), period)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ComputeAccuracyResponse{
		Period:     period,
		Metrics:    metrics,
		Total:      len(metrics),
		ComputedAt: time.Now(),
	})
}

// GetVersionMetrics returns the stored accuracy metrics for one version.
// A version that exists but was never scored yields an empty list.
func (h *AccuracyHandler) GetVersionMetrics(c *gin.Context) {
	versionID := c.Param("id")
	if _, err := uuid.Parse(versionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Version ID must be a UUID"})
		return
	}

	metrics, err := h.service.GetVersionMetrics(c.Request.Context(), versionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, VersionMetricsResponse{
		VersionID: versionID,
		Metrics:   metrics,
		Total:     len(metrics),
	})
}

// GetPerformance returns the per-method accuracy summary for one category,
// including the recency-weighted mean error behind the current weights.
func (h *AccuracyHandler) GetPerformance(c *gin.Context) {
	category := c.Param("category")

	performance, err := h.service.GetPerformance(c.Request.Context(), category)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MethodPerformanceResponse{
		Category: category,
		Methods:  performance,
	})
}
