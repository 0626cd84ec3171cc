package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// WeightsService is the learner surface the weight endpoints depend on.
// *services.WeightLearner satisfies it.
type WeightsService interface {
	GetWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error)
	UpdateWeights(ctx context.Context, category string) ([]models.AdaptiveWeight, error)
}

type WeightsHandler struct {
	service WeightsService
}

func NewWeightsHandler(service WeightsService) *WeightsHandler {
	return &WeightsHandler{
		service: service,
	}
}

// WeightsResponse carries the current weight triple of one category.
type WeightsResponse struct {
	Category string                  `json:"category"`
	Weights  []models.AdaptiveWeight `json:"weights"`
}

// RefreshWeightsResponse carries a freshly recomputed weight triple.
type RefreshWeightsResponse struct {
	Category    string                  `json:"category"`
	Weights     []models.AdaptiveWeight `json:"weights"`
	RefreshedAt time.Time               `json:"refreshed_at"`
}

// GetWeights returns the stored adaptive weights for a category, or the
// default equal thirds when nothing has been learned yet.
func (h *WeightsHandler) GetWeights(c *gin.Context) {
	category := c.Param("category")

	weights, err := h.service.GetWeights(c.Request.Context(), category)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, WeightsResponse{
		Category: category,
		Weights:  weights,
	})
}

// RefreshWeights recomputes a category's weights from its full accuracy
// history and returns the result.
func (h *WeightsHandler) RefreshWeights(c *gin.Context) {
	category := c.Param("category")

	weights, err := h.service.UpdateWeights(c.Request.Context(), category)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, RefreshWeightsResponse{
		Category:    category,
		Weights:     weights,
		RefreshedAt: time.Now(),
	})
}
