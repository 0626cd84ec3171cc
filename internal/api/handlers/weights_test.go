package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finworks/accrual-engine-go/internal/models"
)

func TestNewWeightsHandler(t *testing.T) {
	mockService := &MockWeightsService{}
	handler := NewWeightsHandler(mockService)

	assert.NotNil(t, handler)
	assert.Equal(t, mockService, handler.service)
}

func TestWeightsHandler_GetWeights(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Learned weights", func(t *testing.T) {
		mockService := &MockWeightsService{}
		handler := NewWeightsHandler(mockService)

		weights := []models.AdaptiveWeight{
			{Category: "Travel", Method: models.MethodSimple, Weight: 0.25, SampleCount: 8, ConfidenceScore: 0.8},
			{Category: "Travel", Method: models.MethodWeighted, Weight: 0.45, SampleCount: 8, ConfidenceScore: 0.8},
			{Category: "Travel", Method: models.MethodTrending, Weight: 0.30, SampleCount: 8, ConfidenceScore: 0.8},
		}
		mockService.On("GetWeights", mock.Anything, "Travel").Return(weights, nil)

		w, c := jsonRequest(t, "GET", "/api/v1/weights/Travel", nil)
		c.Params = gin.Params{{Key: "category", Value: "Travel"}}
		handler.GetWeights(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response WeightsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Travel", response.Category)
		require.Len(t, response.Weights, 3)

		total := 0.0
		for _, weight := range response.Weights {
			total += weight.Weight
		}
		assert.InDelta(t, 1.0, total, 1e-9)
		mockService.AssertExpectations(t)
	})

	t.Run("Default thirds pass through unchanged", func(t *testing.T) {
		mockService := &MockWeightsService{}
		handler := NewWeightsHandler(mockService)

		third := 1.0 / 3.0
		weights := []models.AdaptiveWeight{
			{Category: "New Category", Method: models.MethodSimple, Weight: third},
			{Category: "New Category", Method: models.MethodWeighted, Weight: third},
			{Category: "New Category", Method: models.MethodTrending, Weight: third},
		}
		mockService.On("GetWeights", mock.Anything, "New Category").Return(weights, nil)

		w, c := jsonRequest(t, "GET", "/api/v1/weights/New%20Category", nil)
		c.Params = gin.Params{{Key: "category", Value: "New Category"}}
		handler.GetWeights(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response WeightsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "New Category", response.Category)
		require.Len(t, response.Weights, 3)
		assert.InDelta(t, third, response.Weights[0].Weight, 1e-9)
		assert.Zero(t, response.Weights[0].SampleCount)
	})

	t.Run("Store failure", func(t *testing.T) {
		mockService := &MockWeightsService{}
		handler := NewWeightsHandler(mockService)

		mockService.On("GetWeights", mock.Anything, "Travel").Return(nil, assert.AnError)

		w, c := jsonRequest(t, "GET", "/api/v1/weights/Travel", nil)
		c.Params = gin.Params{{Key: "category", Value: "Travel"}}
		handler.GetWeights(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestWeightsHandler_RefreshWeights(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		mockService := &MockWeightsService{}
		handler := NewWeightsHandler(mockService)

		updated := time.Date(2025, time.August, 2, 10, 0, 0, 0, time.UTC)
		weights := []models.AdaptiveWeight{
			{Category: "Travel", Method: models.MethodSimple, Weight: 0.2, SampleCount: 9, ConfidenceScore: 0.9, UpdatedAt: updated},
			{Category: "Travel", Method: models.MethodWeighted, Weight: 0.5, SampleCount: 9, ConfidenceScore: 0.9, UpdatedAt: updated},
			{Category: "Travel", Method: models.MethodTrending, Weight: 0.3, SampleCount: 9, ConfidenceScore: 0.9, UpdatedAt: updated},
		}
		mockService.On("UpdateWeights", mock.Anything, "Travel").Return(weights, nil)

		w, c := jsonRequest(t, "POST", "/api/v1/weights/Travel/refresh", nil)
		c.Params = gin.Params{{Key: "category", Value: "Travel"}}
		handler.RefreshWeights(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response RefreshWeightsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Travel", response.Category)
		require.Len(t, response.Weights, 3)
		assert.InDelta(t, 0.5, response.Weights[1].Weight, 1e-9)
		assert.False(t, response.RefreshedAt.IsZero())
		mockService.AssertExpectations(t)
	})

	t.Run("Store failure", func(t *testing.T) {
		mockService := &MockWeightsService{}
		handler := NewWeightsHandler(mockService)

		mockService.On("UpdateWeights", mock.Anything, "Travel").Return(nil, assert.AnError)

		w, c := jsonRequest(t, "POST", "/api/v1/weights/Travel/refresh", nil)
		c.Params = gin.Params{{Key: "category", Value: "Travel"}}
		handler.RefreshWeights(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
