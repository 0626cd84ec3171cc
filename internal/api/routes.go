package api

import (
	"github.com/gin-gonic/gin"

	"github.com/finworks/accrual-engine-go/internal/api/handlers"
	"github.com/finworks/accrual-engine-go/internal/config"
	"github.com/finworks/accrual-engine-go/internal/database"
	"github.com/finworks/accrual-engine-go/internal/middleware"
	"github.com/finworks/accrual-engine-go/internal/services"
)

// SetupRoutes registers all HTTP routes on the router and injects the
// dependencies into handlers. Mutating endpoints that rewrite learned state
// (accuracy recomputation, weight refresh) sit behind the admin API key.
func SetupRoutes(router *gin.Engine, db *database.PostgresDB, redis *database.RedisClient, forecastService *services.ForecastService, accuracyTracker *services.AccuracyTracker, weightLearner *services.WeightLearner, cfg *config.Config) {
	adminMiddleware := middleware.NewAdminMiddleware(cfg.Server.AdminAPIKey)

	// Assign through a nil check so a missing dependency stays a nil
	// interface instead of a typed nil that would pass the handler's guard.
	var dbChecker handlers.DatabaseHealthChecker
	if db != nil {
		dbChecker = db
	}
	var redisChecker handlers.RedisHealthChecker
	if redis != nil {
		redisChecker = redis
	}
	healthHandler := handlers.NewHealthHandler(dbChecker, redisChecker)

	// Health probes with telemetry
	healthGroup := router.Group("/")
	healthGroup.Use(middleware.HealthCheckTelemetryMiddleware())
	{
		healthGroup.GET("/health", healthHandler.HealthCheck)
		healthGroup.HEAD("/health", healthHandler.HealthCheck)
		healthGroup.GET("/ready", healthHandler.ReadinessCheck)
		healthGroup.GET("/live", healthHandler.LivenessCheck)
	}

	forecastHandler := handlers.NewForecastHandler(forecastService)
	accuracyHandler := handlers.NewAccuracyHandler(accuracyTracker)
	weightsHandler := handlers.NewWeightsHandler(weightLearner)

	v1 := router.Group("/api/v1")
	{
		// Forecast runs and version history
		forecasts := v1.Group("/forecasts")
		{
			forecasts.POST("/runs", forecastHandler.RunForecast)
			forecasts.GET("/versions", forecastHandler.ListVersions)
			forecasts.GET("/versions/:id", forecastHandler.GetVersion)
			forecasts.GET("/periods/:year/:month/latest", forecastHandler.GetLatestForPeriod)
		}

		// Actuals intake
		v1.POST("/actuals", accuracyHandler.RecordActuals)

		// Accuracy metrics; recomputation rewrites scored history
		accuracy := v1.Group("/accuracy")
		{
			accuracy.POST("/periods/:year/:month/compute", adminMiddleware.RequireAdminAuth(), accuracyHandler.ComputeAccuracy)
			accuracy.GET("/versions/:id", accuracyHandler.GetVersionMetrics)
		}

		// Per-method performance summary
		v1.GET("/performance/:category", accuracyHandler.GetPerformance)

		// Adaptive weights
		weights := v1.Group("/weights")
		{
			weights.GET("/:category", weightsHandler.GetWeights)
			weights.POST("/:category/refresh", adminMiddleware.RequireAdminAuth(), weightsHandler.RefreshWeights)
		}
	}
}
