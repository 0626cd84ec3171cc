package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

// DatabaseHealthChecker verifies the database connection.
type DatabaseHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// RedisHealthChecker verifies the Redis connection.
type RedisHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler manages the health, readiness and liveness probes.
type HealthHandler struct {
	db    DatabaseHealthChecker
	redis RedisHealthChecker
}

func NewHealthHandler(db DatabaseHealthChecker, redis RedisHealthChecker) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

// HealthResponse is the full health report.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	System    SystemStatus      `json:"system"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
}

// SystemStatus is a point-in-time sample of host resource usage.
type SystemStatus struct {
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	CPUPercent        float64 `json:"cpu_percent"`
	Goroutines        int     `json:"goroutines"`
}

// HealthCheck reports the status of the database, Redis and the host.
// Only an unhealthy database degrades the response to 503: the service
// still works without Redis, every version read just misses the cache.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	databaseHealthy := false

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			services["database"] = "unhealthy: " + err.Error()
		} else {
			services["database"] = "healthy"
			databaseHealthy = true
		}
	} else {
		services["database"] = "unhealthy: not configured"
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "unhealthy: not configured"
	}

	status := "healthy"
	for _, s := range services {
		if s != "healthy" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		System:    systemStatus(ctx),
		Version:   os.Getenv("APP_VERSION"),
		Uptime:    time.Since(startTime).String(),
	}

	statusCode := http.StatusOK
	if !databaseHealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

// ReadinessCheck gates traffic on the database connection: a replica that
// cannot reach the store must not receive requests.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	services := make(map[string]string)

	if h.db == nil {
		services["database"] = "not ready"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ready":    false,
			"services": services,
		})
		return
	}
	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		services["database"] = "not ready"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ready":    false,
			"services": services,
		})
		return
	}
	services["database"] = "ready"

	if h.redis != nil {
		if err := h.redis.HealthCheck(c.Request.Context()); err != nil {
			services["redis"] = "not ready"
		} else {
			services["redis"] = "ready"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ready":    true,
		"services": services,
	})
}

// LivenessCheck confirms the process is responsive.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// systemStatus samples host memory and CPU usage. Sampling is best effort:
// a probe that fails just leaves its field at zero.
func systemStatus(ctx context.Context) SystemStatus {
	status := SystemStatus{Goroutines: runtime.NumGoroutine()}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		status.MemoryUsedPercent = memInfo.UsedPercent
	}
	// Zero interval compares against the previous sample instead of blocking.
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		status.CPUPercent = cpuPercent[0]
	}

	return status
}
