package health

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/study-api/api/types"
)

const statusNotConfigured = "not configured"

// Get handles health check requests
// @Summary      Health check
// @Description  Reports samples directory and activity database status
// @Tags         health
// @Produce      json
// @Success      200 {object} types.HealthResponse
// @Failure      503 {object} types.HealthResponse "Unhealthy"
// @Router       /health [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := types.HealthResponse{
			Status:    types.StatusOK,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Storage:   getStorageStatus(deps),
			Database:  getDatabaseStatus(deps),
		}

		code := http.StatusOK
		if response.Storage.Status == types.StatusUnhealthy || response.Database.Status == types.StatusUnhealthy {
			response.Status = types.StatusUnhealthy
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, response)
	}
}

// getStorageStatus checks that the samples root is a readable directory
func getStorageStatus(deps *types.Dependencies) types.ComponentStatus {
	if deps == nil || deps.Store == nil {
		return types.ComponentStatus{Status: statusNotConfigured}
	}

	info, err := os.Stat(deps.Store.SamplesDir())
	if err != nil {
		return types.ComponentStatus{Status: types.StatusUnhealthy, Error: err.Error()}
	}
	if !info.IsDir() {
		return types.ComponentStatus{
			Status: types.StatusUnhealthy,
			Error:  fmt.Sprintf("%s is not a directory", deps.Store.SamplesDir()),
		}
	}
	return types.ComponentStatus{Status: types.StatusHealthy}
}

// getDatabaseStatus returns the database connection status
func getDatabaseStatus(deps *types.Dependencies) types.ComponentStatus {
	if deps == nil || deps.DB == nil || deps.DB.DB == nil {
		return types.ComponentStatus{Status: statusNotConfigured}
	}

	if err := deps.DB.HealthCheck(); err != nil {
		return types.ComponentStatus{Status: types.StatusUnhealthy, Error: err.Error()}
	}

	return types.ComponentStatus{Status: types.StatusHealthy}
}
