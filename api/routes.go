package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/killallgit/study-api/api/health"
	"github.com/killallgit/study-api/api/samples"
	"github.com/killallgit/study-api/api/studies"
	"github.com/killallgit/study-api/api/types"
	"github.com/killallgit/study-api/api/version"
	_ "github.com/killallgit/study-api/docs/swagger"
	"github.com/killallgit/study-api/pkg/config"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, cfg *config.Config, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	// Register public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine)

	if cfg.Monitoring.Enabled && deps.Metrics != nil {
		path := cfg.Monitoring.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(deps.Metrics.Handler()))
	}

	// Register Swagger documentation route
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	// Viewers issue many range requests per model, samples are not rate limited
	samples.RegisterRoutes(engine.Group("/samples"), deps)

	studyGroup := engine.Group("/api/studies")
	if cfg.RateLimiting.Enabled {
		studyGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, cfg.RateLimiting.RPS, cfg.RateLimiting.Burst))
	}
	studies.RegisterRoutes(studyGroup, deps)

	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "The requested endpoint was not found",
			"details": c.Request.URL.Path,
		})
	}
}
