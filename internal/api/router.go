package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/laurensOost/925r/internal/config"
)

// NewRouter builds the gin engine with all report routes registered.
func NewRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", handler.Health)

	if cfg.Metrics.Prometheus.Enabled {
		path := cfg.Metrics.Prometheus.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/range_info", handler.GetRangeInfo)
		v1.GET("/availability", handler.GetAvailability)
		v1.GET("/availability/internal", handler.GetInternalAvailability)
		v1.GET("/users/:id/overtime", handler.GetOvertimeSeries)
		v1.GET("/users/:id/redmine/performances", handler.GetExternalPerformances)
		v1.POST("/users/:id/redmine/import", handler.ImportExternalPerformances)
	}

	return router
}
