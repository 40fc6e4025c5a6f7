package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/handler"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/middleware"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/service"
)

// Requests allowed per client IP and window
const (
	RateLimit       = 300
	RateLimitWindow = time.Minute
)

// SetupRouter wires the layer and ledger handlers
func SetupRouter(cfg *config.Config, layers *service.LayerService, runs *service.StageRunService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Freight electrification layer API is running",
		})
	})

	layerHandler := handler.NewLayerHandler(layers)
	runHandler := handler.NewStageRunHandler(runs)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(RateLimit, RateLimitWindow), middleware.Auth(cfg.JWTSecret))
	{
		api.GET("/layers", layerHandler.ListLayers)
		api.GET("/layers/*name", layerHandler.GetLayer)

		api.GET("/runs", runHandler.ListRuns)
		api.GET("/runs/:id", runHandler.GetRun)

		api.GET("/stages", runHandler.ListStages)
	}

	return r
}
