package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/productrecommend/backend/config"
)

// SetupRouter creates and configures the Gin router.
// metricsHandler is mounted at /metrics when non-nil.
func SetupRouter(cfg *config.Config, handler *Handler, metricsHandler http.Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/recommendations", handler.Recommend)

		products := v1.Group("/products")
		{
			products.POST("/parse", handler.ParseProducts)
			products.POST("/render", handler.RenderProduct)
		}
	}

	return router
}
