package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rjgems/backend/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/:id", handler.GetProduct)
			products.GET("/:id/recommendations", handler.ProductRecommendations)
			products.POST("/:id/regenerate-description", handler.RegenerateDescription)
		}

		ai := v1.Group("/ai")
		{
			ai.POST("/search", handler.AISearch)
			ai.POST("/gifts", handler.AIGifts)
			ai.POST("/recommendations", handler.AIRecommendations)
			ai.POST("/description", handler.AIDescription)
			ai.POST("/style-advice", handler.AIStyleAdvice)
			ai.POST("/chat", handler.AIChat)
			ai.GET("/chat/quick-questions", handler.QuickQuestions)
		}
	}

	return router
}
