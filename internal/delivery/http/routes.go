package http

import (
	"github.com/dealscope/backend/config"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP)))
	{
		v1.GET("/search", handler.Search)

		products := v1.Group("/products/:asin")
		{
			products.GET("", handler.Product)
			products.GET("/history", handler.PriceHistory)
			products.GET("/statistics", handler.PriceStatistics)
			products.GET("/best-time", handler.BestPriceTime)
		}

		v1.POST("/compare", handler.Compare)
		v1.GET("/categories", handler.Categories)
		v1.GET("/brands", handler.Brands)
		v1.GET("/category-stats/:category", handler.CategoryStats)
		v1.GET("/alerts/drops", handler.DropAlerts)

		v1.POST("/unit-price", handler.UnitPrice)
		v1.POST("/unit-price/bulk", handler.BulkUnitPrice)

		v1.POST("/listings", handler.IngestListings)
		v1.POST("/scrape", handler.Scrape)
	}

	return router
}
