package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	v1 "github.com/subcart/subcart/internal/api/v1"
	"github.com/subcart/subcart/internal/config"
	"github.com/subcart/subcart/internal/rest/middleware"
)

// Handlers groups the versioned API handlers the router mounts.
type Handlers struct {
	Checkout *v1.CheckoutHandler
}

// NewRouter builds the gin engine with the standard middleware chain.
func NewRouter(cfg *config.Configuration, handlers Handlers) *gin.Engine {
	if cfg.Deployment.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.ErrorHandler(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := router.Group("/v1")
	checkout := group.Group("/checkout")
	checkout.POST("/preview", handlers.Checkout.Preview)

	return router
}
