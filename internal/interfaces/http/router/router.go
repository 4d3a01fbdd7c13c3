package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/caseclub/erpnext-shipping/internal/infrastructure/logger"
	"github.com/caseclub/erpnext-shipping/internal/interfaces/http/handler"
	"github.com/caseclub/erpnext-shipping/internal/interfaces/http/middleware"
)

// maxRequestBodyBytes bounds request bodies. Rate and purchase payloads
// are small; anything bigger is a mistake.
const maxRequestBodyBytes = 1 << 20

// Config holds router configuration
type Config struct {
	// CORSOrigins lists the origins allowed cross-origin access.
	CORSOrigins []string
}

// Handlers collects the handlers the router mounts
type Handlers struct {
	Shipping *handler.ShippingHandler
	Labels   *handler.LabelHandler
	System   *handler.SystemHandler
}

// New builds the gin engine with all middleware and routes registered
func New(cfg Config, h Handlers, log *zap.Logger) *gin.Engine {
	engine := gin.New()

	middleware.SetupValidator()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.CORSOrigins

	engine.Use(
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsCfg),
		middleware.BodyLimit(maxRequestBodyBytes),
	)

	engine.GET("/health", h.System.Health)

	api := engine.Group("/api/v1")
	{
		api.GET("/system/info", h.System.GetSystemInfo)

		shipments := api.Group("/shipments")
		{
			shipments.POST("/rates", h.Shipping.FetchRates)
			shipments.POST("", h.Shipping.CreateShipment)
			shipments.GET("/:reference/label", h.Shipping.GetLabel)
			shipments.POST("/:reference/tracking", h.Shipping.UpdateTracking)
		}

		api.GET("/labels/*filename", h.Labels.Serve)
	}

	return engine
}
