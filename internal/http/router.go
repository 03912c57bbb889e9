package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/DownstreamWealth/portal/internal/config"
	"github.com/DownstreamWealth/portal/internal/http/handler"
	httpmiddleware "github.com/DownstreamWealth/portal/internal/http/middleware"
	"github.com/DownstreamWealth/portal/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, logger *zap.Logger, accounts *handler.AccountHandler, health *handler.HealthHandler, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", health.Healthz)

	api := r.Group("/")
	api.Use(rateLimiter.Handler())
	{
		api.POST("/register", accounts.Register)
		api.GET("/profile", accounts.GetProfile)
		api.PUT("/profile", accounts.UpdateProfile)
	}

	return r
}
