package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/codify/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
// A nil verifier leaves the protected routes open.
func NewRouter(cfg *config.Config, handler *Handler, verifier TokenVerifier) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger))
	{
		api.GET("/regions/resolve", handler.ResolveRegion)
		api.GET("/weather/daily", handler.DailyWeather)
	}

	secured := api.Group("")
	secured.Use(authMiddleware(verifier))
	{
		secured.POST("/recommendations", handler.Recommend)
		secured.POST("/weather/refresh", handler.RefreshWeather)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
