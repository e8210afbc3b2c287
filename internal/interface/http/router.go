package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/ai-stockassistant/internal/domain/auth"
	"github.com/yanqian/ai-stockassistant/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
// Bearer tokens are only checked when auth is enabled.
func NewRouter(cfg *config.Config, handler *Handler, tokens auth.TokenService) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger))
	if cfg.Auth.Enabled {
		api.Use(authMiddleware(tokens))
	}
	{
		api.POST("/chat", handler.Chat)
		api.GET("/chat/:conversationId/messages", handler.History)
		api.POST("/portfolio/valuation", handler.PortfolioValuation)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
