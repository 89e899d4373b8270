package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/faqstudio/backend/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.CORSOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, logger),
		errorHandlingMiddleware(logger),
	)

	guard := authMiddleware(cfg.Auth)

	router.GET("/health", handler.Health)
	router.POST("/check-duplicate", handler.CheckDuplicate)
	router.POST("/add", guard, handler.Add)

	questions := router.Group("/questions")
	{
		questions.GET("", handler.List)
		questions.GET("/search", handler.Search)
		questions.GET("/:id", handler.GetQuestion)
		questions.DELETE("/:id", guard, handler.Delete)
	}

	router.GET("/categories.json", handler.Categories)
	router.DELETE("/categories/:name", guard, handler.RemoveCategory)

	stats := router.Group("/stats")
	{
		stats.GET("/categories", handler.StatsCategories)
		stats.GET("/total", handler.StatsTotal)
		stats.GET("/recent", handler.StatsRecent)
		stats.GET("/by-date", handler.StatsByDate)
		stats.GET("/trending", handler.StatsTrending)
	}

	admin := router.Group("/admin", guard)
	{
		admin.POST("/replay", handler.Replay)
		admin.POST("/reindex", handler.Reindex)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
	}
}
