// Package router provides docqa service routing.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/handler"
)

// New builds the gin engine with middleware and routes registered.
func New(h *handler.DocQAHandler, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), corsMiddleware(corsOrigins))

	engine.POST("/upload-pdf", h.UploadPDF)
	engine.POST("/ask", h.Ask)
	engine.GET("/health", h.Health)
	engine.DELETE("/clear-collection", h.ClearCollection)

	return engine
}

// requestLogger logs one line per request with latency and status.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Infow("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// corsMiddleware applies permissive CORS with configurable origins.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := "*"
	allowAll := true
	originSet := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
			break
		}
		allowAll = false
		originSet[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Header("Access-Control-Allow-Origin", allowed)
		} else if _, ok := originSet[origin]; ok {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
