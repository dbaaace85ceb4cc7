// Package admin serves the operator endpoint of the URL shortener service.
// It listens on its own address and is never reachable through the public listener.
package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scratch-shortener/services"
	"scratch-shortener/types"
)

// RegisterRoutes sets up the admin routes.
func RegisterRoutes(r *gin.Engine, service services.URLService) {
	r.GET("/health", HealthCheck)
	r.GET("/stats", Stats(service))
}

// NewEngine returns a gin engine with request logging and the admin routes registered.
func NewEngine(service services.URLService, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), LoggingMiddleware(logger))
	RegisterRoutes(r, service)
	return r
}

// NewServer wraps the admin engine in an http.Server bound to addr.
func NewServer(addr string, service services.URLService, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewEngine(service, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// HealthCheck returns 200 OK while the process is serving.
func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Stats reports the number of stored short URLs.
func Stats(service services.URLService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, types.StatsResponse{Entries: service.Count()})
	}
}

// LoggingMiddleware logs each admin request at debug level.
func LoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Admin request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)))
	}
}
