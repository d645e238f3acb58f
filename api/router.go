// Package api exposes the sync and summary operations over HTTP.
package api

import (
	"log"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with every route mounted under /api.
func NewRouter(svc Service, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), recovery(), cors(allowedOrigins))

	h := NewHandler(svc)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.POST("/sync/:server_id", h.StartSync)
		api.GET("/sync/:server_id/status", h.SyncStatus)
		api.GET("/summarize/:server_id", h.Summarize)
		api.POST("/clear-cache/:server_id", h.ClearCache)
		api.GET("/channels/:server_id", h.Channels)
	}

	return r
}

// recovery turns a handler panic into the generic server error response.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("[api] panic serving %s: %v", c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	})
}

// cors allows credentialed requests from the configured origins only.
func cors(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (slices.Contains(allowedOrigins, origin) || slices.Contains(allowedOrigins, "*")) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
			c.Writer.Header().Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
