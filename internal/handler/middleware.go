package handler

import (
	"net/http"
	"strings"

	"cryptolens/internal/tracker"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth returns a Gin middleware that enforces X-API-Key header validation.
// If key is empty, the protected routes are disabled entirely.
func APIKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin API disabled"})
			return
		}
		provided := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-API-Key header"})
			return
		}
		if provided != key {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid API key"})
			return
		}
		c.Next()
	}
}

// Tracking fingerprints each request from its headers and client IP and logs
// it to the tracker before the handler runs.
func Tracking(tr *tracker.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		fp := tracker.Fingerprint(
			r.UserAgent(),
			r.Header.Get("Accept"),
			r.Header.Get("Accept-Encoding"),
			r.Header.Get("Accept-Language"),
			c.ClientIP(),
		)

		var params map[string]string
		if query := c.Request.URL.Query(); len(query) > 0 {
			params = make(map[string]string, len(query))
			for k, v := range query {
				params[k] = strings.Join(v, ",")
			}
		}

		tr.LogRequest(fp, c.FullPath(), params, r.UserAgent())
		c.Set("fingerprint", fp)
		c.Next()
	}
}
