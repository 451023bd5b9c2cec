package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerMiddleware() {
	if s == nil || s.router == nil {
		return
	}
	s.router.Use(gin.Logger(), gin.Recovery(), corsMiddleware(os.Getenv("QBENCH_CORS_ORIGINS")))
}

// corsMiddleware grants cross-origin reads to the origins named in the
// comma-separated spec. An empty spec leaves CORS off entirely; a "*"
// entry admits every origin. The API is read-only, so only GET and the
// preflight OPTIONS are advertised.
func corsMiddleware(spec string) gin.HandlerFunc {
	origins, allowAll := splitOrigins(spec)
	if !allowAll && len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if origin == "" {
			c.Next()
			return
		}

		if allowAll || origins[origin] {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET,OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func splitOrigins(spec string) (map[string]bool, bool) {
	set := make(map[string]bool)
	for _, part := range strings.Split(spec, ",") {
		origin := strings.TrimSpace(part)
		if origin == "*" {
			return nil, true
		}
		if origin != "" {
			set[origin] = true
		}
	}
	return set, false
}

// requireAPIKey rejects requests whose X-API-Key header does not match
// key. Preflight requests pass through so CORS keeps working.
func requireAPIKey(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	return func(c *gin.Context) {
		if key == "" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if strings.TrimSpace(c.GetHeader("X-API-Key")) != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
