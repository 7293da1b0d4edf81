package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS allows the configured origins. An entry ending in ":*" matches any
// port on that host, e.g. "http://localhost:*" for dev servers.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	exact := make(map[string]struct{}, len(allowedOrigins))
	var anyPort []string
	allowAll := false
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "*":
			allowAll = true
		case strings.HasSuffix(origin, ":*"):
			anyPort = append(anyPort, strings.TrimSuffix(origin, "*"))
		case origin != "":
			exact[origin] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if originAllowed(origin, exact, anyPort) {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type,Last-Event-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origin string, exact map[string]struct{}, anyPort []string) bool {
	if _, ok := exact[origin]; ok {
		return true
	}
	for _, prefix := range anyPort {
		port, found := strings.CutPrefix(origin, prefix)
		if found && port != "" && strings.Trim(port, "0123456789") == "" {
			return true
		}
	}
	return false
}
