package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// defaultAllowedHosts are the hosts the bundled UI is served from. Extra
// origins can be added through configuration.
var defaultAllowedHosts = map[string]bool{
	"localhost:3000": true,
	"127.0.0.1:3000": true,
	"localhost:5173": true,
	"127.0.0.1:5173": true,
}

// CORSMiddleware handles Cross-Origin Resource Sharing headers for the
// browser UI. extraOrigins are full origins (scheme://host[:port]).
func CORSMiddleware(extraOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(defaultAllowedHosts)+len(extraOrigins))
	for host := range defaultAllowedHosts {
		allowed[host] = true
	}
	for _, origin := range extraOrigins {
		if host := originHost(origin); host != "" {
			allowed[host] = true
		}
	}

	return func(c *gin.Context) {
		origin := strings.TrimSpace(strings.TrimSuffix(c.Request.Header.Get("Origin"), "/"))
		if host := originHost(origin); host != "" && allowed[host] {
			c.Header("Access-Control-Allow-Origin", origin)
		}

		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// originHost returns the host part of an origin URL, stripping default
// ports so "app.example.com:443" matches "app.example.com".
func originHost(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if strings.HasSuffix(host, ":443") || strings.HasSuffix(host, ":80") {
		host, _, _ = strings.Cut(host, ":")
	}
	return host
}
