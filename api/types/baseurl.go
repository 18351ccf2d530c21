package types

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// BaseURL returns the scheme and host the client used to reach the server,
// so model urls stay reachable from other machines on the network.
// Without a Host header it falls back to publicURL, then localhost:port.
func BaseURL(c *gin.Context, publicURL string, port int) string {
	host := c.Request.Host
	if host == "" {
		if publicURL != "" {
			return strings.TrimRight(publicURL, "/")
		}
		return fmt.Sprintf("http://localhost:%d", port)
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		// first hop wins when proxies chain the header
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if scheme != "http" && scheme != "https" {
		scheme = "http"
	}
	return scheme + "://" + host
}

// BaseURL resolves the request's base URL with the configured fallbacks
func (d *Dependencies) BaseURL(c *gin.Context) string {
	if d == nil {
		return BaseURL(c, "", 3001)
	}
	return BaseURL(c, d.PublicURL, d.Port)
}
