package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods  = "GET, POST, OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, " + requestIDHeader + ", " + devUserHeader
	corsExposeHeaders = requestIDHeader + ", Retry-After"
	corsMaxAge        = 600
)

// corsPolicy answers which origin a response may be shared with.
type corsPolicy struct {
	wildcard bool
	origins  map[string]struct{}
	fallback string
}

func newCORSPolicy(allowed []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{}, len(allowed))}
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "":
			continue
		case origin == "*":
			p.wildcard = true
		case p.fallback == "":
			p.fallback = origin
		}
		p.origins[strings.ToLower(origin)] = struct{}{}
	}
	if len(p.origins) == 0 {
		p.wildcard = true
	}
	return p
}

// allowOrigin echoes a listed origin. Unlisted origins get the first
// configured one, which browsers then reject.
func (p corsPolicy) allowOrigin(requestOrigin string) string {
	if p.wildcard {
		return "*"
	}
	if _, ok := p.origins[strings.ToLower(requestOrigin)]; ok && requestOrigin != "" {
		return requestOrigin
	}
	return p.fallback
}

func corsMiddleware(allowed []string) gin.HandlerFunc {
	policy := newCORSPolicy(allowed)
	return func(c *gin.Context) {
		headers := c.Writer.Header()
		headers.Set("Access-Control-Allow-Origin", policy.allowOrigin(c.GetHeader("Origin")))
		headers.Set("Access-Control-Expose-Headers", corsExposeHeaders)
		headers.Add("Vary", "Origin")

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		headers.Set("Access-Control-Allow-Methods", corsAllowMethods)
		headers.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		headers.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
		c.AbortWithStatus(http.StatusNoContent)
	}
}
