package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DownstreamWealth/portal/internal/config"
)

// corsPolicy is the configured CORS policy, normalised once at startup.
type corsPolicy struct {
	origins     map[string]struct{}
	anyOrigin   bool
	credentials bool
	methods     string
	headers     string
}

func newCORSPolicy(cfg config.Config) corsPolicy {
	p := corsPolicy{
		origins:     make(map[string]struct{}, len(cfg.CORSAllowedOrigins)),
		credentials: cfg.CORSAllowCredentials,
		methods:     strings.Join(cfg.CORSAllowedMethods, ", "),
		headers:     strings.Join(cfg.CORSAllowedHeaders, ", "),
	}
	for _, origin := range cfg.CORSAllowedOrigins {
		switch origin = strings.ToLower(strings.TrimSpace(origin)); origin {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin.
// A credentialed response must echo the exact origin, never "*".
func (p corsPolicy) allowOrigin(origin string) (string, bool) {
	if _, ok := p.origins[strings.ToLower(origin)]; ok {
		return origin, true
	}
	if !p.anyOrigin {
		return "", false
	}
	if p.credentials {
		return origin, true
	}
	return "*", true
}

// CORS applies the configured cross-origin policy for the cookie-authenticated
// browser client. Preflights are answered here and never reach handlers.
func CORS(cfg config.Config) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions

		if origin != "" {
			if allowed, ok := policy.allowOrigin(origin); ok {
				h := c.Writer.Header()
				h.Set("Vary", "Origin")
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Methods", policy.methods)
				h.Set("Access-Control-Allow-Headers", policy.headers)
				if policy.credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
		}

		if origin != "" && preflight {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
