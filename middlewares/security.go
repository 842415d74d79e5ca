package middlewares

import (
	"github.com/gin-gonic/gin"
)

// apiHeaders apply to every response. The service only serves JSON and
// websocket upgrades, so nothing may be framed, sniffed or cached.
var apiHeaders = map[string]string{
	"X-Frame-Options":         "DENY",
	"X-Content-Type-Options":  "nosniff",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	"Referrer-Policy":         "no-referrer",
	"Permissions-Policy":      "geolocation=(), microphone=(), camera=()",
	"Cache-Control":           "no-store",
}

const hsts = "max-age=31536000; includeSubDomains"

// SecurityHeaders sets apiHeaders, plus HSTS when the request reached us
// over TLS directly or through a proxy that terminated it.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for name, value := range apiHeaders {
			c.Header(name, value)
		}
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			c.Header("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}
