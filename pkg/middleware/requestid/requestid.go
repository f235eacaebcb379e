package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the correlation ID in both directions.
const Header = "X-Request-ID"

const (
	ginKey = "request_id"
	maxLen = 128
)

type ctxKey struct{}

// Middleware tags each request with a correlation ID. A well-formed incoming
// X-Request-ID is echoed; anything else is replaced with a fresh UUID. The ID
// is stored on both the gin context and the request context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !acceptable(id) {
			id = uuid.NewString()
		}

		c.Set(ginKey, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, id))
		c.Header(Header, id)
		c.Next()
	}
}

// Value returns the ID attached by Middleware, or "".
func Value(c *gin.Context) string {
	return c.GetString(ginKey)
}

// FromContext returns the ID carried by a request context, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// acceptable allows header-safe tokens only so the value can be logged and echoed verbatim.
func acceptable(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
