package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const metaContextKey = "response_meta"

// WithResponseMeta stamps every response's metadata with the handler's
// processing time. Handlers may add their own entries through SetCacheHit
// before the response is written.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metaFor(c)["processing_time_ms"] = time.Since(start).Milliseconds()
	}
}

// SetCacheHit marks whether the current response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c)["cache_hit"] = hit
}

// ExtractMeta returns the metadata collected for the current request, or nil
// when none has been recorded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if v, ok := c.Get(metaContextKey); ok {
		if meta, ok := v.(map[string]interface{}); ok {
			return meta
		}
	}
	return nil
}

func metaFor(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if v, ok := c.Get(metaContextKey); ok {
		if meta, ok := v.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(metaContextKey, meta)
	return meta
}
