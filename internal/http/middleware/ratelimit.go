// Package middleware contains the Gin middleware of the ops server.
//
// This file adapts the keyed token-bucket limiter to HTTP. Buckets are keyed
// by client IP; the limiter is process-local.
package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Allower decides whether one more event for key may proceed now.
// *ratelimit.Keyed satisfies it.
type Allower interface {
	Allow(key string) bool
}

// KeyFunc selects the bucket identity of a request.
type KeyFunc func(*gin.Context) string

// KeyByIP keys buckets by the client IP as resolved by gin (trusted proxies
// honoured).
func KeyByIP(c *gin.Context) string { return "ip:" + c.ClientIP() }

// RateLimit rejects requests over the limit with 429 and a Retry-After
// derived from rps. A nil keyFn means KeyByIP.
func RateLimit(lim Allower, rps float64, keyFn KeyFunc) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = KeyByIP
	}
	retryAfter := "1"
	if rps > 0 && rps < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / rps)))
	}
	return func(c *gin.Context) {
		if lim.Allow(keyFn(c)) {
			c.Next()
			return
		}
		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
