package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per client IP in fixed Redis windows.
type RateLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

func NewRateLimiter(client redis.UniversalClient, prefix string, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Middleware rejects requests over the limit with 429. Redis failures let the
// request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "RateLimit:" + rl.prefix + ":" + c.ClientIP()

		count, err := rl.client.Incr(ctx, key).Result()
		if err != nil {
			config.LogError(config.GetLogger(), "ratelimit.go", "Middleware", "Incr", key, err)
			c.Next()
			return
		}
		if count == 1 {
			if err := rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
				config.LogError(config.GetLogger(), "ratelimit.go", "Middleware", "Expire", key, err)
			}
		}

		if count > rl.limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
			})
			return
		}
		c.Next()
	}
}
