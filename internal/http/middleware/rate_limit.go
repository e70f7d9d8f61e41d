package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/Capstonepdm/Katipudroid/internal/http/response"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
)

// RateLimitMiddleware ограничивает количество запросов с одного IP.
// При limit <= 0 middleware ничего не делает.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if period <= 0 {
		period = time.Minute
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: period, Limit: limit})

	return func(c *gin.Context) {
		lctx, err := instance.Get(c, c.ClientIP())
		if err != nil {
			response.Fail(c, err)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", lctx.Reset))

		if lctx.Reached {
			response.Fail(c, apperror.New(apperror.ErrCodeResendCooldown, "Too many requests, please try again later"))
			c.Abort()
			return
		}

		c.Next()
	}
}
