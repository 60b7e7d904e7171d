package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-contest/internal/apperr"
	"github.com/d60-Lab/gin-contest/internal/ratelimit"
	"github.com/d60-Lab/gin-contest/pkg/logger"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

// RateLimitByAddress 按来源地址限流，先于身份与请求体校验执行
func RateLimitByAddress(limiter ratelimit.RateLimiter, salt string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ratelimit.AddressKey(salt, c.ClientIP())
		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// 限流只为控制滥用成本，后端故障时放行
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !d.Allowed {
			response.Error(c, apperr.RateLimited(d.RetryAfter))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Next()
	}
}

// VoteThrottle 每个投票人一个令牌桶；必须挂在 RequireAuth 之后
func VoteThrottle(th *ratelimit.KeyedThrottle) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := UserID(c)
		if uid == "" {
			c.Next()
			return
		}
		if ok, wait := th.Allow(string(uid)); !ok {
			response.Error(c, apperr.RateLimited(wait))
			return
		}
		c.Next()
	}
}
