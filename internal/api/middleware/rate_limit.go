package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jomadlcrz/Class-Schedule-System/pkg/redis"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// limit: 窗口内允许的最大请求数
// window: 滑动窗口时长
// rdb 为 nil（未配置或启动时不可用）时降级放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%s", c.ClientIP(), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			// Redis 出错时降级放行
			logger.Warn("限流检查失败，已放行", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
