package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	requestIDMaxLen = 64
)

// RequestID 透传或生成请求 ID，写入 gin.Context 与响应头
// 外部传入的值超长或含非 [A-Za-z0-9._-] 字符时丢弃，避免污染日志
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID 当前请求 ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func validRequestID(s string) bool {
	if s == "" || len(s) > requestIDMaxLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
