package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders 安全响应头
// 服务只返回 JSON 与 xlsx，CSP 直接禁止加载任何资源；hsts 在 Cookie 走 HTTPS 时开启
// 会话与档案相关路径禁止缓存
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		if p := c.Request.URL.Path; strings.HasPrefix(p, "/auth/") || strings.HasPrefix(p, "/user/") {
			h.Set("Cache-Control", "no-store")
		}

		c.Next()
	}
}
