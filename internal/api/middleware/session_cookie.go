package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jomadlcrz/Class-Schedule-System/config"
)

// SetSessionCookie 下发会话 Cookie，有效期与数据库中的 expires_at 对齐
func SetSessionCookie(c *gin.Context, cfg *config.CookieConfig, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	SetCookie(c, cfg, cfg.Name, token, maxAge, "/")
}

// ClearSessionCookie 清除会话 Cookie
func ClearSessionCookie(c *gin.Context, cfg *config.CookieConfig) {
	SetCookie(c, cfg, cfg.Name, "", -1, "/")
}

// SetCookie 按会话 Cookie 的安全属性写入任意 Cookie（HttpOnly）
func SetCookie(c *gin.Context, cfg *config.CookieConfig, name, value string, maxAge int, path string) {
	c.SetSameSite(ParseSameSite(cfg.SameSite))
	c.SetCookie(name, value, maxAge, path, cfg.Domain, cfg.Secure, true)
}

// ParseSameSite 配置值转 http.SameSite，未知值按 Lax
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
