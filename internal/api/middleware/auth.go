package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/response"
)

// gin.Context 中的会话键
const (
	SessionUserKey    = "session_user"
	SessionExpiresKey = "session_expires"
	SessionTokenKey   = "session_token"
)

// SessionAuthenticator 按会话令牌解析当前用户
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*dto.SessionResponse, error)
}

// SessionAuth 会话认证中间件，未登录返回 401
// 令牌来源：Authorization: Bearer <token>，其次 Cookie
func SessionAuth(auth SessionAuthenticator, cookie *config.CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !resolveSession(c, auth, cookie) {
			response.Unauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalSession 有会话时注入当前用户，没有时照常放行
func OptionalSession(auth SessionAuthenticator, cookie *config.CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolveSession(c, auth, cookie)
		c.Next()
	}
}

// sessionToken 候选令牌及其来源
type sessionToken struct {
	value      string
	fromCookie bool
}

// resolveSession 每个请求只解析一次会话，结果仅存在于本次请求的 gin.Context 中
// 依次尝试候选令牌，第一个有效的生效；Cookie 会话发生滚动续期时重新下发 Cookie
func resolveSession(c *gin.Context, auth SessionAuthenticator, cookie *config.CookieConfig) bool {
	for _, tok := range sessionTokens(c, cookie.Name) {
		session, err := auth.Authenticate(c.Request.Context(), tok.value)
		if err != nil {
			_ = c.Error(err)
			continue
		}

		user := session.User
		c.Set(SessionUserKey, &user)
		c.Set(SessionExpiresKey, session.Expires)
		c.Set(SessionTokenKey, tok.value)
		if tok.fromCookie && session.Refreshed {
			SetSessionCookie(c, cookie, tok.value, session.Expires)
		}
		return true
	}
	return false
}

// sessionTokens 收集请求中的会话令牌：Bearer 在前，Cookie 在后，相同值只保留一个
func sessionTokens(c *gin.Context, cookieName string) []sessionToken {
	var out []sessionToken
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		if v := strings.TrimSpace(parts[1]); v != "" {
			out = append(out, sessionToken{value: v})
		}
	}
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		if len(out) == 0 || out[0].value != v {
			out = append(out, sessionToken{value: v, fromCookie: true})
		}
	}
	return out
}

// SessionExpires 当前会话过期时间
func SessionExpires(c *gin.Context) time.Time {
	if v, ok := c.Get(SessionExpiresKey); ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}
