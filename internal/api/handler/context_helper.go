package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jomadlcrz/Class-Schedule-System/internal/api/middleware"
	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/response"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/validation"
)

// MustGetSessionUser 从 Gin 上下文中安全提取当前会话用户。
// 如果会话中间件未注入用户，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetSessionUser(c *gin.Context) (*dto.SessionUser, bool) {
	u := SessionUser(c)
	if u == nil || u.Email == "" {
		response.Unauthorized(c)
		return nil, false
	}
	return u, true
}

// SessionUser 可选会话路由使用，未登录时返回 nil
func SessionUser(c *gin.Context) *dto.SessionUser {
	v, exists := c.Get(middleware.SessionUserKey)
	if !exists {
		return nil
	}
	u, _ := v.(*dto.SessionUser)
	return u
}

// bindJSON 绑定请求体并在失败时写入 400 / 413
// 校验标签失败时按 validation.MessageFor 返回静态文案
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		response.BadRequest(c, validation.MessageFor(err))
		return false
	}
	return true
}
