package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/api/middleware"
	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/internal/service"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/response"
)

const (
	nonceCookieName = "schedule_oauth_nonce"
	nonceCookieTTL  = 10 * time.Minute
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cookie  *config.CookieConfig
	baseURL string
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, cookie *config.CookieConfig, baseURL string) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookie: cookie, baseURL: baseURL}
}

// GoogleLogin 跳转到 Google 授权页
// GET /auth/google/login
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	redirectURL, nonce, err := h.authSvc.BeginLogin()
	if err != nil {
		response.InternalError(c, "Failed to start sign-in", err, false)
		return
	}

	middleware.SetCookie(c, h.cookie, nonceCookieName, nonce, int(nonceCookieTTL.Seconds()), "/auth")
	c.Redirect(http.StatusFound, redirectURL)
}

// GoogleCallback Google 授权回调
// GET /auth/google/callback?code=xxx&state=xxx
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	// nonce 一次性使用，无论成功与否都清除
	nonce, _ := c.Cookie(nonceCookieName)
	middleware.SetCookie(c, h.cookie, nonceCookieName, "", -1, "/auth")

	if e := c.Query("error"); e != "" {
		response.BadRequest(c, "Sign-in was cancelled")
		return
	}

	result, err := h.authSvc.CompleteLogin(c.Request.Context(), c.Query("code"), c.Query("state"), nonce)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOAuthStateInvalid):
			response.BadRequest(c, "Invalid or expired sign-in request")
		case errors.Is(err, service.ErrOAuthExchange), errors.Is(err, service.ErrIdentityNoEmail):
			_ = c.Error(err)
			response.BadRequest(c, "Sign-in failed")
		default:
			response.InternalError(c, "Sign-in failed", err, false)
		}
		return
	}

	middleware.SetSessionCookie(c, h.cookie, result.Token, result.ExpiresAt)
	c.Redirect(http.StatusFound, h.baseURL)
}

// Session 当前会话
// GET /auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	user, ok := MustGetSessionUser(c)
	if !ok {
		return
	}
	response.OK(c, dto.SessionResponse{
		User:    *user,
		Expires: middleware.SessionExpires(c),
	})
}

// Logout 注销当前会话
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(middleware.SessionTokenKey)
	if err := h.authSvc.Logout(c.Request.Context(), token); err != nil {
		response.InternalError(c, "Failed to sign out", err, false)
		return
	}

	middleware.ClearSessionCookie(c, h.cookie)
	response.Message(c, "Signed out")
}
