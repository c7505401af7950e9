package dto

import "time"

// ── 认证模块 DTO ──

// SessionUser 单次请求内的当前用户
// 由会话中间件在请求开始时从数据库加载一次，注入 gin.Context，不在请求之间共享
type SessionUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Image        string `json:"image"`
	Program      string `json:"program"`
	Year         string `json:"year"`
	Semester     string `json:"semester"`
	AcademicYear string `json:"academicYear"`
}

// SessionResponse GET /auth/session 响应
// Refreshed 表示本次请求触发了滚动续期，调用方需要重新下发 Cookie
type SessionResponse struct {
	User      SessionUser `json:"user"`
	Expires   time.Time   `json:"expires"`
	Refreshed bool        `json:"-"`
}

// Identity 第三方身份提供方返回的用户信息
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Picture  string
	Verified bool
}
