package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody 统一错误响应结构
// details 仅在开发环境下携带原始错误
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageBody 仅包含提示信息的成功响应
type MessageBody struct {
	Message string `json:"message"`
}

// ── 成功响应 ──
// 成功响应直接返回资源本身（数组或对象），不做外层包裹

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message 200 仅返回提示信息
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageBody{Message: message})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, ErrorBody{Error: message})
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpStatus int, message, details string) {
	c.JSON(httpStatus, ErrorBody{Error: message, Details: details})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict 409
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// InternalError 500
// 原始错误记录到 gin.Context.Errors 供日志中间件输出；debug 为 true 时同时返回给调用方
func InternalError(c *gin.Context, message string, err error, debug bool) {
	if err != nil {
		_ = c.Error(err)
	}
	if debug && err != nil {
		ErrorWithDetails(c, http.StatusInternalServerError, message, err.Error())
		return
	}
	Error(c, http.StatusInternalServerError, message)
}
