package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/internal/service"
	pkgerrors "github.com/jomadlcrz/Class-Schedule-System/pkg/errors"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/response"
)

// UserHandler 用户档案 HTTP 处理器
type UserHandler struct {
	profileSvc service.ProfileService
	debug      bool
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(profileSvc service.ProfileService, debug bool) *UserHandler {
	return &UserHandler{profileSvc: profileSvc, debug: debug}
}

// SaveProfile 保存引导弹窗填写的档案
// POST /user/profile
func (h *UserHandler) SaveProfile(c *gin.Context) {
	user, ok := MustGetSessionUser(c)
	if !ok {
		return
	}

	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, service.MsgProfileFieldsRequired)
		return
	}

	if err := h.profileSvc.Save(c.Request.Context(), user.ID, &req); err != nil {
		h.handleProfileError(c, err)
		return
	}
	response.OK(c, dto.OKResponse{OK: true})
}

// GetProfile 当前用户档案
// GET /user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, ok := MustGetSessionUser(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.Get(c.Request.Context(), user.ID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}
	response.OK(c, profile)
}

func (h *UserHandler) handleProfileError(c *gin.Context, err error) {
	if ve, ok := pkgerrors.AsValidation(err); ok {
		response.BadRequest(c, ve.Message)
		return
	}
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		// 会话存在但用户已被删除，按未登录处理
		response.Unauthorized(c)
	default:
		response.InternalError(c, "Failed to update profile", err, h.debug)
	}
}
