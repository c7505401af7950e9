package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/internal/service"
	pkgerrors "github.com/jomadlcrz/Class-Schedule-System/pkg/errors"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/response"
)

// 对外错误文案
const (
	msgScheduleNotFound   = "Schedule not found"
	msgScheduleForbidden  = "Forbidden"
	msgScheduleConflict   = "Course Code or Descriptive Title already exists"
	msgScheduleDeleted    = "Schedule deleted successfully"
	msgEmailRequired      = "Email is required"
	msgFetchFailed        = "Failed to fetch schedules"
	msgCreateFailed       = "Failed to create schedule"
	msgUpdateFailed       = "Failed to update schedule"
	msgDeleteFailed       = "Failed to delete schedule"
	msgDuplicateCheckFail = "Failed to check for duplicates"
	msgExportFailed       = "Failed to export schedules"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ScheduleHandler 课表模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
	exportSvc   service.ExportService
	debug       bool
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService, exportSvc service.ExportService, debug bool) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc, exportSvc: exportSvc, debug: debug}
}

// ListMine 当前用户的课表
// GET /schedule
func (h *ScheduleHandler) ListMine(c *gin.Context) {
	user, ok := MustGetSessionUser(c)
	if !ok {
		return
	}

	schedules, err := h.scheduleSvc.ListMine(c.Request.Context(), user.Email)
	if err != nil {
		response.InternalError(c, msgFetchFailed, err, h.debug)
		return
	}
	response.OK(c, schedules)
}

// ListByEmail 按邮箱查询课表
// GET /schedules?email=xxx
func (h *ScheduleHandler) ListByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, msgEmailRequired)
		return
	}

	schedules, err := h.scheduleSvc.ListByEmail(c.Request.Context(), email)
	if err != nil {
		h.handleScheduleError(c, err, msgFetchFailed)
		return
	}
	response.OK(c, schedules)
}

// Create 新建课表条目
// POST /schedule
func (h *ScheduleHandler) Create(c *gin.Context) {
	user, ok := MustGetSessionUser(c)
	if !ok {
		return
	}

	var req dto.CreateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	schedule, err := h.scheduleSvc.Create(c.Request.Context(), &req, user.Email)
	if err != nil {
		h.handleScheduleError(c, err, msgCreateFailed)
		return
	}
	response.Created(c, schedule)
}

// Update 更新课表条目
// PUT /schedule/:id
func (h *ScheduleHandler) Update(c *gin.Context) {
	user, ok := MustGetSessionUser(c)
	if !ok {
		return
	}

	var req dto.UpdateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	schedule, err := h.scheduleSvc.Update(c.Request.Context(), c.Param("id"), &req, user.Email)
	if err != nil {
		h.handleScheduleError(c, err, msgUpdateFailed)
		return
	}
	response.OK(c, schedule)
}

// Delete 删除课表条目
// DELETE /schedule/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	user, ok := MustGetSessionUser(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Delete(c.Request.Context(), c.Param("id"), user.Email); err != nil {
		h.handleScheduleError(c, err, msgDeleteFailed)
		return
	}
	response.Message(c, msgScheduleDeleted)
}

// CheckDuplicates 课程代码 / 课程名称查重
// POST /schedule/check-duplicates
func (h *ScheduleHandler) CheckDuplicates(c *gin.Context) {
	var req dto.CheckDuplicatesRequest
	if !bindJSON(c, &req) {
		return
	}

	var caller string
	if u := SessionUser(c); u != nil {
		caller = u.Email
	}

	result, err := h.scheduleSvc.CheckDuplicates(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err, msgDuplicateCheckFail)
		return
	}
	response.OK(c, result)
}

// Export 导出当前用户课表为 Excel
// GET /schedule/export
func (h *ScheduleHandler) Export(c *gin.Context) {
	user, ok := MustGetSessionUser(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportSchedules(c.Request.Context(), user.Email)
	if err != nil {
		response.InternalError(c, msgExportFailed, err, h.debug)
		return
	}

	sendAttachment(c, filename, xlsxContentType, buf.Bytes())
}

// ExportCalendar 导出每周重复的日历文件
// GET /schedule/export.ics
func (h *ScheduleHandler) ExportCalendar(c *gin.Context) {
	user, ok := MustGetSessionUser(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), user.Email)
	if err != nil {
		response.InternalError(c, msgExportFailed, err, h.debug)
		return
	}
	sendAttachment(c, filename, icsContentType, buf.Bytes())
}

func sendAttachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}

// handleScheduleError 将 service 层错误映射为 HTTP 响应
func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error, fallback string) {
	if ve, ok := pkgerrors.AsValidation(err); ok {
		response.BadRequest(c, ve.Message)
		return
	}
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, msgScheduleNotFound)
	case errors.Is(err, service.ErrScheduleNotOwner):
		response.Forbidden(c, msgScheduleForbidden)
	case errors.Is(err, service.ErrScheduleConflict):
		response.Conflict(c, msgScheduleConflict)
	case errors.Is(err, service.ErrScheduleUnauthenticated):
		response.Unauthorized(c)
	default:
		response.InternalError(c, fallback, err, h.debug)
	}
}
