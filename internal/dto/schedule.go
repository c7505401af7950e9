package dto

import "github.com/jomadlcrz/Class-Schedule-System/pkg/validation"

// ── 课表模块 DTO ──

// 查重命中的字段名（直接展示给用户）
const (
	FieldCourseCode       = "Course Code"
	FieldDescriptiveTitle = "Descriptive Title"
)

// CreateScheduleRequest 新建课表条目请求
// 客户端提交的 id / owner / createdAt 不在结构体中，绑定时自然被忽略
type CreateScheduleRequest struct {
	CourseCode       string `json:"courseCode"       binding:"required"`
	DescriptiveTitle string `json:"descriptiveTitle" binding:"required"`
	Units            string `json:"units"            binding:"required,units"`
	Days             string `json:"days"             binding:"required,days"`
	Time             string `json:"time"             binding:"required,timerange"`
	Room             string `json:"room"             binding:"required"`
	Instructor       string `json:"instructor"       binding:"required"`
}

// Fields 转换为校验用字段集合
func (r *CreateScheduleRequest) Fields() validation.Fields {
	return validation.Fields{
		CourseCode:       r.CourseCode,
		DescriptiveTitle: r.DescriptiveTitle,
		Units:            r.Units,
		Days:             r.Days,
		Time:             r.Time,
		Room:             r.Room,
		Instructor:       r.Instructor,
	}
}

// UpdateScheduleRequest 更新课表条目请求（全量或部分字段，nil 表示不修改）
type UpdateScheduleRequest struct {
	CourseCode       *string `json:"courseCode"`
	DescriptiveTitle *string `json:"descriptiveTitle"`
	Units            *string `json:"units"      binding:"omitempty,units"`
	Days             *string `json:"days"       binding:"omitempty,days"`
	Time             *string `json:"time"       binding:"omitempty,timerange"`
	Room             *string `json:"room"`
	Instructor       *string `json:"instructor"`
}

// CheckDuplicatesRequest 查重请求，字段均可选
type CheckDuplicatesRequest struct {
	CourseCode       string `json:"courseCode,omitempty"`
	DescriptiveTitle string `json:"descriptiveTitle,omitempty"`
	ExcludeID        string `json:"excludeId,omitempty"`
}

// DuplicateResult 查重结果；未重复时不返回 field
type DuplicateResult struct {
	IsDuplicate bool   `json:"isDuplicate"`
	Field       string `json:"field,omitempty"`
}
