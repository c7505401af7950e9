package dto

// ── 用户档案 DTO ──

// ProfileRequest 引导弹窗提交的档案信息，四项均必填
type ProfileRequest struct {
	Program      string `json:"program"      binding:"required"`
	Year         string `json:"year"         binding:"required"`
	Semester     string `json:"semester"     binding:"required"`
	AcademicYear string `json:"academicYear" binding:"required"`
}

// ProfileResponse 档案信息；Completed 为 false 时前端展示引导弹窗
type ProfileResponse struct {
	Program      string `json:"program"`
	Year         string `json:"year"`
	Semester     string `json:"semester"`
	AcademicYear string `json:"academicYear"`
	Completed    bool   `json:"completed"`
}

// OKResponse {ok: true}
type OKResponse struct {
	OK bool `json:"ok"`
}
