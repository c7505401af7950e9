package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
	"github.com/jomadlcrz/Class-Schedule-System/internal/repository"
	pkgerrors "github.com/jomadlcrz/Class-Schedule-System/pkg/errors"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/validation"
)

// ── 课表模块业务错误 ──

var (
	ErrScheduleNotFound        = errors.New("课表条目不存在")
	ErrScheduleNotOwner        = errors.New("无权操作此课表条目")
	ErrScheduleConflict        = errors.New("课程代码或课程名称已存在")
	ErrScheduleUnauthenticated = errors.New("按用户查重需要登录")
)

// ── ScheduleService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 查重（CheckDuplicates）是只读的尽力探测，不与后续写入处于同一事务；
//     并发创建的兜底由数据库唯一索引完成，冲突时返回 ErrScheduleConflict。
//   - Create 不调用查重，由调用方在提交前自行查重。
//   - Update / Delete 要求记录 owner 与当前会话邮箱一致。
// ─────────────────────────────────────────────────────────────

// ScheduleService 课表模块业务接口
type ScheduleService interface {
	// ListMine 当前用户的课表，按创建时间倒序
	ListMine(ctx context.Context, owner string) ([]model.Schedule, error)
	// ListByEmail 按邮箱查询课表（列表页无需登录）
	ListByEmail(ctx context.Context, email string) ([]model.Schedule, error)
	Create(ctx context.Context, req *dto.CreateScheduleRequest, owner string) (*model.Schedule, error)
	Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, owner string) (*model.Schedule, error)
	Delete(ctx context.Context, id string, owner string) error
	// CheckDuplicates caller 为空表示未登录
	CheckDuplicates(ctx context.Context, req *dto.CheckDuplicatesRequest, caller string) (*dto.DuplicateResult, error)
}

type scheduleService struct {
	repo   *repository.Repository
	rules  validation.Rules
	scope  string
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(cfg *config.ValidationConfig, repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{
		repo:   repo,
		rules:  validation.Rules{StrictDays: cfg.StrictDays, StrictTime: cfg.StrictTime},
		scope:  cfg.DuplicateScope,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *scheduleService) ListMine(ctx context.Context, owner string) ([]model.Schedule, error) {
	return s.repo.Schedule.ListByOwner(ctx, owner)
}

func (s *scheduleService) ListByEmail(ctx context.Context, email string) ([]model.Schedule, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, pkgerrors.NewValidation("Email is required")
	}
	return s.repo.Schedule.ListByOwner(ctx, email)
}

// ════════════════════════════════════════════════════════════
// 写入
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Create(ctx context.Context, req *dto.CreateScheduleRequest, owner string) (*model.Schedule, error) {
	f := trimFields(req.Fields())
	if msg := s.rules.Check(f); msg != "" {
		return nil, pkgerrors.NewValidation(msg)
	}

	now := s.now()
	schedule := &model.Schedule{
		ScheduleID:       s.newID(),
		CourseCode:       f.CourseCode,
		DescriptiveTitle: f.DescriptiveTitle,
		Units:            f.Units,
		Days:             f.Days,
		Time:             f.Time,
		Room:             f.Room,
		Instructor:       f.Instructor,
		Owner:            owner,
		BaseModel:        model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}

	if err := s.repo.Schedule.Create(ctx, schedule); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrScheduleConflict
		}
		s.logger.Error("创建课表条目失败", zap.String("owner", owner), zap.Error(err))
		return nil, err
	}

	s.logger.Info("课表条目已创建",
		zap.String("id", schedule.ScheduleID),
		zap.String("owner", owner),
		zap.String("course_code", schedule.CourseCode),
	)
	return schedule, nil
}

func (s *scheduleService) Update(ctx context.Context, id string, req *dto.UpdateScheduleRequest, owner string) (*model.Schedule, error) {
	schedule, err := s.getOwned(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	trimPtrs(req.CourseCode, req.DescriptiveTitle, req.Units, req.Days, req.Time, req.Room, req.Instructor)
	if msg := s.rules.CheckPartial(req.Units, req.Days, req.Time,
		req.CourseCode, req.DescriptiveTitle, req.Room, req.Instructor); msg != "" {
		return nil, pkgerrors.NewValidation(msg)
	}

	// 字段级合并：id、owner、createdAt 始终保持原值
	applyString(&schedule.CourseCode, req.CourseCode)
	applyString(&schedule.DescriptiveTitle, req.DescriptiveTitle)
	applyString(&schedule.Units, req.Units)
	applyString(&schedule.Days, req.Days)
	applyString(&schedule.Time, req.Time)
	applyString(&schedule.Room, req.Room)
	applyString(&schedule.Instructor, req.Instructor)
	schedule.UpdatedAt = s.now()

	if err := s.repo.Schedule.Update(ctx, schedule); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrScheduleConflict
		}
		s.logger.Error("更新课表条目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return schedule, nil
}

func (s *scheduleService) Delete(ctx context.Context, id string, owner string) error {
	if _, err := s.getOwned(ctx, id, owner); err != nil {
		return err
	}

	if err := s.repo.Schedule.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		s.logger.Error("删除课表条目失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("课表条目已删除", zap.String("id", id), zap.String("owner", owner))
	return nil
}

// getOwned 加载记录并校验归属；非法 id 视为不存在
func (s *scheduleService) getOwned(ctx context.Context, id string, owner string) (*model.Schedule, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrScheduleNotFound
	}

	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if schedule.Owner != owner {
		s.logger.Warn("拒绝越权操作课表条目",
			zap.String("id", id),
			zap.String("owner", schedule.Owner),
			zap.String("caller", owner),
		)
		return nil, ErrScheduleNotOwner
	}
	return schedule, nil
}

// ════════════════════════════════════════════════════════════
// CheckDuplicates 课程代码 / 课程名称查重
// ════════════════════════════════════════════════════════════
//
// 规则：
//   - course_code = ? OR descriptive_title = ?，未提供的字段不参与匹配
//   - 两个字段都未提供时直接返回未重复，不访问数据库
//   - excludeId 用于编辑场景排除记录自身；非法 uuid 不可能命中任何记录，直接忽略
//   - 命中记录的 courseCode 相同时报告 "Course Code"，否则报告 "Descriptive Title"

func (s *scheduleService) CheckDuplicates(ctx context.Context, req *dto.CheckDuplicatesRequest, caller string) (*dto.DuplicateResult, error) {
	q := repository.DuplicateQuery{
		CourseCode:       strings.TrimSpace(req.CourseCode),
		DescriptiveTitle: strings.TrimSpace(req.DescriptiveTitle),
	}
	if q.Empty() {
		return &dto.DuplicateResult{IsDuplicate: false}, nil
	}

	if id := strings.TrimSpace(req.ExcludeID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			q.ExcludeID = id
		}
	}

	if s.scope == config.DuplicateScopeOwner {
		if caller == "" {
			return nil, ErrScheduleUnauthenticated
		}
		q.Owner = caller
	}

	existing, err := s.repo.Schedule.FindDuplicate(ctx, q)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.DuplicateResult{IsDuplicate: false}, nil
		}
		s.logger.Error("课表查重失败", zap.Error(err))
		return nil, err
	}

	field := dto.FieldDescriptiveTitle
	if q.CourseCode != "" && existing.CourseCode == q.CourseCode {
		field = dto.FieldCourseCode
	}
	return &dto.DuplicateResult{IsDuplicate: true, Field: field}, nil
}

// ── 辅助函数 ──

func trimFields(f validation.Fields) validation.Fields {
	return validation.Fields{
		CourseCode:       strings.TrimSpace(f.CourseCode),
		DescriptiveTitle: strings.TrimSpace(f.DescriptiveTitle),
		Units:            strings.TrimSpace(f.Units),
		Days:             strings.TrimSpace(f.Days),
		Time:             strings.TrimSpace(f.Time),
		Room:             strings.TrimSpace(f.Room),
		Instructor:       strings.TrimSpace(f.Instructor),
	}
}

func trimPtrs(ptrs ...*string) {
	for _, p := range ptrs {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
