package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
)

// DuplicateQuery 查重条件
// 未提供的字段不参与匹配；ExcludeID 非空时排除该记录；Owner 非空时仅在该用户的记录中查重
type DuplicateQuery struct {
	CourseCode       string
	DescriptiveTitle string
	ExcludeID        string
	Owner            string
}

// Empty 两个查重字段均未提供
func (q DuplicateQuery) Empty() bool {
	return q.CourseCode == "" && q.DescriptiveTitle == ""
}

// ScheduleRepository 课表数据访问接口
type ScheduleRepository interface {
	ListByOwner(ctx context.Context, owner string) ([]model.Schedule, error)
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	// FindDuplicate 返回任一匹配记录；无匹配时返回 gorm.ErrRecordNotFound
	FindDuplicate(ctx context.Context, q DuplicateQuery) (*model.Schedule, error)
	Create(ctx context.Context, s *model.Schedule) error
	Update(ctx context.Context, s *model.Schedule) error
	// Delete 硬删除；记录不存在时返回 gorm.ErrRecordNotFound
	Delete(ctx context.Context, id string) error
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) ListByOwner(ctx context.Context, owner string) ([]model.Schedule, error) {
	schedules := make([]model.Schedule, 0)
	err := r.db.WithContext(ctx).
		Where("owner_email = ?", owner).
		Order("created_at DESC").
		Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var s model.Schedule
	err := r.db.WithContext(ctx).Where("schedule_id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepo) FindDuplicate(ctx context.Context, q DuplicateQuery) (*model.Schedule, error) {
	if q.Empty() {
		return nil, gorm.ErrRecordNotFound
	}

	// course_code = ? OR descriptive_title = ?，作为一组条件整体参与 AND
	match := r.db.WithContext(ctx)
	switch {
	case q.CourseCode != "" && q.DescriptiveTitle != "":
		match = match.Where("course_code = ?", q.CourseCode).Or("descriptive_title = ?", q.DescriptiveTitle)
	case q.CourseCode != "":
		match = match.Where("course_code = ?", q.CourseCode)
	default:
		match = match.Where("descriptive_title = ?", q.DescriptiveTitle)
	}

	tx := r.db.WithContext(ctx).Where(match)
	if q.ExcludeID != "" {
		tx = tx.Where("schedule_id <> ?", q.ExcludeID)
	}
	if q.Owner != "" {
		tx = tx.Where("owner_email = ?", q.Owner)
	}

	var s model.Schedule
	if err := tx.Order("created_at ASC").First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *scheduleRepo) Update(ctx context.Context, s *model.Schedule) error {
	// 仅更新可变字段；主键与 owner_email、created_at 不参与更新
	return r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("schedule_id = ?", s.ScheduleID).
		Updates(map[string]interface{}{
			"course_code":       s.CourseCode,
			"descriptive_title": s.DescriptiveTitle,
			"units":             s.Units,
			"days":              s.Days,
			"time":              s.Time,
			"room":              s.Room,
			"instructor":        s.Instructor,
			"updated_at":        gorm.Expr("NOW()"),
		}).Error
}

func (r *scheduleRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("schedule_id = ?", id).
		Delete(&model.Schedule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
