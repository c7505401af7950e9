package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Schedule ScheduleRepository
	User     UserRepository
	Session  SessionRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Schedule: NewScheduleRepo(db),
		User:     NewUserRepo(db),
		Session:  NewSessionRepo(db),
	}
}
