package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
)

// SessionRepository 会话数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	// GetByTokenHash 连同所属用户一起加载；不存在时返回 gorm.ErrRecordNotFound
	GetByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	Extend(ctx context.Context, sessionID string, expiresAt time.Time) error
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo 创建 SessionRepository 实例
func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("token_hash = ?", tokenHash).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Extend(ctx context.Context, sessionID string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"expires_at": expiresAt,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *sessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		Delete(&model.Session{}).Error
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.Session{})
	return result.RowsAffected, result.Error
}
