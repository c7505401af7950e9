package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
)

// Profile 引导弹窗收集的四项档案信息
type Profile struct {
	Program      string
	Year         string
	Semester     string
	AcademicYear string
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertWithAccount 按第三方账号（其次按邮箱）查找或创建用户，并同步名称与头像
	UpsertWithAccount(ctx context.Context, user *model.User, provider, providerAccountID string) (*model.User, error)
	// UpdateProfile 用户不存在时返回 gorm.ErrRecordNotFound
	UpdateProfile(ctx context.Context, userID string, p Profile) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) UpsertWithAccount(ctx context.Context, in *model.User, provider, providerAccountID string) (*model.User, error) {
	var out model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account model.Account
		err := tx.Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).First(&account).Error
		switch {
		case err == nil:
			if err := tx.Where("user_id = ?", account.UserID).First(&out).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 首次以该账号登录：同邮箱用户已存在则绑定，否则新建
			err = tx.Where("email = ?", in.Email).First(&out).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				out = model.User{Email: in.Email, Name: in.Name, Image: in.Image}
				if err := tx.Create(&out).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			if err := tx.Create(&model.Account{
				UserID:            out.UserID,
				Provider:          provider,
				ProviderAccountID: providerAccountID,
			}).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if out.Name == in.Name && out.Image == in.Image {
			return nil
		}
		out.Name, out.Image = in.Name, in.Image
		return tx.Model(&model.User{}).
			Where("user_id = ?", out.UserID).
			Updates(map[string]interface{}{
				"name":       in.Name,
				"image":      in.Image,
				"updated_at": gorm.Expr("NOW()"),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, userID string, p Profile) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"program":       p.Program,
			"year":          p.Year,
			"semester":      p.Semester,
			"academic_year": p.AcademicYear,
			"updated_at":    gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
