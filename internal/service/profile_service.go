package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/internal/repository"
	pkgerrors "github.com/jomadlcrz/Class-Schedule-System/pkg/errors"
)

// ── 档案模块业务错误 ──

var (
	ErrUserNotFound = errors.New("用户不存在")
)

// MsgProfileFieldsRequired 四项档案信息缺一不可
const MsgProfileFieldsRequired = "All fields required"

// ProfileService 用户档案（引导弹窗）业务接口
type ProfileService interface {
	Save(ctx context.Context, userID string, req *dto.ProfileRequest) error
	Get(ctx context.Context, userID string) (*dto.ProfileResponse, error)
}

type profileService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProfileService 创建 ProfileService 实例
func NewProfileService(repo *repository.Repository, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, logger: logger}
}

func (s *profileService) Save(ctx context.Context, userID string, req *dto.ProfileRequest) error {
	p := repository.Profile{
		Program:      strings.TrimSpace(req.Program),
		Year:         strings.TrimSpace(req.Year),
		Semester:     strings.TrimSpace(req.Semester),
		AcademicYear: strings.TrimSpace(req.AcademicYear),
	}
	if p.Program == "" || p.Year == "" || p.Semester == "" || p.AcademicYear == "" {
		return pkgerrors.NewValidation(MsgProfileFieldsRequired)
	}

	if err := s.repo.User.UpdateProfile(ctx, userID, p); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("保存用户档案失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("用户档案已更新", zap.String("user_id", userID))
	return nil
}

func (s *profileService) Get(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &dto.ProfileResponse{
		Program:      user.Program,
		Year:         user.Year,
		Semester:     user.Semester,
		AcademicYear: user.AcademicYear,
		Completed:    user.ProfileCompleted(),
	}, nil
}
