package service

import (
	"go.uber.org/zap"

	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/repository"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth     AuthService
	Schedule ScheduleService
	Profile  ProfileService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	provider IdentityProvider,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(&cfg.Auth, repo, jwtMgr, provider, logger),
		Schedule: NewScheduleService(&cfg.Validation, repo, logger),
		Profile:  NewProfileService(repo, logger),
		Export:   NewExportService(&cfg.Export, repo, logger),
	}
}
