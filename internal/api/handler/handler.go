package handler

import (
	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	Schedule *ScheduleHandler
	User     *UserHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	debug := cfg.Server.IsDevelopment()
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth, &cfg.Auth.Cookie, cfg.Server.BaseURL),
		Schedule: NewScheduleHandler(svc.Schedule, svc.Export, debug),
		User:     NewUserHandler(svc.Profile, debug),
	}
}
