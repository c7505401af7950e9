package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/api/handler"
	"github.com/jomadlcrz/Class-Schedule-System/internal/api/middleware"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时限流中间件降级放行
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	auth middleware.SessionAuthenticator,
	rdb *redis.Client,
	db *gorm.DB,
	logger *zap.Logger,
) *gin.Engine {
	if !cfg.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders(cfg.Auth.Cookie.Secure))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	cookie := &cfg.Auth.Cookie
	requireSession := middleware.SessionAuth(auth, cookie)
	optionalSession := middleware.OptionalSession(auth, cookie)

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		limit = middleware.RateLimit(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger)
	}

	// 认证模块
	authGroup := r.Group("/auth")
	{
		authGroup.GET("/google/login", limit, h.Auth.GoogleLogin)
		authGroup.GET("/google/callback", limit, h.Auth.GoogleCallback)
		authGroup.GET("/session", requireSession, h.Auth.Session)
		authGroup.POST("/logout", requireSession, h.Auth.Logout)
	}

	// 课表模块
	r.GET("/schedules", h.Schedule.ListByEmail)
	schedule := r.Group("/schedule")
	{
		schedule.POST("/check-duplicates", limit, optionalSession, h.Schedule.CheckDuplicates)
		schedule.GET("", requireSession, h.Schedule.ListMine)
		schedule.POST("", requireSession, h.Schedule.Create)
		schedule.GET("/export", requireSession, h.Schedule.Export)
		schedule.GET("/export.ics", requireSession, h.Schedule.ExportCalendar)
		schedule.PUT("/:id", requireSession, h.Schedule.Update)
		schedule.DELETE("/:id", requireSession, h.Schedule.Delete)
	}

	// 用户档案
	user := r.Group("/user", requireSession)
	{
		user.GET("/profile", h.User.GetProfile)
		user.POST("/profile", h.User.SaveProfile)
	}

	return r
}
