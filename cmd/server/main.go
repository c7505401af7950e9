package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/api/handler"
	"github.com/jomadlcrz/Class-Schedule-System/internal/api/router"
	"github.com/jomadlcrz/Class-Schedule-System/internal/repository"
	"github.com/jomadlcrz/Class-Schedule-System/internal/service"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/database"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/jwt"
	applogger "github.com/jomadlcrz/Class-Schedule-System/pkg/logger"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/oauth"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/redis"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/validation"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("SCHEDULE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env),
		zap.String("log_level", cfg.Log.Level),
		zap.String("duplicate_scope", cfg.Validation.DuplicateScope),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.RateLimit.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，限流功能将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 5. 注册字段校验标签
	rules := validation.Rules{StrictDays: cfg.Validation.StrictDays, StrictTime: cfg.Validation.StrictTime}
	if err := validation.RegisterBindings(rules); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}

	// 6. 第三方登录
	jwtMgr := jwt.NewManager(&cfg.Auth)
	provider := oauth.NewGoogleProvider(&cfg.Auth.Google)
	if cfg.Auth.Google.ClientID == "" {
		logger.Warn("未配置 Google OAuth client_id，登录将不可用")
	}

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, provider, logger)
	h := handler.NewHandler(cfg, svc)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, svc.Auth, rdb, db, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
