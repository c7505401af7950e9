package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jomadlcrz/Class-Schedule-System/config"
)

// NewLogger 根据配置初始化 Zap 日志实例
// console 为开发用彩色输出；json 为生产输出，时间 ISO8601，附带 env 字段
func NewLogger(cfg *config.LogConfig, env string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json", "":
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "time"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("无效的日志格式 %q", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.InitialFields = map[string]interface{}{"env": env}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("初始化日志器失败: %w", err)
	}
	return logger.Named("schedule"), nil
}
