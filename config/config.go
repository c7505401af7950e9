package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Validation ValidationConfig `mapstructure:"validation"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Export     ExportConfig     `mapstructure:"export"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port      int        `mapstructure:"port"`
	BaseURL   string     `mapstructure:"base_url"`
	Env       string     `mapstructure:"env"` // development | production
	BodyLimit int64      `mapstructure:"body_limit"`
	CORS      CORSConfig `mapstructure:"cors"`
}

// IsDevelopment 开发环境下错误响应附带原始错误信息
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 分钟
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（仅用于限流）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 第三方登录与会话配置
type AuthConfig struct {
	Google      GoogleConfig  `mapstructure:"google"`
	StateSecret string        `mapstructure:"state_secret"`
	StateTTL    time.Duration `mapstructure:"state_ttl"`
	Session     SessionConfig `mapstructure:"session"`
	Cookie      CookieConfig  `mapstructure:"cookie"`
}

// GoogleConfig Google OAuth 客户端配置
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// SessionConfig 数据库会话策略
type SessionConfig struct {
	MaxAge    time.Duration `mapstructure:"max_age"`
	UpdateAge time.Duration `mapstructure:"update_age"`
}

// CookieConfig Cookie 安全配置
type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
	Domain   string `mapstructure:"domain"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ValidationConfig 课表字段校验开关
type ValidationConfig struct {
	StrictDays     bool   `mapstructure:"strict_days"`
	StrictTime     bool   `mapstructure:"strict_time"`
	DuplicateScope string `mapstructure:"duplicate_scope"` // global | owner
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// ExportConfig 日历导出配置
// 每条课表导出为每周重复的日程，从导出当周开始重复 Weeks 周
type ExportConfig struct {
	Timezone string `mapstructure:"timezone"`
	Weeks    int    `mapstructure:"weeks"`
}

const (
	DuplicateScopeGlobal = "global"
	DuplicateScopeOwner  = "owner"
)

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值；.env 文件存在时先载入进程环境
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 文件失败: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SCHEDULE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:3000")
	v.SetDefault("server.env", "production")
	v.SetDefault("server.body_limit", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "class_schedule")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.google.client_id", "")
	v.SetDefault("auth.google.client_secret", "")
	v.SetDefault("auth.google.redirect_url", "http://localhost:8080/auth/google/callback")
	v.SetDefault("auth.state_secret", "")
	v.SetDefault("auth.state_ttl", "10m")
	v.SetDefault("auth.session.max_age", "720h")   // 30 天
	v.SetDefault("auth.session.update_age", "24h") // 每 24 小时滚动续期一次
	v.SetDefault("auth.cookie.name", "schedule_session")
	v.SetDefault("auth.cookie.secure", false)
	v.SetDefault("auth.cookie.same_site", "Lax")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("validation.strict_days", false)
	v.SetDefault("validation.strict_time", false)
	v.SetDefault("validation.duplicate_scope", DuplicateScopeGlobal)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.limit", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("export.timezone", "UTC")
	v.SetDefault("export.weeks", 18)
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if len(c.Auth.StateSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.state_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Validation.DuplicateScope {
	case DuplicateScopeGlobal, DuplicateScopeOwner:
	default:
		return fmt.Errorf("配置校验失败: validation.duplicate_scope 必须为 global 或 owner")
	}
	if c.Auth.Session.MaxAge <= 0 {
		return fmt.Errorf("配置校验失败: auth.session.max_age 必须大于 0")
	}
	if c.Auth.Session.UpdateAge > c.Auth.Session.MaxAge {
		return fmt.Errorf("配置校验失败: auth.session.update_age 不能大于 max_age")
	}
	if _, err := time.LoadLocation(c.Export.Timezone); err != nil {
		return fmt.Errorf("配置校验失败: export.timezone 无效: %w", err)
	}
	if c.Export.Weeks < 1 || c.Export.Weeks > 53 {
		return fmt.Errorf("配置校验失败: export.weeks 必须在 1-53 之间")
	}
	return nil
}
