package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jomadlcrz/Class-Schedule-System/config"
)

// Client Redis 客户端封装
// 当前仅用于接口限流；连接失败时由调用方降级为不限流
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger, now: time.Now}, nil
}

// ── 滑动窗口限流 ──

const rateLimitPrefix = "rate_limit:"

// CheckRateLimit 基于有序集合的滑动窗口计数
// 窗口内请求数未超过 limit 时放行并记录本次请求
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := c.now()
	fullKey := rateLimitPrefix + key
	windowStart := now.Add(-window).UnixNano()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, fullKey, "-inf", strconv.FormatInt(windowStart, 10))
	count := pipe.ZCard(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if count.Val() >= int64(limit) {
		return false, nil
	}

	// 同一纳秒内的并发请求也要各自计数
	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.New().String()
	pipe = c.rdb.TxPipeline()
	pipe.ZAdd(ctx, fullKey, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.PExpire(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
