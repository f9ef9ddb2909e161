package storage

import (
	"context"
	"fmt"
	"time"

	"resume-screener-go/internal/config"
	"resume-screener-go/internal/constants"
	"resume-screener-go/internal/processor"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// 确保Redis实现了流水线的内容去重接口
var _ processor.TextDeduper = (*Redis)(nil)

// Redis 包装go-redis客户端，提供解析文本内容级去重
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("Redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("Redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	// 挂载OpenTelemetry钩子，Redis命令自动产生span
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("注册Redis追踪钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis失败 (%s): %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	return r.Client.Close()
}

// Ping 检查Redis连接
func (r *Redis) Ping(ctx context.Context) error {
	_, err := r.Client.Ping(ctx).Result()
	return err
}

// md5ExpireDuration 返回配置的MD5记录过期时间
func (r *Redis) md5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		return constants.MD5RecordExpire
	}
	return time.Duration(days) * 24 * time.Hour
}

// CheckAndRemember 原子地检查并登记解析文本的MD5
// SADD 返回新增成员数：0 表示此前已见过。过期时间只在集合无TTL时设置，
// 避免每次写入都重置整集合的过期
func (r *Redis) CheckAndRemember(ctx context.Context, md5Hex string) (bool, error) {
	if md5Hex == "" {
		return false, fmt.Errorf("MD5值不能为空")
	}

	pipe := r.Client.TxPipeline()
	addCmd := pipe.SAdd(ctx, constants.ParsedTextMD5SetKey, md5Hex)
	pipe.ExpireNX(ctx, constants.ParsedTextMD5SetKey, r.md5ExpireDuration())
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("登记文本MD5失败: %w", err)
	}

	return addCmd.Val() == 0, nil
}
