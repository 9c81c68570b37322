package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/types"
)

// RedisCache 基于Redis的分析结果缓存，条目带TTL过期。
// 实现 processor.AnalysisCache 接口，适合多实例部署共享分析结果。
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache 创建Redis缓存并验证连通性
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries: cfg.MaxRetries,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry追踪钩子
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("为Redis客户端添加追踪钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}

	ttl := constants.AnalysisCacheDuration
	if cfg.CacheExpireHours > 0 {
		ttl = time.Duration(cfg.CacheExpireHours) * time.Hour
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.Logger.With().Str("component", "redis_cache").Logger(),
	}, nil
}

// Get 查询缓存；键不存在时第二个返回值为false而不是错误
func (c *RedisCache) Get(ctx context.Context, key string) (*types.AnalysisResult, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("读取缓存键 %s 失败: %w", key, err)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		// 损坏的条目当作未命中，覆盖写入会修复它
		c.logger.Warn().Err(err).Str("key", key).Msg("缓存条目反序列化失败")
		return nil, false, nil
	}

	return &result, true, nil
}

// Put 序列化结果并带TTL写入
func (c *RedisCache) Put(ctx context.Context, key string, result *types.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化分析结果失败: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入缓存键 %s 失败: %w", key, err)
	}
	return nil
}

// Close 关闭底层Redis连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}
