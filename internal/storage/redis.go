package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-tailor/internal/config"
	"resume-tailor/internal/tracing"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var redisTracer = otel.Tracer("resume-tailor/storage/redis")

// RedisCache 基于 Redis 的 Cache 实现
type RedisCache struct {
	Client *redis.Client
	cfg    config.RedisConfig
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache 连接 Redis 并挂载 OpenTelemetry 钩子
func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis 地址不能为空")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("为 Redis 挂载链路追踪失败: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("连接 Redis %s 失败: %w", cfg.Address, err)
	}

	return NewRedisCacheFromClient(client, cfg), nil
}

// NewRedisCacheFromClient 复用已有客户端
func NewRedisCacheFromClient(client *redis.Client, cfg config.RedisConfig) *RedisCache {
	return &RedisCache{Client: client, cfg: cfg}
}

// FormatKey 拼接带前缀的缓存键
func (r *RedisCache) FormatKey(parts ...string) string {
	return r.cfg.KeyPrefix + strings.Join(parts, ":")
}

func (r *RedisCache) startSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	ctx, span := redisTracer.Start(ctx, "Redis."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.Int("db.redis.database_index", r.cfg.DB),
		attribute.String("net.peer.name", r.cfg.Address),
		attribute.String("db.operation", strings.ToUpper(op)),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	)
	return ctx, span
}

// Get 读取缓存，键不存在时返回 ErrCacheMiss
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis 客户端未初始化")
	}
	key = r.FormatKey(key)
	ctx, span := r.startSpan(ctx, "Get", key)
	defer span.End()

	val, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		span.SetStatus(codes.Ok, "key not found")
		return nil, ErrCacheMiss
	}
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeCache)
		return nil, fmt.Errorf("读取缓存失败: %w", err)
	}

	span.SetAttributes(
		attribute.Bool("db.redis.key_exists", true),
		attribute.Int("db.redis.value_length", len(val)),
	)
	return val, nil
}

// Set 写入缓存
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis 客户端未初始化")
	}
	key = r.FormatKey(key)
	ctx, span := r.startSpan(ctx, "Set", key)
	defer span.End()

	span.SetAttributes(attribute.Int("db.redis.value_length", len(value)))
	if ttl > 0 {
		span.SetAttributes(attribute.Int64("db.redis.expiration_ms", ttl.Milliseconds()))
	}

	if err := r.Client.Set(ctx, key, value, ttl).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeCache)
		return fmt.Errorf("写入缓存失败: %w", err)
	}
	return nil
}

// Ping 检查连接
func (r *RedisCache) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis 客户端未初始化")
	}
	return r.Client.Ping(ctx).Err()
}

// Close 关闭连接
func (r *RedisCache) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}
