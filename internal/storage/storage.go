package storage

import (
	"context"
	"errors"
	"fmt"

	"resume-tailor/internal/config"

	"github.com/rs/zerolog"
)

// Storage 聚合缓存、文档存储、定制记录与事件发布
type Storage struct {
	Cache     Cache
	Artifacts ArtifactStore  // 未配置时为 nil
	Runs      RunHistory     // 未启用 MySQL 时为进程内记录
	Events    EventPublisher // 未启用 RabbitMQ 时为 nil

	redis *RedisCache
	mysql *MySQL
	mq    *RabbitMQ
}

// NewStorage 按配置初始化。
// Redis、MySQL 连接失败时退回进程内实现，RabbitMQ 失败时不发布事件，文档存储失败则直接报错。
func NewStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	logger = logger.With().Str("component", "storage").Logger()
	s := &Storage{}

	if cfg.Redis.Enabled {
		rc, err := NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化 Redis 失败，使用进程内缓存")
		} else {
			s.redis = rc
			s.Cache = rc
			logger.Info().Str("address", cfg.Redis.Address).Msg("Redis 缓存已连接")
		}
	}
	if s.Cache == nil {
		s.Cache = NewMemoryCache()
	}

	if cfg.MySQL.Enabled {
		m, err := NewMySQL(cfg.MySQL, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化 MySQL 失败，定制记录只保存在内存中")
		} else {
			s.mysql = m
			s.Runs = m
		}
	}
	if s.Runs == nil {
		s.Runs = NewMemoryHistory(MaxHistoryLimit)
	}

	if cfg.RabbitMQ.Enabled {
		mq, err := NewRabbitMQ(cfg.RabbitMQ, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("初始化 RabbitMQ 失败，不发布定制事件")
		} else {
			s.mq = mq
			s.Events = mq
		}
	}

	switch cfg.Storage.Type {
	case "local":
		ls, err := NewLocalStore(cfg.Storage.LocalDir)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Artifacts = ls
	case "minio":
		ms, err := NewMinIOStore(ctx, cfg.MinIO, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("初始化 MinIO 失败: %w", err)
		}
		s.Artifacts = ms
	case "":
		logger.Debug().Msg("未配置文档存储，生成结果只随响应返回")
	default:
		s.Close()
		return nil, fmt.Errorf("不支持的存储类型: %q", cfg.Storage.Type)
	}

	return s, nil
}

// Close 关闭全部连接
func (s *Storage) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.mysql != nil {
		errs = append(errs, s.mysql.Close())
	}
	if s.mq != nil {
		errs = append(errs, s.mq.Close())
	}
	return errors.Join(errs...)
}
