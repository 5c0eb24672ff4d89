package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"resume-tailor/internal/config"
	"resume-tailor/internal/tracing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var minioTracer = otel.Tracer("resume-tailor/storage/minio")

// MinIOStore 把生成的文档写入 MinIO
type MinIOStore struct {
	client *minio.Client
	cfg    config.MinIOConfig
	logger zerolog.Logger
}

var _ ArtifactStore = (*MinIOStore)(nil)

// NewMinIOStore 创建客户端，确保存储桶存在并设置过期规则
func NewMinIOStore(ctx context.Context, cfg config.MinIOConfig, logger zerolog.Logger) (*MinIOStore, error) {
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("MinIO 地址和存储桶不能为空")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	m := &MinIOStore{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "minio").Str("bucket", cfg.BucketName).Logger(),
	}
	if err := m.ensureBucketExists(ctx); err != nil {
		return nil, err
	}
	if cfg.ArtifactExpireDays > 0 {
		if err := m.setupLifecycle(ctx, cfg.ArtifactExpireDays); err != nil {
			m.logger.Warn().Err(err).Msg("设置生命周期规则失败")
		}
	}
	m.logger.Info().Str("endpoint", cfg.Endpoint).Msg("MinIO 客户端初始化成功")
	return m, nil
}

func (m *MinIOStore) ensureBucketExists(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.cfg.BucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", m.cfg.BucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.cfg.BucketName, minio.MakeBucketOptions{Region: m.cfg.Location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", m.cfg.BucketName, err)
	}
	m.logger.Info().Msg("存储桶已创建")
	return nil
}

func (m *MinIOStore) setupLifecycle(ctx context.Context, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:         "expire-tailored-resumes",
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: "runs/"},
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(expiryDays)},
		},
	}
	return m.client.SetBucketLifecycle(ctx, m.cfg.BucketName, lc)
}

func (m *MinIOStore) startSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	ctx, span := minioTracer.Start(ctx, "MinIO."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("storage.bucket", m.cfg.BucketName),
		attribute.String("storage.key", key),
	)
	return ctx, span
}

// Save 上传文档，返回 bucket/key
func (m *MinIOStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	ctx, span := m.startSpan(ctx, "PutObject", key)
	defer span.End()

	info, err := m.client.PutObject(ctx, m.cfg.BucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.cfg.BucketName, key, err)
	}
	span.SetAttributes(attribute.Int64("storage.size", info.Size))
	m.logger.Debug().Str("key", key).Int64("size", info.Size).Str("etag", info.ETag).Msg("文档已上传")
	return m.cfg.BucketName + "/" + key, nil
}

// Load 下载文档
func (m *MinIOStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	ctx, span := m.startSpan(ctx, "GetObject", key)
	defer span.End()

	obj, err := m.client.GetObject(ctx, m.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, fmt.Errorf("获取对象 %s 失败: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, key)
		}
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, fmt.Errorf("读取对象 %s 失败: %w", key, err)
	}
	return data, nil
}

// PresignedURL 生成限时下载链接
func (m *MinIOStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", "attachment")
	u, err := m.client.PresignedGetObject(ctx, m.cfg.BucketName, key, expiry, params)
	if err != nil {
		return "", fmt.Errorf("生成预签名链接失败: %w", err)
	}
	return u.String(), nil
}
