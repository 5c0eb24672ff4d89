package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "无法写入临时配置文件")
	return path
}

// TestLoadConfigMergesDefaults 文件中未出现的字段保留默认值
func TestLoadConfigMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: "file-key"
  model: "qwen-max"
  qpm: 20
model_qpm_limits:
  qwen-max: 600
normalizer:
  similarity_threshold: 90
  tracked_entities: ["NzubeCare"]
render:
  style: classic
storage:
  type: local
  local_dir: /tmp/out
`)
	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, "qwen-max", cfg.LLM.Model)
	assert.Equal(t, 20, cfg.LLM.QPM)
	assert.Equal(t, Default().LLM.APIURL, cfg.LLM.APIURL)
	assert.Equal(t, 600, cfg.ModelQPMLimits["qwen-max"])
	assert.Equal(t, 15000, cfg.ModelQPMLimits["qwen-plus"], "yaml 映射与默认值合并")

	assert.Equal(t, 90, cfg.Normalizer.SimilarityThreshold)
	assert.Equal(t, []string{"NzubeCare"}, cfg.Normalizer.TrackedEntities)
	assert.NotEmpty(t, cfg.Normalizer.CanonicalSections, "未配置时使用默认章节表")
	assert.True(t, cfg.Normalizer.DetectRepeatedSubheadings)

	assert.Equal(t, "classic", cfg.Render.Style)
	assert.Equal(t, []string{"md", "html"}, cfg.Render.Formats)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "llm:\n  api_key: file-key\n")
	t.Setenv(EnvLLMAPIKey, "env-key")
	t.Setenv(EnvLLMModel, "qwen-turbo")
	t.Setenv(EnvRedisAddress, "redis:6380")
	t.Setenv(EnvMySQLPass, "secret")
	t.Setenv(EnvRabbitMQURL, "amqp://mq:5672/")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "qwen-turbo", cfg.LLM.Model)
	assert.Equal(t, "redis:6380", cfg.Redis.Address)
	assert.Equal(t, "secret", cfg.MySQL.Password)
	assert.Equal(t, "amqp://mq:5672/", cfg.RabbitMQ.URL)

	// 只读文件时忽略环境变量
	cfg, err = LoadConfigFromFileOnly(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "配置文件不存在")
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeConfig(t, "llm: [unterminated")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "解析配置文件失败")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"storage type", func(c *Config) { c.Storage.Type = "s3" }, "storage.type"},
		{"local dir", func(c *Config) { c.Storage.Type = "local"; c.Storage.LocalDir = "" }, "storage.local_dir"},
		{"minio bucket", func(c *Config) { c.Storage.Type = "minio"; c.MinIO.BucketName = "" }, "minio.bucketName"},
		{"mysql database", func(c *Config) { c.MySQL.Enabled = true; c.MySQL.Database = "" }, "mysql.database"},
		{"rabbitmq exchange", func(c *Config) { c.RabbitMQ.Enabled = true; c.RabbitMQ.Exchange = "" }, "rabbitmq.exchange"},
		{"redis", func(c *Config) { c.Redis.Enabled = true; c.Redis.Address = "" }, "redis.address"},
		{"normalizer", func(c *Config) { c.Normalizer.SimilarityThreshold = 120 }, "similarity_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestCreateSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))

	cfg, err := LoadConfigFromFileOnly(path)
	require.NoError(t, err)
	assert.Equal(t, Default().LLM.Model, cfg.LLM.Model)
	assert.Equal(t, len(Default().Normalizer.CanonicalSections), len(cfg.Normalizer.CanonicalSections))

	err = CreateSampleConfig(path)
	require.Error(t, err, "已存在的文件不应被覆盖")
}

func TestDurations(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("soon", time.Minute))

	cfg := Default()
	assert.Equal(t, time.Second, cfg.RetryWait())
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
	cfg.Redis.CacheTTLHours = 2
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL())
}
