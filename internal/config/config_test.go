package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigMissingFileInTest 验证测试环境下找不到配置文件时回退到默认配置
func TestLoadConfigMissingFileInTest(t *testing.T) {
	cfg, err := LoadConfig("definitely-not-exists.yaml")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
}

// TestLoadConfigFromFile 验证从yaml文件加载配置并补齐默认值
func TestLoadConfigFromFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "screener-config-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	content := `
server:
  address: ":9090"
mysql:
  host: "db.internal"
  port: 3306
  username: "screener"
  database: "screener"
pipeline:
  min_chunk_chars: 60
  skill_vocabulary:
    - "go"
    - "sql"
tracing:
  enabled: true
  otlp_endpoint: "collector:4317"
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// 显式配置生效
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.Equal(t, 60, cfg.Pipeline.MinChunkChars)
	assert.Equal(t, []string{"go", "sql"}, cfg.Pipeline.SkillVocabulary)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "collector:4317", cfg.Tracing.OTLPEndpoint)

	// 未配置项补齐默认值
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 10, cfg.MySQL.MaxIdleConns)
	assert.Equal(t, 50, cfg.MySQL.MaxOpenConns)
	assert.Equal(t, 50, cfg.Pipeline.BoundaryGuardChars)
	assert.Equal(t, DefaultHeaderMarkers, cfg.Pipeline.HeaderMarkers)
	assert.Equal(t, DefaultEducationKeywords, cfg.Pipeline.EducationKeywords)
	assert.Equal(t, "resume-screener", cfg.Tracing.ServiceName)
	assert.InDelta(t, 1.0, cfg.Tracing.SampleRatio, 1e-9)
	assert.Equal(t, 5000, cfg.RabbitMQ.RelayIntervalMS)
	assert.Equal(t, 30, cfg.Redis.MD5RecordExpireDays)
}

// TestLoadConfigEnvOverrides 验证环境变量覆盖敏感配置项
func TestLoadConfigEnvOverrides(t *testing.T) {
	dir, err := os.MkdirTemp("", "screener-config-env-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	content := `
mysql:
  password: "from-file"
server:
  api_key: "file-key"
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("MYSQL_PASSWORD", "from-env")
	t.Setenv("SCREENER_API_KEY", "env-key")
	t.Setenv("RABBITMQ_URL", "amqp://guest:guest@mq:5672/")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.MySQL.Password)
	assert.Equal(t, "env-key", cfg.Server.APIKey)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.RabbitMQ.URL)
}

// TestDefaultVocabularies 验证内置词表为小写且非空
func TestDefaultVocabularies(t *testing.T) {
	assert.NotEmpty(t, DefaultSkillVocabulary)
	assert.NotEmpty(t, DefaultHeaderMarkers)
	assert.NotEmpty(t, DefaultEducationKeywords)
	assert.NotEmpty(t, DefaultDegreeBonusKeywords)

	assert.Contains(t, DefaultSkillVocabulary, "go")
	assert.Contains(t, DefaultHeaderMarkers, "name:")
	assert.Contains(t, DefaultDegreeBonusKeywords, "computer")
}
