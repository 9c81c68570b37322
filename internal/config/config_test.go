package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  address: ":9090"
logger:
  level: debug
embedding:
  api_key: file-key
  model: custom-embedding
  dimensions: 512
analyzer:
  chunk_size: 300
  chunk_overlap: 30
  batch_workers: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "custom-embedding", cfg.Embedding.Model)
	assert.Equal(t, 512, cfg.Embedding.Dimensions)
	assert.Equal(t, 300, cfg.Analyzer.ChunkSize)
	assert.Equal(t, 30, cfg.Analyzer.ChunkOverlap)
	assert.Equal(t, 8, cfg.Analyzer.BatchWorkers)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":8081\"\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-v3", cfg.Embedding.Model)
	assert.Equal(t, 1024, cfg.Embedding.Dimensions)
	assert.Equal(t, "qwen-turbo", cfg.LLM.Model)
	assert.Equal(t, 500, cfg.Analyzer.ChunkSize)
	assert.Equal(t, 50, cfg.Analyzer.ChunkOverlap)
	assert.Equal(t, 4, cfg.Analyzer.BatchWorkers)
	assert.Equal(t, 24, cfg.Redis.CacheExpireHours)
}

func TestLoadConfigEnvOverridesAPIKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedding:\n  api_key: from-file\n"), 0644))

	t.Setenv("EMBEDDING_API_KEY", "from-env")
	t.Setenv("LLM_API_KEY", "llm-from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Embedding.APIKey)
	assert.Equal(t, "llm-from-env", cfg.LLM.APIKey)
}

func TestLoadConfigMissingFileInTest(t *testing.T) {
	// 测试环境下找不到配置文件时返回默认配置而非错误
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, GetDuration("30s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("garbage", time.Minute))
}
