package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Index.Type)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, 5, cfg.Translator.TimeoutSecs)
	assert.Equal(t, 4, cfg.Translator.MaxParallel)
	assert.Nil(t, cfg.Index.Redis)
	assert.True(t, cfg.Admin.TokenRequired())
}

func TestLoadAppliesSectionDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  addr: ":9090"
translator:
  qps: 5
embedder:
  type: openai
  openai:
    base_url: http://localhost:11434/v1
    api_key_env: ""
    model: nomic-embed-text
index:
  type: qdrant
admin:
  require_token: false
seed:
  faq_files: [data/faq.csv]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "uploads", cfg.Server.UploadDir)
	assert.InDelta(t, 5.0, cfg.Translator.QPS, 1e-9)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.OpenAI.Model)
	assert.Empty(t, cfg.Embedder.OpenAI.APIKeyEnv, "local servers need no key")
	require.NotNil(t, cfg.Index.Qdrant)
	assert.Equal(t, "http://localhost:6333", cfg.Index.Qdrant.URL)
	assert.Equal(t, "faq", cfg.Index.Qdrant.Collection)
	assert.False(t, cfg.Admin.TokenRequired())
	assert.Equal(t, []string{"data/faq.csv"}, cfg.Seed.FAQFiles)
}

func TestOpenAIDefaultsNeedKey(t *testing.T) {
	cfg := &AppConfig{Embedder: EmbedderConfig{Type: "openai"}}
	applyConfigDefaults(cfg)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 3, cfg.Embedder.OpenAI.MaxRetries)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Index.Type = "pgvector"
	applyConfigDefaults(cfg)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Equal(t, "DATABASE_URL", got.Index.Pgvector.DSNEnv)
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "sarthi", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, "memory", cfg.Index.Type)
}

func TestRedisIndexDefaults(t *testing.T) {
	cfg := &AppConfig{Index: IndexConfig{Type: "redis", Redis: &RedisConfig{DB: 2}}}
	applyConfigDefaults(cfg)
	assert.Equal(t, "localhost:6379", cfg.Index.Redis.Addr)
	assert.Equal(t, "sarthi:faq", cfg.Index.Redis.Prefix)
	assert.Equal(t, 2, cfg.Index.Redis.DB)
}
