package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
	UploadDir string `yaml:"upload_dir"`
	// TimeoutSecs bounds request reads and response writes.
	TimeoutSecs int `yaml:"timeout_secs"`
}

// LogConfig selects the zap preset: "production" or "development".
type LogConfig struct {
	Env string `yaml:"env"`
}

// LanguageConfig configures language detection.
type LanguageConfig struct {
	Detector string `yaml:"detector"`
	// MinRunes is the shortest text handed to the detector.
	MinRunes int `yaml:"min_runes"`
}

// TranslatorConfig configures the translation service and its call policy.
type TranslatorConfig struct {
	Type        string  `yaml:"type"`
	BaseURL     string  `yaml:"base_url"`
	QPS         float64 `yaml:"qps"`
	Burst       int     `yaml:"burst"`
	TimeoutSecs int     `yaml:"timeout_secs"`
	MaxParallel int     `yaml:"max_parallel"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into passages.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// QdrantConfig contains connection details for a Qdrant index.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChromemConfig configures the embedded chromem-go index.
type ChromemConfig struct {
	Collection string `yaml:"collection"`
}

// PgvectorConfig configures the PostgreSQL + pgvector index.
type PgvectorConfig struct {
	DSNEnv string `yaml:"dsn_env"`
	Table  string `yaml:"table"`
}

// RedisConfig configures the Redis-backed index.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`
	Prefix      string `yaml:"prefix"`
}

// IndexConfig selects and configures the vector index implementation.
type IndexConfig struct {
	Type     string          `yaml:"type"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	Chromem  *ChromemConfig  `yaml:"chromem,omitempty"`
	Pgvector *PgvectorConfig `yaml:"pgvector,omitempty"`
	Redis    *RedisConfig    `yaml:"redis,omitempty"`
}

// AdminConfig configures the knowledge-base administration endpoints.
type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordEnv  string `yaml:"password_env"`
	JWTSecretEnv string `yaml:"jwt_secret_env"`
	TokenTTLMins int    `yaml:"token_ttl_mins"`
	RequireToken *bool  `yaml:"require_token,omitempty"`
}

// TokenRequired reports whether admin routes check a bearer token.
func (a AdminConfig) TokenRequired() bool {
	return a.RequireToken == nil || *a.RequireToken
}

// SeedConfig lists files imported at start-up.
type SeedConfig struct {
	FAQFiles []string `yaml:"faq_files,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Language   LanguageConfig   `yaml:"language"`
	Translator TranslatorConfig `yaml:"translator"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Index      IndexConfig      `yaml:"index"`
	Admin      AdminConfig      `yaml:"admin"`
	Seed       SeedConfig       `yaml:"seed"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/sarthi/config.yaml.
// If neither exists, it writes defaults to ~/.config/sarthi/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sarthi", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "frontend"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "uploads"
	}
	if cfg.Server.TimeoutSecs == 0 {
		cfg.Server.TimeoutSecs = 30
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = "development"
	}
	if cfg.Language.Detector == "" {
		cfg.Language.Detector = "whatlang"
	}
	if cfg.Translator.Type == "" {
		cfg.Translator.Type = "google"
	}
	if cfg.Translator.TimeoutSecs == 0 {
		cfg.Translator.TimeoutSecs = 5
	}
	if cfg.Translator.MaxParallel == 0 {
		cfg.Translator.MaxParallel = 4
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		// A custom base URL without a key env is a keyless local server (Ollama).
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
			if o.APIKeyEnv == "" {
				o.APIKeyEnv = "OPENAI_API_KEY"
			}
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.MaxRetries == 0 {
			o.MaxRetries = 3
		}
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "sentence"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	switch cfg.Index.Type {
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			cfg.Index.Qdrant = &QdrantConfig{}
		}
		if cfg.Index.Qdrant.URL == "" {
			cfg.Index.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.Index.Qdrant.Collection == "" {
			cfg.Index.Qdrant.Collection = "faq"
		}
		if cfg.Index.Qdrant.TimeoutSecs == 0 {
			cfg.Index.Qdrant.TimeoutSecs = 10
		}
	case "chromem":
		if cfg.Index.Chromem == nil {
			cfg.Index.Chromem = &ChromemConfig{}
		}
		if cfg.Index.Chromem.Collection == "" {
			cfg.Index.Chromem.Collection = "faq"
		}
	case "pgvector":
		if cfg.Index.Pgvector == nil {
			cfg.Index.Pgvector = &PgvectorConfig{}
		}
		if cfg.Index.Pgvector.DSNEnv == "" {
			cfg.Index.Pgvector.DSNEnv = "DATABASE_URL"
		}
		if cfg.Index.Pgvector.Table == "" {
			cfg.Index.Pgvector.Table = "faq_entries"
		}
	case "redis":
		if cfg.Index.Redis == nil {
			cfg.Index.Redis = &RedisConfig{}
		}
		if cfg.Index.Redis.Addr == "" {
			cfg.Index.Redis.Addr = "localhost:6379"
		}
		if cfg.Index.Redis.Prefix == "" {
			cfg.Index.Redis.Prefix = "sarthi:faq"
		}
	}
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = "admin"
	}
	if cfg.Admin.PasswordEnv == "" {
		cfg.Admin.PasswordEnv = "SARTHI_ADMIN_PASSWORD"
	}
	if cfg.Admin.JWTSecretEnv == "" {
		cfg.Admin.JWTSecretEnv = "SARTHI_JWT_SECRET"
	}
	if cfg.Admin.TokenTTLMins == 0 {
		cfg.Admin.TokenTTLMins = 60
	}
}
