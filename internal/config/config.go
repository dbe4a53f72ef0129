package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EmbeddingProviderGemini = "gemini"
	EmbeddingProviderHTTP   = "http"

	VectorIndexSQLite   = "sqlite"
	VectorIndexPgvector = "pgvector"
)

type Config struct {
	HTTPPort    string `mapstructure:"http_port"`
	DatabaseURL string `mapstructure:"database_url"`
	LogLevel    string `mapstructure:"log_level"`
	LogJSON     bool   `mapstructure:"log_json"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	MatchLimit  int    `mapstructure:"match_limit"`

	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
	MaxLogLength int    `mapstructure:"max_log_length"`

	EmbeddingProvider    string  `mapstructure:"embedding_provider"`
	EmbeddingModel       string  `mapstructure:"embedding_model"`
	EmbeddingURL         string  `mapstructure:"embedding_url"`
	EmbeddingAPIKey      string  `mapstructure:"embedding_api_key"`
	EmbeddingConcurrency int     `mapstructure:"embedding_concurrency"`
	EmbeddingRPS         float64 `mapstructure:"embedding_rps"`
	ChunkSize            int     `mapstructure:"chunk_size"`

	VectorIndex string `mapstructure:"vector_index"`
	PostgresDSN string `mapstructure:"postgres_dsn"`

	RedisAddr    string `mapstructure:"redis_addr"`
	RedisChannel string `mapstructure:"redis_channel"`
}

var defaults = map[string]any{
	"http_port":             "8080",
	"database_url":          "skillsync.db",
	"log_level":             "info",
	"log_json":              false,
	"jwt_secret":            "",
	"match_limit":           20,
	"gemini_api_key":        "",
	"gemini_model":          "gemini-2.5-flash",
	"max_log_length":        200,
	"embedding_provider":    EmbeddingProviderGemini,
	"embedding_model":       "text-embedding-004",
	"embedding_url":         "https://api.openai.com",
	"embedding_api_key":     "",
	"embedding_concurrency": 1,
	"embedding_rps":         25.0,
	"chunk_size":            1500,
	"vector_index":          VectorIndexSQLite,
	"postgres_dsn":          "",
	"redis_addr":            "",
	"redis_channel":         "notifications",
}

// Load reads an optional .env file, then resolves every key from the
// environment, the optional config file and the defaults, in that order.
func Load(configFile string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.EmbeddingProvider = strings.ToLower(strings.TrimSpace(c.EmbeddingProvider))
	c.VectorIndex = strings.ToLower(strings.TrimSpace(c.VectorIndex))
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)
	c.EmbeddingAPIKey = strings.TrimSpace(c.EmbeddingAPIKey)
	c.EmbeddingURL = strings.TrimRight(strings.TrimSpace(c.EmbeddingURL), "/")
	if c.EmbeddingConcurrency < 1 {
		c.EmbeddingConcurrency = 1
	}
	if c.MatchLimit < 1 {
		c.MatchLimit = 20
	}
}

// Validate checks the settings the HTTP server cannot start without.
// Missing AI credentials are not an error here: topic extraction degrades to
// keywords and embedding calls report a configuration error per request.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.EmbeddingProvider {
	case EmbeddingProviderGemini, EmbeddingProviderHTTP:
	default:
		return fmt.Errorf("unsupported EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	switch c.VectorIndex {
	case VectorIndexSQLite:
	case VectorIndexPgvector:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when VECTOR_INDEX=pgvector")
		}
	default:
		return fmt.Errorf("unsupported VECTOR_INDEX %q", c.VectorIndex)
	}
	return nil
}
