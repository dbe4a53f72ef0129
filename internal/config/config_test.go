package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("EMBEDDING_PROVIDER", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.ChunkSize != 1500 {
		t.Fatalf("expected chunk size 1500, got %d", cfg.ChunkSize)
	}
	if cfg.VectorIndex != VectorIndexSQLite {
		t.Fatalf("expected sqlite vector index, got %q", cfg.VectorIndex)
	}
	if cfg.EmbeddingConcurrency != 1 {
		t.Fatalf("expected sequential embedding by default, got %d", cfg.EmbeddingConcurrency)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("EMBEDDING_PROVIDER", " HTTP ")
	t.Setenv("EMBEDDING_URL", "https://embed.example.com/")
	t.Setenv("EMBEDDING_CONCURRENCY", "0")
	t.Setenv("GEMINI_API_KEY", "  key  ")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected port from env, got %q", cfg.HTTPPort)
	}
	if cfg.EmbeddingProvider != EmbeddingProviderHTTP {
		t.Fatalf("expected normalized provider, got %q", cfg.EmbeddingProvider)
	}
	if cfg.EmbeddingURL != "https://embed.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.EmbeddingURL)
	}
	if cfg.EmbeddingConcurrency != 1 {
		t.Fatalf("expected concurrency floor of 1, got %d", cfg.EmbeddingConcurrency)
	}
	if cfg.GeminiAPIKey != "key" {
		t.Fatalf("expected trimmed key, got %q", cfg.GeminiAPIKey)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("MATCH_LIMIT", "")
	path := filepath.Join(t.TempDir(), "skillsync.yaml")
	if err := os.WriteFile(path, []byte("match_limit: 5\nredis_channel: events\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MatchLimit != 5 {
		t.Fatalf("expected match limit from file, got %d", cfg.MatchLimit)
	}
	if cfg.RedisChannel != "events" {
		t.Fatalf("expected redis channel from file, got %q", cfg.RedisChannel)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			JWTSecret:         "secret",
			EmbeddingProvider: EmbeddingProviderGemini,
			VectorIndex:       VectorIndexSQLite,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.EmbeddingProvider = "cohere" }, wantErr: true},
		{name: "pgvector without dsn", mutate: func(c *Config) { c.VectorIndex = VectorIndexPgvector }, wantErr: true},
		{name: "pgvector with dsn", mutate: func(c *Config) {
			c.VectorIndex = VectorIndexPgvector
			c.PostgresDSN = "postgres://localhost/skillsync"
		}},
		{name: "unknown index", mutate: func(c *Config) { c.VectorIndex = "faiss" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
