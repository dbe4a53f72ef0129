package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/skillsync/skillsync/internal/config"
	"github.com/skillsync/skillsync/internal/core"
	"github.com/skillsync/skillsync/internal/embedding"
	"github.com/skillsync/skillsync/internal/realtime"
	"github.com/skillsync/skillsync/internal/store"
	"github.com/skillsync/skillsync/internal/topics"
	"github.com/skillsync/skillsync/internal/vectorindex/pgvector"
)

// app holds the wired services shared by the commands.
type app struct {
	store       *store.SQLiteStore
	bus         realtime.Bus
	internships *core.InternshipService
	students    *core.StudentService
	matching    *core.MatchingService

	closers []func() error
	log     *zap.Logger
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{log: log}
	if err := a.init(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context, cfg *config.Config) error {
	log := a.log

	var err error
	a.store, err = store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)

	var index store.VectorIndex = a.store
	if cfg.VectorIndex == config.VectorIndexPgvector {
		pg, err := pgvector.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("initializing pgvector index: %w", err)
		}
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		index = pg
	}
	log.Info("vector index ready", zap.String("index", cfg.VectorIndex))

	embedder, err := embedding.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initializing embeddings: %w", err)
	}
	a.closers = append(a.closers, func() error { return embedding.Close(embedder) })

	extractor, err := newExtractor(ctx, cfg, log)
	if err != nil {
		return err
	}

	if cfg.RedisAddr != "" {
		bus, err := realtime.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisChannel, log)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		a.bus = bus
	} else {
		a.bus = realtime.NewLocalBus()
	}
	a.closers = append(a.closers, a.bus.Close)

	settings := core.IndexSettings{
		ChunkSize: cfg.ChunkSize,
		Embed:     embedding.Options{Concurrency: cfg.EmbeddingConcurrency},
	}
	if cfg.EmbeddingRPS > 0 {
		settings.Embed.Limiter = rate.NewLimiter(rate.Limit(cfg.EmbeddingRPS), 1)
	}

	fanout := core.NewFanout(a.store, a.bus, log)
	a.internships = core.NewInternshipService(a.store, index, embedder, extractor, fanout, settings, log)
	a.students = core.NewStudentService(a.store, index, embedder, settings, log)
	a.matching = core.NewMatchingService(a.store, index, log)
	return nil
}

// newExtractor puts the Gemini source in front of the keyword source when an
// API key is configured.
func newExtractor(ctx context.Context, cfg *config.Config, log *zap.Logger) (*topics.Extractor, error) {
	if cfg.GeminiAPIKey == "" {
		log.Info("AI topic extraction disabled, using keywords only")
		return topics.NewExtractor(log), nil
	}
	gen, err := topics.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("initializing topic generator: %w", err)
	}
	log.Info("AI topic extraction enabled", zap.String("model", gen.Model()))
	return topics.NewExtractor(log, topics.NewAISource(gen, log, cfg.MaxLogLength)), nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
