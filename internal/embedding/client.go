package embedding

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/skillsync/skillsync/internal/config"
)

// Embedder turns one piece of text into one vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// Options control how EmbedAll drives an Embedder.
type Options struct {
	// Concurrency bounds the number of in-flight calls. Values below 1 mean
	// sequential calls.
	Concurrency int
	// Limiter paces calls when set.
	Limiter *rate.Limiter
}

// EmbedAll embeds every chunk with one call per chunk. The result is
// positional: vectors[i] belongs to chunks[i]. The first failure cancels the
// remaining calls and is returned; there is no retry.
func EmbedAll(ctx context.Context, e Embedder, chunks []string, opts Options) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	for i, chunk := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if opts.Limiter != nil {
				if err := opts.Limiter.Wait(gctx); err != nil {
					return err
				}
			}
			vec, err := e.Embed(gctx, chunk)
			if err != nil {
				return fmt.Errorf("embedding chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancellation between calls stops the loop without failing a call.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Missing is used in place of a real provider when credentials are absent,
// so the service can start and report a configuration error per call.
type Missing struct {
	Provider string
	Reason   string
}

func (m Missing) Embed(context.Context, string) ([]float32, error) {
	return nil, &ConfigError{Provider: m.Provider, Reason: m.Reason}
}

func (m Missing) Model() string { return "" }

// New builds the embedder selected by cfg. A missing credential yields a
// Missing embedder and a warning rather than an error.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderGemini:
		e, err = NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	case config.EmbeddingProviderHTTP:
		e, err = NewHTTPEmbedder(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, nil)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}

	if ce, ok := err.(*ConfigError); ok {
		log.Warn("embeddings disabled", zap.String("provider", ce.Provider), zap.String("reason", ce.Reason))
		return Missing{Provider: ce.Provider, Reason: ce.Reason}, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("embeddings enabled", zap.String("provider", cfg.EmbeddingProvider), zap.String("model", e.Model()))
	return e, nil
}

// Close releases the embedder's client if it holds one.
func Close(e Embedder) error {
	if c, ok := e.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
