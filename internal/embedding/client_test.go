package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/skillsync/skillsync/internal/config"
)

type stubEmbedder struct {
	mu     sync.Mutex
	calls  atomic.Int32
	seen   []string
	failOn string
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.seen = append(s.seen, text)
	s.mu.Unlock()
	if text == s.failOn {
		return nil, &UpstreamError{Provider: "stub", Status: 500, Body: "boom"}
	}
	return []float32{float32(len(text))}, nil
}

func (s *stubEmbedder) Model() string { return "stub" }

func TestEmbedAllPreservesPositions(t *testing.T) {
	chunks := []string{"a", "bb", "ccc", "dddd", "eeeee"}

	for _, concurrency := range []int{0, 1, 3} {
		stub := &stubEmbedder{}
		vectors, err := EmbedAll(context.Background(), stub, chunks, Options{Concurrency: concurrency})
		if err != nil {
			t.Fatalf("concurrency %d: unexpected error: %v", concurrency, err)
		}
		if len(vectors) != len(chunks) {
			t.Fatalf("expected %d vectors, got %d", len(chunks), len(vectors))
		}
		for i, v := range vectors {
			if v[0] != float32(len(chunks[i])) {
				t.Fatalf("vector %d does not belong to chunk %q", i, chunks[i])
			}
		}
		if int(stub.calls.Load()) != len(chunks) {
			t.Fatalf("expected one call per chunk, got %d", stub.calls.Load())
		}
	}
}

func TestEmbedAllStopsAtFirstFailure(t *testing.T) {
	stub := &stubEmbedder{failOn: "bad"}
	_, err := EmbedAll(context.Background(), stub, []string{"ok", "bad", "never"}, Options{Concurrency: 1})

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected wrapped UpstreamError, got %v", err)
	}
	if got := stub.calls.Load(); got != 2 {
		t.Fatalf("expected the batch to stop after the failure, got %d calls", got)
	}
}

func TestEmbedAllEmptyInput(t *testing.T) {
	stub := &stubEmbedder{}
	vectors, err := EmbedAll(context.Background(), stub, nil, Options{})
	if err != nil || len(vectors) != 0 {
		t.Fatalf("expected no vectors and no error, got %v, %v", vectors, err)
	}
	if stub.calls.Load() != 0 {
		t.Fatalf("expected no calls")
	}
}

func TestEmbedAllWithLimiter(t *testing.T) {
	stub := &stubEmbedder{}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if _, err := EmbedAll(context.Background(), stub, []string{"a", "b"}, Options{Limiter: limiter}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmbedAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubEmbedder{}
	if _, err := EmbedAll(ctx, stub, []string{"a", "b"}, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if stub.calls.Load() != 0 {
		t.Fatalf("expected no calls on a cancelled context")
	}
}

func TestMissingEmbedderReturnsConfigError(t *testing.T) {
	_, err := Missing{Provider: "gemini", Reason: "GEMINI_API_KEY is not set"}.Embed(context.Background(), "x")
	if !IsConfigError(err) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestNewWithoutCredentialsDegrades(t *testing.T) {
	cfg := &config.Config{EmbeddingProvider: config.EmbeddingProviderGemini}
	e, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := e.(Missing); !ok {
		t.Fatalf("expected Missing embedder, got %T", e)
	}

	cfg = &config.Config{EmbeddingProvider: "cohere"}
	if _, err := New(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewHTTPProvider(t *testing.T) {
	cfg := &config.Config{
		EmbeddingProvider: config.EmbeddingProviderHTTP,
		EmbeddingURL:      "http://localhost:9999",
		EmbeddingAPIKey:   "k",
		EmbeddingModel:    "embed-small",
	}
	e, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Model() != "embed-small" {
		t.Fatalf("unexpected model %q", e.Model())
	}
	if err := Close(e); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// cancellingEmbedder cancels the caller's context on its first call and still
// returns a vector.
type cancellingEmbedder struct {
	cancel context.CancelFunc
}

func (c *cancellingEmbedder) Embed(context.Context, string) ([]float32, error) {
	c.cancel()
	return []float32{1}, nil
}

func (c *cancellingEmbedder) Model() string { return "cancelling" }

func TestEmbedAllCancelledBetweenCalls(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		for range 50 {
			ctx, cancel := context.WithCancel(context.Background())
			vectors, err := EmbedAll(ctx, &cancellingEmbedder{cancel: cancel}, []string{"a", "b", "c", "d", "e", "f"}, Options{Concurrency: concurrency})
			cancel()
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("concurrency %d: expected context.Canceled, got %v", concurrency, err)
			}
			if vectors != nil {
				t.Fatalf("concurrency %d: expected no partial vectors, got %v", concurrency, vectors)
			}
		}
	}
}
