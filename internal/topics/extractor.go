package topics

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/logger"
)

// Source is one way of deriving topics from a posting.
type Source interface {
	Name() string
	Extract(ctx context.Context, p Posting) ([]Candidate, error)
}

// Result is the outcome of an extraction along with the source that produced it.
type Result struct {
	Source string      `json:"source"`
	Topics []Candidate `json:"topics"`
}

// Extractor tries its sources in order and returns the first success.
type Extractor struct {
	sources []Source
	logger  *zap.Logger
}

// NewExtractor builds an extractor over sources. The keyword source is
// appended when the list does not already end with it, so extraction always
// has a deterministic last resort.
func NewExtractor(log *zap.Logger, sources ...Source) *Extractor {
	if len(sources) == 0 {
		sources = []Source{KeywordSource{}}
	} else if _, ok := sources[len(sources)-1].(KeywordSource); !ok {
		sources = append(sources, KeywordSource{})
	}
	return &Extractor{sources: sources, logger: logger.OrNop(log)}
}

func (e *Extractor) Extract(ctx context.Context, p Posting) (Result, error) {
	var errs []error
	for _, src := range e.sources {
		topics, err := src.Extract(ctx, p)
		if err == nil {
			return Result{Source: src.Name(), Topics: topics}, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		e.logger.Warn("topic source failed, trying next",
			zap.String("source", src.Name()),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	return Result{}, errors.Join(errs...)
}

// Sources lists the names of the configured sources in order.
func (e *Extractor) Sources() []string {
	names := make([]string, len(e.sources))
	for i, s := range e.sources {
		names[i] = s.Name()
	}
	return names
}
