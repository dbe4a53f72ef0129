package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gogenai "github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/option"
)

const (
	providerGemini          = "gemini"
	defaultGeminiEmbedModel = "text-embedding-004"
)

// GeminiEmbedder calls the Gemini embedding model.
type GeminiEmbedder struct {
	client *gogenai.Client
	model  *gogenai.EmbeddingModel
	name   string
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, &ConfigError{Provider: providerGemini, Reason: "GEMINI_API_KEY is not set"}
	}
	if model == "" {
		model = defaultGeminiEmbedModel
	}

	client, err := gogenai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client: client,
		model:  client.EmbeddingModel(model),
		name:   model,
	}, nil
}

func (g *GeminiEmbedder) Model() string { return g.name }

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := g.model.EmbedContent(ctx, gogenai.Text(text))
	if err != nil {
		return nil, geminiError(err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, &UpstreamError{Provider: providerGemini, Status: http.StatusBadGateway, Body: "empty embedding in response"}
	}
	return res.Embedding.Values, nil
}

func (g *GeminiEmbedder) Close() error {
	return g.client.Close()
}

// geminiError keeps cancellation errors as they are and turns API failures
// into UpstreamError with the best status code available.
func geminiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	ue := &UpstreamError{Provider: providerGemini, Status: http.StatusBadGateway, Body: err.Error()}
	if ae, ok := apierror.FromError(err); ok {
		if code := ae.HTTPCode(); code > 0 {
			ue.Status = code
		}
		if reason := ae.Reason(); reason != "" {
			ue.Body = fmt.Sprintf("%s (%s)", ae.Error(), reason)
		}
	}
	return ue
}
