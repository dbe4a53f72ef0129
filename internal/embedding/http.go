package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	providerHTTP       = "http"
	embeddingsPath     = "/v1/embeddings"
	maxErrorBodyBytes  = 4 << 10
	defaultHTTPTimeout = 30 * time.Second
)

// HTTPEmbedder calls an OpenAI-compatible embeddings endpoint.
type HTTPEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type embeddingsRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewHTTPEmbedder builds an embedder for baseURL. A nil httpClient gets a
// client with dial and overall timeouts.
func NewHTTPEmbedder(baseURL, apiKey, model string, httpClient *http.Client) (*HTTPEmbedder, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, &ConfigError{Provider: providerHTTP, Reason: "EMBEDDING_URL is not set"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigError{Provider: providerHTTP, Reason: "EMBEDDING_API_KEY is not set"}
	}
	if model == "" {
		return nil, &ConfigError{Provider: providerHTTP, Reason: "EMBEDDING_MODEL is not set"}
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultHTTPTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	return &HTTPEmbedder{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		httpClient: httpClient,
	}, nil
}

func (h *HTTPEmbedder) Model() string { return h.model }

func (h *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingsRequest{Model: h.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+embeddingsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &UpstreamError{Provider: providerHTTP, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &UpstreamError{Provider: providerHTTP, Status: resp.StatusCode, Body: "invalid response body: " + err.Error()}
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, &UpstreamError{Provider: providerHTTP, Status: resp.StatusCode, Body: "no embedding in response"}
	}

	vec := make([]float32, len(out.Data[0].Embedding))
	for i, f := range out.Data[0].Embedding {
		vec[i] = float32(f)
	}
	return vec, nil
}
