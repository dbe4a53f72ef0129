package embedding

import (
	"errors"
	"fmt"
)

// ConfigError reports a provider that cannot be called because it is not
// configured, typically a missing API key.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s embeddings not configured: %s", e.Provider, e.Reason)
}

// UpstreamError carries the status and body of a failed provider response.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s embedding request failed: status %d: %s", e.Provider, e.Status, e.Body)
}

// IsConfigError reports whether err wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsUpstreamError reports whether err wraps an *UpstreamError.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
