// Package llm provides a unified interface for the language model backends
// (OpenAI, Anthropic, Gemini, Ollama) that write quotechat's replies, plus a
// router that falls back across them.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider names for routing and configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Common errors returned by LLM providers.
var (
	ErrNoAPIKey      = errors.New("llm: API key not configured")
	ErrRateLimit     = errors.New("llm: rate limit exceeded")
	ErrContextLength = errors.New("llm: context length exceeded")
	ErrProviderDown  = errors.New("llm: provider unavailable")
	ErrInvalidModel  = errors.New("llm: invalid model")
	ErrNoProviders   = errors.New("llm: no providers configured")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
	FinishError  FinishReason = "error"
)

// Image is an inline image attached to a request, e.g. a chart screenshot.
type Image struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i *Image) Base64() string { return base64.StdEncoding.EncodeToString(i.Data) }

// DataURL returns the image as a data: URL.
func (i *Image) DataURL() string { return "data:" + i.MIMEType + ";base64," + i.Base64() }

// NewImage wraps raw bytes, sniffing the MIME type when mime is empty.
func NewImage(data []byte, mime string) (*Image, error) {
	if len(data) == 0 {
		return nil, errors.New("llm: empty image")
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("llm: unsupported image type %q", mime)
	}
	return &Image{MIMEType: mime, Data: data}, nil
}

// Request is a single-turn completion request: a system persona, one user
// prompt and an optional image.
type Request struct {
	System  string
	Prompt  string
	Image   *Image
	Options *ChatOptions
}

// ChatOptions configures a single chat request. Zero values defer to the
// provider's configured defaults.
type ChatOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Response represents a complete response from the LLM.
type Response struct {
	Content      string        `json:"content"`
	FinishReason FinishReason  `json:"finish_reason"`
	Usage        Usage         `json:"usage"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider"`
	Latency      time.Duration `json:"latency"`
}

// Usage tracks token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMProvider is the interface that all LLM backends must implement.
type LLMProvider interface {
	// Name returns the provider identifier (e.g., "openai", "ollama").
	Name() string

	// Chat sends a request and returns the complete response.
	Chat(ctx context.Context, req *Request) (*Response, error)

	// Models returns the list of known models for this provider.
	Models() []string

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// ProviderConfig holds common configuration for creating an LLM provider.
type ProviderConfig struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Timeout     time.Duration `json:"timeout"`
}

// DefaultProviderConfig returns sensible defaults for provider configuration.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   1024,
		Timeout:     30 * time.Second,
	}
}

// resolve merges per-request options over the provider defaults.
func (c ProviderConfig) resolve(opts *ChatOptions) ProviderConfig {
	out := c
	if opts == nil {
		return out
	}
	if opts.Model != "" {
		out.Model = opts.Model
	}
	if opts.Temperature > 0 {
		out.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		out.MaxTokens = opts.MaxTokens
	}
	return out
}

// String returns a human-readable summary of the response.
func (r *Response) String() string {
	truncated := r.Content
	if len(truncated) > 100 {
		truncated = truncated[:100] + "..."
	}
	return fmt.Sprintf("[%s/%s] %q, %d tokens, %v",
		r.Provider, r.Model, truncated, r.Usage.TotalTokens, r.Latency.Round(time.Millisecond))
}

// statusError maps an HTTP status from a provider API to a sentinel error.
func statusError(provider string, status int, detail string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %s", provider, ErrRateLimit, detail)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w: HTTP %d", provider, ErrNoAPIKey, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w: %s", provider, ErrInvalidModel, detail)
	case status >= 500:
		return fmt.Errorf("%s: %w: HTTP %d", provider, ErrProviderDown, status)
	default:
		return fmt.Errorf("%s: HTTP %d: %s", provider, status, detail)
	}
}
