package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiModels lists commonly available Gemini models.
var geminiModels = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-2.5-flash",
	"gemini-2.5-pro",
}

// GeminiProvider implements LLMProvider on the Gemini API via the genai SDK.
type GeminiProvider struct {
	client *genai.Client
	cfg    ProviderConfig
}

// GeminiOption configures the Gemini provider.
type GeminiOption func(*GeminiProvider)

// WithGeminiConfig sets model and sampling defaults.
func WithGeminiConfig(cfg ProviderConfig) GeminiOption {
	return func(p *GeminiProvider) { p.cfg = cfg }
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	cfg := DefaultProviderConfig()
	cfg.Model = geminiModels[0]
	p := &GeminiProvider{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: p.cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	p.client = client
	return p, nil
}

func (p *GeminiProvider) Name() string     { return ProviderGemini }
func (p *GeminiProvider) Models() []string { return geminiModels }

// Ping verifies the API key by fetching the configured model.
func (p *GeminiProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.Get(ctx, p.cfg.Model, nil); err != nil {
		return geminiError(err)
	}
	return nil
}

// Chat sends a single user turn, with an optional inline image part.
func (p *GeminiProvider) Chat(ctx context.Context, r *Request) (*Response, error) {
	start := time.Now()
	cfg := p.cfg.resolve(r.Options)

	parts := make([]*genai.Part, 0, 2)
	if r.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(r.Image.Data, r.Image.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(r.Prompt))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	gc := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(cfg.MaxTokens),
	}
	if cfg.Temperature > 0 {
		gc.Temperature = genai.Ptr(float32(cfg.Temperature))
	}
	if r.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(r.System, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, cfg.Model, contents, gc)
	if err != nil {
		return nil, geminiError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	out := &Response{
		Content:      text,
		FinishReason: FinishStop,
		Model:        cfg.Model,
		Provider:     ProviderGemini,
		Latency:      time.Since(start),
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		out.FinishReason = FinishLength
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError(ProviderGemini, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("gemini: %w: %v", ErrProviderDown, err)
}
