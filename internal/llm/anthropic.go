package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicModels lists commonly available Anthropic models.
var anthropicModels = []string{
	"claude-sonnet-4-20250514",
	"claude-opus-4-20250514",
	"claude-3-7-sonnet-20250219",
	"claude-3-5-haiku-20241022",
}

// AnthropicProvider implements LLMProvider on the Anthropic Messages API.
type AnthropicProvider struct {
	client  *anthropic.Client
	cfg     ProviderConfig
	baseURL string
}

// AnthropicOption configures the Anthropic provider.
type AnthropicOption func(*AnthropicProvider)

// WithAnthropicConfig sets model and sampling defaults.
func WithAnthropicConfig(cfg ProviderConfig) AnthropicOption {
	return func(p *AnthropicProvider) { p.cfg = cfg }
}

// WithAnthropicBaseURL sets a custom base URL.
func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(p *AnthropicProvider) { p.baseURL = strings.TrimRight(url, "/") }
}

// NewAnthropicProvider creates an Anthropic provider.
func NewAnthropicProvider(apiKey string, opts ...AnthropicOption) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	cfg := DefaultProviderConfig()
	cfg.Model = anthropicModels[0]
	p := &AnthropicProvider{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(p.cfg.Timeout),
		option.WithMaxRetries(0),
	}
	if p.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(p.baseURL))
	}
	client := anthropic.NewClient(reqOpts...)
	p.client = &client
	return p, nil
}

func (p *AnthropicProvider) Name() string     { return ProviderAnthropic }
func (p *AnthropicProvider) Models() []string { return anthropicModels }

// Ping verifies the API key by listing models.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return anthropicError(err)
	}
	return nil
}

// Chat sends a single user turn, with an optional image block.
func (p *AnthropicProvider) Chat(ctx context.Context, r *Request) (*Response, error) {
	start := time.Now()
	cfg := p.cfg.resolve(r.Options)

	blocks := make([]anthropic.ContentBlockParamUnion, 0, 2)
	if r.Image != nil {
		blocks = append(blocks, anthropic.NewImageBlockBase64(r.Image.MIMEType, r.Image.Base64()))
	}
	blocks = append(blocks, anthropic.NewTextBlock(r.Prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(cfg.Model),
		MaxTokens: int64(cfg.MaxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if r.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: r.System}}
	}
	if cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(cfg.Temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, anthropicError(err)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(tb.Text)
		}
	}
	if strings.TrimSpace(content.String()) == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}

	finish := FinishStop
	if msg.StopReason == anthropic.StopReasonMaxTokens {
		finish = FinishLength
	}
	return &Response{
		Content:      content.String(),
		FinishReason: finish,
		Model:        string(msg.Model),
		Provider:     ProviderAnthropic,
		Latency:      time.Since(start),
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

func anthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return statusError(ProviderAnthropic, apiErr.StatusCode, apiErr.Error())
	}
	return fmt.Errorf("anthropic: %w: %v", ErrProviderDown, err)
}
