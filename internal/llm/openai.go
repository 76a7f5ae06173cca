package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// openaiModels lists commonly available OpenAI models with vision input.
var openaiModels = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-4.1-mini",
	"gpt-4.1",
}

// OpenAIProvider implements LLMProvider on the OpenAI Responses API.
type OpenAIProvider struct {
	client  *openai.Client
	cfg     ProviderConfig
	baseURL string
}

// OpenAIOption configures the OpenAI provider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIConfig sets model and sampling defaults.
func WithOpenAIConfig(cfg ProviderConfig) OpenAIOption {
	return func(p *OpenAIProvider) { p.cfg = cfg }
}

// WithOpenAIBaseURL sets a custom base URL (e.g., for Azure or proxies).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) { p.baseURL = strings.TrimRight(url, "/") }
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	p := &OpenAIProvider{cfg: DefaultProviderConfig()}
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
	client := openai.NewClient(reqOpts...)
	p.client = &client
	return p, nil
}

func (p *OpenAIProvider) Name() string     { return ProviderOpenAI }
func (p *OpenAIProvider) Models() []string { return openaiModels }

// Ping verifies the API key by retrieving the configured model.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.Get(ctx, p.cfg.Model); err != nil {
		return openaiError(err)
	}
	return nil
}

// Chat sends a single user turn, with an optional image part.
func (p *OpenAIProvider) Chat(ctx context.Context, r *Request) (*Response, error) {
	start := time.Now()
	cfg := p.cfg.resolve(r.Options)

	input := make(responses.ResponseInputParam, 0, 2)
	if r.System != "" {
		input = append(input, responses.ResponseInputItemParamOfMessage(r.System, responses.EasyInputMessageRoleSystem))
	}
	if r.Image != nil {
		parts := responses.ResponseInputMessageContentListParam{
			responses.ResponseInputContentParamOfInputText(r.Prompt),
			{OfInputImage: &responses.ResponseInputImageParam{
				ImageURL: openai.String(r.Image.DataURL()),
				Detail:   responses.ResponseInputImageDetailAuto,
			}},
		}
		input = append(input, responses.ResponseInputItemParamOfMessage(parts, responses.EasyInputMessageRoleUser))
	} else {
		input = append(input, responses.ResponseInputItemParamOfMessage(r.Prompt, responses.EasyInputMessageRoleUser))
	}

	params := responses.ResponseNewParams{
		Model:           shared.ResponsesModel(cfg.Model),
		Input:           responses.ResponseNewParamsInputUnion{OfInputItemList: input},
		MaxOutputTokens: openai.Int(int64(cfg.MaxTokens)),
	}
	if cfg.Temperature > 0 {
		params.Temperature = openai.Float(cfg.Temperature)
	}

	result, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, openaiError(err)
	}

	text := result.OutputText()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	finish := FinishStop
	if result.IncompleteDetails.Reason == "max_output_tokens" {
		finish = FinishLength
	}
	return &Response{
		Content:      text,
		FinishReason: finish,
		Model:        string(result.Model),
		Provider:     ProviderOpenAI,
		Latency:      time.Since(start),
		Usage: Usage{
			PromptTokens:     int(result.Usage.InputTokens),
			CompletionTokens: int(result.Usage.OutputTokens),
			TotalTokens:      int(result.Usage.TotalTokens),
		},
	}, nil
}

func openaiError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return statusError(ProviderOpenAI, apiErr.StatusCode, apiErr.Error())
	}
	return fmt.Errorf("openai: %w: %v", ErrProviderDown, err)
}
