package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ollamaModels lists commonly used Ollama models. Vision needs a
// multimodal model such as llava or llama3.2-vision.
var ollamaModels = []string{
	"llama3.1:8b",
	"llama3.2-vision:11b",
	"llava:7b",
	"qwen2.5:7b",
	"mistral:7b",
	"gemma2:9b",
}

// OllamaProvider implements LLMProvider for local Ollama instances.
type OllamaProvider struct {
	baseURL string
	cfg     ProviderConfig
	client  *http.Client
}

// OllamaOption configures the Ollama provider.
type OllamaOption func(*OllamaProvider)

// WithOllamaConfig sets model and sampling defaults.
func WithOllamaConfig(cfg ProviderConfig) OllamaOption {
	return func(p *OllamaProvider) { p.cfg = cfg }
}

// WithOllamaHTTPClient sets a custom HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(p *OllamaProvider) { p.client = client }
}

// NewOllamaProvider creates an Ollama provider.
// baseURL is the Ollama server URL (e.g., "http://localhost:11434").
func NewOllamaProvider(baseURL string, opts ...OllamaOption) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	cfg := DefaultProviderConfig()
	cfg.Model = "llama3.1:8b"
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: p.cfg.Timeout}
	}
	return p, nil
}

func (p *OllamaProvider) Name() string     { return ProviderOllama }
func (p *OllamaProvider) Models() []string { return ollamaModels }

// Ping checks if the Ollama server is reachable.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrProviderDown, resp.StatusCode)
	}
	return nil
}

// Chat sends a non-streaming request to the /api/chat endpoint.
func (p *OllamaProvider) Chat(ctx context.Context, r *Request) (*Response, error) {
	start := time.Now()
	cfg := p.cfg.resolve(r.Options)

	data, err := json.Marshal(p.buildRequest(r, cfg))
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, statusError(ProviderOllama, resp.StatusCode, string(bodyBytes))
	}

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if strings.TrimSpace(result.Message.Content) == "" {
		return nil, fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}

	return &Response{
		Model:    result.Model,
		Provider: ProviderOllama,
		Latency:  time.Since(start),
		Content:  result.Message.Content,
		Usage: Usage{
			PromptTokens:     result.PromptEvalCount,
			CompletionTokens: result.EvalCount,
			TotalTokens:      result.PromptEvalCount + result.EvalCount,
		},
		FinishReason: finishFromOllama(result.DoneReason),
	}, nil
}

// ── Internal Types ──

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // base64, no data: prefix
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

func (p *OllamaProvider) buildRequest(r *Request, cfg ProviderConfig) ollamaChatRequest {
	var msgs []ollamaMessage
	if r.System != "" {
		msgs = append(msgs, ollamaMessage{Role: "system", Content: r.System})
	}
	user := ollamaMessage{Role: "user", Content: r.Prompt}
	if r.Image != nil {
		user.Images = []string{r.Image.Base64()}
	}
	msgs = append(msgs, user)

	return ollamaChatRequest{
		Model:    cfg.Model,
		Messages: msgs,
		Stream:   false,
		Options: &ollamaOptions{
			Temperature: cfg.Temperature,
			NumPredict:  cfg.MaxTokens,
		},
	}
}

func finishFromOllama(reason string) FinishReason {
	if reason == "length" {
		return FinishLength
	}
	return FinishStop
}
