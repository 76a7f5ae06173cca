package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/quotechat/internal/config"
)

// Router sends requests to the primary provider and falls back, in order,
// to the other registered providers. It satisfies LLMProvider.
type Router struct {
	mu         sync.RWMutex
	providers  map[string]LLMProvider
	primary    string
	fallbacks  []string
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithFallbacks sets the fallback provider chain.
func WithFallbacks(providers ...string) RouterOption {
	return func(r *Router) { r.fallbacks = providers }
}

// WithMaxRetries sets the number of extra attempts per provider. Default 0.
func WithMaxRetries(n int) RouterOption {
	return func(r *Router) { r.maxRetries = n }
}

// WithRetryDelay sets the base delay between retries.
func WithRetryDelay(d time.Duration) RouterOption {
	return func(r *Router) { r.retryDelay = d }
}

// WithRouterLogger sets the logger.
func WithRouterLogger(l *zap.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter creates a new LLM router with the given primary provider.
func NewRouter(primary string, opts ...RouterOption) *Router {
	r := &Router{
		providers:  make(map[string]LLMProvider),
		primary:    primary,
		retryDelay: time.Second,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterProvider adds a provider to the router.
func (r *Router) RegisterProvider(provider LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns a registered provider by name.
func (r *Router) GetProvider(name string) (LLMProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Chat routes a request through the provider chain with fallback.
func (r *Router) Chat(ctx context.Context, req *Request) (*Response, error) {
	chain := r.providerChain()
	if len(chain) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	tried := 0
	for _, name := range chain {
		provider, ok := r.GetProvider(name)
		if !ok {
			continue
		}
		tried++

		resp, err := r.chatWithRetry(ctx, provider, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		r.logger.Warn("llm provider failed", zap.String("provider", name), zap.Error(err))

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if tried == 0 {
		return nil, fmt.Errorf("%w: primary provider %q not registered", ErrNoProviders, r.primary)
	}
	return nil, fmt.Errorf("llm/router: all providers failed, last error: %w", lastErr)
}

// HealthCheck pings all registered providers concurrently.
func (r *Router) HealthCheck(ctx context.Context) map[string]error {
	r.mu.RLock()
	providers := make(map[string]LLMProvider, len(r.providers))
	for k, v := range r.providers {
		providers[k] = v
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(providers))
	var mu sync.Mutex
	var g errgroup.Group
	for name, provider := range providers {
		g.Go(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			err := provider.Ping(pingCtx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Name returns the name of the primary provider (satisfies LLMProvider).
func (r *Router) Name() string {
	return "router/" + r.primary
}

// Models returns the union of models from all registered providers (satisfies LLMProvider).
func (r *Router) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []string
	seen := make(map[string]bool)
	for _, p := range r.providers {
		for _, m := range p.Models() {
			if !seen[m] {
				seen[m] = true
				all = append(all, m)
			}
		}
	}
	sort.Strings(all)
	return all
}

// Ping checks the first available provider in the chain (satisfies LLMProvider).
func (r *Router) Ping(ctx context.Context) error {
	for _, name := range r.providerChain() {
		if p, ok := r.GetProvider(name); ok {
			return p.Ping(ctx)
		}
	}
	return ErrNoProviders
}

// ProviderNames returns the chain order restricted to registered providers.
func (r *Router) ProviderNames() []string {
	var names []string
	for _, name := range r.providerChain() {
		if _, ok := r.GetProvider(name); ok {
			names = append(names, name)
		}
	}
	return names
}

// ── Internal Helpers ──

func (r *Router) providerChain() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := []string{r.primary}
	for _, fb := range r.fallbacks {
		if fb != r.primary {
			chain = append(chain, fb)
		}
	}
	return chain
}

func (r *Router) chatWithRetry(ctx context.Context, provider LLMProvider, req *Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := provider.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if isNonRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func isNonRetryable(err error) bool {
	return errors.Is(err, ErrNoAPIKey) ||
		errors.Is(err, ErrInvalidModel) ||
		errors.Is(err, ErrContextLength)
}

// NewRouterFromConfig builds a Router from the llm configuration section.
// Providers with credentials are registered; the primary goes first and
// the rest become fallbacks in a fixed order.
func NewRouterFromConfig(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := ProviderConfig{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}
	if base.Timeout <= 0 {
		base.Timeout = DefaultProviderConfig().Timeout
	}
	modelFor := func(name string) ProviderConfig {
		c := base
		if name != cfg.Primary || c.Model == "" {
			c.Model = defaultModel(name)
		}
		return c
	}

	router := NewRouter(cfg.Primary, WithRouterLogger(logger))
	var fallbacks []string
	register := func(p LLMProvider, err error) {
		if err != nil {
			logger.Warn("llm provider disabled", zap.Error(err))
			return
		}
		router.RegisterProvider(p)
		if p.Name() != cfg.Primary {
			fallbacks = append(fallbacks, p.Name())
		}
	}

	if cfg.OpenAIKey != "" {
		register(NewOpenAIProvider(cfg.OpenAIKey, WithOpenAIConfig(modelFor(ProviderOpenAI))))
	}
	if cfg.AnthropicKey != "" {
		register(NewAnthropicProvider(cfg.AnthropicKey, WithAnthropicConfig(modelFor(ProviderAnthropic))))
	}
	if cfg.GeminiKey != "" {
		register(NewGeminiProvider(ctx, cfg.GeminiKey, WithGeminiConfig(modelFor(ProviderGemini))))
	}
	// Ollama needs no key; it is only used when chosen as primary so that a
	// missing local daemon does not slow down every failed turn.
	if cfg.Primary == ProviderOllama {
		register(NewOllamaProvider(cfg.OllamaURL, WithOllamaConfig(modelFor(ProviderOllama))))
	}

	if len(router.ProviderNames()) == 0 {
		return nil, ErrNoProviders
	}
	router.fallbacks = fallbacks
	return router, nil
}

// defaultModel returns the model used when a provider serves as a fallback.
func defaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderAnthropic:
		return "claude-3-5-haiku-20241022"
	default:
		return "llama3.1:8b"
	}
}
