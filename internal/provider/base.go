package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/quotechat/internal/infra"
	"github.com/seenimoa/quotechat/pkg/models"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 1 << 20

// Options configures a BaseAdapter.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  int // requests per second; <= 0 disables limiting
	HTTPClient *http.Client
}

// BaseAdapter provides the plumbing shared by HTTP-backed adapters:
// metadata, a rate limiter, and GET helpers that translate transport and
// status errors into the Failure taxonomy.
// Embed this in concrete adapters.
type BaseAdapter struct {
	info    AdapterInfo
	baseURL string
	client  *http.Client
	limiter *infra.RateLimiter
}

// NewBaseAdapter creates a base adapter. Zero-valued options fall back to
// an 8s timeout and no rate limiting.
func NewBaseAdapter(info AdapterInfo, opts Options) BaseAdapter {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = infra.NewHTTPClient(timeout)
	}
	return BaseAdapter{
		info:    info,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  client,
		limiter: infra.NewRateLimiter(opts.RateLimit, time.Second),
	}
}

func (b *BaseAdapter) Info() AdapterInfo { return b.info }
func (b *BaseAdapter) Name() string      { return b.info.Name }
func (b *BaseAdapter) BaseURL() string   { return b.baseURL }

// ServesClass reports whether the adapter declared the given asset class.
func (b *BaseAdapter) ServesClass(class models.AssetClass) bool {
	for _, c := range b.info.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Acquire takes a rate-limit token, failing fast when none is left.
func (b *BaseAdapter) Acquire() error {
	if !b.limiter.TryAcquire() {
		return NewFailure(b.info.Name, FailureRateLimited, errors.New("local rate limit exhausted"))
	}
	return nil
}

// GetBody performs a rate-limited GET and returns the response body.
// 429 maps to RateLimited, 400 and 404 to Unsupported, any other non-2xx
// status or transport error to Network.
func (b *BaseAdapter) GetBody(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := b.Acquire(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewFailure(b.info.Name, FailureNetwork, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", infra.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, NewFailure(b.info.Name, FailureNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, NewFailure(b.info.Name, FailureNetwork, fmt.Errorf("read body: %w", err))
	}

	if kind, bad := StatusKind(resp.StatusCode); bad {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, NewFailure(b.info.Name, kind, fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet))
	}
	return body, nil
}

// GetJSON performs GetBody and decodes the JSON payload into dest.
// Decode errors are reported as Malformed.
func (b *BaseAdapter) GetJSON(ctx context.Context, url string, dest any) error {
	body, err := b.GetBody(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return NewFailure(b.info.Name, FailureMalformed, fmt.Errorf("decode JSON: %w", err))
	}
	return nil
}

// StatusKind maps an HTTP status to a FailureKind. The bool is false for 2xx.
func StatusKind(status int) (FailureKind, bool) {
	switch {
	case status >= 200 && status < 300:
		return 0, false
	case status == http.StatusTooManyRequests:
		return FailureRateLimited, true
	case status == http.StatusBadRequest, status == http.StatusNotFound:
		return FailureUnsupported, true
	default:
		return FailureNetwork, true
	}
}

// NewQuote wraps a parsed price into a quote. Zero or negative prices are
// reported as Malformed.
func (b *BaseAdapter) NewQuote(inst models.Instrument, price decimal.Decimal) (*models.Quote, error) {
	if !price.IsPositive() {
		return nil, Malformed(b.info.Name, "non-positive price %s for %s", price, inst)
	}
	return &models.Quote{Instrument: inst, Price: price}, nil
}

// ParsePrice parses a decimal price field from a provider payload.
func (b *BaseAdapter) ParsePrice(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, Malformed(b.info.Name, "missing field %s", field)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Zero, Malformed(b.info.Name, "field %s: %v", field, err)
	}
	return d, nil
}
