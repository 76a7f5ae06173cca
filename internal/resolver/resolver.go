// Package resolver turns an instrument into a quote by walking the adapter
// chain configured for its asset class.
//
// Adapters are tried strictly in order and the first success wins. Every
// failure kind (Unsupported, Network, Malformed, RateLimited) moves on to the
// next adapter; the policy is the same for every asset class. Nothing is
// retried and nothing is cached.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
	"github.com/seenimoa/quotechat/pkg/utils"
)

// ErrNoDataAvailable is matched by every error Resolve returns.
var ErrNoDataAvailable = errors.New("no data available")

// Attempt records one adapter invocation.
type Attempt struct {
	Provider string
	Kind     provider.FailureKind
	Err      error
	Latency  time.Duration
}

// NoDataError reports an exhausted chain. Last is the most recent failure
// and is meant for diagnostics only.
type NoDataError struct {
	Instrument models.Instrument
	Attempts   []Attempt
	Last       error
}

func (e *NoDataError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("no data available for %s", e.Instrument)
	}
	return fmt.Sprintf("no data available for %s: %v", e.Instrument, e.Last)
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoDataAvailable }
func (e *NoDataError) Unwrap() error        { return e.Last }

// Providers returns the names of the adapters that were tried, in order.
func (e *NoDataError) Providers() []string {
	names := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		names[i] = a.Provider
	}
	return names
}

// ChainSource supplies the ordered adapters for an asset class.
// *provider.Registry satisfies it.
type ChainSource interface {
	Chain(class models.AssetClass) []provider.Adapter
}

// Resolver resolves instruments to quotes.
type Resolver struct {
	chains  ChainSource
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout bounds each adapter call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the clock used for AsOf.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New creates a resolver over chains.
func New(chains ChainSource, opts ...Option) *Resolver {
	r := &Resolver{
		chains:  chains,
		timeout: 8 * time.Second,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the first successful quote from the instrument's chain,
// stamped with its source, resolution time and display price. When every
// adapter fails it returns a *NoDataError.
func (r *Resolver) Resolve(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	chain := r.chains.Chain(inst.Class)
	nd := &NoDataError{Instrument: inst}
	if len(chain) == 0 {
		nd.Last = fmt.Errorf("no adapters configured for asset class %s", inst.Class)
		return nil, nd
	}

	for _, a := range chain {
		if err := ctx.Err(); err != nil {
			nd.Last = err
			break
		}

		name := a.Info().Name
		start := time.Now()
		q, err := r.fetch(ctx, a, inst)
		latency := time.Since(start)

		if err == nil {
			q.Instrument = inst
			q.Source = name
			q.AsOf = r.now().UTC()
			q.DisplayPrice = utils.FormatPrice(q.Price, models.CurrencySign(inst.Quote))
			r.logger.Debug("quote resolved",
				zap.String("instrument", inst.Symbol()),
				zap.String("provider", name),
				zap.Int("attempt", len(nd.Attempts)+1),
				zap.Duration("latency", latency))
			return q, nil
		}

		f := asFailure(name, err)
		nd.Attempts = append(nd.Attempts, Attempt{Provider: name, Kind: f.Kind, Err: f, Latency: latency})
		nd.Last = f
		r.logger.Debug("adapter failed",
			zap.String("instrument", inst.Symbol()),
			zap.String("provider", name),
			zap.Stringer("kind", f.Kind),
			zap.Error(f.Err),
			zap.Duration("latency", latency))
	}

	r.logger.Warn("no data available",
		zap.String("instrument", inst.Symbol()),
		zap.String("tried", strings.Join(nd.Providers(), ",")),
		zap.Error(nd.Last))
	return nil, nd
}

// fetch runs one adapter under the per-call timeout. Instruments outside
// the adapter's declared set never reach Fetch.
func (r *Resolver) fetch(ctx context.Context, a provider.Adapter, inst models.Instrument) (q *models.Quote, err error) {
	name := a.Info().Name
	if !a.Supports(inst) {
		return nil, provider.Unsupported(name, "%s outside declared symbol set", inst)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			q, err = nil, provider.NewFailure(name, provider.FailureNetwork, fmt.Errorf("adapter panic: %v", rec))
		}
	}()

	q, err = a.Fetch(ctx, inst)
	if err != nil {
		return nil, err
	}
	if q == nil || !q.Price.IsPositive() {
		return nil, provider.Malformed(name, "adapter returned no usable price")
	}
	return q, nil
}

// asFailure normalizes any adapter error into a *provider.Failure. Errors
// outside the taxonomy count as Network.
func asFailure(name string, err error) *provider.Failure {
	if f, ok := provider.AsFailure(err); ok {
		return f
	}
	return provider.NewFailure(name, provider.FailureNetwork, err)
}
