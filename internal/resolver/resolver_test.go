package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
)

type mockAdapter struct {
	mock.Mock
	name     string
	supports bool
}

func newMockAdapter(name string) *mockAdapter {
	return &mockAdapter{name: name, supports: true}
}

func (m *mockAdapter) Info() provider.AdapterInfo { return provider.AdapterInfo{Name: m.name} }

func (m *mockAdapter) Supports(models.Instrument) bool { return m.supports }

func (m *mockAdapter) Fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	args := m.Called(ctx, inst)
	q, _ := args.Get(0).(*models.Quote)
	return q, args.Error(1)
}

type staticChains map[models.AssetClass][]provider.Adapter

func (s staticChains) Chain(class models.AssetClass) []provider.Adapter { return s[class] }

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))

func mustInstrument(t *testing.T, base, quote string) models.Instrument {
	t.Helper()
	inst, err := models.NewInstrument(base, quote)
	require.NoError(t, err)
	return inst
}

func quoteOf(inst models.Instrument, price string, change float64) *models.Quote {
	return &models.Quote{Instrument: inst, Price: decimal.RequireFromString(price), ChangePercent24h: change}
}

func TestResolveFirstSuccessStampsQuote(t *testing.T) {
	inst := mustInstrument(t, "BTC", "USDT")
	a := newMockAdapter("binance")
	a.On("Fetch", mock.Anything, inst).Return(quoteOf(inst, "42000", 1.5), nil).Once()

	r := New(staticChains{models.ClassCrypto: {a}}, WithClock(func() time.Time { return fixedNow }))
	q, err := r.Resolve(context.Background(), inst)
	require.NoError(t, err)

	assert.Equal(t, "binance", q.Source)
	assert.Equal(t, "$42,000.00", q.DisplayPrice)
	assert.Equal(t, time.UTC, q.AsOf.Location())
	assert.True(t, q.AsOf.Equal(fixedNow))
	assert.InDelta(t, 1.5, q.ChangePercent24h, 1e-9)
	a.AssertExpectations(t)
}

func TestResolveFallsThroughEveryFailureKind(t *testing.T) {
	inst := mustInstrument(t, "EUR", "USD")

	kinds := []provider.FailureKind{
		provider.FailureUnsupported,
		provider.FailureNetwork,
		provider.FailureMalformed,
		provider.FailureRateLimited,
	}
	var chain []provider.Adapter
	var failing []*mockAdapter
	for i, k := range kinds {
		a := newMockAdapter(string(rune('a' + i)))
		a.On("Fetch", mock.Anything, inst).Return(nil, provider.NewFailure(a.name, k, errors.New("boom"))).Once()
		chain = append(chain, a)
		failing = append(failing, a)
	}
	last := newMockAdapter("last")
	last.On("Fetch", mock.Anything, inst).Return(quoteOf(inst, "1.0845", 0), nil).Once()
	chain = append(chain, last)

	q, err := New(staticChains{models.ClassForex: chain}).Resolve(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, "last", q.Source)
	assert.Equal(t, "$1.08", q.DisplayPrice)
	for _, a := range failing {
		a.AssertNumberOfCalls(t, "Fetch", 1)
	}
}

func TestResolveStopsAtFirstSuccess(t *testing.T) {
	inst := mustInstrument(t, "GBP", "USD")
	first := newMockAdapter("first")
	first.On("Fetch", mock.Anything, inst).Return(quoteOf(inst, "1.27", 0), nil).Once()
	second := newMockAdapter("second")

	q, err := New(staticChains{models.ClassForex: {first, second}}).Resolve(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, "first", q.Source)
	second.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestResolveExhaustedReturnsNoData(t *testing.T) {
	inst := mustInstrument(t, "ZZZ", "USDT")
	a := newMockAdapter("binance")
	a.supports = false

	_, err := New(staticChains{models.ClassCrypto: {a}}).Resolve(context.Background(), inst)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDataAvailable)

	var nd *NoDataError
	require.ErrorAs(t, err, &nd)
	assert.Equal(t, []string{"binance"}, nd.Providers())
	assert.Equal(t, provider.FailureUnsupported, nd.Attempts[0].Kind)
	assert.True(t, provider.IsUnsupported(nd.Last))
	a.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestResolveLastFailureIsCarried(t *testing.T) {
	inst := mustInstrument(t, "USD", "JPY")
	a := newMockAdapter("a")
	a.On("Fetch", mock.Anything, inst).Return(nil, provider.NewFailure("a", provider.FailureNetwork, errors.New("timeout"))).Once()
	b := newMockAdapter("b")
	b.On("Fetch", mock.Anything, inst).Return(nil, provider.Malformed("b", "rates missing")).Once()

	_, err := New(staticChains{models.ClassForex: {a, b}}).Resolve(context.Background(), inst)
	var nd *NoDataError
	require.ErrorAs(t, err, &nd)
	f, ok := provider.AsFailure(nd.Last)
	require.True(t, ok)
	assert.Equal(t, "b", f.Provider)
	assert.Equal(t, provider.FailureMalformed, f.Kind)
	assert.Len(t, nd.Attempts, 2)
}

func TestResolveEmptyChain(t *testing.T) {
	inst := mustInstrument(t, "XAU", "USD")
	_, err := New(staticChains{}).Resolve(context.Background(), inst)
	assert.ErrorIs(t, err, ErrNoDataAvailable)
}

func TestResolveForeignErrorCountsAsNetwork(t *testing.T) {
	inst := mustInstrument(t, "EUR", "GBP")
	a := newMockAdapter("odd")
	a.On("Fetch", mock.Anything, inst).Return(nil, errors.New("plain error")).Once()

	_, err := New(staticChains{models.ClassForex: {a}}).Resolve(context.Background(), inst)
	var nd *NoDataError
	require.ErrorAs(t, err, &nd)
	assert.Equal(t, provider.FailureNetwork, nd.Attempts[0].Kind)
}

func TestResolveRejectsNonPositivePrice(t *testing.T) {
	inst := mustInstrument(t, "EUR", "USD")
	a := newMockAdapter("zero")
	a.On("Fetch", mock.Anything, inst).Return(quoteOf(inst, "0", 0), nil).Once()

	_, err := New(staticChains{models.ClassForex: {a}}).Resolve(context.Background(), inst)
	var nd *NoDataError
	require.ErrorAs(t, err, &nd)
	assert.Equal(t, provider.FailureMalformed, nd.Attempts[0].Kind)
}

func TestResolveAppliesPerCallTimeout(t *testing.T) {
	inst := mustInstrument(t, "ETH", "USDT")
	a := newMockAdapter("slow")
	a.On("Fetch", mock.Anything, inst).Return(nil, nil).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		_, ok := ctx.Deadline()
		assert.True(t, ok)
	}).Once()

	_, err := New(staticChains{models.ClassCrypto: {a}}, WithTimeout(50*time.Millisecond)).Resolve(context.Background(), inst)
	assert.ErrorIs(t, err, ErrNoDataAvailable)
}

func TestResolveIsDeterministic(t *testing.T) {
	inst := mustInstrument(t, "EUR", "USD")
	a := newMockAdapter("a")
	a.On("Fetch", mock.Anything, inst).Return(nil, provider.NewFailure("a", provider.FailureNetwork, errors.New("down")))
	b := newMockAdapter("b")
	b.On("Fetch", mock.Anything, inst).Return(quoteOf(inst, "1.1", 0), nil)

	r := New(staticChains{models.ClassForex: {a, b}})
	for i := 0; i < 5; i++ {
		q, err := r.Resolve(context.Background(), inst)
		require.NoError(t, err)
		assert.Equal(t, "b", q.Source)
	}
	a.AssertNumberOfCalls(t, "Fetch", 5)
	b.AssertNumberOfCalls(t, "Fetch", 5)
}

func TestResolveCancelledContext(t *testing.T) {
	inst := mustInstrument(t, "EUR", "USD")
	a := newMockAdapter("a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(staticChains{models.ClassForex: {a}}).Resolve(ctx, inst)
	assert.ErrorIs(t, err, ErrNoDataAvailable)
	assert.ErrorIs(t, err, context.Canceled)
	a.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}
