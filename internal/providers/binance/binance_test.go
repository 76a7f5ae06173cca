package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
)

func mustInstrument(t *testing.T, base, quote string) models.Instrument {
	t.Helper()
	inst, err := models.NewInstrument(base, quote)
	require.NoError(t, err)
	return inst
}

func TestFetchTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"42000.10000000","priceChangePercent":"-1.250"}`))
	}))
	defer srv.Close()

	a := New(provider.Options{BaseURL: srv.URL})
	q, err := a.Fetch(context.Background(), mustInstrument(t, "BTC", "USDT"))
	require.NoError(t, err)
	assert.Equal(t, "42000.1", q.Price.String())
	assert.InDelta(t, -1.25, q.ChangePercent24h, 1e-9)
	assert.Equal(t, "BTC/USDT", q.Instrument.Symbol())
}

func TestFetchInvalidSymbolIsUnsupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	a := New(provider.Options{BaseURL: srv.URL})
	_, err := a.Fetch(context.Background(), mustInstrument(t, "DOGE", "BNB"))
	f, ok := provider.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, provider.FailureUnsupported, f.Kind)
}

func TestFetchMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"ETHUSDT"}`))
	}))
	defer srv.Close()

	a := New(provider.Options{BaseURL: srv.URL})
	_, err := a.Fetch(context.Background(), mustInstrument(t, "ETH", "USDT"))
	f, ok := provider.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, provider.FailureMalformed, f.Kind)
}

func TestOutsideSymbolSetMakesNoCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	a := New(provider.Options{BaseURL: srv.URL})
	for _, inst := range []models.Instrument{
		mustInstrument(t, "ZZZ", "USDT"), // not on the allow-list
		mustInstrument(t, "EUR", "USD"),  // forex
		mustInstrument(t, "XAU", "USD"),  // metal
		mustInstrument(t, "BTC", "EUR"),  // unsupported quote side
	} {
		assert.False(t, a.Supports(inst), inst.String())
		_, err := a.Fetch(context.Background(), inst)
		assert.True(t, provider.IsUnsupported(err), inst.String())
	}
	assert.Zero(t, hits.Load())
}
