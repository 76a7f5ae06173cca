package yfinance

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

func TestToYFTicker(t *testing.T) {
	tests := []struct {
		base, quote string
		want        string
		ok          bool
	}{
		{"EUR", "USD", "EURUSD=X", true},
		{"GBP", "JPY", "GBPJPY=X", true},
		{"BTC", "USD", "BTC-USD", true},
		{"ETH", "EUR", "ETH-EUR", true},
		{"BTC", "USDT", "", false},
		{"XAU", "USD", "GC=F", true},
		{"XAG", "USD", "SI=F", true},
		{"XAU", "EUR", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.base+tt.quote, func(t *testing.T) {
			got, ok := toYFTicker(mustInstrument(t, tt.base, tt.quote))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/GC=F", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"GC=F","currency":"USD",
			"regularMarketPrice":2050.5,"chartPreviousClose":2000}}],"error":null}}`))
	}))
	defer srv.Close()

	a := New(provider.Options{BaseURL: srv.URL})
	q, err := a.Fetch(context.Background(), mustInstrument(t, "XAU", "USD"))
	require.NoError(t, err)
	assert.Equal(t, "2050.5", q.Price.String())
	assert.InDelta(t, 2.525, q.ChangePercent24h, 1e-9)
	assert.Equal(t, "XAU/USD", q.Instrument.Symbol())
}

func TestFetchWithoutPreviousCloseHasNoChange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":1.0842}}],"error":null}}`))
	}))
	defer srv.Close()

	a := New(provider.Options{BaseURL: srv.URL})
	q, err := a.Fetch(context.Background(), mustInstrument(t, "EUR", "USD"))
	require.NoError(t, err)
	assert.Equal(t, "1.0842", q.Price.String())
	assert.False(t, q.HasChange())
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   provider.FailureKind
	}{
		{"not found", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, provider.FailureUnsupported},
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, provider.FailureUnsupported},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, provider.FailureMalformed},
		{"no price", http.StatusOK, `{"chart":{"result":[{"meta":{"symbol":"EURUSD=X"}}]}}`, provider.FailureMalformed},
		{"not json", http.StatusOK, `<html>`, provider.FailureMalformed},
		{"throttled", http.StatusTooManyRequests, ``, provider.FailureRateLimited},
		{"server error", http.StatusBadGateway, ``, provider.FailureNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a := New(provider.Options{BaseURL: srv.URL})
			_, err := a.Fetch(context.Background(), mustInstrument(t, "EUR", "USD"))
			f, ok := provider.AsFailure(err)
			require.True(t, ok, "%v", err)
			assert.Equal(t, tt.want, f.Kind)
		})
	}
}

func TestUnmappedInstrumentMakesNoCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	a := New(provider.Options{BaseURL: srv.URL})
	inst := mustInstrument(t, "BTC", "USDT")
	assert.False(t, a.Supports(inst))

	_, err := a.Fetch(context.Background(), inst)
	f, ok := provider.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, provider.FailureUnsupported, f.Kind)
	assert.Zero(t, hits.Load())
}
