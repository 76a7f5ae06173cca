package frankfurter

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

func TestFetchLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "GBP", r.URL.Query().Get("from"))
		assert.Equal(t, "USD", r.URL.Query().Get("to"))
		w.Write([]byte(`{"amount":1.0,"base":"GBP","date":"2026-10-14","rates":{"USD":1.2731}}`))
	}))
	defer srv.Close()

	inst, err := models.NewInstrument("GBP", "USD")
	require.NoError(t, err)

	q, err := New(provider.Options{BaseURL: srv.URL}).Fetch(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, "1.2731", q.Price.String())
}

func TestNonECBCurrencyMakesNoCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	inst, err := models.NewInstrument("USD", "RUB")
	require.NoError(t, err)

	_, err = New(provider.Options{BaseURL: srv.URL}).Fetch(context.Background(), inst)
	assert.True(t, provider.IsUnsupported(err))
	assert.Zero(t, hits.Load())
}

func TestRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	inst, err := models.NewInstrument("EUR", "USD")
	require.NoError(t, err)

	_, err = New(provider.Options{BaseURL: srv.URL}).Fetch(context.Background(), inst)
	f, ok := provider.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, provider.FailureRateLimited, f.Kind)
}
