package exchangerate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
)

func newServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v4/latest/USD":
			w.Write([]byte(`{"base":"USD","date":"2026-10-15","rates":{"USD":1,"JPY":149.52,"INR":83.1}}`))
		case "/v4/latest/EUR":
			w.Write([]byte(`{"base":"EUR","rates":"oops"}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchRate(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()

	inst, err := models.NewInstrument("USD", "JPY")
	require.NoError(t, err)

	q, err := New(provider.Options{BaseURL: srv.URL}).Fetch(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, "149.52", q.Price.String())
}

func TestFetchFailures(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()
	a := New(provider.Options{BaseURL: srv.URL})

	tests := []struct {
		base, quote string
		kind        provider.FailureKind
	}{
		{"USD", "CHF", provider.FailureUnsupported}, // quote absent from table
		{"GBP", "USD", provider.FailureUnsupported}, // 404
		{"EUR", "USD", provider.FailureMalformed},   // bad shape
	}
	for _, tt := range tests {
		inst, err := models.NewInstrument(tt.base, tt.quote)
		require.NoError(t, err)
		_, err = a.Fetch(context.Background(), inst)
		f, ok := provider.AsFailure(err)
		require.True(t, ok, inst.String())
		assert.Equal(t, tt.kind, f.Kind, inst.String())
	}
}
