package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/quotechat/pkg/models"
)

// stubAdapter is a minimal Adapter for registry tests.
type stubAdapter struct {
	BaseAdapter
}

func newStubAdapter(name string, classes ...models.AssetClass) *stubAdapter {
	return &stubAdapter{
		BaseAdapter: NewBaseAdapter(AdapterInfo{Name: name, Classes: classes}, Options{}),
	}
}

func (s *stubAdapter) Supports(inst models.Instrument) bool { return s.ServesClass(inst.Class) }

func (s *stubAdapter) Fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	return &models.Quote{Instrument: inst}, nil
}

// --- Failure ---

func TestFailureKindString(t *testing.T) {
	assert.Equal(t, "unsupported", FailureUnsupported.String())
	assert.Equal(t, "network", FailureNetwork.String())
	assert.Equal(t, "malformed", FailureMalformed.String())
	assert.Equal(t, "rate_limited", FailureRateLimited.String())
	assert.Equal(t, "unknown", FailureKind(0).String())
}

func TestFailureWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(NewFailure("binance", FailureNetwork, cause))

	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "binance", f.Provider)
	assert.Equal(t, FailureNetwork, f.Kind)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "binance: network: connection reset", err.Error())

	wrapped := errors.Join(errors.New("outer"), err)
	_, ok = AsFailure(wrapped)
	assert.True(t, ok)

	assert.True(t, IsUnsupported(Unsupported("goldapi", "quote %s", "EUR")))
	assert.False(t, IsUnsupported(cause))
}

// --- Registry ---

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newStubAdapter("alpha", models.ClassForex)))

	got, err := reg.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Info().Name)

	_, err = reg.Get("nope")
	var nf *ErrAdapterNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(newStubAdapter("")))
}

func TestRegistryListSorted(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(newStubAdapter(n)))
	}
	infos := reg.List()
	require.Len(t, infos, 3)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "mid", infos[1].Name)
	assert.Equal(t, "zeta", infos[2].Name)
}

func TestRegistryChainOrderSkipsUnregistered(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newStubAdapter("b", models.ClassForex)))
	require.NoError(t, reg.Register(newStubAdapter("a", models.ClassForex)))
	reg.SetChain(models.ClassForex, "b", "ghost", "a", "b")

	chain := reg.Chain(models.ClassForex)
	require.Len(t, chain, 2)
	assert.Equal(t, "b", chain[0].Info().Name)
	assert.Equal(t, "a", chain[1].Info().Name)

	assert.Equal(t, []string{"ghost"}, reg.Missing())
	assert.Equal(t, []string{"b", "ghost", "a"}, reg.Chains()[models.ClassForex])
	assert.Empty(t, reg.Chain(models.ClassMetal))
}

// --- BaseAdapter ---

func TestStatusKind(t *testing.T) {
	tests := []struct {
		status int
		kind   FailureKind
		bad    bool
	}{
		{200, 0, false},
		{204, 0, false},
		{429, FailureRateLimited, true},
		{400, FailureUnsupported, true},
		{404, FailureUnsupported, true},
		{401, FailureNetwork, true},
		{500, FailureNetwork, true},
		{503, FailureNetwork, true},
	}
	for _, tt := range tests {
		kind, bad := StatusKind(tt.status)
		assert.Equal(t, tt.bad, bad, "status %d", tt.status)
		assert.Equal(t, tt.kind, kind, "status %d", tt.status)
	}
}

func TestGetJSONMapsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Write([]byte(`{"price":"1.5"}`))
		case "/garbage":
			w.Write([]byte(`<html>`))
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	b := NewBaseAdapter(AdapterInfo{Name: "test"}, Options{BaseURL: srv.URL + "/"})
	assert.Equal(t, srv.URL, b.BaseURL())
	ctx := context.Background()

	var out struct {
		Price string `json:"price"`
	}
	require.NoError(t, b.GetJSON(ctx, srv.URL+"/ok", &out))
	assert.Equal(t, "1.5", out.Price)

	cases := map[string]FailureKind{
		"/garbage": FailureMalformed,
		"/limited": FailureRateLimited,
		"/missing": FailureUnsupported,
		"/broken":  FailureNetwork,
	}
	for path, want := range cases {
		err := b.GetJSON(ctx, srv.URL+path, &out)
		f, ok := AsFailure(err)
		require.True(t, ok, path)
		assert.Equal(t, want, f.Kind, path)
		assert.Equal(t, "test", f.Provider)
	}
}

func TestGetBodyTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	b := NewBaseAdapter(AdapterInfo{Name: "dead"}, Options{})
	_, err := b.GetBody(context.Background(), url, nil)
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureNetwork, f.Kind)
}

func TestLocalRateLimitSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	b := NewBaseAdapter(AdapterInfo{Name: "tight"}, Options{RateLimit: 1})
	var out map[string]any
	require.NoError(t, b.GetJSON(context.Background(), srv.URL, &out))

	err := b.GetJSON(context.Background(), srv.URL, &out)
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureRateLimited, f.Kind)
	assert.Equal(t, int32(1), hits.Load())
}

func TestParsePriceAndNewQuote(t *testing.T) {
	b := NewBaseAdapter(AdapterInfo{Name: "p"}, Options{})
	inst, err := models.NewInstrument("EUR", "USD")
	require.NoError(t, err)

	d, err := b.ParsePrice("rate", " 1,234.50 ")
	require.NoError(t, err)
	assert.Equal(t, "1234.5", d.String())

	_, err = b.ParsePrice("rate", "")
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureMalformed, f.Kind)

	_, err = b.ParsePrice("rate", "abc")
	assert.Error(t, err)

	q, err := b.NewQuote(inst, d)
	require.NoError(t, err)
	assert.True(t, q.Instrument.Equal(inst))

	_, err = b.NewQuote(inst, d.Neg())
	f, ok = AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureMalformed, f.Kind)
}
