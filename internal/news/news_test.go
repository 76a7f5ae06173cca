package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/quotechat/internal/config"
	"github.com/seenimoa/quotechat/pkg/models"
)

const cryptoFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Crypto Wire</title>
<item><title>Bitcoin tops resistance as ETF flows grow</title><link>https://example.com/1</link>
<description>&lt;p&gt;BTC rallied &lt;b&gt;3%&lt;/b&gt;.&lt;/p&gt;</description>
<pubDate>Mon, 12 Oct 2026 10:00:00 GMT</pubDate></item>
<item><title>Ether gas fees hit yearly low</title><link>https://example.com/2</link>
<pubDate>Mon, 12 Oct 2026 12:00:00 GMT</pubDate></item>
<item><title>BTC miners sell reserves</title><link>https://example.com/3</link>
<pubDate>Mon, 12 Oct 2026 14:00:00 GMT</pubDate></item>
</channel></rss>`

const fxFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>FX Daily</title>
<item><title>Euro slips against the dollar</title><link>https://example.com/4</link>
<pubDate>Mon, 12 Oct 2026 13:00:00 GMT</pubDate></item>
</channel></rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/crypto":
			_, _ = w.Write([]byte(cryptoFeed))
		case "/fx":
			_, _ = w.Write([]byte(fxFeed))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchMergesNewestFirst(t *testing.T) {
	srv := newFeedServer(t)
	f := New(config.NewsConfig{Feeds: []string{srv.URL + "/crypto", srv.URL + "/fx", srv.URL + "/broken"}}, nil)

	articles := f.Fetch(context.Background())
	require.Len(t, articles, 4)
	assert.Equal(t, "BTC miners sell reserves", articles[0].Title)
	assert.Equal(t, "Euro slips against the dollar", articles[1].Title)
	assert.Equal(t, "BTC rallied 3%.", articles[3].Summary)
	assert.Equal(t, "Crypto Wire", articles[3].Source)
}

func TestHeadlinesFilterByInstrument(t *testing.T) {
	srv := newFeedServer(t)
	f := New(config.NewsConfig{Feeds: []string{srv.URL + "/crypto", srv.URL + "/fx"}, Limit: 5}, nil)

	btc := models.Instrument{Base: "BTC", Quote: "USDT", Class: models.ClassCrypto}
	assert.Equal(t, []string{
		"BTC miners sell reserves",
		"Bitcoin tops resistance as ETF flows grow",
	}, f.Headlines(context.Background(), btc))

	eur := models.Instrument{Base: "EUR", Quote: "USD", Class: models.ClassForex}
	assert.Equal(t, []string{"Euro slips against the dollar"}, f.Headlines(context.Background(), eur))
}

func TestHeadlinesLimit(t *testing.T) {
	srv := newFeedServer(t)
	f := New(config.NewsConfig{Feeds: []string{srv.URL + "/crypto"}, Limit: 1}, nil)

	btc := models.Instrument{Base: "BTC", Quote: "USDT", Class: models.ClassCrypto}
	assert.Len(t, f.Headlines(context.Background(), btc), 1)
}

func TestFetchHonoursTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	f := New(config.NewsConfig{Feeds: []string{slow.URL}, Timeout: 50 * time.Millisecond}, nil)
	start := time.Now()
	assert.Empty(t, f.Fetch(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestMatchesAnyWholeWords(t *testing.T) {
	assert.True(t, matchesAny("BTC slips", []string{"btc"}))
	assert.False(t, matchesAny("BTCX token launches", []string{"btc"}))
	assert.True(t, matchesAny("Gold steadies", []string{"xau", "gold"}))
}

func TestScoreHeadline(t *testing.T) {
	s, ok := ScoreHeadline("Bitcoin surges to record high on ETF inflows")
	require.True(t, ok)
	assert.Equal(t, 1.0, s)

	s, ok = ScoreHeadline("Gold tumbles as dollar rally deepens")
	require.True(t, ok)
	assert.InDelta(t, 0.0, s, 1e-9)

	s, ok = ScoreHeadline("Crypto sell-off deepens after exchange hack")
	require.True(t, ok)
	assert.Equal(t, -1.0, s)

	_, ok = ScoreHeadline("Central bank publishes minutes")
	assert.False(t, ok)

	_, ok = ScoreHeadline("Banking stocks steady") // "ban" is not a prefix match
	assert.False(t, ok)
}

func TestTone(t *testing.T) {
	assert.Equal(t, ToneBullish, Tone([]string{"Ether rallies", "Nothing to see"}))
	assert.Equal(t, ToneBearish, Tone([]string{"Ether plunges", "Exchange hack fears"}))
	assert.Equal(t, ToneMixed, Tone([]string{"Ether rallies", "Ether plunges"}))
	assert.Equal(t, "", Tone([]string{"Minutes published"}))
	assert.Equal(t, "", Tone(nil))
}
