// Package binance implements the crypto quote adapter backed by the Binance
// public spot API. No API key is needed.
//
// Docs: https://developers.binance.com/docs/binance-spot-api-docs/rest-api/market-data-endpoints
package binance

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
)

const (
	providerName = "binance"
	// DefaultBaseURL is the public spot REST endpoint.
	DefaultBaseURL = "https://api.binance.com"
)

// quoteAssets are the quote sides Binance lists spot pairs against.
var quoteAssets = map[string]bool{
	"USDT": true, "USDC": true, "FDUSD": true,
	"BTC": true, "ETH": true, "BNB": true,
}

// Adapter fetches 24h ticker statistics from Binance.
type Adapter struct {
	provider.BaseAdapter
}

// New creates a Binance adapter.
func New(opts provider.Options) *Adapter {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &Adapter{
		BaseAdapter: provider.NewBaseAdapter(provider.AdapterInfo{
			Name:        providerName,
			Description: "Binance spot 24h ticker",
			Website:     "https://www.binance.com",
			Classes:     []models.AssetClass{models.ClassCrypto},
		}, opts),
	}
}

// Supports reports whether inst is an allow-listed crypto base against a
// quote asset Binance lists.
func (a *Adapter) Supports(inst models.Instrument) bool {
	return a.ServesClass(inst.Class) && models.IsCrypto(inst.Base) && quoteAssets[inst.Quote]
}

type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// Fetch returns the last traded price and the 24h change.
func (a *Adapter) Fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	if !a.Supports(inst) {
		return nil, provider.Unsupported(providerName, "%s not served", inst)
	}

	u := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", a.BaseURL(), url.QueryEscape(inst.Compact()))
	var t ticker24h
	if err := a.GetJSON(ctx, u, &t); err != nil {
		return nil, err
	}

	price, err := a.ParsePrice("lastPrice", t.LastPrice)
	if err != nil {
		return nil, err
	}
	q, err := a.NewQuote(inst, price)
	if err != nil {
		return nil, err
	}
	if pct := strings.TrimSpace(t.PriceChangePercent); pct != "" {
		change, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return nil, provider.Malformed(providerName, "priceChangePercent: %v", err)
		}
		q.ChangePercent24h = change
	}
	return q, nil
}
