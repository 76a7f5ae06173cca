// Package yfinance implements a multi-class adapter over Yahoo Finance's
// public v8 chart API. It is a late fallback in every chain: forex pairs map
// to "EURUSD=X", crypto against fiat to "BTC-USD" and metals against USD to
// their front-month futures ("GC=F").
package yfinance

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
)

const (
	providerName   = "yfinance"
	DefaultBaseURL = "https://query1.finance.yahoo.com"
)

// metalFutures maps metal codes to COMEX/NYMEX front-month tickers.
var metalFutures = map[string]string{
	"XAU": "GC=F",
	"XAG": "SI=F",
	"XPT": "PL=F",
	"XPD": "PA=F",
}

type Adapter struct {
	provider.BaseAdapter
}

func New(opts provider.Options) *Adapter {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &Adapter{
		BaseAdapter: provider.NewBaseAdapter(provider.AdapterInfo{
			Name:        providerName,
			Description: "Yahoo Finance chart API (forex, crypto vs fiat, metal futures)",
			Website:     "https://finance.yahoo.com",
			Classes:     []models.AssetClass{models.ClassForex, models.ClassCrypto, models.ClassMetal},
		}, opts),
	}
}

func (a *Adapter) Supports(inst models.Instrument) bool {
	_, ok := toYFTicker(inst)
	return ok && a.ServesClass(inst.Class)
}

// toYFTicker converts an instrument to a Yahoo ticker.
func toYFTicker(inst models.Instrument) (string, bool) {
	switch inst.Class {
	case models.ClassForex:
		if models.IsFiat(inst.Base) && models.IsFiat(inst.Quote) {
			return inst.Base + inst.Quote + "=X", true
		}
	case models.ClassCrypto:
		if models.IsCrypto(inst.Base) && !models.IsStablecoin(inst.Base) && models.IsFiat(inst.Quote) {
			return inst.Base + "-" + inst.Quote, true
		}
	case models.ClassMetal:
		if t, ok := metalFutures[inst.Base]; ok && inst.Quote == "USD" {
			return t, true
		}
	}
	return "", false
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta chartMeta `json:"meta"`
}

type chartMeta struct {
	Symbol             string           `json:"symbol"`
	Currency           string           `json:"currency"`
	RegularMarketPrice *decimal.Decimal `json:"regularMarketPrice"`
	ChartPreviousClose *decimal.Decimal `json:"chartPreviousClose"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (a *Adapter) Fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	ticker, ok := toYFTicker(inst)
	if !ok || !a.ServesClass(inst.Class) {
		return nil, provider.Unsupported(providerName, "%s not served", inst)
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", a.BaseURL(), url.PathEscape(ticker))
	var resp chartResponse
	if err := a.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if e := resp.Chart.Error; e != nil {
		return nil, provider.Unsupported(providerName, "%s: %s", ticker, e.Description)
	}
	if len(resp.Chart.Result) == 0 || resp.Chart.Result[0].Meta.RegularMarketPrice == nil {
		return nil, provider.Malformed(providerName, "chart.result[0].meta.regularMarketPrice missing for %s", ticker)
	}

	meta := resp.Chart.Result[0].Meta
	q, err := a.NewQuote(inst, *meta.RegularMarketPrice)
	if err != nil {
		return nil, err
	}
	if prev := meta.ChartPreviousClose; prev != nil && prev.IsPositive() {
		pct, _ := meta.RegularMarketPrice.Sub(*prev).Div(*prev).Mul(decimal.NewFromInt(100)).Float64()
		q.ChangePercent24h = pct
	}
	return q, nil
}
