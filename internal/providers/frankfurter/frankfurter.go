// Package frankfurter implements the forex adapter backed by the Frankfurter
// API, which republishes the ECB reference rates.
package frankfurter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
)

const (
	providerName   = "frankfurter"
	DefaultBaseURL = "https://api.frankfurter.app"
)

// ecbCurrencies is the ECB reference-rate set.
var ecbCurrencies = map[string]bool{
	"EUR": true, "USD": true, "JPY": true, "BGN": true, "CZK": true, "DKK": true,
	"GBP": true, "HUF": true, "PLN": true, "RON": true, "SEK": true, "CHF": true,
	"ISK": true, "NOK": true, "TRY": true, "AUD": true, "BRL": true, "CAD": true,
	"CNY": true, "HKD": true, "IDR": true, "ILS": true, "INR": true, "KRW": true,
	"MXN": true, "MYR": true, "NZD": true, "PHP": true, "SGD": true, "THB": true,
	"ZAR": true,
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
			Description: "Frankfurter ECB reference rates",
			Website:     "https://www.frankfurter.app",
			Classes:     []models.AssetClass{models.ClassForex},
		}, opts),
	}
}

// Supports limits the adapter to ECB-published currencies.
func (a *Adapter) Supports(inst models.Instrument) bool {
	return a.ServesClass(inst.Class) && ecbCurrencies[inst.Base] && ecbCurrencies[inst.Quote]
}

type latestResponse struct {
	Amount float64                `json:"amount"`
	Base   string                 `json:"base"`
	Date   string                 `json:"date"`
	Rates  map[string]json.Number `json:"rates"`
}

func (a *Adapter) Fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	if !a.Supports(inst) {
		return nil, provider.Unsupported(providerName, "%s not in ECB set", inst)
	}

	q := url.Values{}
	q.Set("from", inst.Base)
	q.Set("to", inst.Quote)

	var resp latestResponse
	if err := a.GetJSON(ctx, fmt.Sprintf("%s/latest?%s", a.BaseURL(), q.Encode()), &resp); err != nil {
		return nil, err
	}
	raw, ok := resp.Rates[inst.Quote]
	if !ok {
		return nil, provider.Malformed(providerName, "rates.%s missing", inst.Quote)
	}
	price, err := a.ParsePrice("rates."+inst.Quote, raw.String())
	if err != nil {
		return nil, err
	}
	return a.NewQuote(inst, price)
}
