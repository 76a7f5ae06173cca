// Package exchangerate implements the forex adapter backed by the keyless
// exchangerate-api.com v4 endpoint.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
)

const (
	providerName   = "exchangerate"
	DefaultBaseURL = "https://api.exchangerate-api.com"
)

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
			Description: "ExchangeRate-API open rates",
			Website:     "https://www.exchangerate-api.com",
			Classes:     []models.AssetClass{models.ClassForex},
		}, opts),
	}
}

func (a *Adapter) Supports(inst models.Instrument) bool {
	return a.ServesClass(inst.Class) && models.IsFiat(inst.Base) && models.IsFiat(inst.Quote)
}

type latestResponse struct {
	Base  string                 `json:"base"`
	Rates map[string]json.Number `json:"rates"`
}

func (a *Adapter) Fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	if !a.Supports(inst) {
		return nil, provider.Unsupported(providerName, "%s not served", inst)
	}

	var resp latestResponse
	if err := a.GetJSON(ctx, fmt.Sprintf("%s/v4/latest/%s", a.BaseURL(), inst.Base), &resp); err != nil {
		return nil, err
	}
	raw, ok := resp.Rates[inst.Quote]
	if !ok {
		// The base is listed but the quote is not in its table.
		return nil, provider.Unsupported(providerName, "rates.%s missing", inst.Quote)
	}
	price, err := a.ParsePrice("rates."+inst.Quote, raw.String())
	if err != nil {
		return nil, err
	}
	return a.NewQuote(inst, price)
}
