// Package freecurrency implements the forex adapter backed by
// freecurrencyapi.com. Requires an API key.
package freecurrency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
)

const (
	providerName   = "freecurrencyapi"
	DefaultBaseURL = "https://api.freecurrencyapi.com"
	// EnvAPIKey is the environment variable the key is read from.
	EnvAPIKey = "FREECURRENCYAPI_KEY"
)

// Adapter fetches latest fiat cross rates.
type Adapter struct {
	provider.BaseAdapter
	apiKey string
}

// New creates a freecurrencyapi adapter.
func New(apiKey string, opts provider.Options) *Adapter {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &Adapter{
		BaseAdapter: provider.NewBaseAdapter(provider.AdapterInfo{
			Name:        providerName,
			Description: "freecurrencyapi.com latest rates",
			Website:     "https://freecurrencyapi.com",
			Classes:     []models.AssetClass{models.ClassForex},
			Credentials: []provider.Credential{{
				Name:        "api_key",
				Description: "freecurrencyapi.com API key",
				Required:    true,
				EnvVar:      EnvAPIKey,
			}},
		}, opts),
		apiKey: apiKey,
	}
}

func (a *Adapter) Supports(inst models.Instrument) bool {
	return a.ServesClass(inst.Class) && models.IsFiat(inst.Base) && models.IsFiat(inst.Quote)
}

type latestResponse struct {
	Data map[string]json.Number `json:"data"`
}

func (a *Adapter) Fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	if !a.Supports(inst) {
		return nil, provider.Unsupported(providerName, "%s not served", inst)
	}

	q := url.Values{}
	q.Set("apikey", a.apiKey)
	q.Set("base_currency", inst.Base)
	q.Set("currencies", inst.Quote)

	var resp latestResponse
	if err := a.GetJSON(ctx, fmt.Sprintf("%s/v1/latest?%s", a.BaseURL(), q.Encode()), &resp); err != nil {
		return nil, err
	}

	raw, ok := resp.Data[inst.Quote]
	if !ok {
		return nil, provider.Malformed(providerName, "data.%s missing", inst.Quote)
	}
	price, err := a.ParsePrice("data."+inst.Quote, raw.String())
	if err != nil {
		return nil, err
	}
	return a.NewQuote(inst, price)
}
