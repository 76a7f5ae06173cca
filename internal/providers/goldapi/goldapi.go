// Package goldapi implements the precious-metals adapter backed by
// goldapi.io. An API key is optional for the public price endpoint but
// raises the quota when set.
package goldapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
)

const (
	providerName   = "goldapi"
	DefaultBaseURL = "https://api.gold-api.com"
	EnvAPIKey      = "GOLDAPI_KEY"
)

// Adapter fetches USD spot prices for XAU, XAG, XPT and XPD.
type Adapter struct {
	provider.BaseAdapter
	apiKey string
}

func New(apiKey string, opts provider.Options) *Adapter {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &Adapter{
		BaseAdapter: provider.NewBaseAdapter(provider.AdapterInfo{
			Name:        providerName,
			Description: "Precious metal spot prices",
			Website:     "https://gold-api.com",
			Classes:     []models.AssetClass{models.ClassMetal},
			Credentials: []provider.Credential{{
				Name:        "api_key",
				Description: "gold-api.com key (optional)",
				EnvVar:      EnvAPIKey,
			}},
		}, opts),
		apiKey: apiKey,
	}
}

// Supports accepts the four metals quoted in USD only.
func (a *Adapter) Supports(inst models.Instrument) bool {
	return a.ServesClass(inst.Class) && models.IsMetal(inst.Base) && inst.Quote == "USD"
}

type priceResponse struct {
	Symbol string      `json:"symbol"`
	Price  json.Number `json:"price"`
}

func (a *Adapter) Fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	if !a.Supports(inst) {
		return nil, provider.Unsupported(providerName, "%s not served", inst)
	}

	headers := map[string]string{"Accept": "application/json"}
	if a.apiKey != "" {
		headers["x-api-key"] = a.apiKey
	}
	body, err := a.GetBody(ctx, fmt.Sprintf("%s/price/%s", a.BaseURL(), inst.Base), headers)
	if err != nil {
		return nil, err
	}

	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, provider.Malformed(providerName, "decode JSON: %v", err)
	}
	price, err := a.ParsePrice("price", resp.Price.String())
	if err != nil {
		return nil, err
	}
	return a.NewQuote(inst, price)
}
