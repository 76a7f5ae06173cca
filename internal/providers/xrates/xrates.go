// Package xrates implements a last-resort forex adapter that scrapes the
// x-rates.com currency calculator page.
package xrates

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
)

const (
	providerName   = "xrates"
	DefaultBaseURL = "https://www.x-rates.com"
	resultSelector = "span.ccOutputRslt"
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
			Description: "X-Rates calculator page (HTML)",
			Website:     DefaultBaseURL,
			Classes:     []models.AssetClass{models.ClassForex},
		}, opts),
	}
}

func (a *Adapter) Supports(inst models.Instrument) bool {
	return a.ServesClass(inst.Class) && models.IsFiat(inst.Base) && models.IsFiat(inst.Quote)
}

func (a *Adapter) Fetch(ctx context.Context, inst models.Instrument) (*models.Quote, error) {
	if !a.Supports(inst) {
		return nil, provider.Unsupported(providerName, "%s not served", inst)
	}

	q := url.Values{}
	q.Set("from", inst.Base)
	q.Set("to", inst.Quote)
	q.Set("amount", "1")

	body, err := a.GetBody(ctx, fmt.Sprintf("%s/calculator/?%s", a.BaseURL(), q.Encode()),
		map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, provider.Malformed(providerName, "parse HTML: %v", err)
	}
	sel := doc.Find(resultSelector).First()
	if sel.Length() == 0 {
		return nil, provider.Malformed(providerName, "%s not found", resultSelector)
	}

	// The span reads e.g. "1.084512 USD"; the currency suffix sits in a child span.
	text := strings.TrimSpace(sel.Clone().Children().Remove().End().Text())
	if fields := strings.Fields(text); len(fields) > 0 {
		text = fields[0]
	}
	price, err := a.ParsePrice(resultSelector, text)
	if err != nil {
		return nil, err
	}
	return a.NewQuote(inst, price)
}
