// Package providers builds the quote adapter registry and the per-class
// adapter chains from configuration.
package providers

import (
	"go.uber.org/zap"

	"github.com/seenimoa/quotechat/internal/config"
	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/internal/providers/binance"
	"github.com/seenimoa/quotechat/internal/providers/exchangerate"
	"github.com/seenimoa/quotechat/internal/providers/frankfurter"
	"github.com/seenimoa/quotechat/internal/providers/freecurrency"
	"github.com/seenimoa/quotechat/internal/providers/goldapi"
	"github.com/seenimoa/quotechat/internal/providers/xrates"
	"github.com/seenimoa/quotechat/internal/providers/yfinance"
	"github.com/seenimoa/quotechat/pkg/models"
)

// NewRegistry creates a registry populated from cfg.
func NewRegistry(cfg config.ProvidersConfig, logger *zap.Logger) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	if err := RegisterAllTo(reg, cfg, logger); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegisterAllTo registers every available adapter with reg and installs the
// configured chains. Adapters that require an API key are only registered
// when the key is set; chains naming them simply skip them.
func RegisterAllTo(reg *provider.Registry, cfg config.ProvidersConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := func(name string) provider.Options {
		return provider.Options{
			BaseURL:   cfg.BaseURLs[name],
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
		}
	}

	adapters := []provider.Adapter{
		binance.New(opts("binance")),
		exchangerate.New(opts("exchangerate")),
		frankfurter.New(opts("frankfurter")),
		xrates.New(opts("xrates")),
		goldapi.New(cfg.GoldAPIKey, opts("goldapi")),
		yfinance.New(opts("yfinance")),
	}

	// --- freecurrencyapi (requires API key) ---
	if cfg.FreeCurrencyAPIKey != "" {
		adapters = append(adapters, freecurrency.New(cfg.FreeCurrencyAPIKey, opts("freecurrencyapi")))
	} else {
		logger.Debug("freecurrencyapi adapter disabled: no API key")
	}

	for _, a := range adapters {
		if err := reg.Register(a); err != nil {
			return err
		}
	}

	reg.SetChain(models.ClassCrypto, cfg.Chains.Crypto...)
	reg.SetChain(models.ClassForex, cfg.Chains.Forex...)
	reg.SetChain(models.ClassMetal, cfg.Chains.Metal...)

	for _, name := range reg.Missing() {
		logger.Debug("chain names unregistered adapter", zap.String("adapter", name))
	}
	return nil
}
