package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/quotechat/internal/config"
	"github.com/seenimoa/quotechat/pkg/models"
)

func testConfig() config.ProvidersConfig {
	return config.ProvidersConfig{
		Timeout:   time.Second,
		RateLimit: 5,
		Chains: config.ChainsConfig{
			Crypto: []string{"binance", "yfinance"},
			Forex:  []string{"freecurrencyapi", "exchangerate", "frankfurter", "xrates", "yfinance"},
			Metal:  []string{"goldapi", "yfinance"},
		},
	}
}

func chainNames(t *testing.T, cfg config.ProvidersConfig, class models.AssetClass) []string {
	t.Helper()
	reg, err := NewRegistry(cfg, nil)
	require.NoError(t, err)
	var names []string
	for _, a := range reg.Chain(class) {
		names = append(names, a.Info().Name)
	}
	return names
}

func TestRegisterAllToWithoutKeys(t *testing.T) {
	cfg := testConfig()

	assert.Equal(t, []string{"binance", "yfinance"}, chainNames(t, cfg, models.ClassCrypto))
	assert.Equal(t, []string{"exchangerate", "frankfurter", "xrates", "yfinance"}, chainNames(t, cfg, models.ClassForex))
	assert.Equal(t, []string{"goldapi", "yfinance"}, chainNames(t, cfg, models.ClassMetal))
}

func TestRegisterAllToWithKey(t *testing.T) {
	cfg := testConfig()
	cfg.FreeCurrencyAPIKey = "fca_live_test"

	assert.Equal(t,
		[]string{"freecurrencyapi", "exchangerate", "frankfurter", "xrates", "yfinance"},
		chainNames(t, cfg, models.ClassForex))
}

func TestRegisteredAdaptersDeclareClasses(t *testing.T) {
	cfg := testConfig()
	cfg.FreeCurrencyAPIKey = "k"
	reg, err := NewRegistry(cfg, nil)
	require.NoError(t, err)

	infos := reg.List()
	require.Len(t, infos, 7)
	for _, info := range infos {
		assert.NotEmpty(t, info.Classes, info.Name)
		assert.NotEmpty(t, info.Website, info.Name)
	}
}

func TestDefaultChainsServeCommonPairs(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	reg, err := NewRegistry(cfg.Providers, nil)
	require.NoError(t, err)

	for _, pair := range [][2]string{{"BTC", "USD"}, {"BTC", "USDT"}, {"ETH", "EUR"}, {"EUR", "USD"}, {"XAU", "USD"}} {
		inst, err := models.NewInstrument(pair[0], pair[1])
		require.NoError(t, err)

		served := false
		for _, a := range reg.Chain(inst.Class) {
			served = served || a.Supports(inst)
		}
		assert.True(t, served, "no adapter in the default %s chain serves %s", inst.Class, inst)
	}
}
