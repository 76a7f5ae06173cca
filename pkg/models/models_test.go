package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Instrument ──

func TestNewInstrumentNormalizes(t *testing.T) {
	inst, err := NewInstrument(" eur ", "usd")
	require.NoError(t, err)
	assert.Equal(t, "EUR", inst.Base)
	assert.Equal(t, "USD", inst.Quote)
	assert.Equal(t, ClassForex, inst.Class)
	assert.Equal(t, "EUR/USD", inst.Symbol())
	assert.Equal(t, "EURUSD", inst.Compact())
}

func TestNewInstrumentRejectsInvalid(t *testing.T) {
	tests := []struct {
		name        string
		base, quote string
	}{
		{"same legs", "USD", "USD"},
		{"too short", "U", "USD"},
		{"too long", "BITCOINS", "USD"},
		{"digits", "BT1", "USD"},
		{"empty quote", "BTC", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInstrument(tt.base, tt.quote)
			assert.Error(t, err)
		})
	}
}

func TestInstrumentEqualIgnoresClass(t *testing.T) {
	a := Instrument{Base: "BTC", Quote: "USDT", Class: ClassCrypto}
	b := Instrument{Base: "BTC", Quote: "USDT", Class: ClassUnknown}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(Instrument{Base: "ETH", Quote: "USDT"}))
}

// ── Classification table ──

func TestClassOf(t *testing.T) {
	tests := []struct {
		base, quote string
		want        AssetClass
	}{
		{"EUR", "USD", ClassForex},
		{"GBP", "JPY", ClassForex},
		{"XAU", "USD", ClassMetal},
		{"XAG", "USD", ClassMetal},
		{"XAU", "EUR", ClassMetal},
		{"XAU", "USDT", ClassCrypto},
		{"BTC", "USDT", ClassCrypto},
		{"ETH", "BTC", ClassCrypto},
		{"ZZZ", "USDT", ClassCrypto},
		{"BTC", "USD", ClassCrypto},
		{"ABC", "XYZ", ClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.base+"/"+tt.quote, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassOf(tt.base, tt.quote))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Gold", Instrument{Base: "XAU", Quote: "USD"}.DisplayName())
	assert.Equal(t, "Bitcoin", Instrument{Base: "BTC", Quote: "USDT"}.DisplayName())
	assert.Equal(t, "Euro", Instrument{Base: "EUR", Quote: "USD"}.DisplayName())
	assert.Equal(t, "ZZZ", Instrument{Base: "ZZZ", Quote: "USDT"}.DisplayName())
}

func TestCurrencySign(t *testing.T) {
	assert.Equal(t, "$", CurrencySign("USDT"))
	assert.Equal(t, "¥", CurrencySign("JPY"))
	assert.Equal(t, "CHF ", CurrencySign("CHF"))
}
