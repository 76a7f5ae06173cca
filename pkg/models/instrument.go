// Package models defines the value types shared across quotechat: tradable
// instruments, their asset classes and resolved quotes.
package models

import (
	"fmt"
	"strings"
)

// AssetClass identifies which family of quote providers can price an instrument.
type AssetClass string

const (
	ClassCrypto  AssetClass = "crypto"
	ClassForex   AssetClass = "forex"
	ClassMetal   AssetClass = "metal"
	ClassUnknown AssetClass = "unknown"
)

// Instrument is a normalized base/quote pair, e.g. EUR/USD or BTC/USDT.
// Instruments are values; two instruments are the same when base and quote match.
type Instrument struct {
	Base  string     `json:"base"`
	Quote string     `json:"quote"`
	Class AssetClass `json:"asset_class"`
}

// NewInstrument builds an instrument from raw codes, upper-casing them and
// assigning the class from the fixed classification table.
func NewInstrument(base, quote string) (Instrument, error) {
	inst := Instrument{
		Base:  strings.ToUpper(strings.TrimSpace(base)),
		Quote: strings.ToUpper(strings.TrimSpace(quote)),
	}
	inst.Class = ClassOf(inst.Base, inst.Quote)
	if err := inst.Validate(); err != nil {
		return Instrument{}, err
	}
	return inst, nil
}

// Symbol returns the slash form, e.g. "EUR/USD".
func (i Instrument) Symbol() string { return i.Base + "/" + i.Quote }

// Compact returns the separator-less form used by most exchange APIs, e.g. "BTCUSDT".
func (i Instrument) Compact() string { return i.Base + i.Quote }

func (i Instrument) String() string { return i.Symbol() }

// Equal reports whether two instruments name the same pair.
func (i Instrument) Equal(o Instrument) bool {
	return i.Base == o.Base && i.Quote == o.Quote
}

// IsZero reports whether the instrument is unset.
func (i Instrument) IsZero() bool { return i.Base == "" && i.Quote == "" }

// Validate checks the code shape and the base != quote invariant.
func (i Instrument) Validate() error {
	if !isCode(i.Base) {
		return fmt.Errorf("invalid base code %q", i.Base)
	}
	if !isCode(i.Quote) {
		return fmt.Errorf("invalid quote code %q", i.Quote)
	}
	if i.Base == i.Quote {
		return fmt.Errorf("base and quote must differ: %s", i.Base)
	}
	return nil
}

// ClassOf is the fixed classification table. Metals win over everything else,
// then any crypto leg makes the pair crypto, and two fiat legs make it forex.
func ClassOf(base, quote string) AssetClass {
	switch {
	case IsMetal(base) && IsFiat(quote):
		return ClassMetal
	case IsCrypto(base) || IsCrypto(quote):
		return ClassCrypto
	case IsFiat(base) && IsFiat(quote):
		return ClassForex
	default:
		return ClassUnknown
	}
}

// IsKnownCode reports whether code appears in any of the fixed tables.
func IsKnownCode(code string) bool {
	return IsFiat(code) || IsMetal(code) || IsCrypto(code)
}

// isCode reports whether s is 2–6 uppercase ASCII letters.
func isCode(s string) bool {
	if len(s) < 2 || len(s) > 6 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
