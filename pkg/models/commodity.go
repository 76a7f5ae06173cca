package models

// metals maps precious-metal ISO codes to their names. Prices are per troy ounce.
var metals = map[string]string{
	"XAU": "Gold",
	"XAG": "Silver",
	"XPT": "Platinum",
	"XPD": "Palladium",
}

// IsMetal reports whether code is a precious-metal code.
func IsMetal(code string) bool {
	_, ok := metals[code]
	return ok
}

// MetalName returns the metal's name, or the code itself.
func MetalName(code string) string {
	if name, ok := metals[code]; ok {
		return name
	}
	return code
}

// DisplayName returns a human-readable name for the instrument's base leg.
func (i Instrument) DisplayName() string {
	switch {
	case IsMetal(i.Base):
		return MetalName(i.Base)
	case IsCrypto(i.Base):
		return CryptoName(i.Base)
	default:
		return FiatName(i.Base)
	}
}
