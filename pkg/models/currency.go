package models

// fiatCurrencies lists ISO 4217 codes the forex providers can be asked about.
var fiatCurrencies = map[string]string{
	"USD": "US Dollar",
	"EUR": "Euro",
	"GBP": "British Pound",
	"JPY": "Japanese Yen",
	"CHF": "Swiss Franc",
	"CAD": "Canadian Dollar",
	"AUD": "Australian Dollar",
	"NZD": "New Zealand Dollar",
	"CNY": "Chinese Yuan",
	"HKD": "Hong Kong Dollar",
	"SGD": "Singapore Dollar",
	"SEK": "Swedish Krona",
	"NOK": "Norwegian Krone",
	"DKK": "Danish Krone",
	"PLN": "Polish Zloty",
	"CZK": "Czech Koruna",
	"HUF": "Hungarian Forint",
	"RON": "Romanian Leu",
	"TRY": "Turkish Lira",
	"ZAR": "South African Rand",
	"MXN": "Mexican Peso",
	"BRL": "Brazilian Real",
	"INR": "Indian Rupee",
	"IDR": "Indonesian Rupiah",
	"KRW": "South Korean Won",
	"THB": "Thai Baht",
	"MYR": "Malaysian Ringgit",
	"PHP": "Philippine Peso",
	"ILS": "Israeli Shekel",
	"ISK": "Icelandic Krona",
	"RUB": "Russian Ruble",
	"AED": "UAE Dirham",
	"SAR": "Saudi Riyal",
}

// currencySigns maps quote currencies to the prefix used in display prices.
var currencySigns = map[string]string{
	"USD":   "$",
	"USDT":  "$",
	"USDC":  "$",
	"FDUSD": "$",
	"EUR":   "€",
	"GBP":   "£",
	"JPY":   "¥",
	"CNY":   "¥",
	"INR":   "₹",
	"KRW":   "₩",
	"TRY":   "₺",
	"RUB":   "₽",
}

// IsFiat reports whether code is a known fiat currency.
func IsFiat(code string) bool {
	_, ok := fiatCurrencies[code]
	return ok
}

// FiatName returns the English name of a fiat currency, or the code itself.
func FiatName(code string) string {
	if name, ok := fiatCurrencies[code]; ok {
		return name
	}
	return code
}

// FiatCodes returns all known fiat codes in no particular order.
func FiatCodes() []string {
	codes := make([]string, 0, len(fiatCurrencies))
	for c := range fiatCurrencies {
		codes = append(codes, c)
	}
	return codes
}

// CurrencySign returns the display prefix for a quote currency: a symbol such
// as "$" when one is known, otherwise the code followed by a space.
func CurrencySign(code string) string {
	if s, ok := currencySigns[code]; ok {
		return s
	}
	return code + " "
}
