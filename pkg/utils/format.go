// Package utils provides formatting and time helpers shared by quotechat.
package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// smallPriceThreshold is the boundary between the two precision regimes:
// prices at or above one unit get 2 decimals, smaller prices get 6.
var smallPriceThreshold = decimal.NewFromInt(1)

// FormatPrice renders a price with the given currency prefix, e.g.
// FormatPrice(42000, "$") → "$42,000.00" and FormatPrice(0.5, "$") → "$0.500000".
// The threshold is identical for every asset class.
func FormatPrice(price decimal.Decimal, prefix string) string {
	negative := price.IsNegative()
	abs := price.Abs()

	var fixed string
	if abs.GreaterThanOrEqual(smallPriceThreshold) {
		fixed = abs.StringFixed(2)
	} else {
		fixed = abs.StringFixed(6)
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	formatted := groupThousands(intPart) + "." + fracPart

	if negative {
		return "-" + prefix + formatted
	}
	return prefix + formatted
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// Truncate shortens s to at most n runes, appending "…" when it cuts.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}

// groupThousands inserts a comma between every group of three digits.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
