package news

import "strings"

// Tone labels returned by Tone.
const (
	ToneBullish = "bullish"
	ToneBearish = "bearish"
	ToneMixed   = "mixed"
)

// Keyword weights, matched as whole words or phrases against lowercased
// headlines.
var (
	bullishTerms = map[string]float64{
		"bullish": 0.7, "rally": 0.6, "rallies": 0.6, "surge": 0.7, "surges": 0.7,
		"soar": 0.7, "soars": 0.7, "gain": 0.4, "gains": 0.4, "rise": 0.4, "rises": 0.4,
		"upgrade": 0.6, "strong": 0.4, "recovery": 0.5, "rebound": 0.5,
		"breakout": 0.6, "record high": 0.7, "all time high": 0.7,
		"inflows": 0.5, "optimism": 0.5,
	}
	bearishTerms = map[string]float64{
		"bearish": 0.7, "crash": 0.8, "crashes": 0.8, "plunge": 0.7, "plunges": 0.7,
		"slump": 0.6, "slumps": 0.6, "tumble": 0.6, "tumbles": 0.6, "fall": 0.4, "falls": 0.4,
		"drop": 0.4, "drops": 0.4, "downgrade": 0.6, "weak": 0.4, "decline": 0.5,
		"selloff": 0.7, "sell-off": 0.7, "outflows": 0.5, "fraud": 0.8, "hack": 0.8,
		"ban": 0.6, "warning": 0.5, "fears": 0.5,
	}
)

// ScoreHeadline scores a headline from -1 (bearish) to +1 (bullish).
// matched is false when no keyword occurs.
func ScoreHeadline(headline string) (score float64, matched bool) {
	text := wordString(strings.ReplaceAll(headline, "-", " "))
	var bull, bear float64
	for term, w := range bullishTerms {
		if strings.Contains(text, " "+normalizeTerm(term)+" ") {
			bull += w
		}
	}
	for term, w := range bearishTerms {
		if strings.Contains(text, " "+normalizeTerm(term)+" ") {
			bear += w
		}
	}
	if bull+bear == 0 {
		return 0, false
	}
	return (bull - bear) / (bull + bear), true
}

// Tone summarises a set of headlines as bullish, bearish or mixed.
// It returns "" when no headline carries a signal.
func Tone(headlines []string) string {
	var sum float64
	n := 0
	for _, h := range headlines {
		if s, ok := ScoreHeadline(h); ok {
			sum += s
			n++
		}
	}
	if n == 0 {
		return ""
	}
	switch avg := sum / float64(n); {
	case avg > 0.2:
		return ToneBullish
	case avg < -0.2:
		return ToneBearish
	default:
		return ToneMixed
	}
}

func normalizeTerm(term string) string { return strings.ReplaceAll(term, "-", " ") }
