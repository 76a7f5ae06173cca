// Package intent classifies inbound chat text into an instrument query, a
// greeting, a help request or a general question. Classification is pure:
// no I/O, no state, the same text always yields the same result.
package intent

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/seenimoa/quotechat/pkg/models"
)

// Kind is the tag of a classification result.
type Kind string

const (
	KindInstrument Kind = "instrument_query"
	KindGreeting   Kind = "greeting"
	KindHelp       Kind = "help"
	KindGeneral    Kind = "general"
)

// Rule names the rule that produced a result.
type Rule string

const (
	RuleCommand      Rule = "command"
	RuleGreeting     Rule = "greeting"
	RuleSlashPair    Rule = "slash_pair"
	RuleUSDTPair     Rule = "usdt_pair"
	RuleTickerAction Rule = "ticker_action"
	RuleBareSymbol   Rule = "bare_symbol"
	RuleHelp         Rule = "help"
	RuleGeneral      Rule = "general"
)

// rulePriority is the disambiguation order; the first rule that matches wins.
//
//	command        /start, /help
//	greeting       greeting vocabulary, only when no instrument rule below matches
//	slash_pair     AAA/BBB, three letters each side
//	usdt_pair      X/USDT, two to six letters
//	ticker_action  allow-listed crypto ticker plus an action verb → TICKER/USDT
//	bare_symbol    GBPJPY split 3/3 when both halves are known codes, or TICKERUSDT
//	help           help and capability vocabulary
//	general        everything else
//
// Separator-based pairs must stay ahead of bare_symbol.
var rulePriority = []Rule{
	RuleCommand,
	RuleGreeting,
	RuleSlashPair,
	RuleUSDTPair,
	RuleTickerAction,
	RuleBareSymbol,
	RuleHelp,
	RuleGeneral,
}

// instrumentRules is the instrument sub-order, in priority.
var instrumentRules = []Rule{RuleSlashPair, RuleUSDTPair, RuleTickerAction, RuleBareSymbol}

// Result is the tagged classification variant. Instrument is set only for
// KindInstrument; Text carries the raw input for KindGeneral.
type Result struct {
	Kind       Kind              `json:"kind"`
	Instrument models.Instrument `json:"instrument"`
	Text       string            `json:"text,omitempty"`
	Rule       Rule              `json:"rule"`
}

func (r Result) String() string {
	if r.Kind == KindInstrument {
		return fmt.Sprintf("%s(%s,%s)", r.Kind, r.Instrument.Symbol(), r.Instrument.Class)
	}
	return string(r.Kind)
}

var (
	slashPairRe = regexp.MustCompile(`\b([A-Z]{3})/([A-Z]{3})\b`)
	usdtPairRe  = regexp.MustCompile(`\b([A-Z]{2,6})/USDT\b`)
)

// input is the normalized view of one message shared by all rules.
type input struct {
	raw       string
	upper     string
	tokens    []string
	rawTokens []string // tokens[i] as typed
	joined    string   // " TOK1 TOK2 … " for phrase lookup
}

func newInput(text string) input {
	trimmed := strings.TrimSpace(text)
	rawTokens := strings.FieldsFunc(trimmed, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})
	tokens := make([]string, len(rawTokens))
	for i, tok := range rawTokens {
		tokens[i] = strings.ToUpper(tok)
	}
	return input{
		raw:       text,
		upper:     strings.ToUpper(trimmed),
		tokens:    tokens,
		rawTokens: rawTokens,
		joined:    " " + strings.Join(tokens, " ") + " ",
	}
}

func (in input) hasAny(vocab []string) bool {
	for _, w := range vocab {
		if strings.Contains(in.joined, " "+w+" ") {
			return true
		}
	}
	return false
}

// Classify runs the prioritized rules over text.
func Classify(text string) Result {
	in := newInput(text)
	for _, rule := range rulePriority {
		if res, ok := match(rule, in); ok {
			return res
		}
	}
	return Result{Kind: KindGeneral, Text: text, Rule: RuleGeneral}
}

func match(rule Rule, in input) (Result, bool) {
	switch rule {
	case RuleCommand:
		return matchCommand(in)
	case RuleGreeting:
		if in.hasAny(greetingVocabulary) && !hasInstrument(in) {
			return Result{Kind: KindGreeting, Rule: RuleGreeting}, true
		}
	case RuleSlashPair, RuleUSDTPair, RuleTickerAction, RuleBareSymbol:
		if inst, ok := matchInstrument(rule, in); ok {
			return Result{Kind: KindInstrument, Instrument: inst, Rule: rule}, true
		}
	case RuleHelp:
		if in.hasAny(helpVocabulary) {
			return Result{Kind: KindHelp, Rule: RuleHelp}, true
		}
	case RuleGeneral:
		return Result{Kind: KindGeneral, Text: in.raw, Rule: RuleGeneral}, true
	}
	return Result{}, false
}

func matchInstrument(rule Rule, in input) (models.Instrument, bool) {
	switch rule {
	case RuleSlashPair:
		return matchPairs(slashPairRe, in.upper, "")
	case RuleUSDTPair:
		return matchPairs(usdtPairRe, in.upper, "USDT")
	case RuleTickerAction:
		return matchTickerAction(in)
	case RuleBareSymbol:
		return matchBareSymbol(in)
	}
	return models.Instrument{}, false
}

func hasInstrument(in input) bool {
	for _, rule := range instrumentRules {
		if _, ok := matchInstrument(rule, in); ok {
			return true
		}
	}
	return false
}

func matchCommand(in input) (Result, bool) {
	if !strings.HasPrefix(in.upper, "/") {
		return Result{}, false
	}
	cmd, _, _ := strings.Cut(strings.Fields(in.upper)[0], "@")
	switch cmd {
	case "/START":
		return Result{Kind: KindGreeting, Rule: RuleCommand}, true
	case "/HELP":
		return Result{Kind: KindHelp, Rule: RuleCommand}, true
	}
	return Result{}, false
}

// matchPairs returns the leftmost valid pair. When quote is empty the
// second capture group is the quote.
func matchPairs(re *regexp.Regexp, s, quote string) (models.Instrument, bool) {
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		q := quote
		if q == "" {
			q = m[2]
		}
		if inst, err := models.NewInstrument(m[1], q); err == nil {
			return inst, true
		}
	}
	return models.Instrument{}, false
}

func matchTickerAction(in input) (models.Instrument, bool) {
	if !in.hasAny(actionVerbs) {
		return models.Instrument{}, false
	}
	for i, tok := range in.tokens {
		if wordLikeTickers[tok] && in.rawTokens[i] != tok {
			continue
		}
		if models.IsCrypto(tok) && !models.IsStablecoin(tok) {
			if inst, err := models.NewInstrument(tok, "USDT"); err == nil {
				return inst, true
			}
		}
	}
	return models.Instrument{}, false
}

func matchBareSymbol(in input) (models.Instrument, bool) {
	for _, tok := range in.tokens {
		if inst, ok := splitBareSymbol(tok); ok {
			return inst, true
		}
	}
	return models.Instrument{}, false
}

// splitBareSymbol splits TICKERUSDT on an allow-listed ticker, or a six
// letter run 3/3 when both halves are known codes.
func splitBareSymbol(tok string) (models.Instrument, bool) {
	for _, q := range bareSymbolQuotes {
		if base, ok := strings.CutSuffix(tok, q); ok && models.IsCrypto(base) && !models.IsStablecoin(base) {
			if inst, err := models.NewInstrument(base, q); err == nil {
				return inst, true
			}
		}
	}
	if len(tok) == 6 && models.IsKnownCode(tok[:3]) && models.IsKnownCode(tok[3:]) {
		if inst, err := models.NewInstrument(tok[:3], tok[3:]); err == nil {
			return inst, true
		}
	}
	return models.Instrument{}, false
}

// ParseInstrument parses a standalone pair such as "EUR/USD", "eur-usd",
// "BTC_USDT", "GBPJPY" or "btcusdt".
func ParseInstrument(s string) (models.Instrument, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "/", "_", "/", " ", "").Replace(norm)

	if base, quote, ok := strings.Cut(norm, "/"); ok {
		return models.NewInstrument(base, quote)
	}
	if inst, ok := splitBareSymbol(norm); ok {
		return inst, nil
	}
	if len(norm) == 6 {
		return models.NewInstrument(norm[:3], norm[3:])
	}
	return models.Instrument{}, fmt.Errorf("cannot parse instrument %q", s)
}
