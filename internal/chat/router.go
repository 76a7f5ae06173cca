// Package chat implements the response router: one state machine cycle per
// inbound message, from classification through price resolution and
// prompting to a reply. Every cycle ends in a reply.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seenimoa/quotechat/internal/intent"
	"github.com/seenimoa/quotechat/internal/llm"
	"github.com/seenimoa/quotechat/internal/news"
	"github.com/seenimoa/quotechat/internal/persona"
	"github.com/seenimoa/quotechat/internal/prefs"
	"github.com/seenimoa/quotechat/pkg/models"
	"github.com/seenimoa/quotechat/pkg/utils"
)

// State is a step of the per-message state machine.
type State string

const (
	StateReceived      State = "received"
	StateClassified    State = "classified"
	StatePriceResolved State = "price_resolved"
	StateSkipped       State = "skipped"
	StatePrompted      State = "prompted"
	StateReplied       State = "replied"
)

// ReplyKind tells transports what sort of reply they are carrying.
type ReplyKind string

const (
	ReplyGreeting ReplyKind = "greeting"
	ReplyHelp     ReplyKind = "help"
	ReplyQuote    ReplyKind = "quote"
	ReplyNoData   ReplyKind = "no_data"
	ReplyGeneral  ReplyKind = "general"
	ReplyVision   ReplyKind = "vision"
	ReplyLanguage ReplyKind = "language"
	ReplyLLMError ReplyKind = "llm_error"
	ReplyError    ReplyKind = "error"
)

const genericFailure = "⚠️ Something went wrong. Please try again."

// Inbound is one message from a transport.
type Inbound struct {
	ConversationID string     `json:"conversation_id"`
	Text           string     `json:"text"`
	Image          *llm.Image `json:"-"`
}

// Reply is the router's answer to an Inbound.
type Reply struct {
	ConversationID string             `json:"conversation_id"`
	TurnID         string             `json:"turn_id"`
	Text           string             `json:"text"`
	Kind           ReplyKind          `json:"kind"`
	Language       string             `json:"language"`
	Instrument     *models.Instrument `json:"instrument,omitempty"`
	Quote          *models.Quote      `json:"quote,omitempty"`
	LLMProvider    string             `json:"llm_provider,omitempty"`
	Trace          []State            `json:"trace"`
}

// QuoteResolver resolves an instrument to a live quote.
type QuoteResolver interface {
	Resolve(ctx context.Context, inst models.Instrument) (*models.Quote, error)
}

// Headliner supplies recent headlines for an instrument. Failures yield
// an empty slice.
type Headliner interface {
	Headlines(ctx context.Context, inst models.Instrument) []string
}

// Router runs the state machine. It holds no per-conversation state of its
// own; the language preference lives in the prefs store.
type Router struct {
	resolver    QuoteResolver
	model       llm.LLMProvider
	personas    *persona.Catalogue
	prefs       prefs.Store
	news        Headliner
	suggestions []string
	diagMaxLen  int
	llmTimeout  time.Duration
	logger      *zap.Logger
	newID       func() string
}

// Option configures a Router.
type Option func(*Router)

// WithPersonas sets the persona catalogue. Default: the embedded one.
func WithPersonas(c *persona.Catalogue) Option {
	return func(r *Router) { r.personas = c }
}

// WithPrefs sets the conversation preference store. Default: in-memory.
func WithPrefs(s prefs.Store) Option {
	return func(r *Router) { r.prefs = s }
}

// WithNews enables headline enrichment of analysis prompts.
func WithNews(h Headliner) Option {
	return func(r *Router) { r.news = h }
}

// WithSuggestions sets the known-good instruments offered when no data is available.
func WithSuggestions(s []string) Option {
	return func(r *Router) { r.suggestions = s }
}

// WithDiagnosticMaxLen caps the length, in runes, of diagnostics shown to users.
func WithDiagnosticMaxLen(n int) Option {
	return func(r *Router) { r.diagMaxLen = n }
}

// WithLLMTimeout bounds each language model call.
func WithLLMTimeout(d time.Duration) Option {
	return func(r *Router) { r.llmTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithIDGenerator replaces the turn id generator.
func WithIDGenerator(f func() string) Option {
	return func(r *Router) { r.newID = f }
}

// NewRouter returns a router over the given resolver and model.
func NewRouter(resolver QuoteResolver, model llm.LLMProvider, opts ...Option) *Router {
	r := &Router{
		resolver:    resolver,
		model:       model,
		suggestions: []string{"BTC/USDT", "ETH/USDT", "EUR/USD", "GBP/USD", "XAU/USD"},
		diagMaxLen:  120,
		llmTimeout:  30 * time.Second,
		logger:      zap.NewNop(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.personas == nil {
		r.personas = persona.Default()
	}
	if r.prefs == nil {
		r.prefs = prefs.NewMemoryStore()
	}
	return r
}

// Languages returns the language tags the router can reply in.
func (r *Router) Languages() []string { return r.personas.Languages() }

// turn carries one cycle's working state.
type turn struct {
	in       Inbound
	lang     string
	reply    Reply
	start    time.Time
	provider string
}

func (t *turn) enter(s State) { t.reply.Trace = append(t.reply.Trace, s) }

// Handle runs one cycle for in. It always returns a reply; panics and
// errors inside the cycle become a failure reply.
func (r *Router) Handle(ctx context.Context, in Inbound) (reply Reply) {
	t := &turn{
		in:    in,
		start: time.Now(),
		reply: Reply{ConversationID: in.ConversationID, TurnID: r.newID()},
	}
	t.enter(StateReceived)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("turn panicked",
				zap.String("turn_id", t.reply.TurnID),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			t.reply.Text = r.render(t.lang, persona.FieldInternalError, persona.Vars{})
			t.reply.Kind = ReplyError
		}
		if n := len(t.reply.Trace); n == 0 || t.reply.Trace[n-1] != StateReplied {
			t.enter(StateReplied)
		}
		r.logTurn(t)
		reply = t.reply
	}()

	t.lang = r.language(ctx, in.ConversationID)
	t.reply.Language = t.lang

	if arg, ok := languageCommand(in.Text); ok {
		r.switchLanguage(ctx, t, arg)
		return
	}
	if in.Image != nil {
		r.handleVision(ctx, t)
		return
	}

	res := intent.Classify(in.Text)
	t.enter(StateClassified)

	switch res.Kind {
	case intent.KindGreeting:
		t.enter(StateSkipped)
		r.finish(t, ReplyGreeting, r.render(t.lang, persona.FieldGreeting, persona.Vars{}))
	case intent.KindHelp:
		t.enter(StateSkipped)
		r.finish(t, ReplyHelp, r.render(t.lang, persona.FieldHelp, persona.Vars{}))
	case intent.KindInstrument:
		r.handleInstrument(ctx, t, res.Instrument)
	default:
		t.enter(StateSkipped)
		r.handleGeneral(ctx, t)
	}
	return
}

func (r *Router) handleInstrument(ctx context.Context, t *turn, inst models.Instrument) {
	t.reply.Instrument = &inst

	quote, err := r.resolver.Resolve(ctx, inst)
	if err != nil {
		// Nothing to analyse: reply without spending a model call.
		r.logger.Debug("no quote", zap.String("instrument", inst.Symbol()), zap.Error(err))
		t.enter(StateSkipped)
		r.finish(t, ReplyNoData, r.render(t.lang, persona.FieldNoData, persona.Vars{
			Symbol:      inst.Symbol(),
			Suggestions: r.suggestions,
		}))
		return
	}
	t.enter(StatePriceResolved)
	t.reply.Quote = quote
	t.provider = quote.Source

	vars := persona.Vars{
		Symbol: inst.Symbol(),
		Name:   inst.DisplayName(),
		Price:  quote.DisplayPrice,
		Change: utils.FormatPct(quote.ChangePercent24h),
		Source: quote.Source,
		Text:   t.in.Text,
	}
	header := r.render(t.lang, persona.FieldHeader, vars)

	if !quote.HasChange() {
		vars.Change = ""
	}
	if r.news != nil {
		vars.Headlines = r.news.Headlines(ctx, inst)
		vars.Tone = news.Tone(vars.Headlines)
	}
	req := &llm.Request{
		System: r.render(t.lang, persona.FieldAnalyst, persona.Vars{}),
		Prompt: r.render(t.lang, persona.FieldAnalysisPrompt, vars),
	}
	analysis, err := r.ask(ctx, t, req)
	if err != nil {
		r.finish(t, ReplyLLMError, header+"\n\n"+r.llmError(t.lang, err))
		return
	}
	r.finish(t, ReplyQuote, header+"\n\n"+analysis)
}

func (r *Router) handleGeneral(ctx context.Context, t *turn) {
	req := &llm.Request{
		System: r.render(t.lang, persona.FieldSystem, persona.Vars{}),
		Prompt: r.render(t.lang, persona.FieldGeneralPrompt, persona.Vars{Text: t.in.Text}),
	}
	text, err := r.ask(ctx, t, req)
	if err != nil {
		r.finish(t, ReplyLLMError, r.llmError(t.lang, err))
		return
	}
	r.finish(t, ReplyGeneral, text)
}

// handleVision sends an image straight to the model; no classification or
// price resolution happens.
func (r *Router) handleVision(ctx context.Context, t *turn) {
	t.enter(StateSkipped)
	req := &llm.Request{
		System: r.render(t.lang, persona.FieldVision, persona.Vars{}),
		Prompt: r.render(t.lang, persona.FieldVisionPrompt, persona.Vars{Text: strings.TrimSpace(t.in.Text)}),
		Image:  t.in.Image,
	}
	text, err := r.ask(ctx, t, req)
	if err != nil {
		r.finish(t, ReplyLLMError, r.llmError(t.lang, err))
		return
	}
	r.finish(t, ReplyVision, text)
}

func (r *Router) ask(ctx context.Context, t *turn, req *llm.Request) (string, error) {
	t.enter(StatePrompted)
	if r.model == nil {
		return "", llm.ErrNoProviders
	}
	if r.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.llmTimeout)
		defer cancel()
	}
	resp, err := r.model.Chat(ctx, req)
	if err != nil {
		r.logger.Warn("llm call failed", zap.String("turn_id", t.reply.TurnID), zap.Error(err))
		return "", err
	}
	t.reply.LLMProvider = resp.Provider
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func (r *Router) switchLanguage(ctx context.Context, t *turn, arg string) {
	langs := r.personas.Languages()
	if arg == "" {
		r.finish(t, ReplyLanguage, r.render(t.lang, persona.FieldLanguageCurrent, persona.Vars{
			Language: t.lang, Languages: langs,
		}))
		return
	}
	if !r.personas.Has(arg) {
		r.finish(t, ReplyLanguage, r.render(t.lang, persona.FieldLanguageUnknown, persona.Vars{
			Language: arg, Languages: langs,
		}))
		return
	}

	lang := r.personas.Resolve(arg)
	if err := r.prefs.SetLanguage(ctx, t.in.ConversationID, lang); err != nil {
		r.logger.Warn("language not saved", zap.String("conversation_id", t.in.ConversationID), zap.Error(err))
		r.finish(t, ReplyError, r.render(t.lang, persona.FieldInternalError, persona.Vars{}))
		return
	}
	t.lang = lang
	t.reply.Language = lang
	r.finish(t, ReplyLanguage, r.render(lang, persona.FieldLanguageSet, persona.Vars{}))
}

func (r *Router) finish(t *turn, kind ReplyKind, text string) {
	t.reply.Kind = kind
	t.reply.Text = text
	t.enter(StateReplied)
}

// language returns the conversation's language, or the catalogue default.
func (r *Router) language(ctx context.Context, conversationID string) string {
	if conversationID != "" {
		lang, ok, err := r.prefs.Language(ctx, conversationID)
		if err != nil {
			r.logger.Warn("language lookup failed", zap.String("conversation_id", conversationID), zap.Error(err))
		}
		if ok {
			return r.personas.Resolve(lang)
		}
	}
	return r.personas.DefaultLanguage()
}

func (r *Router) render(lang string, field persona.Field, vars persona.Vars) string {
	text, err := r.personas.Render(lang, field, vars)
	if err != nil {
		r.logger.Error("persona render failed", zap.String("field", string(field)), zap.Error(err))
		return genericFailure
	}
	return text
}

func (r *Router) llmError(lang string, err error) string {
	return r.render(lang, persona.FieldLLMError, persona.Vars{Diagnostic: r.diagnostic(err)})
}

// diagnostic reduces an error to a short single-line string.
func (r *Router) diagnostic(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = "timed out"
	case errors.Is(err, llm.ErrNoProviders):
		msg = "no language model configured"
	}
	msg = strings.Join(strings.Fields(msg), " ")
	return utils.Truncate(msg, r.diagMaxLen)
}

func (r *Router) logTurn(t *turn) {
	fields := []zap.Field{
		zap.String("turn_id", t.reply.TurnID),
		zap.String("conversation_id", t.reply.ConversationID),
		zap.String("kind", string(t.reply.Kind)),
		zap.String("language", t.reply.Language),
		zap.Duration("latency", time.Since(t.start)),
	}
	if t.reply.Instrument != nil {
		fields = append(fields, zap.String("instrument", t.reply.Instrument.Symbol()))
	}
	if t.provider != "" {
		fields = append(fields, zap.String("provider", t.provider))
	}
	if t.reply.LLMProvider != "" {
		fields = append(fields, zap.String("llm", t.reply.LLMProvider))
	}
	r.logger.Info("turn", fields...)
}

// languageCommand recognises "/lang <tag>" and "/language <tag>", with an
// optional @bot suffix on the command.
func languageCommand(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	if cmd != "/lang" && cmd != "/language" {
		return "", false
	}
	if len(fields) < 2 {
		return "", true
	}
	return strings.ToLower(fields[1]), true
}

// TraceString renders the trace as "received → classified → …".
func (rep Reply) TraceString() string {
	parts := make([]string, len(rep.Trace))
	for i, s := range rep.Trace {
		parts[i] = string(s)
	}
	return strings.Join(parts, " → ")
}
