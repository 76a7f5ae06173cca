// Package api provides the HTTP and WebSocket transport for quotechat.
//
// It exposes the chat router, the intent classifier and the price resolver
// as JSON endpoints, plus a WebSocket channel for chat clients.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/quotechat/internal/chat"
	"github.com/seenimoa/quotechat/internal/config"
	"github.com/seenimoa/quotechat/internal/intent"
	"github.com/seenimoa/quotechat/internal/llm"
	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/internal/resolver"
	"github.com/seenimoa/quotechat/pkg/models"
	"github.com/seenimoa/quotechat/pkg/utils"
)

// maxBodyBytes bounds request bodies; chart screenshots arrive base64 encoded.
const maxBodyBytes = 8 << 20

// Deps are the components the server exposes.
type Deps struct {
	Chat     *chat.Router
	Resolver chat.QuoteResolver
	Registry *provider.Registry
	Logger   *zap.Logger
	Version  string
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      config.APIConfig
	chat     *chat.Router
	resolver chat.QuoteResolver
	registry *provider.Registry
	wsHub    *WSHub
	logger   *zap.Logger
	version  string
	started  time.Time
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg config.APIConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{
		cfg:      cfg,
		chat:     deps.Chat,
		resolver: deps.Resolver,
		registry: deps.Registry,
		wsHub:    NewWSHub(),
		logger:   logger,
		version:  version,
		started:  time.Now(),
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.wsHub.CloseAll()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.CORSOrigins) > 0 {
		origins = s.cfg.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// The WebSocket route must not sit behind the timeout middleware.
		r.Get("/ws/chat", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(90 * time.Second))
			r.Post("/chat", s.handleChat)
			r.Post("/classify", s.handleClassify)
			r.Get("/quote/{pair}", s.handleQuote)
			r.Get("/providers", s.handleProviders)
		})
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ChatRequest is the body for POST /api/v1/chat and the data of a
// WebSocket "chat" message.
type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	Image          string `json:"image,omitempty"`      // base64
	ImageMIME      string `json:"image_mime,omitempty"` // sniffed when empty
}

// ClassifyRequest is the body for POST /api/v1/classify.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// NoDataResponse explains a failed quote lookup.
type NoDataResponse struct {
	Instrument models.Instrument `json:"instrument"`
	Tried      []string          `json:"tried"`
}

// ProvidersResponse is returned by GET /api/v1/providers.
type ProvidersResponse struct {
	Adapters []provider.AdapterInfo         `json:"adapters"`
	Chains   map[models.AssetClass][]string `json:"chains"`
	Missing  []string                       `json:"missing,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    s.version,
			"uptime":     time.Since(s.started).Round(time.Second).String(),
			"ws_clients": s.wsHub.ClientCount(),
			"time":       utils.NowUTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.inbound()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply := s.chat.Handle(r.Context(), in)
	s.publishQuote(reply)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: reply})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: intent.Classify(req.Text)})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	inst, err := intent.ParseInstrument(chi.URLParam(r, "pair"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := s.resolver.Resolve(r.Context(), inst)
	if err != nil {
		var noData *resolver.NoDataError
		if errors.As(err, &noData) {
			writeJSON(w, http.StatusNotFound, APIResponse{
				Success: false,
				Error:   "no data available for " + inst.Symbol(),
				Data:    NoDataResponse{Instrument: inst, Tried: noData.Providers()},
			})
			return
		}
		writeError(w, http.StatusBadGateway, "quote lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: quote})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: ProvidersResponse{}})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ProvidersResponse{
			Adapters: s.registry.List(),
			Chains:   s.registry.Chains(),
			Missing:  s.registry.Missing(),
		},
	})
}

// ============================================================
// Helpers
// ============================================================

// inbound converts a transport request into a router message.
func (req ChatRequest) inbound() (chat.Inbound, error) {
	in := chat.Inbound{ConversationID: req.ConversationID, Text: req.Message}
	if in.ConversationID == "" {
		return in, errors.New("conversation_id is required")
	}
	if req.Image == "" {
		if in.Text == "" {
			return in, errors.New("message is required")
		}
		return in, nil
	}
	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return in, errors.New("image must be base64 encoded")
	}
	img, err := llm.NewImage(data, req.ImageMIME)
	if err != nil {
		return in, err
	}
	in.Image = img
	return in, nil
}

// publishQuote pushes resolved quotes to every WebSocket client.
func (s *Server) publishQuote(reply chat.Reply) {
	if reply.Quote == nil {
		return
	}
	s.wsHub.Broadcast("quote", reply.Quote)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
