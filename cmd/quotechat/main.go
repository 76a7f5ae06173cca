// quotechat: conversational market quotes for crypto, forex and metals.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seenimoa/quotechat/internal/chat"
	"github.com/seenimoa/quotechat/internal/config"
	"github.com/seenimoa/quotechat/internal/llm"
	"github.com/seenimoa/quotechat/internal/logging"
	"github.com/seenimoa/quotechat/internal/news"
	"github.com/seenimoa/quotechat/internal/persona"
	"github.com/seenimoa/quotechat/internal/prefs"
	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/internal/providers"
	"github.com/seenimoa/quotechat/internal/resolver"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "quotechat",
	Short: "quotechat — live crypto, forex and metals quotes with LLM commentary",
	Long: `quotechat answers questions like "analyze EUR/USD" or "BTC price" with a
live quote from a chain of market data providers and a short analysis
written by a language model. It runs as an HTTP/WebSocket service or as
an interactive terminal chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("quotechat %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Wiring ---

// app is the fully wired set of components shared by the commands.
type app struct {
	registry *provider.Registry
	resolver *resolver.Resolver
	model    *llm.Router
	prefs    prefs.Store
	chat     *chat.Router
}

// buildApp wires every component from the loaded configuration. A missing
// language model is not fatal: the router then answers with its error reply.
func buildApp(ctx context.Context) (*app, error) {
	reg, err := providers.NewRegistry(cfg.Providers, logger)
	if err != nil {
		return nil, err
	}
	res := resolver.New(reg,
		resolver.WithTimeout(cfg.Providers.Timeout),
		resolver.WithLogger(logger.Named("resolver")),
	)

	catalogue, err := persona.Load(cfg.Chat.PersonasFile)
	if err != nil {
		return nil, err
	}
	store, err := prefs.New(cfg.Prefs)
	if err != nil {
		return nil, err
	}

	opts := []chat.Option{
		chat.WithPersonas(catalogue),
		chat.WithPrefs(store),
		chat.WithSuggestions(cfg.Chat.Suggestions),
		chat.WithDiagnosticMaxLen(cfg.Chat.DiagnosticMaxLen),
		chat.WithLLMTimeout(cfg.LLM.Timeout),
		chat.WithLogger(logger.Named("chat")),
	}
	if cfg.News.Enabled {
		opts = append(opts, chat.WithNews(news.New(cfg.News, logger.Named("news"))))
	}

	a := &app{registry: reg, resolver: res, prefs: store}
	model, err := llm.NewRouterFromConfig(ctx, cfg.LLM, logger.Named("llm"))
	if err != nil {
		logger.Warn("no language model available; analysis replies will fail", zap.Error(err))
		a.chat = chat.NewRouter(res, nil, opts...)
		return a, nil
	}
	a.model = model
	a.chat = chat.NewRouter(res, model, opts...)
	return a, nil
}

func (a *app) Close() {
	if err := a.prefs.Close(); err != nil {
		logger.Warn("closing preference store", zap.Error(err))
	}
}
