// Package config handles configuration loading for quotechat.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. QUOTECHAT_LLM_MODEL.
const EnvPrefix = "QUOTECHAT"

// Config represents the complete application configuration.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"       yaml:"llm"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Chat      ChatConfig      `mapstructure:"chat"      yaml:"chat"`
	Prefs     PrefsConfig     `mapstructure:"prefs"     yaml:"prefs"`
	News      NewsConfig      `mapstructure:"news"      yaml:"news"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// LLMConfig holds language model provider configuration.
type LLMConfig struct {
	Primary      string        `mapstructure:"primary"       yaml:"primary"` // "openai", "ollama", "gemini", "anthropic"
	OpenAIKey    string        `mapstructure:"openai_key"    yaml:"openai_key"`
	OllamaURL    string        `mapstructure:"ollama_url"    yaml:"ollama_url"`
	GeminiKey    string        `mapstructure:"gemini_key"    yaml:"gemini_key"`
	AnthropicKey string        `mapstructure:"anthropic_key" yaml:"anthropic_key"`
	Model        string        `mapstructure:"model"         yaml:"model"`
	Temperature  float64       `mapstructure:"temperature"   yaml:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens"    yaml:"max_tokens"`
	Timeout      time.Duration `mapstructure:"timeout"       yaml:"timeout"`
}

// ProvidersConfig holds quote adapter settings.
type ProvidersConfig struct {
	Timeout            time.Duration     `mapstructure:"timeout"             yaml:"timeout"`
	RateLimit          int               `mapstructure:"rate_limit"          yaml:"rate_limit"` // requests/second per adapter
	FreeCurrencyAPIKey string            `mapstructure:"freecurrencyapi_key" yaml:"freecurrencyapi_key"`
	GoldAPIKey         string            `mapstructure:"goldapi_key"         yaml:"goldapi_key"`
	BaseURLs           map[string]string `mapstructure:"base_urls"           yaml:"base_urls"` // adapter name → base URL override
	Chains             ChainsConfig      `mapstructure:"chains"              yaml:"chains"`
}

// ChainsConfig lists adapter names tried, in order, per asset class.
type ChainsConfig struct {
	Crypto []string `mapstructure:"crypto" yaml:"crypto"`
	Forex  []string `mapstructure:"forex"  yaml:"forex"`
	Metal  []string `mapstructure:"metal"  yaml:"metal"`
}

// ChatConfig holds response router settings.
type ChatConfig struct {
	DefaultLanguage  string   `mapstructure:"default_language"   yaml:"default_language"`
	Suggestions      []string `mapstructure:"suggestions"        yaml:"suggestions"`
	DiagnosticMaxLen int      `mapstructure:"diagnostic_max_len" yaml:"diagnostic_max_len"`
	PersonasFile     string   `mapstructure:"personas_file"      yaml:"personas_file"` // empty = embedded catalogue
}

// PrefsConfig selects the conversation preference store.
type PrefsConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "memory" or "sqlite"
	DSN    string `mapstructure:"dsn"    yaml:"dsn"`
}

// NewsConfig holds optional headline enrichment settings.
type NewsConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Feeds   []string      `mapstructure:"feeds"   yaml:"feeds"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Limit   int           `mapstructure:"limit"   yaml:"limit"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.quotechat/config.yaml (home directory)
//  3. /etc/quotechat/config.yaml (system)
//
// A .env file in the working directory is loaded first, if present.
// Environment variables override config file values.
// Format: QUOTECHAT_<SECTION>_<KEY>, e.g., QUOTECHAT_LLM_OPENAI_KEY
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".quotechat"))
	v.AddConfigPath("/etc/quotechat")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	var errs []error
	if c.Providers.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("providers.timeout must be positive, got %s", c.Providers.Timeout))
	}
	if c.Chat.DiagnosticMaxLen <= 0 {
		errs = append(errs, fmt.Errorf("chat.diagnostic_max_len must be positive, got %d", c.Chat.DiagnosticMaxLen))
	}
	switch c.Prefs.Driver {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("prefs.driver must be memory or sqlite, got %q", c.Prefs.Driver))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Addr returns the API listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.primary", "openai")
	v.SetDefault("llm.openai_key", "")
	v.SetDefault("llm.gemini_key", "")
	v.SetDefault("llm.anthropic_key", "")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", "30s")

	// Provider defaults
	v.SetDefault("providers.timeout", "8s")
	v.SetDefault("providers.rate_limit", 5)
	v.SetDefault("providers.freecurrencyapi_key", "")
	v.SetDefault("providers.goldapi_key", "")
	v.SetDefault("providers.chains.crypto", []string{"binance", "yfinance"})
	v.SetDefault("providers.chains.forex", []string{"freecurrencyapi", "exchangerate", "frankfurter", "xrates", "yfinance"})
	v.SetDefault("providers.chains.metal", []string{"goldapi", "yfinance"})

	// Chat defaults
	v.SetDefault("chat.default_language", "en")
	v.SetDefault("chat.suggestions", []string{"BTC/USDT", "ETH/USDT", "EUR/USD", "GBP/USD", "XAU/USD"})
	v.SetDefault("chat.diagnostic_max_len", 120)
	v.SetDefault("chat.personas_file", "")

	// Preference store defaults
	v.SetDefault("prefs.driver", "memory")
	v.SetDefault("prefs.dsn", "quotechat.db")

	// News defaults
	v.SetDefault("news.enabled", false)
	v.SetDefault("news.feeds", []string{
		"https://www.coindesk.com/arc/outboundfeeds/rss/",
		"https://www.fxstreet.com/rss/news",
	})
	v.SetDefault("news.timeout", "3s")
	v.SetDefault("news.limit", 3)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv fills secrets from the vendors' conventional variable
// names when the prefixed ones are not set.
func overrideFromEnv(cfg *Config) {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&cfg.LLM.OpenAIKey, "OPENAI_API_KEY")
	fill(&cfg.LLM.GeminiKey, "GEMINI_API_KEY")
	fill(&cfg.LLM.AnthropicKey, "ANTHROPIC_API_KEY")
	fill(&cfg.Providers.FreeCurrencyAPIKey, "FREECURRENCYAPI_KEY")
	fill(&cfg.Providers.GoldAPIKey, "GOLDAPI_KEY")
}

// loadDotEnv loads ./.env into the process environment. Existing variables
// win; a missing file is not an error.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
