package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/finbuddy/internal/common"
	"github.com/Veraticus/finbuddy/internal/llm"
	"github.com/Veraticus/finbuddy/internal/sheets"
	"github.com/spf13/viper"
)

// Config is the full set of settings the commands need.
type Config struct {
	Database   DatabaseConfig
	Logging    LoggingConfig
	Server     ServerConfig
	Plaid      PlaidConfig
	LLM        llm.Config
	Sheets     sheets.Config
	Assistant  AssistantConfig
	Categorize CategorizeConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string
	JWTSecret       string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

// PlaidConfig holds Plaid API credentials.
type PlaidConfig struct {
	ClientID    string
	Secret      string
	Environment string
	AccessToken string
}

// AssistantConfig sets the transaction window the assistant and insights see.
type AssistantConfig struct {
	WindowDays int
}

// Window returns the assistant window as a duration.
func (c AssistantConfig) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// CategorizeConfig tunes the batch categorizer.
type CategorizeConfig struct {
	Workers int
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(DefaultDir(), "finbuddy.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.token_ttl", 7*24*time.Hour)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)

	v.SetDefault("llm.provider", llm.ProviderGemini)
	v.SetDefault("llm.temperature", llm.DefaultTemperature)
	v.SetDefault("llm.max_tokens", llm.DefaultMaxTokens)
	v.SetDefault("llm.timeout", llm.DefaultTimeout)
	v.SetDefault("llm.rate_limit", llm.DefaultRateLimit)
	v.SetDefault("llm.cache_ttl", time.Hour)

	v.SetDefault("plaid.environment", "sandbox")

	v.SetDefault("assistant.window_days", 30)
	v.SetDefault("categorize.workers", 4)

	sheetDefaults := sheets.DefaultConfig()
	v.SetDefault("sheets.spreadsheet_name", sheetDefaults.SpreadsheetName)
	v.SetDefault("sheets.timezone", sheetDefaults.TimeZone)
	v.SetDefault("sheets.batch_size", sheetDefaults.BatchSize)
	v.SetDefault("sheets.retry_attempts", sheetDefaults.RetryAttempts)
	v.SetDefault("sheets.retry_delay", sheetDefaults.RetryDelay)
	v.SetDefault("sheets.enable_formatting", sheetDefaults.EnableFormatting)
}

// Load builds a Config from v. Provider keys fall back to their conventional
// environment variables (GEMINI_API_KEY and friends) when unset.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			JWTSecret:       firstNonEmpty(v.GetString("server.jwt_secret"), os.Getenv("JWT_SECRET")),
			TokenTTL:        v.GetDuration("server.token_ttl"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			MaxUploadBytes:  v.GetInt64("server.max_upload_bytes"),
		},
		Plaid: PlaidConfig{
			ClientID:    firstNonEmpty(v.GetString("plaid.client_id"), os.Getenv("PLAID_CLIENT_ID")),
			Secret:      firstNonEmpty(v.GetString("plaid.secret"), os.Getenv("PLAID_SECRET")),
			Environment: v.GetString("plaid.environment"),
			AccessToken: firstNonEmpty(v.GetString("plaid.access_token"), os.Getenv("PLAID_ACCESS_TOKEN")),
		},
		Assistant: AssistantConfig{
			WindowDays: v.GetInt("assistant.window_days"),
		},
		Categorize: CategorizeConfig{
			Workers: v.GetInt("categorize.workers"),
		},
	}

	provider := strings.ToLower(v.GetString("llm.provider"))
	cfg.LLM = llm.Config{
		Provider:    provider,
		APIKey:      firstNonEmpty(v.GetString("llm.api_key"), providerKeyFromEnv(provider)),
		Model:       v.GetString("llm.model"),
		BaseURL:     v.GetString("llm.base_url"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		Timeout:     v.GetDuration("llm.timeout"),
		RateLimit:   v.GetInt("llm.rate_limit"),
		CacheTTL:    v.GetDuration("llm.cache_ttl"),
	}

	cfg.Sheets = loadSheets(v)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string
	if c.Database.Path == "" {
		problems = append(problems, "database.path is empty")
	}
	if c.Assistant.WindowDays <= 0 {
		problems = append(problems, fmt.Sprintf("assistant.window_days must be positive, got %d", c.Assistant.WindowDays))
	}
	if c.Categorize.Workers <= 0 {
		problems = append(problems, fmt.Sprintf("categorize.workers must be positive, got %d", c.Categorize.Workers))
	}
	if c.LLM.Timeout <= 0 {
		problems = append(problems, "llm.timeout must be positive")
	}
	if c.Server.TokenTTL <= 0 {
		problems = append(problems, "server.token_ttl must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// RequireLLM reports whether an AI provider can be constructed.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: no API key for llm provider %q (set llm.api_key or %s)",
			common.ErrMissingConfig, c.LLM.Provider, providerKeyEnv(c.LLM.Provider))
	}
	return nil
}

// RequireJWTSecret reports whether bearer tokens can be issued.
func (c *Config) RequireJWTSecret() error {
	if c.Server.JWTSecret == "" {
		return fmt.Errorf("%w: server.jwt_secret (or JWT_SECRET) is not set", common.ErrMissingConfig)
	}
	return nil
}

// loadSheets reads sheets.* keys, falling back to GOOGLE_SHEETS_* variables.
func loadSheets(v *viper.Viper) sheets.Config {
	cfg := sheets.DefaultConfig()

	cfg.ServiceAccountPath = ExpandPath(firstNonEmpty(
		v.GetString("sheets.service_account_path"), os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")))
	cfg.ClientID = firstNonEmpty(v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	cfg.ClientSecret = firstNonEmpty(v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	cfg.RefreshToken = firstNonEmpty(v.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	cfg.SpreadsheetID = firstNonEmpty(v.GetString("sheets.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	cfg.SpreadsheetName = v.GetString("sheets.spreadsheet_name")
	cfg.TimeZone = v.GetString("sheets.timezone")
	cfg.BatchSize = v.GetInt("sheets.batch_size")
	cfg.RetryAttempts = v.GetInt("sheets.retry_attempts")
	cfg.RetryDelay = v.GetDuration("sheets.retry_delay")
	cfg.EnableFormatting = v.GetBool("sheets.enable_formatting")

	return cfg
}

func providerKeyEnv(provider string) string {
	switch provider {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

func providerKeyFromEnv(provider string) string {
	return os.Getenv(providerKeyEnv(provider))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
