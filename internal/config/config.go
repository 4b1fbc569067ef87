package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/spf13/viper"

	"sales-dashboard/internal/ledger"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `mapstructure:"rate_limit_enabled"`
	RateLimitRPS    int      `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int      `mapstructure:"rate_limit_burst"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	TrustedProxies  []string `mapstructure:"trusted_proxies"`
}

// LedgerConfig selects the export format and the aggregation defaults.
type LedgerConfig struct {
	Variant       string   `mapstructure:"variant"`
	ItemPrefix    string   `mapstructure:"item_prefix"`
	GridStepDays  int      `mapstructure:"grid_step_days"`
	DefaultWindow int      `mapstructure:"default_window"`
	Currency      string   `mapstructure:"currency"`
	Preload       []string `mapstructure:"preload"`
	MaxUploadMB   int64    `mapstructure:"max_upload_mb"`
}

// Load reads defaults, an optional TOML file named by DASHBOARD_CONFIG, and
// environment overrides such as SERVER_PORT or LEDGER_VARIANT.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8084)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("security.rate_limit_enabled", true)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 10)
	v.SetDefault("security.allowed_origins", []string{"http://localhost:8084"})
	v.SetDefault("security.trusted_proxies", []string{"127.0.0.1"})

	v.SetDefault("ledger.variant", "")
	v.SetDefault("ledger.item_prefix", " - ")
	v.SetDefault("ledger.grid_step_days", 7)
	v.SetDefault("ledger.default_window", 30)
	v.SetDefault("ledger.currency", "USD")
	v.SetDefault("ledger.preload", []string{})
	v.SetDefault("ledger.max_upload_mb", 32)

	v.SetConfigType("toml")
	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	if _, err := c.Ledger.ParseVariant(); err != nil {
		return fmt.Errorf("LEDGER_VARIANT: %w", err)
	}

	if c.Ledger.GridStepDays <= 0 {
		return fmt.Errorf("grid step must be positive, got %d days", c.Ledger.GridStepDays)
	}

	if c.Ledger.DefaultWindow <= 0 {
		return fmt.Errorf("default moving average window must be positive, got %d days", c.Ledger.DefaultWindow)
	}

	if money.GetCurrency(c.Ledger.Currency) == nil {
		return fmt.Errorf("unknown currency %q", c.Ledger.Currency)
	}

	if c.Ledger.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	return nil
}

func (l LedgerConfig) ParseVariant() (ledger.Variant, error) {
	return ledger.ParseVariant(l.Variant)
}

func (l LedgerConfig) MaxUploadBytes() int64 {
	return l.MaxUploadMB << 20
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
