package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gregtusar/pairs/pkg/pairs"
	"github.com/gregtusar/pairs/pkg/secrets"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	MarketData MarketDataConfig `mapstructure:"market_data"`
	Pair       PairConfig       `mapstructure:"pair"`
	Strategy   StrategyConfig   `mapstructure:"strategy"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	GCP        GCPConfig        `mapstructure:"gcp"`
}

type ServerConfig struct {
	Port       int    `mapstructure:"port"`
	AuthSecret string `mapstructure:"auth_secret"` // HS256 key; empty disables auth
}

type MarketDataConfig struct {
	Provider          string        `mapstructure:"provider"` // "yahoo" or "csv"
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryCount        int           `mapstructure:"retry_count"`
	CSVDir            string        `mapstructure:"csv_dir"`
}

type PairConfig struct {
	TickerA string `mapstructure:"ticker_a"`
	TickerB string `mapstructure:"ticker_b"`
	Start   string `mapstructure:"start"`
	End     string `mapstructure:"end"`
}

type StrategyConfig struct {
	Window         int     `mapstructure:"window"`
	EntryThreshold float64 `mapstructure:"entry_threshold"`
	ExitThreshold  float64 `mapstructure:"exit_threshold"`
	Significance   float64 `mapstructure:"significance"`
	PeriodsPerYear float64 `mapstructure:"periods_per_year"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type GCPConfig struct {
	ProjectID       string              `mapstructure:"project_id"`
	UseSecrets      bool                `mapstructure:"use_secrets"`
	CredentialsFile string              `mapstructure:"credentials_file"`
	SecretNames     secrets.SecretNames `mapstructure:"secret_names"`
}

// Load reads configuration from defaults, an optional config file, a .env
// file and PAIRS_* environment variables, in increasing precedence. When
// GCP secrets are enabled, values still empty are filled from Secret Manager.
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// NewViper returns the viper instance Load uses so callers can bind flags
// before unmarshaling.
func NewViper(configPath string) (*viper.Viper, error) {
	return newViper(configPath)
}

func newViper(configPath string) (*viper.Viper, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pairs")
	}

	v.SetEnvPrefix("PAIRS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}
	return v, nil
}

// FromViper unmarshals, overlays secrets and validates.
func FromViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.GCP.UseSecrets && config.GCP.ProjectID != "" {
		ctx := context.Background()
		logger := logrus.New()
		secretManager, err := secrets.NewGCPSecretManager(ctx, config.GCP.ProjectID, config.GCP.CredentialsFile, logger)
		if err != nil {
			return nil, fmt.Errorf("error loading secrets from GCP: %w", err)
		}
		defer secretManager.Close()

		applySecrets(ctx, &config, secretManager)
		logger.Info("Successfully loaded secrets from GCP Secret Manager")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.auth_secret", "")

	// Market data defaults
	v.SetDefault("market_data.provider", "yahoo")
	v.SetDefault("market_data.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market_data.api_key", "")
	v.SetDefault("market_data.requests_per_second", 2.0)
	v.SetDefault("market_data.timeout", 30*time.Second)
	v.SetDefault("market_data.retry_count", 3)
	v.SetDefault("market_data.csv_dir", "./data")

	// Pair defaults
	v.SetDefault("pair.ticker_a", "GOOG")
	v.SetDefault("pair.ticker_b", "MSFT")
	v.SetDefault("pair.start", "2020-01-01")
	v.SetDefault("pair.end", "2024-01-01")

	// Strategy defaults
	v.SetDefault("strategy.window", pairs.DefaultWindow)
	v.SetDefault("strategy.entry_threshold", pairs.DefaultEntryThreshold)
	v.SetDefault("strategy.exit_threshold", pairs.DefaultExitThreshold)
	v.SetDefault("strategy.significance", pairs.DefaultSignificance)
	v.SetDefault("strategy.periods_per_year", pairs.DefaultPeriodsPerYear)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", false)

	// GCP defaults
	v.SetDefault("gcp.use_secrets", false)
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.credentials_file", "")

	secretNames := secrets.DefaultSecretNames()
	v.SetDefault("gcp.secret_names.market_data_api_key", secretNames.MarketDataAPIKey)
	v.SetDefault("gcp.secret_names.api_auth_secret", secretNames.APIAuthSecret)
}

func applySecrets(ctx context.Context, config *Config, source secrets.Source) {
	// Only load secrets if they're not already set
	if config.MarketData.APIKey == "" {
		config.MarketData.APIKey = source.GetSecretWithDefault(ctx, config.GCP.SecretNames.MarketDataAPIKey, "")
	}
	if config.Server.AuthSecret == "" {
		config.Server.AuthSecret = source.GetSecretWithDefault(ctx, config.GCP.SecretNames.APIAuthSecret, "")
	}
}

func (c *Config) Validate() error {
	switch c.MarketData.Provider {
	case "yahoo", "csv":
	default:
		return fmt.Errorf("unknown market data provider %q", c.MarketData.Provider)
	}
	if _, _, err := c.Pair.Range(); err != nil {
		return err
	}
	if err := c.Strategy.AnalyzerConfig().Validate(); err != nil {
		return fmt.Errorf("invalid strategy config: %w", err)
	}
	return nil
}

// Range parses the configured start and end dates.
func (p PairConfig) Range() (start, end time.Time, err error) {
	start, err = time.Parse(time.DateOnly, p.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", p.Start, err)
	}
	end, err = time.Parse(time.DateOnly, p.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", p.End, err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s must be after start date %s", p.End, p.Start)
	}
	return start, end, nil
}

func (s StrategyConfig) AnalyzerConfig() pairs.Config {
	return pairs.Config{
		Window: s.Window,
		Thresholds: pairs.Thresholds{
			Entry: s.EntryThreshold,
			Exit:  s.ExitThreshold,
		},
		Significance:   s.Significance,
		PeriodsPerYear: s.PeriodsPerYear,
	}
}
