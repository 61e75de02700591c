package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"royalwager/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL              string `toml:"database_url"`
	DatabaseName             string `toml:"database_name"`
	DatabaseMaxConns         int    `toml:"database_max_conns"`
	RepositoryTimeoutSeconds int    `toml:"repository_timeout_seconds"`

	// HTTP API
	HTTPAddr         string `toml:"http_addr"`
	WebhookAuthToken string `toml:"webhook_auth_token"`
	AdminToken       string `toml:"admin_token"`

	// Match oracle
	ClashRoyaleAPIURL    string `toml:"clash_royale_api_url"`
	ClashRoyaleAPIToken  string `toml:"clash_royale_api_token"`
	OracleTimeoutSeconds int    `toml:"oracle_timeout_seconds"`
	ProfileVerifyTag     bool   `toml:"profile_verify_tag"`

	// Wager rules
	FeeRate                   string `toml:"fee_rate"`
	BestOfThreeTimeoutMinutes int    `toml:"best_of_three_timeout_minutes"`
	ActivationBufferSeconds   int    `toml:"activation_buffer_seconds"`

	// NATS configuration
	NATSServers string `toml:"nats_servers"` // comma-separated, empty disables publishing

	// Redis configuration
	RedisAddr                string `toml:"redis_addr"` // empty disables caching and rate limiting
	RedisPassword            string `toml:"redis_password"`
	RedisDB                  int    `toml:"redis_db"`
	PlayerCacheTTLSeconds    int    `toml:"player_cache_ttl_seconds"`
	VerifyRateLimitPerMinute int    `toml:"verify_rate_limit_per_minute"`

	// Discord notifications
	DiscordToken     string `toml:"discord_token"`
	DiscordChannelID string `toml:"discord_channel_id"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // "json" or "text"
	LogFile   string `toml:"log_file"`

	// OpenTelemetry configuration
	OTelEnabled              bool   `toml:"otel_enabled"`
	OTelExporterType         string `toml:"otel_exporter_type"` // "console", "otlp" or "none"
	OTelOTLPEndpoint         string `toml:"otel_otlp_endpoint"`
	OTelServiceName          string `toml:"otel_service_name"`
	OTelExportIntervalMillis int    `toml:"otel_export_interval_millis"`

	// Environment
	Environment string `toml:"environment"` // "development", "production" or "test"
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		DatabaseMaxConns:          10,
		RepositoryTimeoutSeconds:  5,
		HTTPAddr:                  ":8080",
		ClashRoyaleAPIURL:         "https://proxy.royaleapi.dev/v1",
		OracleTimeoutSeconds:      10,
		ProfileVerifyTag:          true,
		FeeRate:                   "0.05",
		BestOfThreeTimeoutMinutes: 60,
		ActivationBufferSeconds:   1,
		PlayerCacheTTLSeconds:     300,
		VerifyRateLimitPerMinute:  30,
		LogLevel:                  "info",
		LogFormat:                 "text",
		OTelExporterType:          "none",
		OTelOTLPEndpoint:          "localhost:4317",
		OTelServiceName:           "royalwager",
		OTelExportIntervalMillis:  10000,
		Environment:               "development",
	}
}

// Load builds the configuration from defaults, an optional TOML file, a .env file and
// the process environment, in increasing order of precedence, then validates it.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing)
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.DatabaseURL, "DATABASE_URL")
	setStr(&cfg.DatabaseName, "DATABASE_NAME")
	setInt(&cfg.DatabaseMaxConns, "DATABASE_MAX_CONNS")
	setInt(&cfg.RepositoryTimeoutSeconds, "REPOSITORY_TIMEOUT_SECONDS")

	setStr(&cfg.HTTPAddr, "HTTP_ADDR")
	setStr(&cfg.WebhookAuthToken, "WEBHOOK_AUTH_TOKEN")
	setStr(&cfg.AdminToken, "ADMIN_TOKEN")

	setStr(&cfg.ClashRoyaleAPIURL, "CLASH_ROYALE_API_URL")
	setStr(&cfg.ClashRoyaleAPIToken, "CLASH_ROYALE_API_TOKEN")
	setInt(&cfg.OracleTimeoutSeconds, "ORACLE_TIMEOUT_SECONDS")
	setBool(&cfg.ProfileVerifyTag, "PROFILE_VERIFY_TAG")

	setStr(&cfg.FeeRate, "FEE_RATE")
	setInt(&cfg.BestOfThreeTimeoutMinutes, "BEST_OF_THREE_TIMEOUT_MINUTES")
	setInt(&cfg.ActivationBufferSeconds, "ACTIVATION_BUFFER_SECONDS")

	setStr(&cfg.NATSServers, "NATS_SERVERS")

	setStr(&cfg.RedisAddr, "REDIS_ADDR")
	setStr(&cfg.RedisPassword, "REDIS_PASSWORD")
	setInt(&cfg.RedisDB, "REDIS_DB")
	setInt(&cfg.PlayerCacheTTLSeconds, "PLAYER_CACHE_TTL_SECONDS")
	setInt(&cfg.VerifyRateLimitPerMinute, "VERIFY_RATE_LIMIT_PER_MINUTE")

	setStr(&cfg.DiscordToken, "DISCORD_TOKEN")
	setStr(&cfg.DiscordChannelID, "DISCORD_CHANNEL_ID")

	setStr(&cfg.LogLevel, "LOG_LEVEL")
	setStr(&cfg.LogFormat, "LOG_FORMAT")
	setStr(&cfg.LogFile, "LOG_FILE")

	setBool(&cfg.OTelEnabled, "OTEL_ENABLED")
	setStr(&cfg.OTelExporterType, "OTEL_EXPORTER_TYPE")
	setStr(&cfg.OTelOTLPEndpoint, "OTEL_OTLP_ENDPOINT")
	setStr(&cfg.OTelServiceName, "OTEL_SERVICE_NAME")
	setInt(&cfg.OTelExportIntervalMillis, "OTEL_EXPORT_INTERVAL_MILLIS")

	setStr(&cfg.Environment, "ENVIRONMENT")
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	if _, err := c.FeeRateDecimal(); err != nil {
		return err
	}
	if c.BestOfThreeTimeoutMinutes <= 0 {
		return fmt.Errorf("BEST_OF_THREE_TIMEOUT_MINUTES must be positive")
	}
	if c.ActivationBufferSeconds < 0 {
		return fmt.Errorf("ACTIVATION_BUFFER_SECONDS cannot be negative")
	}
	if c.OracleTimeoutSeconds <= 0 {
		return fmt.Errorf("ORACLE_TIMEOUT_SECONDS must be positive")
	}
	if c.RepositoryTimeoutSeconds <= 0 {
		return fmt.Errorf("REPOSITORY_TIMEOUT_SECONDS must be positive")
	}
	switch c.OTelExporterType {
	case "console", "otlp", "none":
	default:
		return fmt.Errorf("OTEL_EXPORTER_TYPE must be console, otlp or none, got %q", c.OTelExporterType)
	}

	if c.Environment != "test" {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
			return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}
	return nil
}

// FeeRateDecimal parses the platform fee, which must lie in [0, 1)
func (c *Config) FeeRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.FeeRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("FEE_RATE %q is not a number: %w", c.FeeRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("FEE_RATE must be in [0,1), got %s", rate.String())
	}
	return rate, nil
}

// BestOfThreeTimeout is how long an ACTIVE wager may go without a result
func (c *Config) BestOfThreeTimeout() time.Duration {
	return time.Duration(c.BestOfThreeTimeoutMinutes) * time.Minute
}

// ActivationBuffer is the grace period after activation before matches count
func (c *Config) ActivationBuffer() time.Duration {
	return time.Duration(c.ActivationBufferSeconds) * time.Second
}

// OracleTimeout bounds each match oracle request
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.OracleTimeoutSeconds) * time.Second
}

// RepositoryTimeout bounds each repository call
func (c *Config) RepositoryTimeout() time.Duration {
	return time.Duration(c.RepositoryTimeoutSeconds) * time.Second
}

// PlayerCacheTTL is how long player summaries stay cached
func (c *Config) PlayerCacheTTL() time.Duration {
	return time.Duration(c.PlayerCacheTTLSeconds) * time.Second
}

// NATSServerList splits the comma-separated server list
func (c *Config) NATSServerList() []string {
	var servers []string
	for _, s := range strings.Split(c.NATSServers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	return servers
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	cfg := Defaults()
	cfg.Environment = "test"
	cfg.ProfileVerifyTag = false
	cfg.AdminToken = "test-admin-token"
	cfg.WebhookAuthToken = "test-webhook-token"
	return &cfg
}
