package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the server configuration
type Config struct {
	Port         int    `env:"PORT" envDefault:"8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
	LogAddSource bool   `env:"LOG_ADD_SOURCE"`
	LogDir       string `env:"LOG_DIR"`
	Environment  string `env:"ENVIRONMENT" envDefault:"dev"`
	Version      string `env:"APP_VERSION" envDefault:"dev"`

	DBDriver      string        `env:"DB_DRIVER" envDefault:"postgres"`
	DBUser        string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword    string        `env:"DB_PASSWORD" envDefault:"postgres"`
	DBHost        string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort        string        `env:"DB_PORT" envDefault:"5432"`
	DBName        string        `env:"DB_NAME" envDefault:"opitemdb"`
	DBMaxConns    int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMaxIdleTime time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	DBMaxLifetime time.Duration `env:"DB_MAX_LIFETIME" envDefault:"1h"`

	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	DiscordClientID     string   `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string   `env:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL  string   `env:"DISCORD_REDIRECT_URL"`
	ModeratorDiscordIDs []string `env:"MODERATOR_DISCORD_IDS" envSeparator:","`
	WebhookID           string   `env:"DISCORD_MODERATION_WEBHOOK_ID"`
	WebhookToken        string   `env:"DISCORD_MODERATION_WEBHOOK_TOKEN"`
	NotifyWorkers       int      `env:"NOTIFY_WORKERS" envDefault:"2"`

	EventMaxRetries     int           `env:"EVENT_MAX_RETRIES" envDefault:"5"`
	EventRetryDelay     time.Duration `env:"EVENT_RETRY_DELAY" envDefault:"2s"`
	EventDeadLetterPath string        `env:"EVENT_DEADLETTER_PATH" envDefault:"logs/event_deadletter.jsonl"`

	StorageDir     string        `env:"STORAGE_DIR" envDefault:"data/storage"`
	PublicURL      string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	LookupCacheTTL time.Duration `env:"LOOKUP_CACHE_TTL" envDefault:"10m"`
	// LookupRefresh re-warms the lookup cache in the background; zero disables it
	LookupRefresh    time.Duration `env:"LOOKUP_REFRESH_INTERVAL" envDefault:"5m"`
	TrustedProxies   []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	AllowedRedirects []string      `env:"ALLOWED_REDIRECTS" envSeparator:","`
}

// Load reads .env (when present) and parses the environment
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid or missing setting at once
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT value: %d", c.Port))
	}
	switch c.DBDriver {
	case DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable must be set for security"))
	}
	if c.DiscordClientID != "" && (c.DiscordClientSecret == "" || c.DiscordRedirectURL == "") {
		errs = append(errs, errors.New("DISCORD_CLIENT_SECRET and DISCORD_REDIRECT_URL must be set when DISCORD_CLIENT_ID is"))
	}
	if (c.WebhookID == "") != (c.WebhookToken == "") {
		errs = append(errs, errors.New("DISCORD_MODERATION_WEBHOOK_ID and DISCORD_MODERATION_WEBHOOK_TOKEN must be set together"))
	}
	if u, err := url.Parse(c.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid PUBLIC_URL value: %q", c.PublicURL))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// OAuthEnabled reports whether Discord login is configured
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != ""
}

// WebhookEnabled reports whether moderation notifications are configured
func (c *Config) WebhookEnabled() bool {
	return c.WebhookID != "" && c.WebhookToken != ""
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(c.DBUser),
		url.QueryEscape(c.DBPassword),
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
