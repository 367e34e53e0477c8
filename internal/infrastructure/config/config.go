package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/marketsync/backend/internal/domain/integration"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Sync         SyncConfig
	Marketplaces MarketplacesConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// SyncConfig holds sync engine configuration
type SyncConfig struct {
	// Enabled controls the background cycle trigger. Manual cycles through
	// the admin API work either way.
	Enabled bool

	// CycleInterval is how often a full sync cycle runs.
	CycleInterval time.Duration

	// LockTTL bounds how long a crashed cycle holds its lease.
	LockTTL time.Duration

	// StuckJobAge is how long a job may sit in processing before it is
	// treated as abandoned.
	StuckJobAge time.Duration

	// OrderLookback is the trailing order-polling window.
	OrderLookback time.Duration

	// GatewayTimeout is the per-request timeout for marketplace calls.
	GatewayTimeout time.Duration

	// GatewayMaxAttempts is the retry ceiling for one marketplace call.
	GatewayMaxAttempts int
}

// MarketplaceConfig holds the credentials and endpoint for one marketplace.
// A marketplace with Enabled=false gets no gateway.
type MarketplaceConfig struct {
	Enabled       bool
	APIKey        string
	APISecret     string
	SupplierID    string
	WebhookSecret string
	BaseURL       string

	// SyncInterval overrides sync.cycle_interval for this marketplace.
	// Zero means use the global cadence.
	SyncInterval time.Duration
}

// MarketplacesConfig holds per-marketplace configuration
type MarketplacesConfig struct {
	Trendyol    MarketplaceConfig
	N11         MarketplaceConfig
	Hepsiburada MarketplaceConfig
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MARKETSYNC_ prefix (e.g., MARKETSYNC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("MARKETSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Sync: SyncConfig{
			Enabled:            v.GetBool("sync.enabled"),
			CycleInterval:      v.GetDuration("sync.cycle_interval"),
			LockTTL:            v.GetDuration("sync.lock_ttl"),
			StuckJobAge:        v.GetDuration("sync.stuck_job_age"),
			OrderLookback:      v.GetDuration("sync.order_lookback"),
			GatewayTimeout:     v.GetDuration("sync.gateway_timeout"),
			GatewayMaxAttempts: v.GetInt("sync.gateway_max_attempts"),
		},
		Marketplaces: MarketplacesConfig{
			Trendyol:    loadMarketplace(v, "marketplaces.trendyol"),
			N11:         loadMarketplace(v, "marketplaces.n11"),
			Hepsiburada: loadMarketplace(v, "marketplaces.hepsiburada"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadMarketplace(v *viper.Viper, prefix string) MarketplaceConfig {
	return MarketplaceConfig{
		Enabled:       v.GetBool(prefix + ".enabled"),
		APIKey:        v.GetString(prefix + ".api_key"),
		APISecret:     v.GetString(prefix + ".api_secret"),
		SupplierID:    v.GetString(prefix + ".supplier_id"),
		WebhookSecret: v.GetString(prefix + ".webhook_secret"),
		BaseURL:       v.GetString(prefix + ".base_url"),
		SyncInterval:  v.GetDuration(prefix + ".sync_interval"),
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketsync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "marketsync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Sync.CycleInterval == 0 {
		cfg.Sync.CycleInterval = 5 * time.Minute
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 10 * time.Minute
	}
	if cfg.Sync.StuckJobAge == 0 {
		cfg.Sync.StuckJobAge = 10 * time.Minute
	}
	if cfg.Sync.OrderLookback == 0 {
		cfg.Sync.OrderLookback = 30 * time.Minute
	}
	if cfg.Sync.GatewayTimeout == 0 {
		cfg.Sync.GatewayTimeout = 30 * time.Second
	}
	if cfg.Sync.GatewayMaxAttempts == 0 {
		cfg.Sync.GatewayMaxAttempts = 3
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Sync.GatewayMaxAttempts < 1 {
		return fmt.Errorf("sync.gateway_max_attempts must be at least 1")
	}

	for code, mp := range c.enabledMarketplaces() {
		if mp.APIKey == "" || mp.APISecret == "" {
			return fmt.Errorf("marketplaces.%s requires api_key and api_secret when enabled", code)
		}
		if mp.BaseURL == "" {
			return fmt.Errorf("marketplaces.%s requires base_url when enabled", code)
		}
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for code, mp := range c.enabledMarketplaces() {
			if mp.WebhookSecret == "" {
				return fmt.Errorf("marketplaces.%s requires webhook_secret in production", code)
			}
		}
	}

	return nil
}

func (c *Config) enabledMarketplaces() map[integration.MarketplaceCode]MarketplaceConfig {
	all := map[integration.MarketplaceCode]MarketplaceConfig{
		integration.MarketplaceTrendyol:    c.Marketplaces.Trendyol,
		integration.MarketplaceN11:         c.Marketplaces.N11,
		integration.MarketplaceHepsiburada: c.Marketplaces.Hepsiburada,
	}
	enabled := make(map[integration.MarketplaceCode]MarketplaceConfig)
	for code, mp := range all {
		if mp.Enabled {
			enabled[code] = mp
		}
	}
	return enabled
}

// SyncIntervals returns the per-marketplace cycle cadence overrides for
// enabled marketplaces. Marketplaces without an override are absent.
func (c *Config) SyncIntervals() map[integration.MarketplaceCode]time.Duration {
	intervals := make(map[integration.MarketplaceCode]time.Duration)
	for code, mp := range c.enabledMarketplaces() {
		if mp.SyncInterval > 0 {
			intervals[code] = mp.SyncInterval
		}
	}
	return intervals
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// ---------------------------------------------------------------------------
// CredentialStore
// ---------------------------------------------------------------------------

// CredentialStore adapts static configuration to the CredentialStore port.
type CredentialStore struct {
	cfg *Config
}

// NewCredentialStore creates a credential store over loaded configuration
func NewCredentialStore(cfg *Config) *CredentialStore {
	return &CredentialStore{cfg: cfg}
}

// Get returns the credentials for a marketplace, or
// ErrMarketplaceNotConfigured when it is disabled or unknown.
func (s *CredentialStore) Get(code integration.MarketplaceCode) (*integration.Credentials, error) {
	var mp MarketplaceConfig
	switch code {
	case integration.MarketplaceTrendyol:
		mp = s.cfg.Marketplaces.Trendyol
	case integration.MarketplaceN11:
		mp = s.cfg.Marketplaces.N11
	case integration.MarketplaceHepsiburada:
		mp = s.cfg.Marketplaces.Hepsiburada
	default:
		return nil, integration.ErrMarketplaceNotConfigured
	}
	if !mp.Enabled {
		return nil, integration.ErrMarketplaceNotConfigured
	}
	return &integration.Credentials{
		APIKey:        mp.APIKey,
		APISecret:     mp.APISecret,
		SupplierID:    mp.SupplierID,
		WebhookSecret: mp.WebhookSecret,
		BaseURL:       mp.BaseURL,
	}, nil
}

// Ensure CredentialStore implements the domain port
var _ integration.CredentialStore = (*CredentialStore)(nil)
