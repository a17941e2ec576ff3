package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Stripe      StripeConfig
	Content     ContentConfig
	Catalog     CatalogConfig
	Fulfillment FulfillmentConfig
	Storage     StorageConfig
	Admin       AdminConfig
	Log         LogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BaseURL      string   // public base URL used for checkout success/cancel redirects
	AllowOrigins []string // CORS origins for the storefront
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

// RedisConfig holds Redis connection settings. An empty host disables Redis
// and the idempotency store falls back to in-memory.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether Redis is configured
func (r RedisConfig) Enabled() bool { return r.Host != "" }

// StripeConfig holds payment gateway settings
type StripeConfig struct {
	SecretKey     string
	SuccessPath   string
	CancelPath    string
	VerifyTimeout time.Duration // user-facing verification calls stay short
}

// ContentConfig holds AI copy generation settings
type ContentConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// CatalogConfig holds product source settings
type CatalogConfig struct {
	Source  string // "static" or "cj"
	CJEmail string
	CJKey   string
	CJBase  string
}

// FulfillmentConfig controls the dispatcher and executor selection.
// The automated bot spends real money and is always opt-in.
type FulfillmentConfig struct {
	Strategy       string // "manual" (default) or "bot"
	Workers        int
	QueueSize      int
	AttemptTimeout time.Duration
	BotHeadless    bool
	SupplierEmail  string
	SupplierPass   string
}

// StorageConfig holds evidence object-storage settings. An empty bucket
// falls back to a local-directory store.
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	LocalDir  string
}

// AdminConfig guards operator-only endpoints
type AdminConfig struct {
	APIKey string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load reads configuration from config.toml and DROPFLOW_* environment
// variables, applying defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("DROPFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
			BaseURL:      v.GetString("http.base_url"),
			AllowOrigins: v.GetStringSlice("http.allow_origins"),
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
		Stripe: StripeConfig{
			SecretKey:     v.GetString("stripe.secret_key"),
			SuccessPath:   v.GetString("stripe.success_path"),
			CancelPath:    v.GetString("stripe.cancel_path"),
			VerifyTimeout: v.GetDuration("stripe.verify_timeout"),
		},
		Content: ContentConfig{
			APIKey:  v.GetString("content.api_key"),
			BaseURL: v.GetString("content.base_url"),
			Model:   v.GetString("content.model"),
			Timeout: v.GetDuration("content.timeout"),
		},
		Catalog: CatalogConfig{
			Source:  v.GetString("catalog.source"),
			CJEmail: v.GetString("catalog.cj_email"),
			CJKey:   v.GetString("catalog.cj_key"),
			CJBase:  v.GetString("catalog.cj_base"),
		},
		Fulfillment: FulfillmentConfig{
			Strategy:       v.GetString("fulfillment.strategy"),
			Workers:        v.GetInt("fulfillment.workers"),
			QueueSize:      v.GetInt("fulfillment.queue_size"),
			AttemptTimeout: v.GetDuration("fulfillment.attempt_timeout"),
			BotHeadless:    v.GetBool("fulfillment.bot_headless"),
			SupplierEmail:  v.GetString("fulfillment.supplier_email"),
			SupplierPass:   v.GetString("fulfillment.supplier_pass"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("storage.endpoint"),
			Region:    v.GetString("storage.region"),
			Bucket:    v.GetString("storage.bucket"),
			AccessKey: v.GetString("storage.access_key"),
			SecretKey: v.GetString("storage.secret_key"),
			UseSSL:    v.GetBool("storage.use_ssl"),
			LocalDir:  v.GetString("storage.local_dir"),
		},
		Admin: AdminConfig{
			APIKey: v.GetString("admin.api_key"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dropflow")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.base_url", "http://localhost:8080")
	v.SetDefault("http.allow_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dropflow")
	v.SetDefault("database.dbname", "dropflow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("redis.port", 6379)

	v.SetDefault("stripe.success_path", "/success.html?session_id={CHECKOUT_SESSION_ID}")
	v.SetDefault("stripe.cancel_path", "/cancel.html")
	v.SetDefault("stripe.verify_timeout", 10*time.Second)

	v.SetDefault("content.base_url", "https://api.openai.com/v1")
	v.SetDefault("content.model", "gpt-4o-mini")
	v.SetDefault("content.timeout", 20*time.Second)

	v.SetDefault("catalog.source", "static")
	v.SetDefault("catalog.cj_base", "https://developers.cjdropshipping.com/api2.0/v1")

	// Manual instruction is the safe default: it performs no external side
	// effects. The bot strategy spends real money and must be opted into.
	v.SetDefault("fulfillment.strategy", "manual")
	v.SetDefault("fulfillment.workers", 2)
	v.SetDefault("fulfillment.queue_size", 64)
	v.SetDefault("fulfillment.attempt_timeout", 5*time.Minute)
	v.SetDefault("fulfillment.bot_headless", true)

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.local_dir", "evidence")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}

// Validate checks cross-field constraints that defaults cannot express
func (c *Config) Validate() error {
	if c.Fulfillment.Strategy != "manual" && c.Fulfillment.Strategy != "bot" {
		return fmt.Errorf("fulfillment.strategy must be \"manual\" or \"bot\", got %q", c.Fulfillment.Strategy)
	}
	if c.Fulfillment.Strategy == "bot" && (c.Fulfillment.SupplierEmail == "" || c.Fulfillment.SupplierPass == "") {
		return fmt.Errorf("fulfillment.strategy \"bot\" requires supplier credentials")
	}
	if c.Fulfillment.Workers < 1 {
		return fmt.Errorf("fulfillment.workers must be at least 1")
	}
	if c.Fulfillment.AttemptTimeout <= 0 {
		return fmt.Errorf("fulfillment.attempt_timeout must be positive")
	}
	if c.Stripe.VerifyTimeout <= 0 {
		return fmt.Errorf("stripe.verify_timeout must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Addr returns host:port for the Redis client
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IsProduction returns true when running in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}
