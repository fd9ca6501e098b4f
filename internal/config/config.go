// Package config loads process configuration from an optional YAML file,
// a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Storage     StorageConfig     `mapstructure:"storage"`
	SMTP        SMTPConfig        `mapstructure:"smtp"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	PDF         PDFConfig         `mapstructure:"pdf"`
	Notify      NotifyConfig      `mapstructure:"notify"`
	Warehouse   WarehouseConfig   `mapstructure:"warehouse"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Log         LogConfig         `mapstructure:"log"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Gzip            bool          `mapstructure:"gzip"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	CookieName string `mapstructure:"cookie_name"`
}

type IdentityConfig struct {
	URL      string        `mapstructure:"url"`
	Project  string        `mapstructure:"project"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type TelegramConfig struct {
	BotToken     string        `mapstructure:"bot_token"`
	APIURL       string        `mapstructure:"api_url"`
	NotifyChatID string        `mapstructure:"notify_chat_id"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type PDFConfig struct {
	Company string `mapstructure:"company"`
	FontDir string `mapstructure:"font_dir"`
}

type NotifyConfig struct {
	Emails       []string `mapstructure:"emails"`
	LowStockRule string   `mapstructure:"low_stock_rule"`
}

type WarehouseConfig struct {
	LocationID string `mapstructure:"location_id"`
}

type WorkerConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	BatchSize        int           `mapstructure:"batch_size"`
	LowStockInterval time.Duration `mapstructure:"low_stock_interval"`
	OverdueInterval  time.Duration `mapstructure:"overdue_interval"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
}

type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads .env (if present), config.yaml (if present) and STOCKFLOW_* environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/stockflow")

	v.SetEnvPrefix("STOCKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stockflow")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "0.1.0")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.gzip", true)
	v.SetDefault("server.max_upload_bytes", 10<<20)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.cookie_name", "mint_session")

	v.SetDefault("identity.url", "http://mintauth-backend:8000")
	v.SetDefault("identity.project", "MintStock")
	v.SetDefault("identity.timeout", 5*time.Second)
	v.SetDefault("identity.cache_ttl", 5*time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "receipts")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.public_url", "")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.notify_chat_id", "")
	v.SetDefault("telegram.timeout", 30*time.Second)

	v.SetDefault("pdf.company", "StockFlow")
	v.SetDefault("pdf.font_dir", "")

	v.SetDefault("notify.emails", []string{})
	v.SetDefault("notify.low_stock_rule", "")

	v.SetDefault("warehouse.location_id", "")

	v.SetDefault("worker.poll_interval", 500*time.Millisecond)
	v.SetDefault("worker.batch_size", 100)
	v.SetDefault("worker.low_stock_interval", time.Hour)
	v.SetDefault("worker.overdue_interval", 6*time.Hour)
	v.SetDefault("worker.cleanup_interval", time.Hour)

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.ttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// bindEnvVariables maps the conventional unprefixed names used by the
// deployment (docker-compose) onto config keys.
func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("server.port", "STOCKFLOW_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.dsn", "STOCKFLOW_DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("auth.jwt_secret", "STOCKFLOW_AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("identity.url", "STOCKFLOW_IDENTITY_URL", "MINTAUTH_URL")
	_ = v.BindEnv("redis.addr", "STOCKFLOW_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("storage.endpoint", "STOCKFLOW_STORAGE_ENDPOINT", "MINIO_ENDPOINT")
	_ = v.BindEnv("storage.access_key", "STOCKFLOW_STORAGE_ACCESS_KEY", "MINIO_ACCESS_KEY")
	_ = v.BindEnv("storage.secret_key", "STOCKFLOW_STORAGE_SECRET_KEY", "MINIO_SECRET_KEY")
	_ = v.BindEnv("smtp.host", "STOCKFLOW_SMTP_HOST", "SMTP_HOST")
	_ = v.BindEnv("smtp.username", "STOCKFLOW_SMTP_USERNAME", "SMTP_USER")
	_ = v.BindEnv("smtp.password", "STOCKFLOW_SMTP_PASSWORD", "SMTP_PASS")
	_ = v.BindEnv("telegram.bot_token", "STOCKFLOW_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("warehouse.location_id", "STOCKFLOW_WAREHOUSE_LOCATION_ID", "WAREHOUSE_LOCATION_ID")
	_ = v.BindEnv("log.level", "STOCKFLOW_LOG_LEVEL", "LOG_LEVEL")
}

// Validate checks the settings every process needs.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.DSN == "" {
		missing = append(missing, "database.dsn")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwt_secret")
	}
	if c.Warehouse.LocationID == "" {
		missing = append(missing, "warehouse.location_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}
