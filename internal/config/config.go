package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	// Server
	Port               string `mapstructure:"PORT"`
	Environment        string `mapstructure:"ENVIRONMENT"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// JWT
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`

	// Optional infrastructure; empty disables the feature.
	RedisURL string `mapstructure:"REDIS_URL"`
	NATSURL  string `mapstructure:"NATS_URL"`

	// Uploads
	UploadTempDir        string        `mapstructure:"UPLOAD_TEMP_DIR"`
	ArchiveBackend       string        `mapstructure:"ARCHIVE_BACKEND"`
	ArchiveDir           string        `mapstructure:"ARCHIVE_DIR"`
	GCSBucket            string        `mapstructure:"GCS_BUCKET"`
	ArchiveRetention     time.Duration `mapstructure:"ARCHIVE_RETENTION"`
	ArchivePurgeInterval time.Duration `mapstructure:"ARCHIVE_PURGE_INTERVAL"`

	// Import limits
	ImportMaxRows      int           `mapstructure:"IMPORT_MAX_ROWS"`
	ImportMaxFileBytes int64         `mapstructure:"IMPORT_MAX_FILE_BYTES"`
	ImportTimeout      time.Duration `mapstructure:"IMPORT_TIMEOUT"`

	// Notifications
	WebhookTimeout  time.Duration `mapstructure:"WEBHOOK_TIMEOUT"`
	DefaultTimezone string        `mapstructure:"DEFAULT_TIMEZONE"`

	// Pagination
	DefaultPageSize int `mapstructure:"DEFAULT_PAGE_SIZE"`
	MaxPageSize     int `mapstructure:"MAX_PAGE_SIZE"`
}

var defaults = map[string]interface{}{
	"DB_HOST":                "localhost",
	"DB_PORT":                5432,
	"DB_USER":                "postgres",
	"DB_PASSWORD":            "",
	"DB_NAME":                "stock_db",
	"DB_SSLMODE":             "disable",
	"PORT":                   "8088",
	"ENVIRONMENT":            "development",
	"CORS_ALLOWED_ORIGINS":   "*",
	"JWT_SECRET":             "",
	"JWT_EXPIRATION_HOURS":   12,
	"REDIS_URL":              "",
	"NATS_URL":               "",
	"UPLOAD_TEMP_DIR":        "",
	"ARCHIVE_BACKEND":        "local",
	"ARCHIVE_DIR":            "./uploads",
	"GCS_BUCKET":             "",
	"ARCHIVE_RETENTION":      "720h",
	"ARCHIVE_PURGE_INTERVAL": "24h",
	"IMPORT_MAX_ROWS":        5000,
	"IMPORT_MAX_FILE_BYTES":  10 << 20,
	"IMPORT_TIMEOUT":         "60s",
	"WEBHOOK_TIMEOUT":        "10s",
	"DEFAULT_TIMEZONE":       "Asia/Jakarta",
	"DEFAULT_PAGE_SIZE":      20,
	"MAX_PAGE_SIZE":          100,
}

// Load reads configuration from the environment. Call godotenv.Load first
// to pick up a local .env file.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.JWTSecret = "dev-secret-change-me"
	}
	switch c.ArchiveBackend {
	case "local":
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when ARCHIVE_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("unknown ARCHIVE_BACKEND %q", c.ArchiveBackend)
	}
	if c.ImportMaxRows <= 0 {
		return fmt.Errorf("IMPORT_MAX_ROWS must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.IsProduction() {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// InitRedis connects to REDIS_URL. It returns nil, nil when redis is not configured.
func InitRedis(cfg *Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
