package config

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DB       DBConfig
	MinIO    MinIOConfig
	JWT      JWTConfig
	Server   ServerConfig
	FileHost FileHostConfig
	Telegram TelegramConfig
	Activity ActivityConfig
	Security SecurityConfig
	Seed     SeedConfig
}

type DBConfig struct {
	// Driver is postgres or sqlite.
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"vidshelf"`
	Password string `env:"DB_PASSWORD" envDefault:"vidshelf_secret"`
	Name     string `env:"DB_NAME" envDefault:"vidshelf"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	Path     string `env:"DB_PATH" envDefault:"vidshelf.db"`
}

type MinIOConfig struct {
	Enabled        bool   `env:"MINIO_ENABLED" envDefault:"false"`
	Endpoint       string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	PublicEndpoint string `env:"MINIO_PUBLIC_ENDPOINT"`
	AccessKey      string `env:"MINIO_ACCESS_KEY" envDefault:"vidshelf"`
	SecretKey      string `env:"MINIO_SECRET_KEY" envDefault:"vidshelf_secret"`
	Bucket         string `env:"MINIO_BUCKET" envDefault:"vidshelf"`
	UseSSL         bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type JWTConfig struct {
	Secret          string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	ExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
}

type ServerConfig struct {
	Port           string   `env:"SERVER_PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	BodyLimitMB    int      `env:"BODY_LIMIT_MB" envDefault:"20"`
}

const (
	ListingGlobal    = "global"
	ListingPerFolder = "per_folder"
)

type FileHostConfig struct {
	APIURL          string        `env:"FILEHOST_API_URL" envDefault:"https://api.luxsioab.com/pub/api"`
	APIKey          string        `env:"FILEHOST_API_KEY"`
	ListingStrategy string        `env:"FILEHOST_LISTING_STRATEGY" envDefault:"global"`
	ListConcurrency int           `env:"FILEHOST_LIST_CONCURRENCY" envDefault:"4"`
	UploadBatchSize int           `env:"UPLOAD_BATCH_SIZE" envDefault:"3"`
	Timeout         time.Duration `env:"FILEHOST_TIMEOUT" envDefault:"30s"`
	// UploadGrace keeps unmatched uploading rows alive during sync.
	UploadGrace time.Duration `env:"UPLOAD_GRACE" envDefault:"2h"`
}

type TelegramConfig struct {
	APIURL      string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	BotToken    string `env:"TELEGRAM_BOT_TOKEN"`
	ChannelID   string `env:"TELEGRAM_CHANNEL_ID"`
	ChannelName string `env:"TELEGRAM_CHANNEL_NAME"`
}

type ActivityConfig struct {
	QueueSize int `env:"ACTIVITY_QUEUE_SIZE" envDefault:"1000"`
}

type SecurityConfig struct {
	EncryptionSecret string `env:"SETTINGS_ENCRYPTION_SECRET"`
}

type SeedConfig struct {
	Username string `env:"SEED_ADMIN_USERNAME" envDefault:"admin"`
	Password string `env:"SEED_ADMIN_PASSWORD" envDefault:"admin123"`
}

func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Stat(".env")
	if err != nil {
		return
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	cfg.FileHost.ListingStrategy = strings.ToLower(strings.TrimSpace(cfg.FileHost.ListingStrategy))
	if cfg.MinIO.PublicEndpoint == "" {
		cfg.MinIO.PublicEndpoint = cfg.MinIO.Endpoint
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres":
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("DB_PATH is required when DB_DRIVER is sqlite")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}

	switch c.FileHost.ListingStrategy {
	case ListingGlobal, ListingPerFolder:
	default:
		return fmt.Errorf("FILEHOST_LISTING_STRATEGY must be %s or %s, got %q", ListingGlobal, ListingPerFolder, c.FileHost.ListingStrategy)
	}

	if c.FileHost.ListConcurrency < 1 {
		return fmt.Errorf("FILEHOST_LIST_CONCURRENCY must be at least 1")
	}
	if c.FileHost.UploadBatchSize < 1 {
		return fmt.Errorf("UPLOAD_BATCH_SIZE must be at least 1")
	}
	if c.FileHost.UploadGrace < 0 {
		return fmt.Errorf("UPLOAD_GRACE cannot be negative")
	}
	if c.JWT.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1")
	}
	if c.Server.BodyLimitMB < 1 {
		return fmt.Errorf("BODY_LIMIT_MB must be at least 1")
	}
	if c.Activity.QueueSize < 1 {
		return fmt.Errorf("ACTIVITY_QUEUE_SIZE must be at least 1")
	}
	if c.MinIO.Enabled && c.MinIO.Bucket == "" {
		return fmt.Errorf("MINIO_BUCKET is required when MINIO_ENABLED is true")
	}
	return nil
}

func (c *Config) BodyLimitBytes() int {
	return c.Server.BodyLimitMB * 1024 * 1024
}
