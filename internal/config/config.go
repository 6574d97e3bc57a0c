package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Remote    RemoteConfig
	JWT       JWTConfig
	Sync      SyncConfig
	Auth      AuthConfig
	Printer   PrinterConfig
	Email     EmailConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Path       string
	LogQueries bool
}

// RemoteConfig identifies this register to the remote API. DeviceToken is
// issued when the device is enrolled and authorizes every remote call.
type RemoteConfig struct {
	BaseURL      string
	Timeout      time.Duration
	DevicePrefix string
	DeviceToken  string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
}

// SyncConfig tunes the synchronization loop.
type SyncConfig struct {
	PageSize      int
	Debounce      time.Duration
	PushBatchSize int
	Interval      time.Duration
}

// AuthConfig carries the PIN lockout ladder: after Tier1/2/3 consecutive
// failures the account locks for the matching duration.
type AuthConfig struct {
	Tier1Attempts int
	Tier2Attempts int
	Tier3Attempts int
	Tier1Lock     time.Duration
	Tier2Lock     time.Duration
	Tier3Lock     time.Duration
}

type PrinterConfig struct {
	Type    string
	Address string
	Width   int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "tillpoint-pos")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_PATH", "./pos.db")
	viper.SetDefault("DB_LOG_QUERIES", false)
	viper.SetDefault("REMOTE_BASE_URL", "https://api.tillpoint.example.com/v1")
	viper.SetDefault("REMOTE_TIMEOUT_SECONDS", 120)
	viper.SetDefault("DEVICE_PREFIX", "D1")
	viper.SetDefault("REMOTE_DEVICE_TOKEN", "")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("SYNC_PAGE_SIZE", 500)
	viper.SetDefault("SYNC_DEBOUNCE_SECONDS", 3)
	viper.SetDefault("SYNC_PUSH_BATCH_SIZE", 50)
	viper.SetDefault("SYNC_INTERVAL_MINUTES", 5)
	viper.SetDefault("AUTH_TIER1_ATTEMPTS", 3)
	viper.SetDefault("AUTH_TIER2_ATTEMPTS", 5)
	viper.SetDefault("AUTH_TIER3_ATTEMPTS", 10)
	viper.SetDefault("AUTH_TIER1_LOCK_MINUTES", 5)
	viper.SetDefault("AUTH_TIER2_LOCK_MINUTES", 30)
	viper.SetDefault("AUTH_TIER3_LOCK_MINUTES", 1440)
	viper.SetDefault("PRINTER_TYPE", "null")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("PRINTER_WIDTH", 48)
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("EMAIL_FROM_NAME", "TillPoint POS")
	viper.SetDefault("EMAIL_FROM_EMAIL", "receipts@tillpoint.example.com")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Path:       viper.GetString("DB_PATH"),
			LogQueries: viper.GetBool("DB_LOG_QUERIES"),
		},
		Remote: RemoteConfig{
			BaseURL:      viper.GetString("REMOTE_BASE_URL"),
			Timeout:      time.Duration(viper.GetInt("REMOTE_TIMEOUT_SECONDS")) * time.Second,
			DevicePrefix: viper.GetString("DEVICE_PREFIX"),
			DeviceToken:  viper.GetString("REMOTE_DEVICE_TOKEN"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		Sync: SyncConfig{
			PageSize:      viper.GetInt("SYNC_PAGE_SIZE"),
			Debounce:      time.Duration(viper.GetInt("SYNC_DEBOUNCE_SECONDS")) * time.Second,
			PushBatchSize: viper.GetInt("SYNC_PUSH_BATCH_SIZE"),
			Interval:      time.Duration(viper.GetInt("SYNC_INTERVAL_MINUTES")) * time.Minute,
		},
		Auth: AuthConfig{
			Tier1Attempts: viper.GetInt("AUTH_TIER1_ATTEMPTS"),
			Tier2Attempts: viper.GetInt("AUTH_TIER2_ATTEMPTS"),
			Tier3Attempts: viper.GetInt("AUTH_TIER3_ATTEMPTS"),
			Tier1Lock:     time.Duration(viper.GetInt("AUTH_TIER1_LOCK_MINUTES")) * time.Minute,
			Tier2Lock:     time.Duration(viper.GetInt("AUTH_TIER2_LOCK_MINUTES")) * time.Minute,
			Tier3Lock:     time.Duration(viper.GetInt("AUTH_TIER3_LOCK_MINUTES")) * time.Minute,
		},
		Printer: PrinterConfig{
			Type:    viper.GetString("PRINTER_TYPE"),
			Address: viper.GetString("PRINTER_ADDRESS"),
			Width:   viper.GetInt("PRINTER_WIDTH"),
		},
		Email: EmailConfig{
			SMTPHost:     viper.GetString("SMTP_HOST"),
			SMTPPort:     viper.GetInt("SMTP_PORT"),
			SMTPUsername: viper.GetString("SMTP_USERNAME"),
			SMTPPassword: viper.GetString("SMTP_PASSWORD"),
			FromName:     viper.GetString("EMAIL_FROM_NAME"),
			FromEmail:    viper.GetString("EMAIL_FROM_EMAIL"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
	}
}
