package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server needs to start
type Config struct {
	Release bool
	Port    string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBSSLMode   string

	SendGridAPIKey string
	FromEmail      string
	FromName       string

	JWTSecret string
	JWTExpiry time.Duration

	RedisURL string

	DispatchSchedule string
	BatchSize        int
	ClaimLease       time.Duration
	StaleAfter       time.Duration

	CORSAllowedOrigins []string
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("JWT_EXPIRY", "24h")
	v.SetDefault("REMINDER_DISPATCH_SCHEDULE", "@every 1m")
	v.SetDefault("REMINDER_BATCH_SIZE", 50)
	v.SetDefault("REMINDER_CLAIM_LEASE", "10m")
	v.SetDefault("REMINDER_STALE_AFTER", "0s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Release:          v.GetString("GIN_MODE") == "release",
		Port:             v.GetString("PORT"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		DBHost:           v.GetString("DB_HOST"),
		DBUser:           v.GetString("DB_USER"),
		DBPassword:       v.GetString("DB_PASSWORD"),
		DBName:           v.GetString("DB_NAME"),
		DBPort:           v.GetString("DB_PORT"),
		DBSSLMode:        v.GetString("DB_SSL_MODE"),
		SendGridAPIKey:   v.GetString("SENDGRID_API_KEY"),
		FromEmail:        v.GetString("SENDGRID_NOTIFICATIONS_FROM_EMAIL"),
		FromName:         v.GetString("SENDGRID_FROM_NAME"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		RedisURL:         v.GetString("REDIS_URL"),
		DispatchSchedule: v.GetString("REMINDER_DISPATCH_SCHEDULE"),
		BatchSize:        v.GetInt("REMINDER_BATCH_SIZE"),
	}

	var err error
	if cfg.JWTExpiry, err = parseDuration(v, "JWT_EXPIRY"); err != nil {
		return nil, err
	}
	if cfg.ClaimLease, err = parseDuration(v, "REMINDER_CLAIM_LEASE"); err != nil {
		return nil, err
	}
	if cfg.StaleAfter, err = parseDuration(v, "REMINDER_STALE_AFTER"); err != nil {
		return nil, err
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("REMINDER_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}
	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return d, nil
}

// DSN builds the postgres connection string. In release mode DATABASE_URL is required,
// otherwise the individual DB_* settings are used.
func (c *Config) DSN() (string, error) {
	if c.Release || c.DatabaseURL != "" {
		if c.DatabaseURL == "" {
			return "", fmt.Errorf("required environment variable DATABASE_URL is not set")
		}
		return c.DatabaseURL, nil
	}

	required := map[string]string{
		"DB_HOST":     c.DBHost,
		"DB_USER":     c.DBUser,
		"DB_PASSWORD": c.DBPassword,
		"DB_NAME":     c.DBName,
		"DB_PORT":     c.DBPort,
	}
	for key, value := range required {
		if value == "" {
			return "", fmt.Errorf("required environment variable %s is not set", key)
		}
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC connect_timeout=10",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode), nil
}
