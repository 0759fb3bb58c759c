package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultJWTExpiry        = 7 * 24 * time.Hour
	defaultVerificationTTL  = 24 * time.Hour
	defaultFrontendOrigin   = "http://localhost:5173"
	defaultDatabaseDriver   = "mysql"
	defaultSMTPHost         = "smtp.gmail.com"
	defaultSMTPPort         = 587
	defaultServerPort       = "5050"
	defaultCORSAllowOrigins = "*"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort      string
	DatabaseDriver  string
	DatabaseURL     string
	JWTSecret       string
	JWTExpiry       time.Duration
	CORSOrigin      string
	FrontendOrigin  string
	VerificationTTL time.Duration
	EnableTestUtils bool
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	SwaggerHost     string
	SMTP            SMTPConfig
}

// SMTPConfig configures outbound verification email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load builds Config from environment. Missing secrets are an error, never defaulted.
func Load() (*Config, error) {
	jwtExpiry, err := parseDuration(getEnv("JWT_EXPIRES_IN", "7d"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}

	smtpUser := os.Getenv("SMTP_USER")
	corsOrigin := getEnv("CORS_ORIGIN", defaultCORSAllowOrigins)

	cfg := &Config{
		ServerPort:      getEnv("PORT", defaultServerPort),
		DatabaseDriver:  strings.ToLower(getEnv("DATABASE_DRIVER", defaultDatabaseDriver)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTExpiry:       jwtExpiry,
		CORSOrigin:      corsOrigin,
		FrontendOrigin:  getEnv("FRONTEND_ORIGIN", frontendFallback(corsOrigin)),
		VerificationTTL: verificationTTL(os.Getenv("EMAIL_VERIFY_TOKEN_TTL_MINUTES")),
		EnableTestUtils: os.Getenv("ENABLE_TEST_UTILS") == "true",
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RedisPass:       os.Getenv("REDIS_PASSWORD"),
		SwaggerHost:     os.Getenv("SWAGGER_HOST"),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", defaultSMTPHost),
			Port:     getEnvInt("SMTP_PORT", defaultSMTPPort),
			Username: smtpUser,
			Password: os.Getenv("SMTP_PASS"),
			From:     getEnv("EMAIL_FROM", smtpUser),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DatabaseDriver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not supported", c.DatabaseDriver))
	}
	return errors.Join(errs...)
}

func frontendFallback(corsOrigin string) string {
	if corsOrigin == "" || corsOrigin == "*" {
		return defaultFrontendOrigin
	}
	return corsOrigin
}

func verificationTTL(raw string) time.Duration {
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return defaultVerificationTTL
	}
	return time.Duration(minutes) * time.Minute
}

// parseDuration accepts Go durations plus a whole-day suffix, e.g. "7d".
func parseDuration(raw string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
