package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, read from the environment once at
// startup.
type Config struct {
	Env string

	MongoURI      string
	MongoDatabase string

	Port      int
	BaseURL   string
	UploadDir string

	JWTSecret string
	TokenTTL  time.Duration

	EmailDomain string
	AdminEmail  string
	CORSOrigins []string

	Mail MailConfig
}

type MailConfig struct {
	Provider     string
	From         string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
}

const (
	MailResend = "resend"
	MailSMTP   = "smtp"
	MailLog    = "log"
)

func (c *Config) Development() bool { return c.Env == "development" }

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// Load reads the environment. It fails when a required variable is missing
// or a value does not parse.
func Load() (*Config, error) {
	var errs []error

	intVar := func(key string, fallback int) int {
		raw := env(key, "")
		if raw == "" {
			return fallback
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return n
	}

	cfg := &Config{
		Env:           env("APP_ENV", "production"),
		MongoURI:      env("MONGO_URI", ""),
		MongoDatabase: env("MONGO_DATABASE", "noticeboard"),
		Port:          intVar("PORT", 5000),
		UploadDir:     env("UPLOAD_DIR", "uploads"),
		JWTSecret:     env("JWT_SECRET", ""),
		EmailDomain:   env("EMAIL_DOMAIN", "cusat.ac.in"),
		AdminEmail:    env("ADMIN_EMAIL", ""),
		Mail: MailConfig{
			Provider:     env("MAIL_PROVIDER", ""),
			From:         env("FROM_EMAIL", "CUSAT Notice Board <noreply@cusat.ac.in>"),
			ResendAPIKey: env("RESEND_API_KEY", ""),
			SMTPHost:     env("SMTP_HOST", ""),
			SMTPPort:     intVar("SMTP_PORT", 587),
			SMTPUser:     env("SMTP_USER", ""),
			SMTPPassword: env("SMTP_PASS", ""),
		},
	}
	cfg.BaseURL = strings.TrimRight(env("BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port)), "/")

	ttl, err := time.ParseDuration(env("TOKEN_TTL", "24h"))
	if err != nil {
		errs = append(errs, fmt.Errorf("TOKEN_TTL: %w", err))
	}
	cfg.TokenTTL = ttl

	for _, o := range strings.Split(env("CORS_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if cfg.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is not set"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}

	if cfg.Mail.Provider == "" {
		switch {
		case cfg.Mail.ResendAPIKey != "":
			cfg.Mail.Provider = MailResend
		case cfg.Mail.SMTPHost != "":
			cfg.Mail.Provider = MailSMTP
		default:
			cfg.Mail.Provider = MailLog
		}
	}
	switch cfg.Mail.Provider {
	case MailResend:
		if cfg.Mail.ResendAPIKey == "" {
			errs = append(errs, errors.New("RESEND_API_KEY is required for the resend mail provider"))
		}
	case MailSMTP:
		if cfg.Mail.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for the smtp mail provider"))
		}
	case MailLog:
	default:
		errs = append(errs, fmt.Errorf("MAIL_PROVIDER: unknown provider %q", cfg.Mail.Provider))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
