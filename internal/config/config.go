package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minSecretKeyLength = 32

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Mail      MailConfig
	OAuth     OAuthConfig
	Tokens    TokenConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Name                 string `env:"APP_NAME" envDefault:"Teamhub"`
	Env                  string `env:"APP_ENV" envDefault:"development"`
	BaseURL              string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	Addr                 string `env:"APP_ADDR" envDefault:":8080"`
	SecretKey            string `env:"APP_SECRET_KEY"`
	AssetVersion         string `env:"APP_ASSET_VERSION" envDefault:"1"`
	RequireVerifiedEmail bool   `env:"APP_REQUIRE_VERIFIED_EMAIL" envDefault:"false"`
	TOTPIssuer           string `env:"APP_TOTP_ISSUER" envDefault:"Teamhub"`
	// адреса или CIDR прокси, которым доверяем X-Forwarded-For и X-Real-IP
	TrustedProxies []string `env:"APP_TRUSTED_PROXIES" envSeparator:","`
}

type DatabaseConfig struct {
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         string `env:"DB_PORT" envDefault:"5432"`
	User         string `env:"DB_USER" envDefault:"teamhub"`
	Password     string `env:"DB_PASSWORD" envDefault:"teamhub"`
	DBName       string `env:"DB_NAME" envDefault:"teamhub"`
	SSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

type SessionConfig struct {
	CookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"teamhub_session"`
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"336h"`
	MFATTL     time.Duration `env:"SESSION_MFA_TTL" envDefault:"5m"`
	Secure     bool          `env:"SESSION_SECURE" envDefault:"false"`
}

type MailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	From         string `env:"MAIL_FROM" envDefault:"Teamhub <no-reply@teamhub.local>"`
	FailSilently bool   `env:"MAIL_FAIL_SILENTLY" envDefault:"true"`
}

type OAuthConfig struct {
	GoogleClientID     string `env:"OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"OAUTH_GOOGLE_CLIENT_SECRET"`
	GitHubClientID     string `env:"OAUTH_GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"OAUTH_GITHUB_CLIENT_SECRET"`
}

type TokenConfig struct {
	VerificationTTL time.Duration `env:"TOKEN_VERIFICATION_TTL" envDefault:"24h"`
	ResetTTL        time.Duration `env:"TOKEN_RESET_TTL" envDefault:"1h"`
	InvitationTTL   time.Duration `env:"TOKEN_INVITATION_TTL" envDefault:"168h"`
}

type RateLimitConfig struct {
	AuthPerMinute int `env:"RATE_LIMIT_AUTH_PER_MINUTE" envDefault:"10"`
	AuthBurst     int `env:"RATE_LIMIT_AUTH_BURST" envDefault:"5"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.App.SecretKey == "" {
		if !c.IsDevelopment() {
			return errors.New("APP_SECRET_KEY is required outside development")
		}
		c.App.SecretKey = "dev-secret-change-me-dev-secret-change-me"
	}
	if len(c.App.SecretKey) < minSecretKeyLength {
		return fmt.Errorf("APP_SECRET_KEY must be at least %d bytes", minSecretKeyLength)
	}
	if c.Session.TTL <= 0 || c.Session.MFATTL <= 0 {
		return errors.New("session TTLs must be positive")
	}
	if _, err := c.App.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyPrefixes разбирает APP_TRUSTED_PROXIES; одиночный адрес становится префиксом /32 или /128
func (a AppConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(a.TrustedProxies))
	for _, raw := range a.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("APP_TRUSTED_PROXIES: %w", err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("APP_TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN собирает строку подключения для pgx
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// String скрывает секреты
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{env: %s, addr: %s, db: %s@%s:%s/%s, secret: ***, resend: %t}",
		c.App.Env, c.App.Addr,
		c.Database.User, c.Database.Host, c.Database.Port, c.Database.DBName,
		c.Mail.ResendAPIKey != "",
	)
}
