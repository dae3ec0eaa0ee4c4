package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/padelhub/storefront/pkg/model"
)

// Config holds the runtime configuration for the storefront gateway.
type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	LogFile     string
	Port        int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int
	// RequestTimeout bounds the work done for one API request.
	RequestTimeout   time.Duration

	BackendBaseURL  string
	BackendTimeout  time.Duration
	BackendRetryMax int
	RateRPS         int
	RateBurst       int

	// SessionStore is "redis" or "memory".
	SessionStore string
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	SessionTTL   time.Duration
	SessionSweep time.Duration
	CookieName   string
	CookieSecure bool

	// NATSURL empty disables catalog events.
	NATSURL           string
	NATSSubjectPrefix string
	NATSPubTimeout    time.Duration

	// SecretsProvider is "aws" or "none".
	SecretsProvider   string
	BackendSecretName string
	AWSRegion         string
	SecretsCacheTTL   time.Duration

	// ChromePath empty disables the pdf export.
	ChromePath      string
	PDFTimeout      time.Duration
	CurrencyLocales map[model.Currency]string
}

// Load loads configuration from environment variables and optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:       GetEnv("SERVICE_NAME", "storefront"),
		Env:               GetEnv("ENV", "dev"),
		LogLevel:          GetEnv("LOG_LEVEL", "info"),
		LogFile:           GetEnv("LOG_FILE", ""),
		Port:              GetEnvInt("PORT", 8080),
		HTTPReadTimeout:   GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:  GetEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		HTTPIdleTimeout:   GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:     GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),
		RequestTimeout:    GetEnvDuration("REQUEST_TIMEOUT", 45*time.Second),
		BackendBaseURL:    GetEnv("BACKEND_BASE_URL", "http://localhost:3000/api"),
		BackendTimeout:    GetEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
		BackendRetryMax:   GetEnvInt("BACKEND_RETRY_MAX", 0),
		RateRPS:           GetEnvInt("BACKEND_RATE_RPS", 0),
		RateBurst:         GetEnvInt("BACKEND_RATE_BURST", 10),
		SessionStore:      strings.ToLower(GetEnv("SESSION_STORE", "memory")),
		RedisAddr:         GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         GetEnv("REDIS_PASS", ""),
		RedisDB:           GetEnvInt("REDIS_DB", 0),
		SessionTTL:        GetEnvDuration("SESSION_TTL", 12*time.Hour),
		SessionSweep:      GetEnvDuration("SESSION_SWEEP", 10*time.Minute),
		CookieName:        GetEnv("SESSION_COOKIE", "storefront_session"),
		CookieSecure:      GetEnvBool("COOKIE_SECURE", false),
		NATSURL:           GetEnv("NATS_URL", ""),
		NATSSubjectPrefix: GetEnv("NATS_SUBJECT_PREFIX", "evt.storefront.catalog"),
		NATSPubTimeout:    GetEnvDuration("NATS_PUBLISH_TIMEOUT", 5*time.Second),
		SecretsProvider:   strings.ToLower(GetEnv("SECRETS_PROVIDER", "none")),
		BackendSecretName: GetEnv("BACKEND_SECRET_NAME", "backend"),
		AWSRegion:         GetEnv("AWS_REGION", "us-east-2"),
		SecretsCacheTTL:   GetEnvDuration("SECRETS_CACHE_TTL", 1*time.Hour),
		ChromePath:        GetEnv("CHROME_PATH", ""),
		PDFTimeout:        GetEnvDuration("PDF_TIMEOUT", 30*time.Second),
		CurrencyLocales:   ParseCurrencyLocales(GetEnvList("CURRENCY_LOCALES", nil)),
	}
}

// Validate reports settings the gateway cannot start with.
func (c *Config) Validate() error {
	switch c.SessionStore {
	case "redis", "memory":
	default:
		return fmt.Errorf("SESSION_STORE must be redis or memory, got %q", c.SessionStore)
	}
	switch c.SecretsProvider {
	case "aws", "none":
	default:
		return fmt.Errorf("SECRETS_PROVIDER must be aws or none, got %q", c.SecretsProvider)
	}
	if c.Port <= 0 {
		return fmt.Errorf("PORT must be positive, got %d", c.Port)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.BackendRetryMax < 0 {
		return fmt.Errorf("BACKEND_RETRY_MAX must not be negative, got %d", c.BackendRetryMax)
	}
	return nil
}

// ParseCurrencyLocales reads CODE=locale pairs such as "USD=en-US". Malformed
// entries are skipped.
func ParseCurrencyLocales(pairs []string) map[model.Currency]string {
	out := make(map[model.Currency]string, len(pairs))
	for _, p := range pairs {
		code, locale, ok := strings.Cut(p, "=")
		code = strings.ToUpper(strings.TrimSpace(code))
		locale = strings.TrimSpace(locale)
		if !ok || code == "" || locale == "" {
			continue
		}
		out[model.Currency(code)] = locale
	}
	return out
}
