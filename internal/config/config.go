package config

import (
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/harmonia-labs/canvas-adapter/pkg/config"
)

// Config holds the runtime configuration for the canvas-adapter.
type Config struct {
	ServiceName string
	Env         string
	LogLevel    string

	Port             int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CachePrefix string

	// Upstream endpoints.
	WebBaseURL     string
	PartnerBaseURL string
	SecretsURL     string

	// TOTP secret table lifecycle.
	SecretRefreshInterval time.Duration
	SecretFetchTimeout    time.Duration
	SecretFetchAttempts   int
	SecretFetchBackoff    time.Duration

	// SecretFallbackJSON optionally carries an inline version->bytes table used
	// when the initial remote fetch fails. Unset means a failed initial fetch
	// is fatal.
	SecretFallbackJSON string

	// Session cookie identifying the upstream account. Resolved from AWS
	// Secrets Manager when SP_DC is empty and CookieSecretName is set.
	SPDCCookie       string
	AWSRegion        string
	CookieSecretName string

	TokenReason      string
	TokenProductType string
	TokenCacheKey    string

	CanvasTTL time.Duration
}

// Load loads configuration from environment variables and optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:           pkgconfig.GetEnv("SERVICE_NAME", "canvas-adapter"),
		Env:                   pkgconfig.GetEnv("ENV", "dev"),
		LogLevel:              pkgconfig.GetEnv("LOG_LEVEL", "info"),
		Port:                  pkgconfig.GetEnvInt("PORT", 9040),
		HTTPReadTimeout:       pkgconfig.GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:      pkgconfig.GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		HTTPIdleTimeout:       pkgconfig.GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		RedisAddr:             pkgconfig.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:               pkgconfig.GetEnvInt("REDIS_DB", 0),
		RedisPass:             pkgconfig.GetEnv("REDIS_PASS", ""),
		CachePrefix:           pkgconfig.GetEnv("CACHE_PREFIX", "canvas"),
		WebBaseURL:            pkgconfig.GetEnv("WEB_BASE_URL", "https://open.spotify.com"),
		PartnerBaseURL:        pkgconfig.GetEnv("PARTNER_BASE_URL", "https://api-partner.spotify.com"),
		SecretsURL:            pkgconfig.GetEnv("SECRETS_URL", "https://raw.githubusercontent.com/Thereallo1026/spotify-secrets/main/secrets/secretDict.json"),
		SecretRefreshInterval: pkgconfig.GetEnvDuration("SECRET_REFRESH_INTERVAL", 60*time.Minute),
		SecretFetchTimeout:    pkgconfig.GetEnvDuration("SECRET_FETCH_TIMEOUT", 10*time.Second),
		SecretFetchAttempts:   pkgconfig.GetEnvInt("SECRET_FETCH_ATTEMPTS", 3),
		SecretFetchBackoff:    pkgconfig.GetEnvDuration("SECRET_FETCH_BACKOFF", 1*time.Second),
		SecretFallbackJSON:    pkgconfig.GetEnv("SECRET_FALLBACK_JSON", ""),
		SPDCCookie:            pkgconfig.GetEnv("SP_DC", ""),
		AWSRegion:             pkgconfig.GetEnv("AWS_REGION", "us-east-2"),
		CookieSecretName:      pkgconfig.GetEnv("COOKIE_SECRET_NAME", ""),
		TokenReason:           pkgconfig.GetEnv("TOKEN_REASON", "transport"),
		TokenProductType:      pkgconfig.GetEnv("TOKEN_PRODUCT_TYPE", "web-player"),
		TokenCacheKey:         pkgconfig.GetEnv("TOKEN_CACHE_KEY", "access_token"),
		CanvasTTL:             pkgconfig.GetEnvDuration("CANVAS_TTL", 7*24*time.Hour),
	}
}
