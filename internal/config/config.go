package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret holds a credential that must never be printed or logged.
type Secret string

// String implements fmt.Stringer
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// LogValue implements slog.LogValuer
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// Reveal returns the raw value for the one place that needs it.
func (s Secret) Reveal() string {
	return string(s)
}

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	TablePrefix string
	CORSOrigins string

	// Session configuration
	SessionSecret       Secret
	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool
	// SessionSecretGenerated is true when no secret was configured and a random
	// one was created for this process (dev only)
	SessionSecretGenerated bool

	// Redis (optional): session revocation and rate limiting
	RedisAddr     string
	RedisPassword Secret

	// Text generation provider
	GenerationAPIURL  string
	GenerationAPIKey  Secret
	GenerationTimeout time.Duration
	GenerationReferer string
	GenerationTitle   string

	// Logging
	LogLevel    string
	LogDir      string
	LogMaxFiles int

	LoginRateLimitPerMinute int
	// TrustedProxies lists proxy IPs/CIDRs whose X-Forwarded-For is believed
	TrustedProxies []string
}

// Load reads configuration from the environment.
func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		TablePrefix: getTablePrefix(env),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		SessionSecret:       Secret(getEnv("SESSION_SECRET", "")),
		SessionTTL:          getDuration("SESSION_TTL", 24*time.Hour),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "narreyes_session"),
		SessionCookieSecure: getBool("SESSION_COOKIE_SECURE", env == "prod"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: Secret(getEnv("REDIS_PASSWORD", "")),

		GenerationAPIURL:  getEnv("GENERATION_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
		GenerationAPIKey:  Secret(getEnv("GENERATION_API_KEY", "")),
		GenerationTimeout: getDuration("GENERATION_TIMEOUT", 90*time.Second),
		GenerationReferer: getEnv("GENERATION_REFERER", "http://localhost:8080"),
		GenerationTitle:   getEnv("GENERATION_TITLE", "NarrEyes"),

		LogLevel:    getEnv("LOG_LEVEL", defaultLogLevel(env)),
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),

		LoginRateLimitPerMinute: getInt("LOGIN_RATE_LIMIT_PER_MINUTE", 20),
		TrustedProxies:          getList("TRUSTED_PROXIES"),
	}

	// Dev convenience: a per-process secret means sessions do not survive restarts
	if cfg.SessionSecret == "" && env == "dev" {
		cfg.SessionSecret = Secret(randomHex(32))
		cfg.SessionSecretGenerated = true
	}

	return cfg
}

// Validate reports configuration that would make the server unsafe or unusable.
func (c *Config) Validate() error {
	var errs []error

	if len(c.SessionSecret) < MinSessionSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSessionSecretLength))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.GenerationTimeout <= 0 {
		errs = append(errs, errors.New("GENERATION_TIMEOUT must be positive"))
	}
	if c.DatabaseURL == "" && !c.UsesMemoryStore() {
		errs = append(errs, errors.New("DATABASE_URL is required outside dev"))
	}
	if c.LoginRateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT_PER_MINUTE must be positive"))
	}

	return errors.Join(errs...)
}

// UsesMemoryStore reports whether data lives in process memory instead of Postgres.
func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseURL == "" && c.Environment == "dev"
}

// IsProduction reports whether the server runs in prod
func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

// defaultLogLevel returns the default log level based on environment
func defaultLogLevel(env string) string {
	if env == "dev" {
		return "debug"
	}
	return "info"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix, ok := os.LookupEnv("TABLE_PREFIX"); ok {
		return prefix
	}

	switch env {
	case "prod":
		return ""
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return defaultValue
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}
