// Package config loads the relay bot's configuration from environment
// variables with defaults, normalization and validation. It covers the bot
// credentials, the registry store, update intake, the ops HTTP server,
// throttling, logging and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Update intake modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Registry store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the bot.
type Config struct {
	// Bot credentials and identity
	APIID         int64  // BOT_API_ID
	APIHash       string // BOT_API_HASH
	BotToken      string // BOT_TOKEN
	AdminID       int64  // ADMIN_ID, the operator chat
	SourceChannel string // SOURCE_CHANNEL, @username or numeric id
	BotName       string // BOT_NAME, fallback for deep links
	Language      string // BOT_LANGUAGE, fa|en
	PromoLink     string // PROMO_LINK

	// Store
	DBDriver    string // sqlite|postgres
	DBName      string // SQLite file
	DatabaseURL string // postgres DSN
	ImportFile  string // legacy import document, consumed once

	// Update intake
	UpdateMode    string        // polling|webhook
	PollTimeout   time.Duration // getUpdates long-poll timeout
	WebhookURL    string        // public URL registered with setWebhook
	WebhookSecret string        // X-Telegram-Bot-Api-Secret-Token
	WebhookPath   string        // route on the ops server
	DedupeTTL     time.Duration // how long an update id stays claimed

	// Bot API client
	APIBaseURL    string
	TelegramRPS   float64
	TelegramBurst int

	// Per-requester throttle
	RequestRPS   float64
	RequestBurst int

	// Ops HTTP server
	OpsAddr           string // empty disables the server
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	GinMode           string // debug|release|test
	APIBasePath       string
	RateRPS           float64 // per-caller limit on the ops server
	RateBurst         int
	Security          SecurityConfig

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool

	// Observability
	OTEL OTELConfig
}


// Load reads configuration from environment variables, applies defaults,
// normalizes values and validates the result. Every missing or malformed
// required value is reported in the returned error.
func Load() (Config, error) {
	var problems []error

	cfg := Config{
		APIHash:       strings.TrimSpace(os.Getenv("BOT_API_HASH")),
		BotToken:      strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		SourceChannel: strings.TrimSpace(getenv("SOURCE_CHANNEL", "@asdfasdgfsdg")),
		BotName:       strings.TrimPrefix(getenv("BOT_NAME", "NegahdarBot"), "@"),
		Language:      strings.ToLower(getenv("BOT_LANGUAGE", "fa")),
		PromoLink:     getenv("PROMO_LINK", "https://t.me/+vCSljlQ15BkzMzE0"),

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),
		DBName:      getenv("DB_NAME", "negahdar.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ImportFile:  getenv("IMPORT_FILE", "legacy_import.json"),

		UpdateMode:    strings.ToLower(getenv("UPDATE_MODE", ModePolling)),
		PollTimeout:   getdur("POLL_TIMEOUT", 30*time.Second),
		WebhookURL:    os.Getenv("WEBHOOK_URL"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		WebhookPath:   normalizeBasePath(getenv("WEBHOOK_PATH", "/telegram/webhook")),
		DedupeTTL:     getdur("UPDATE_DEDUPE_TTL", 24*time.Hour),

		APIBaseURL:    strings.TrimRight(getenv("BOT_API_BASE_URL", "https://api.telegram.org"), "/"),
		TelegramRPS:   getfloat("TELEGRAM_RPS", 25),
		TelegramBurst: getint("TELEGRAM_BURST", 5),

		RequestRPS:   getfloat("REQUEST_RPS", 0.5),
		RequestBurst: getint("REQUEST_BURST", 5),

		OpsAddr:           getenvAllowEmpty("OPS_ADDR", ":8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		APIBasePath:       normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
		RateRPS:           getfloat("RATE_RPS", 5.0),
		RateBurst:         getint("RATE_BURST", 10),
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "relaybot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- required ---
	if id, err := requireInt("BOT_API_ID"); err != nil {
		problems = append(problems, err)
	} else if id <= 0 {
		problems = append(problems, errors.New("BOT_API_ID must be a positive integer"))
	} else {
		cfg.APIID = id
	}
	if cfg.APIHash == "" {
		problems = append(problems, errors.New("BOT_API_HASH is required"))
	}
	if cfg.BotToken == "" {
		problems = append(problems, errors.New("BOT_TOKEN is required"))
	}
	if id, err := requireInt("ADMIN_ID"); err != nil {
		problems = append(problems, err)
	} else {
		cfg.AdminID = id
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		problems = append(problems, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	if cfg.SourceChannel == "" {
		problems = append(problems, errors.New("SOURCE_CHANNEL must not be empty"))
	}
	switch cfg.DBDriver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.DBName) == "" {
			problems = append(problems, errors.New("DB_NAME must not be empty"))
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			problems = append(problems, errors.New("DATABASE_URL is required when DB_DRIVER=postgres"))
		}
	default:
		problems = append(problems, fmt.Errorf("DB_DRIVER must be %q or %q", DriverSQLite, DriverPostgres))
	}
	switch cfg.UpdateMode {
	case ModePolling:
		if cfg.PollTimeout < 0 {
			problems = append(problems, errors.New("POLL_TIMEOUT must be >= 0"))
		}
	case ModeWebhook:
		if !strings.HasPrefix(cfg.WebhookURL, "https://") {
			problems = append(problems, errors.New("WEBHOOK_URL must be an https URL in webhook mode"))
		}
		if cfg.OpsAddr == "" {
			problems = append(problems, errors.New("OPS_ADDR must be set in webhook mode"))
		}
	default:
		problems = append(problems, fmt.Errorf("UPDATE_MODE must be %q or %q", ModePolling, ModeWebhook))
	}
	if cfg.DedupeTTL <= 0 {
		problems = append(problems, errors.New("UPDATE_DEDUPE_TTL must be > 0"))
	}
	if cfg.TelegramRPS < 0 || cfg.RequestRPS < 0 || cfg.RateRPS < 0 {
		problems = append(problems, errors.New("TELEGRAM_RPS, REQUEST_RPS and RATE_RPS must be >= 0"))
	}
	if cfg.TelegramBurst < 1 || cfg.RequestBurst < 1 || cfg.RateBurst < 1 {
		problems = append(problems, errors.New("TELEGRAM_BURST, REQUEST_BURST and RATE_BURST must be >= 1"))
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		problems = append(problems, errors.New("timeouts must be positive durations"))
	}
	if cfg.Security.HSTSMaxAge < 0 {
		problems = append(problems, errors.New("HSTS_MAX_AGE must be >= 0"))
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		problems = append(problems, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]"))
	}

	return cfg, errors.Join(problems...)
}

// ---- helpers (no external deps) ----

func requireInt(k string) (int64, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return 0, fmt.Errorf("%s is required", k)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", k)
	}
	return n, nil
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

// getenvAllowEmpty returns def only when k is unset; an explicitly empty
// value is kept.
func getenvAllowEmpty(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
