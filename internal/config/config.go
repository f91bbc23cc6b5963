package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint  string
	ClientOrigins []string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	RunMigrations     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SyncRatePerMinute and SyncBurst bound provider syncs per owner. Only
	// enforced when Redis is configured.
	SyncRatePerMinute int
	SyncBurst         int

	InvoicingConfigDir string

	Google    GoogleConfig
	Digest    DigestConfig
	Providers ProviderDefaults
}

// GoogleConfig is the OAuth client used to refresh owner calendar tokens.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// DigestConfig controls the daily completed-bookings notification.
type DigestConfig struct {
	Enabled  bool
	Cron     string
	Timezone string
	// Timeout is a budget; an overrun is logged, the run is not cut short.
	Timeout time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:            getenv("APP_SERVICE", "hullbook"),
		AppVersion:         getenv("APP_VERSION", "0.1.0"),
		Environment:        getenv("ENVIRONMENT", "development"),
		HTTPAddr:           getenv("HTTP_ADDR", ":"+getenv("PORT", "8080")),
		OTLPEndpoint:       getenv("OTLP_ENDPOINT", "localhost:4317"),
		ClientOrigins:      parseList(getenv("CLIENT_ORIGIN", "http://localhost:5173")),
		DBType:             getenv("DATABASE_TYPE", "postgres"),
		DBHost:             getenv("DATABASE_HOST", "localhost"),
		DBPort:             getenv("DATABASE_PORT", "5432"),
		DBName:             getenv("DATABASE_NAME", "hullbook"),
		DBUser:             getenv("DATABASE_USER", "postgres"),
		DBPassword:         getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:          getenv("DATABASE_SSLMODE", "disable"),
		DBPath:             getenv("DATABASE_PATH", "hullbook.db"),
		DBMaxIdleConn:      getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:      getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime:  getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime:  getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		RunMigrations:      getenvBool("DATABASE_RUN_MIGRATIONS", true),
		RedisAddr:          strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:      getenv("REDIS_PASSWORD", ""),
		RedisDB:            getenvInt("REDIS_DB", 0),
		SyncRatePerMinute:  getenvInt("SYNC_RATE_PER_MINUTE", 6),
		SyncBurst:          getenvInt("SYNC_BURST", 3),
		InvoicingConfigDir: strings.TrimSpace(getenv("INVOICING_CONFIG_DIR", "")),
		Google: GoogleConfig{
			ClientID:     strings.TrimSpace(getenv("GOOGLE_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(getenv("GOOGLE_CLIENT_SECRET", "")),
			RedirectURL:  strings.TrimSpace(getenv("GOOGLE_REDIRECT_URI", "")),
		},
		Digest: DigestConfig{
			Enabled:  getenvBool("DAILY_DIGEST_ENABLED", true),
			Cron:     strings.TrimSpace(getenv("DAILY_DIGEST_CRON", getenv("DAILY_PUSH_CRON", "0 20 * * *"))),
			Timezone: strings.TrimSpace(getenv("DIGEST_TIMEZONE", "UTC")),
			Timeout:  getenvDuration("DIGEST_TIMEOUT", 5*time.Minute),
		},
	}

	if err := envconfig.Process("", &cfg.Providers); err != nil {
		log.Printf("[config] provider defaults ignored: %v", err)
		cfg.Providers = ProviderDefaults{}
	}

	return cfg
}

// IsProduction reports whether the service runs in a production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// getenvDuration accepts Go durations ("90s", "5m") or whole seconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return def
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
