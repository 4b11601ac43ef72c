package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"

	PreferencesSame  = "same"
	PreferencesRedis = "redis"
)

type Config struct {
	// HTTP Server
	Port string

	// CIDRs whose X-Forwarded-For is trusted, in addition to private ranges
	TrustedProxies []string

	// Backend selection
	DataBackend        string
	PreferencesBackend string

	// Database
	SQLiteDBPath string
	SeedDir      string

	// Redis
	RedisAddr string
	RedisDB   int

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Planning
	ProgressWriteRetries int
	PlanCacheSize        int
	PlanCacheTTL         time.Duration
	DefaultUser          string

	LogLevel string

	fileErr error
}

// Load builds the configuration from defaults, then the optional TOML file
// named by CONFIG_FILE, then environment variables. Later sources win.
func Load() *Config {
	base := defaults()
	var fileErr error
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fileErr = applyFile(&base, path)
	}

	return &Config{
		Port:           getEnv("PORT", base.Port),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", base.TrustedProxies),

		DataBackend:        getEnv("DATA_BACKEND", base.DataBackend),
		PreferencesBackend: getEnv("PREFERENCES_BACKEND", base.PreferencesBackend),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", base.SQLiteDBPath),
		SeedDir:      getEnv("SEED_DIR", base.SeedDir),

		RedisAddr: getEnv("REDIS_ADDR", base.RedisAddr),
		RedisDB:   getEnvInt("REDIS_DB", base.RedisDB),

		AMQPURL:      getEnv("AMQP_URL", base.AMQPURL),
		AMQPExchange: getEnv("AMQP_EXCHANGE", base.AMQPExchange),
		AMQPQueue:    getEnv("AMQP_QUEUE", base.AMQPQueue),

		ProgressWriteRetries: getEnvInt("PROGRESS_WRITE_RETRIES", base.ProgressWriteRetries),
		PlanCacheSize:        getEnvInt("PLAN_CACHE_SIZE", base.PlanCacheSize),
		PlanCacheTTL:         getEnvDuration("PLAN_CACHE_TTL", base.PlanCacheTTL),
		DefaultUser:          getEnv("DEFAULT_USER", base.DefaultUser),

		LogLevel: getEnv("LOG_LEVEL", base.LogLevel),

		fileErr: fileErr,
	}
}

func defaults() Config {
	return Config{
		Port:                 "8081",
		DataBackend:          BackendMemory,
		PreferencesBackend:   PreferencesSame,
		SQLiteDBPath:         "./data/payoff.db",
		RedisAddr:            "localhost:6379",
		AMQPExchange:         "payoff",
		AMQPQueue:            "payoff_milestones",
		ProgressWriteRetries: 3,
		PlanCacheSize:        256,
		PlanCacheTTL:         10 * time.Minute,
		DefaultUser:          "default",
		LogLevel:             "info",
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errors []string

	if c.fileErr != nil {
		errors = append(errors, c.fileErr.Error())
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	validPreferences := []string{PreferencesSame, PreferencesRedis}
	if !slices.Contains(validPreferences, c.PreferencesBackend) {
		errors = append(errors, fmt.Sprintf("invalid preferences backend '%s': must be one of %v", c.PreferencesBackend, validPreferences))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.SeedDir != "" {
		if info, err := os.Stat(c.SeedDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("seed directory '%s' does not exist", c.SeedDir))
		}
	}

	if c.PreferencesBackend == PreferencesRedis {
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address cannot be empty when using redis preferences")
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			errors = append(errors, fmt.Sprintf("invalid redis db %d: must be between 0 and 15", c.RedisDB))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ProgressWriteRetries < 0 || c.ProgressWriteRetries > 10 {
		errors = append(errors, fmt.Sprintf("invalid progress write retries %d: must be between 0 and 10", c.ProgressWriteRetries))
	}
	if c.PlanCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid plan cache size %d: must not be negative", c.PlanCacheSize))
	}
	if c.PlanCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid plan cache ttl %v: must be at least 1 second", c.PlanCacheTTL))
	}
	if strings.TrimSpace(c.DefaultUser) == "" {
		errors = append(errors, "default user cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// UsesAMQP reports whether a broker is configured.
func (c *Config) UsesAMQP() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
