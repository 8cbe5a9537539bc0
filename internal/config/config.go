package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by LINEMARK_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	ListenAddr      string        // ex: "127.0.0.1:7717"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout of the control API

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	OptionsFile string   // path to the YAML options file (encryption, scope, sort order...)
	Workspaces  []string // known workspace roots (first one is the active workspace)
	Backend     string   // "memory" | "redis" | "sqlite"
	SQLitePath  string   // database file for the sqlite backend

	CheckInterval         time.Duration // periodic staleness check, 0 => only on demand
	OptionsReloadInterval time.Duration // periodic re-read of OptionsFile, 0 => only on demand

	// Redis
	RedisURL            string        // redis:// URL, overrides Addr/User/Password/DB when set
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "127.0.0.1, ::1")
	AllowedHosts []string // optional, Host headers accepted by the API (e.g. "localhost:7717")
	TrustProxy   bool     // true => trust X-Forwarded-For headers
	RateBurst    int      // per-IP burst of the API rate limiter, 0 => disabled
	RatePerMin   int      // per-IP refill per minute
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("LINEMARK_LISTEN_ADDR", "127.0.0.1:7717"),
		ShutdownTimeout: mustDuration("LINEMARK_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("LINEMARK_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("LINEMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LINEMARK_PRETTY_LOG", true),

		// Storage
		OptionsFile: getenv("LINEMARK_OPTIONS_FILE", defaultOptionsFile()),
		Workspaces:  splitAndTrim(getenv("LINEMARK_WORKSPACES", "")),
		Backend:     strings.ToLower(getenv("LINEMARK_BACKEND", BackendSQLite)),
		SQLitePath:  getenv("LINEMARK_SQLITE_PATH", defaultDataFile("linemark.db")),

		// Staleness
		CheckInterval:         mustDuration("LINEMARK_CHECK_INTERVAL", 0),
		OptionsReloadInterval: mustDuration("LINEMARK_OPTIONS_RELOAD_INTERVAL", 0),

		// Redis settings
		RedisURL:            getenv("LINEMARK_REDIS_URL", ""),
		RedisAddr:           getenv("LINEMARK_REDIS_ADDR", "localhost:6379"),
		RedisUser:           getenv("LINEMARK_REDIS_USERNAME", ""),
		RedisPassword:       getenv("LINEMARK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("LINEMARK_REDIS_DB", 0),
		RedisDT:             mustDuration("LINEMARK_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("LINEMARK_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("LINEMARK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("LINEMARK_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("LINEMARK_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("LINEMARK_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("LINEMARK_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("LINEMARK_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("LINEMARK_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("LINEMARK_ALLOWED_CIDRS", "127.0.0.1,::1")),
		AllowedHosts: splitAndTrim(getenv("LINEMARK_ALLOWED_HOSTS", "")),
		TrustProxy:   mustBool("LINEMARK_TRUST_PROXY", false),
		RateBurst:    getenvInt("LINEMARK_RATE_BURST", 120),
		RatePerMin:   getenvInt("LINEMARK_RATE_PER_MIN", 600),
	}

	switch cfg.Backend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		panic(fmt.Sprintf("❌ FATAL: unsupported LINEMARK_BACKEND %q", cfg.Backend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisURL != "" {
			cfgCopy.RedisURL = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// defaultOptionsFile places the options file in the user config dir,
// falling back to the working directory.
func defaultOptionsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "linemark.yaml"
	}
	return filepath.Join(dir, "linemark", "options.yaml")
}

func defaultDataFile(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "linemark", name)
}
