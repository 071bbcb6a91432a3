package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Clipboard modes. "response" returns the export text to the HTTP caller,
// "system" also writes it to the host clipboard.
const (
	ClipboardResponse = "response"
	ClipboardSystem   = "system"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request HTTP timeout, covers a whole batch fetch

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Item store
	StoreBackend   string        // sqlite (default) | redis | memory (nothing survives exit)
	SQLitePath     string        // database file for the sqlite backend
	ListingBaseURL string        // prefix for listing URLs in exports and history
	AuditInterval  time.Duration // periodic store audit, 0 = startup only

	// Fetching
	FetchMaxConcurrent int           // dispatcher slots (default: 3)
	FetchDelay         time.Duration // slot hold after each request (default: 500ms)
	ItemDelay          time.Duration // pause between batch items (default: 300ms)
	FetchTimeout       time.Duration // direct HTTP client timeout
	FallbackTimeout    time.Duration // race limit for the fallback path (default: 10s)
	FallbackProxy      string        // optional proxy URL for the fallback fetcher, empty = no fallback
	UserAgent          string

	// Presentation
	RenameDebounce time.Duration // quiet period before a rename is written
	ClipboardMode  string        // response | system
	ExportNewOnly  bool          // page exports skip kept items already exported

	// Redis (only read when StoreBackend is redis)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts    []string // optional, restrict access to specific Host headers
	AllowedCIDRS    []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy      bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateLimitBurst  int      // API requests allowed in a burst per client IP
	RateLimitRefill int      // API tokens refilled per client IP per minute
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SHELF_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SHELF_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("SHELF_REQUEST_TIMEOUT", 2*time.Minute),

		// Logging
		LogLevel:  getenv("SHELF_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SHELF_PRETTY_LOG", true),

		// Item store
		StoreBackend:   oneOf("SHELF_STORE_BACKEND", BackendSQLite, BackendMemory, BackendRedis, BackendSQLite),
		SQLitePath:     getenv("SHELF_SQLITE_PATH", "shelf.db"),
		ListingBaseURL: getenv("SHELF_LISTING_BASE_URL", "https://booth.pm/ja/items/"),
		AuditInterval:  mustDuration("SHELF_AUDIT_INTERVAL", 0),

		// Fetching
		FetchMaxConcurrent: getenvInt("SHELF_FETCH_MAX_CONCURRENT", 3),
		FetchDelay:         mustDuration("SHELF_FETCH_DELAY", 500*time.Millisecond),
		ItemDelay:          mustDuration("SHELF_ITEM_DELAY", 300*time.Millisecond),
		FetchTimeout:       mustDuration("SHELF_FETCH_TIMEOUT", 15*time.Second),
		FallbackTimeout:    mustDuration("SHELF_FALLBACK_TIMEOUT", 10*time.Second),
		FallbackProxy:      getenv("SHELF_FALLBACK_PROXY", ""),
		UserAgent:          getenv("SHELF_USER_AGENT", "shelf/1.0"),

		// Presentation
		RenameDebounce: mustDuration("SHELF_RENAME_DEBOUNCE", 500*time.Millisecond),
		ClipboardMode:  oneOf("SHELF_CLIPBOARD_MODE", ClipboardResponse, ClipboardResponse, ClipboardSystem),
		ExportNewOnly:  mustBool("SHELF_EXPORT_NEW_ONLY", false),

		// Access restrictions
		AllowedHosts:    parseAllowedIPs(getenv("SHELF_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    parseAllowedIPs(getenv("SHELF_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("SHELF_TRUST_PROXY", false),
		RateLimitBurst:  getenvInt("SHELF_RATE_LIMIT_BURST", 60),
		RateLimitRefill: getenvInt("SHELF_RATE_LIMIT_REFILL", 120),
	}

	if cfg.FetchMaxConcurrent < 1 {
		panic(fmt.Sprintf("❌ FATAL: SHELF_FETCH_MAX_CONCURRENT must be >= 1, got %d", cfg.FetchMaxConcurrent))
	}

	if cfg.StoreBackend == BackendRedis {
		loadRedis(cfg)
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		if cfg.FallbackProxy != "" {
			cfgCopy.FallbackProxy = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("SHELF_REDIS_ADDR")
	cfg.RedisUser = getenv("SHELF_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("SHELF_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("SHELF_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("SHELF_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: SHELF_REDIS_PASSWORD is required when SHELF_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := requireEnv(key)
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

// oneOf returns the lower-cased value of key, or def when unset.
// Any value outside allowed is fatal.
func oneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(getenv(key, def)))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	panic(fmt.Sprintf("❌ FATAL: Invalid value for %s: %q (allowed: %s)", key, v, strings.Join(allowed, ", ")))
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
