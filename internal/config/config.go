// Package config resolves CLI settings from the environment, optional .env
// files and the OS keyring.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultBaseURL  = "https://api.amazon.web.id/"
	DefaultTimeout  = 15 * time.Second
	DefaultCacheTTL = 10 * time.Minute
	DefaultMinTopup = int64(10000)
	DefaultProfile  = "default"

	DefaultRedisAddr  = "localhost:6379"
	DefaultKafkaTopic = "gamex.events"
)

// Session and cache backends.
const (
	BackendKeyring = "keyring"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
	BackendFile    = "file"
	BackendNone    = "none"
)

// Config holds the resolved settings for one CLI run.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Profile string

	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	CacheBackend string
	CacheTTL     time.Duration
	CacheDir     string

	KafkaBrokers []string
	KafkaTopic   string

	Output       string
	MinTopup     int64
	AllowPrivate bool
}

// EventsEnabled reports whether order and deposit events are published.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// LoadDotenv loads ./.env and <config dir>/.env when present. Variables
// already set in the environment are not overwritten.
func LoadDotenv() {
	for _, path := range []string{".env", filepath.Join(appConfigDir(), ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// Load resolves the configuration from GAMEX_* variables, falling back to
// defaults. Call LoadDotenv first to pick up .env files.
func Load() (Config, error) {
	cfg := Config{
		BaseURL:        DefaultBaseURL,
		Timeout:        DefaultTimeout,
		Profile:        DefaultProfile,
		SessionBackend: BackendKeyring,
		RedisAddr:      DefaultRedisAddr,
		CacheBackend:   BackendFile,
		CacheTTL:       DefaultCacheTTL,
		CacheDir:       filepath.Join(appConfigDir(), "cache"),
		KafkaTopic:     DefaultKafkaTopic,
		Output:         "text",
		MinTopup:       DefaultMinTopup,
	}

	if v := env("GAMEX_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := env("GAMEX_PROFILE"); v != "" {
		cfg.Profile = v
	}
	if v := env("GAMEX_OUTPUT"); v != "" {
		cfg.Output = strings.ToLower(v)
	}
	if v := env("GAMEX_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	cfg.RedisPassword = os.Getenv("GAMEX_REDIS_PASSWORD")
	if v := env("GAMEX_KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}
	cfg.KafkaBrokers = splitList(env("GAMEX_KAFKA_BROKERS"))
	if v := env("GAMEX_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	var err error
	if cfg.Timeout, err = durationEnv("GAMEX_TIMEOUT", cfg.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = durationEnv("GAMEX_CACHE_TTL", cfg.CacheTTL); err != nil {
		return Config{}, err
	}
	if v := env("GAMEX_REDIS_DB"); v != "" {
		if cfg.RedisDB, err = strconv.Atoi(v); err != nil || cfg.RedisDB < 0 {
			return Config{}, fmt.Errorf("invalid GAMEX_REDIS_DB %q", v)
		}
	}
	if v := env("GAMEX_MIN_TOPUP"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid GAMEX_MIN_TOPUP %q: must be a positive integer", v)
		}
		cfg.MinTopup = n
	}
	cfg.AllowPrivate = boolEnv("GAMEX_ALLOW_PRIVATE")

	if cfg.SessionBackend, err = oneOf("GAMEX_SESSION_BACKEND", cfg.SessionBackend, BackendKeyring, BackendRedis, BackendMemory); err != nil {
		return Config{}, err
	}
	if cfg.CacheBackend, err = oneOf("GAMEX_CACHE_BACKEND", cfg.CacheBackend, BackendFile, BackendRedis, BackendNone); err != nil {
		return Config{}, err
	}
	if boolEnv("GAMEX_NO_CACHE") {
		cfg.CacheBackend = BackendNone
	}
	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func boolEnv(key string) bool {
	v, _ := strconv.ParseBool(env(key))
	return v
}

// durationEnv accepts Go durations ("30s") and bare seconds ("30").
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := env(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		v = strconv.Itoa(secs) + "s"
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, os.Getenv(key))
	}
	return d, nil
}

func oneOf(key, def string, allowed ...string) (string, error) {
	v := strings.ToLower(env(key))
	if v == "" {
		return def, nil
	}
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q: must be one of %s", key, v, strings.Join(allowed, ", "))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
