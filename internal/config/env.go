package config

import (
	"log"
	"os"
	"strings"
	"time"

	"fleetconsole/internal/utils"

	"github.com/joho/godotenv"
)

const (
	defaultSessionSecret = "console-flash-secret-change-me"
	defaultJWTSecret     = "super-secret-key-change-me"
)

type Env struct {
	AppAddr            string
	GinMode            string
	APIBaseURL         string
	StorageDriver      string
	StorageDSN         string
	CacheDriver        string
	CacheTTL           time.Duration
	RedisAddr          string
	AMQPURL            string
	NotifyQueue        string
	SessionSecret      string
	CORSAllowedOrigins []string
	HTTPTimeout        time.Duration

	MockAPIAddr string
	JWTSecret   string
}

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: gagal membaca .env: %v", err)
	}

	return Env{
		AppAddr:            getenv("APP_ADDR", ":8080"),
		GinMode:            getenv("GIN_MODE", ""),
		APIBaseURL:         strings.TrimRight(getenv("API_BASE_URL", "http://localhost:8081/api"), "/"),
		StorageDriver:      strings.ToLower(getenv("STORAGE_DRIVER", "sqlite")),
		StorageDSN:         getenv("STORAGE_DSN", "console.db"),
		CacheDriver:        strings.ToLower(getenv("CACHE_DRIVER", "memory")),
		CacheTTL:           getduration("CACHE_TTL", 30*time.Second),
		RedisAddr:          getenv("REDIS_ADDR", "127.0.0.1:6379"),
		AMQPURL:            getenv("AMQP_URL", ""),
		NotifyQueue:        getenv("NOTIFY_QUEUE", "console.notifications"),
		SessionSecret:      getsecret("SESSION_SECRET", defaultSessionSecret),
		CORSAllowedOrigins: utils.SplitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		HTTPTimeout:        getduration("HTTP_TIMEOUT", 15*time.Second),

		MockAPIAddr: getenv("MOCKAPI_ADDR", ":8081"),
		JWTSecret:   getsecret("JWT_SECRET", defaultJWTSecret),
	}
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// getsecret is getenv for signing keys; falling back to the built-in key is
// logged so it does not go unnoticed outside development.
func getsecret(key, def string) string {
	v := getenv(key, "")
	if v == "" {
		log.Printf("warning: %s tidak diset, pakai key default (jangan dipakai di production)", key)
		return def
	}
	return v
}

func getduration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("warning: %s tidak valid (%q), pakai default %s", key, raw, def)
		return def
	}
	return d
}
