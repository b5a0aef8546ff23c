package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
	BackendMongo  = "mongo"

	SessionStoreBackend = "backend"
	SessionStoreRedis   = "redis"

	UploadProviderLocal = "local"
	UploadProviderGCS   = "gcs"
)

type Config struct {
	Port string
	Env  string

	StorageBackend string
	DataFile       string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	MongoURI      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string

	SessionStore string
	SessionTTL   time.Duration
	CookieSecure bool

	// how long users stay cached in Redis
	CacheLifespan time.Duration

	AdminUsername string
	AdminPassword string

	UploadProvider    string
	UploadDir         string
	GCSBucket         string
	GCSCredentialJSON string

	CORSAllowedOrigins []string
	SkipMigrations     bool

	// RateLimit* guard the login and register routes; they need Redis.
	RateLimitEnabled bool
	RateLimitMax     int64
	RateLimitWindow  time.Duration
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// Load reads the process configuration from the environment.
func Load() *Config {
	cfg := &Config{
		Port:               firstEnv("8080", "PORT", "API_PORT"),
		Env:                strings.ToLower(strings.TrimSpace(os.Getenv("GO_ENV"))),
		StorageBackend:     strings.ToLower(firstEnv(BackendMemory, "STORAGE_BACKEND")),
		DataFile:           firstEnv("data.json", "DATA_FILE"),
		DBUser:             os.Getenv("DB_USER"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBHost:             firstEnv("localhost", "DB_HOST"),
		DBPort:             firstEnv("3306", "DB_PORT"),
		DBName:             firstEnv("invoices", "DB_NAME"),
		MongoURI:           firstEnv("", "MONGODB_URI", "MONGO_URI"),
		MongoDatabase:      firstEnv("invoice_app", "MONGODB_DATABASE"),
		RedisAddress:       strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		SessionStore:       strings.ToLower(firstEnv(SessionStoreBackend, "SESSION_STORE")),
		SessionTTL:         time.Duration(intFromEnv("SESSION_TTL_HOURS", 24)) * time.Hour,
		CookieSecure:       boolFromEnv("COOKIE_SECURE", false),
		CacheLifespan:      time.Duration(intFromEnv("CACHE_LIFESPAN", 1)) * time.Hour,
		AdminUsername:      firstEnv("admin", "ADMIN_USERNAME"),
		AdminPassword:      firstEnv("admin123", "ADMIN_PASSWORD"),
		UploadProvider:     strings.ToLower(firstEnv(UploadProviderLocal, "UPLOAD_PROVIDER")),
		UploadDir:          firstEnv("uploads", "UPLOAD_DIR"),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GCSCredentialJSON:  os.Getenv("GCS_CREDENTIALS_JSON"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		SkipMigrations:     boolFromEnv("SKIP_MIGRATIONS", false),
		RateLimitEnabled:   boolFromEnv("RATE_LIMIT_ENABLED", false),
		RateLimitMax:       int64(intFromEnv("RATE_LIMIT_MAX_REQUESTS", 20)),
		RateLimitWindow:    time.Duration(intFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 20
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func firstEnv(def string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolFromEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// retryDelay is the backoff before connection attempt+1: 2s, 4s ... capped at 30s.
func retryDelay(attempt int) time.Duration {
	sleep := time.Second * time.Duration(1<<min(attempt, 5))
	if sleep > 30*time.Second {
		sleep = 30 * time.Second
	}
	return sleep
}
