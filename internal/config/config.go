package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string
	// memory|postgres
	Store string

	JWTSecret  string
	TokenTTL   time.Duration
	SessionTTL time.Duration

	NeoFeedURL  string
	NeoAPIKey   string
	NeoTimeout  time.Duration
	NeoCacheTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SweepInterval    time.Duration
	LoginRateLimit   int
	UpstreamLimit    int
	MaxBodyBytes     int64
	OTelEndpoint     string
	ServiceName      string
	OTelSampleRatio  float64
	LogLevel         string
	WorkerHealthPort int

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads the process environment, after merging a .env file when one exists.
func Load() Config {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")

	return Config{
		Env:   env,
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),
		Store: getEnv("APP_STORE", "postgres"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		TokenTTL:   getEnvDuration("TOKEN_TTL", 24*time.Hour),
		SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),

		NeoFeedURL:  getEnv("NEO_FEED_URL", "https://api.nasa.gov/neo/rest/v1/feed"),
		NeoAPIKey:   getEnv("NEO_API_KEY", "DEMO_KEY"),
		NeoTimeout:  getEnvDuration("NEO_TIMEOUT", 30*time.Second),
		NeoCacheTTL: getEnvDuration("NEO_CACHE_TTL", 10*time.Minute),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", 15*time.Minute),
		LoginRateLimit:   getEnvInt("RATE_LIMIT_LOGIN", 10),
		UpstreamLimit:    getEnvInt("RATE_LIMIT_UPSTREAM", 30),
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		OTelEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:      getEnv("OTEL_SERVICE_NAME", "staroracle-api"),
		OTelSampleRatio:  getEnvFloat("OTEL_SAMPLE_RATIO", 1),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		WorkerHealthPort: getEnvInt("WORKER_HEALTH_PORT", 8081),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}
}

// Validate rejects configurations that would run with an unsafe signing key
// or unusable lifetimes.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		if c.Env != "dev" && c.Env != "test" {
			return errors.New("JWT_SECRET is required")
		}
	} else if len(c.JWTSecret) < 16 && c.Env == "prod" {
		return errors.New("JWT_SECRET must be at least 16 characters in prod")
	}

	if c.TokenTTL <= 0 || c.SessionTTL <= 0 {
		return fmt.Errorf("token and session ttl must be positive (token=%s session=%s)", c.TokenTTL, c.SessionTTL)
	}

	if c.Store != "postgres" && c.Store != "memory" {
		return fmt.Errorf("APP_STORE must be postgres or memory, got %q", c.Store)
	}

	return nil
}

// SigningSecret falls back to a random key, fixed for the life of the
// process, when none is set. Validate only allows that in dev and test, and
// tokens issued under it die with the process.
func (c Config) SigningSecret() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	return processSecret()
}

var processSecret = sync.OnceValue(func() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("config: read random signing key: %v", err))
	}
	return hex.EncodeToString(b)
})

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "staroracle")
	pass := getEnv("DB_PASSWORD", "staroracle")
	name := getEnv("DB_NAME", "staroracle")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fallback
		}
		return f
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fallback
		}
		return d
	}
	return fallback
}
