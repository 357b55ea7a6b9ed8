package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment.
type Config struct {
	AppEnv   string
	HTTPPort string

	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDatabase string

	UseRedis      bool
	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret []byte

	StateCacheTTL  time.Duration
	VoyageLockTTL  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	BacklogInterval time.Duration
	ReviewOverdue   time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		PGHost:     os.Getenv("PG_HOST"),
		PGPort:     getEnv("PG_PORT", "5432"),
		PGUser:     os.Getenv("PG_USER"),
		PGPassword: os.Getenv("PG_PASSWORD"),
		PGDatabase: os.Getenv("PG_DB"),

		UseRedis:      getBool("USE_REDIS", true),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),

		StateCacheTTL:  time.Duration(getInt("STATE_CACHE_TTL_SECONDS", 60)) * time.Second,
		VoyageLockTTL:  time.Duration(getInt("VOYAGE_LOCK_TTL_SECONDS", 30)) * time.Second,
		RateLimitRPS:   float64(getInt("RATE_LIMIT_RPS", 5)),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 10),

		BacklogInterval: time.Duration(getInt("BACKLOG_INTERVAL_MINUTES", 15)) * time.Minute,
		ReviewOverdue:   time.Duration(getInt("REVIEW_OVERDUE_HOURS", 12)) * time.Hour,
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	return cfg, nil
}

// PostgresDSN builds the connection string shared by sqlx and GORM.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// RedisAddr returns host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
