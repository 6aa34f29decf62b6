// Package config loads process configuration from the environment,
// falling back to sane local-development defaults when a variable is
// unset. Grounded on the teacher's go.mod carrying
// github.com/joho/godotenv for its service entrypoint's .env-based
// local configuration; Load wraps godotenv.Load so cmd/server picks
// up a .env file the same way before reading os.Getenv.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every environment-derived setting a running server
// needs: where to persist state, and the house-rule/timing defaults
// for freshly created games.
type Config struct {
	PostgresDSN string
	RedisAddr   string
	RedisDB     int

	EliminationScore int
	OpeningThreshold int
	TurnTimeout      time.Duration

	LogLevel logrus.Level
}

// Load reads a .env file if present (missing is not an error — the
// same tolerant behaviour godotenv.Load's callers rely on in
// development) and returns a Config populated from the environment,
// falling back to defaults for anything unset.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded, using process environment only")
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}

	return Config{
		PostgresDSN:      getEnv("DATABASE_URL", "postgres://localhost:5432/scala40?sslmode=disable"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		EliminationScore: getEnvInt("ELIMINATION_SCORE", 101),
		OpeningThreshold: getEnvInt("OPENING_THRESHOLD", 40),
		TurnTimeout:      getEnvDuration("TURN_TIMEOUT", 60*time.Second),
		LogLevel:         level,
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).WithError(err).Warn("invalid integer env var, using default")
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).WithError(err).Warn("invalid duration env var, using default")
		return fallback
	}
	return d
}
