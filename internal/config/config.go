// internal/config/config.go
//
// Environment-driven configuration for the server.
// main loads .env with godotenv first, so everything here reads plain env vars.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robalobadob/memory-game/internal/game"
)

// Config is the resolved server configuration.
type Config struct {
	Port          string
	LogLevel      string
	DBPath        string
	JWTSecret     string
	JWTExpiryDays int
	CookieName    string
	ClientOrigin  string
	Production    bool
	CatalogFile   string
	TurnLimit     int
	MismatchDelay time.Duration
	DailySalt     string
	SessionIdle   time.Duration // 0 keeps sessions until deleted
}

// FromEnv reads the configuration, applying defaults for unset values.
func FromEnv() (Config, error) {
	c := Config{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DBPath:       getEnv("DB_PATH", "./data/app.db"),
		JWTSecret:    getEnv("JWT_SECRET", "dev_secret_change_me"),
		CookieName:   getEnv("COOKIE_NAME", "memory_token"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:   os.Getenv("NODE_ENV") == "production",
		CatalogFile:  os.Getenv("CATALOG_FILE"),
		DailySalt:    getEnv("DAILY_SALT", "local_dev_salt"),
	}
	var err error
	if c.JWTExpiryDays, err = envInt("JWT_EXPIRES_DAYS", 14); err != nil {
		return c, err
	}
	if c.TurnLimit, err = envInt("TURN_LIMIT", game.DefaultTurnLimit); err != nil {
		return c, err
	}
	if c.TurnLimit <= 0 {
		return c, fmt.Errorf("TURN_LIMIT must be positive, got %d", c.TurnLimit)
	}
	delayMs, err := envInt("MISMATCH_DELAY_MS", int(game.DefaultMismatchDelay/time.Millisecond))
	if err != nil {
		return c, err
	}
	if delayMs < 0 {
		return c, fmt.Errorf("MISMATCH_DELAY_MS must not be negative, got %d", delayMs)
	}
	c.MismatchDelay = time.Duration(delayMs) * time.Millisecond

	idleMin, err := envInt("SESSION_IDLE_MINUTES", 60)
	if err != nil {
		return c, err
	}
	if idleMin < 0 {
		return c, fmt.Errorf("SESSION_IDLE_MINUTES must not be negative, got %d", idleMin)
	}
	c.SessionIdle = time.Duration(idleMin) * time.Minute
	return c, nil
}

// Game returns the game configuration for the given catalog.
func (c Config) Game(catalog []string) game.Config {
	return game.Config{Catalog: catalog, TurnLimit: c.TurnLimit, MismatchDelay: c.MismatchDelay}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
