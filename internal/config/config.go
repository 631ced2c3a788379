// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int    // PORT, default 8080
	DBPath       string // DB_PATH, default data/playmate.db
	SteamAPIKey  string // STEAM_API_KEY, required
	SteamAPIBase string // STEAM_API_BASE, default is the public host
	JWTSecret    string // JWT_SECRET, required
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present; real environment
// variables take precedence over it.
func Load() (Config, error) {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := Config{
		Port:         8080,
		DBPath:       "data/playmate.db",
		SteamAPIKey:  os.Getenv("STEAM_API_KEY"),
		SteamAPIBase: os.Getenv("STEAM_API_BASE"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if cfg.SteamAPIKey == "" {
		return Config{}, errors.New("config: STEAM_API_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: JWT_SECRET is required")
	}

	return cfg, nil
}
