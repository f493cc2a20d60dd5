// ABOUTME: Gong API configuration from environment variables
// ABOUTME: Loads .env if present; credentials are never stored on disk by this package
package gong

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const defaultBaseURL = "https://api.gong.io"

// Config holds Gong API credentials and endpoint.
type Config struct {
	BaseURL      string
	AccessKey    string
	AccessSecret string
}

// LoadConfig reads Gong credentials from the environment:
//   - GONG_BASE_URL (optional, defaults to the public API)
//   - GONG_ACCESS_KEY
//   - GONG_ACCESS_SECRET
//
// A .env file in the working directory is loaded first if present.
func LoadConfig() (*Config, error) {
	// Best effort; a missing .env just means plain env vars
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:      os.Getenv("GONG_BASE_URL"),
		AccessKey:    os.Getenv("GONG_ACCESS_KEY"),
		AccessSecret: os.Getenv("GONG_ACCESS_SECRET"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.AccessKey == "" || cfg.AccessSecret == "" {
		return nil, fmt.Errorf("GONG_ACCESS_KEY and GONG_ACCESS_SECRET must be set")
	}

	return cfg, nil
}
