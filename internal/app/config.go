package app

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything an App instance needs to run.
type Config struct {
	DocPath   string // .json or .hcl document
	Namespace string // singleton namespace
	Marker    string // instance-request marker key

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and fills defaults from the environment.
// A .env file next to the working directory is honored when present.
func NewConfig(cfg Config) (*Config, error) {
	_ = godotenv.Load()

	if cfg.DocPath == "" {
		return nil, errors.New("DocPath is a required configuration field and cannot be empty")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = envOr("MIRROR_NAMESPACE", "default")
	}
	if cfg.Marker == "" {
		cfg.Marker = envOr("MIRROR_MARKER", "$mirror")
	}
	return &cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
