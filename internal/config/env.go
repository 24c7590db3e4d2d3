package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvConfig holds settings taken from the environment.
type EnvConfig struct {
	DeepgramAPIKey string `env:"DEEPGRAM_API_KEY"`
	LogLevel       string `env:"LUGEMINE_LOG_LEVEL"`
	StorageBackend string `env:"LUGEMINE_STORAGE"`
}

// LoadEnv loads dotenv files (missing files are skipped) and parses the environment.
// Variables already set in the process environment win over dotenv values.
func LoadEnv(dotenvPaths ...string) (EnvConfig, error) {
	for _, path := range dotenvPaths {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return EnvConfig{}, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("environment variables are invalid: %w", err)
	}
	return cfg, nil
}
