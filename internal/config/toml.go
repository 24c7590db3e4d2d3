// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Deepgram DeepgramConfig `toml:"deepgram"`
	Storage  StorageConfig  `toml:"storage"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Difficulty     *string `toml:"difficulty"`
	Engine         *string `toml:"engine"`
	Lang           *string `toml:"lang"`
	Sentences      *string `toml:"sentences"`
	Tolerance      *int    `toml:"tolerance"`
	HighlightWrong *bool   `toml:"highlight-wrong"`
}

// DeepgramConfig maps settings of the Deepgram speech engine.
type DeepgramConfig struct {
	Model          *string `toml:"model"`
	Endpoint       *string `toml:"endpoint"`
	CaptureCommand *string `toml:"capture-command"`
	SampleRate     *int    `toml:"sample-rate"`
}

// StorageConfig selects the history backend.
type StorageConfig struct {
	Backend *string `toml:"backend"`
	Path    *string `toml:"path"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	File  *string `toml:"file"`
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
