package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/lugemine/internal/config"
	"github.com/verte-zerg/lugemine/internal/kv"
	"github.com/verte-zerg/lugemine/internal/model"
	"github.com/verte-zerg/lugemine/internal/speech"
	"github.com/verte-zerg/lugemine/internal/speech/deepgram"
)

const (
	engineAuto     = "auto"
	engineDeepgram = "deepgram"
	engineKeyboard = "keyboard"

	storageSQLite = "sqlite"
	storageFile   = "file"
)

type engineSet struct {
	name        string
	transcriber *speech.Transcriber
	keyboard    *speech.Keyboard
}

// newEngine builds the speech engine. auto picks deepgram when an API key is set.
func newEngine(cfg model.Config, dg config.DeepgramConfig, env config.EnvConfig, logger *slog.Logger) (engineSet, error) {
	name := cfg.Engine
	if name == engineAuto {
		name = engineKeyboard
		if env.DeepgramAPIKey != "" {
			name = engineDeepgram
		}
	}
	switch name {
	case engineKeyboard:
		kb := speech.NewKeyboard()
		return engineSet{
			name:        name,
			transcriber: speech.NewTranscriber(kb, logger),
			keyboard:    kb,
		}, nil
	case engineDeepgram:
		dgCfg := deepgram.Config{
			APIKey:   env.DeepgramAPIKey,
			Language: cfg.Lang,
		}
		applyString(&dgCfg.Model, dg.Model)
		applyString(&dgCfg.Endpoint, dg.Endpoint)
		applyString(&dgCfg.CaptureCommand, dg.CaptureCommand)
		if dg.SampleRate != nil {
			dgCfg.SampleRate = *dg.SampleRate
		}
		eng, err := deepgram.New(dgCfg, deepgram.WithLogger(logger.With("engine", name)))
		if err != nil {
			return engineSet{}, err
		}
		return engineSet{
			name:        name,
			transcriber: speech.NewTranscriber(eng, logger),
		}, nil
	default:
		return engineSet{}, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

// openStorage opens the history backend. LUGEMINE_STORAGE overrides the config file.
func openStorage(cfg config.StorageConfig, env config.EnvConfig) (kv.Store, func(), error) {
	backend := storageSQLite
	applyString(&backend, cfg.Backend)
	if env.StorageBackend != "" {
		backend = env.StorageBackend
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case storageSQLite:
		path := config.DefaultDBPath()
		applyString(&path, cfg.Path)
		st, err := kv.OpenSQLite(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db: %w", err)
		}
		return st, func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}, nil
	case storageFile:
		dir := config.DefaultStoreDir()
		applyString(&dir, cfg.Path)
		return kv.NewFile(dir), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q (use sqlite or file)", backend)
	}
}

// openLogger writes structured logs to a file; the terminal belongs to the TUI.
func openLogger(cfg config.LogConfig, env config.EnvConfig) (*slog.Logger, func(), error) {
	levelName := "info"
	applyString(&levelName, cfg.Level)
	if env.LogLevel != "" {
		levelName = env.LogLevel
	}
	level, err := parseLogLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	path := config.DefaultLogPath()
	applyString(&path, cfg.File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: level}))
	return logger, func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}, nil
}

func parseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func applyString(target, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	*target = *value
}
