package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/lugemine/internal/config"
	"github.com/verte-zerg/lugemine/internal/speech/deepgram"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeDefaultConfig(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeDefaultConfig creates the commented template unless a config already exists.
func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# lugemine configuration
# Uncomment a value to enable it. CLI flags override config values.
# DEEPGRAM_API_KEY and LUGEMINE_LOG_LEVEL are read from the environment or .env.

[practice]
# difficulty = %q      # snail, rabbit or tiger
# engine = %q            # auto, deepgram or keyboard
# lang = %q                # Recognition language
# sentences = ""             # Sentence file, one sentence per line
# tolerance = 0              # Allowed edit distance for words of 4+ letters
# highlight-wrong = true     # Mark the expected word after a wrong one

[deepgram]
# model = %q
# endpoint = %q
# capture-command = %q
# sample-rate = %d

[storage]
# backend = %q          # sqlite or file (LUGEMINE_STORAGE overrides)
# path = ""                  # Database file or store directory

[log]
# file = ""                  # Defaults to the XDG state directory
# level = "info"             # debug, info, warn or error
`,
		defaultDifficulty,
		defaultEngine,
		defaultLang,
		deepgram.DefaultModel,
		deepgram.DefaultEndpoint,
		deepgram.DefaultCaptureCommand,
		deepgram.DefaultSampleRate,
		storageSQLite,
	)
}
