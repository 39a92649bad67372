// Package config loads the shell's settings file (~/.opsh.yaml). A
// missing file yields the defaults; a malformed one is an error.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the user-tunable shell settings.
type Config struct {
	// Prompt is the REPL prompt string.
	Prompt string `yaml:"prompt"`
	// ContinuationPrompt shows while a multi-line construct is open.
	ContinuationPrompt string `yaml:"continuation_prompt"`
	// HistoryFile is where the REPL persists its input history.
	HistoryFile string `yaml:"history_file"`
	// HistorySize caps the number of persisted history entries.
	HistorySize int `yaml:"history_size"`
	// Color enables colored error output.
	Color bool `yaml:"color"`
}

// Default returns the built-in settings.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Prompt:             "opsh> ",
		ContinuationPrompt: "   .. ",
		HistoryFile:        filepath.Join(home, ".opsh_history"),
		HistorySize:        1000,
		Color:              true,
	}
}

// DefaultPath returns the standard settings file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".opsh.yaml"
	}
	return filepath.Join(home, ".opsh.yaml")
}

// Load reads a settings file over the defaults. A missing file is not
// an error; whatever keys the file omits keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.HistorySize <= 0 {
		cfg.HistorySize = Default().HistorySize
	}
	return cfg, nil
}
