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
	History  HistoryConfig  `toml:"history"`
	Stats    StatsConfig    `toml:"stats"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Mode       *string  `toml:"mode"`
	Words      *int     `toml:"words"`
	TimeLimit  *int     `toml:"time"`
	Difficulty *string  `toml:"difficulty"`
	CodeLang   *string  `toml:"code-lang"`
	WordList   *string  `toml:"wordlist"`
	CapsPct    *float64 `toml:"caps"`
	PunctPct   *float64 `toml:"punct"`
	Numbers    *bool    `toml:"numbers"`
}

// HistoryConfig maps history retention settings.
type HistoryConfig struct {
	MaxResults *int    `toml:"max-results"`
	MaxDays    *int    `toml:"max-days"`
	DBPath     *string `toml:"db"`
}

// StatsConfig maps stats report settings.
type StatsConfig struct {
	AvgDays     *int `toml:"avg-days"`
	CurveWindow *int `toml:"curve-window"`
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
