package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ageline"
)

// Settings is the on-disk process configuration. Every field is optional;
// zero values fall back to library defaults.
type Settings struct {
	DataDir       string   `toml:"data_dir"`
	RawDir        string   `toml:"raw_dir"`
	UserAgent     string   `toml:"user_agent"`
	TargetYearEnd int      `toml:"target_year_end"`
	MaxDownloads  int      `toml:"max_downloads"`
	HTTPTimeout   int      `toml:"http_timeout"` // seconds
	SerpAPIKey    string   `toml:"serpapi_key"`
	Queue         []string `toml:"queue"`
}

// loadSettings reads the TOML settings file at path. A missing file is fine
// when the path was not explicitly requested; defaults apply.
func loadSettings(path string, explicit bool) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return &s, nil
}

// libraryConfig converts settings into the injected library configuration.
func (s *Settings) libraryConfig() *ageline.Config {
	cfg := &ageline.Config{
		UserAgent:     s.UserAgent,
		DataDir:       s.DataDir,
		RawDir:        s.RawDir,
		TargetYearEnd: s.TargetYearEnd,
		MaxDownloads:  s.MaxDownloads,
		SerpAPIKey:    s.SerpAPIKey,
	}
	if s.HTTPTimeout > 0 {
		cfg.HTTPTimeout = time.Duration(s.HTTPTimeout) * time.Second
	}
	return cfg
}
