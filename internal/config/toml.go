// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Stroop StroopConfig `toml:"stroop"`
	Facial FacialConfig `toml:"facial"`
	Report ReportConfig `toml:"report"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// StroopConfig maps Stroop test settings.
type StroopConfig struct {
	Trials  *int      `toml:"trials"`
	DelayMs *int      `toml:"delay-ms"`
	Palette *[]string `toml:"palette"`
}

// FacialConfig maps facial sampling settings.
type FacialConfig struct {
	IntervalMs *int   `toml:"interval-ms"`
	DurationMs *int   `toml:"duration-ms"`
	Seed       *int64 `toml:"seed"`
}

// ReportConfig maps report settings.
type ReportConfig struct {
	Vocabulary *string `toml:"vocabulary"`
	Width      *int    `toml:"width"`
	Save       *bool   `toml:"save"`
}

// ServerConfig maps HTTP API settings.
type ServerConfig struct {
	Addr   *string `toml:"addr"`
	Record *bool   `toml:"record"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level      *string `toml:"level"`
	Dir        *string `toml:"dir"`
	MaxSizeMB  *int    `toml:"max-size-mb"`
	MaxBackups *int    `toml:"max-backups"`
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is written by `neuroscreen config` when no file exists.
const Template = `# neuroscreen configuration

[stroop]
# trials = 20
# delay-ms = 500
# palette = ["RED", "BLUE", "GREEN", "YELLOW", "PURPLE", "ORANGE"]

[facial]
# interval-ms = 1000
# duration-ms = 30000
# seed = 0

[report]
# vocabulary = ""
# width = 0
# save = true

[server]
# addr = "127.0.0.1:8000"
# record = true

[log]
# level = "info"
# dir = ""
# max-size-mb = 10
# max-backups = 3
`

// EnsureFile writes Template to path unless a file already exists.
func EnsureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
