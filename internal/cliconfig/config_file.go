package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Project         string  `toml:"project"`
	OutputDir       string  `toml:"output_dir"`
	Format          string  `toml:"format"`
	From            float64 `toml:"from"`
	To              float64 `toml:"to"`
	Whence          string  `toml:"whence"`
	ShutdownTimeout string  `toml:"shutdown_timeout"`
	ProgressEvery   int     `toml:"progress_every"`
	Watch           *bool   `toml:"watch"`
	LogLevel        string  `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.recut/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".recut", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("project", fc.Project, &cfg.Project)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("format", fc.Format, &cfg.Format)
	s.setString("whence", fc.Whence, &cfg.Whence)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setFloat("from", fc.From, &cfg.From)
	s.setFloat("to", fc.To, &cfg.To)
	s.setInt("progress-every", fc.ProgressEvery, &cfg.ProgressEvery)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
