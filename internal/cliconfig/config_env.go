package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (RECUT_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("project", os.Getenv("RECUT_PROJECT"), &cfg.Project)
	s.setString("output-dir", os.Getenv("RECUT_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("format", os.Getenv("RECUT_FORMAT"), &cfg.Format)
	s.setString("whence", os.Getenv("RECUT_WHENCE"), &cfg.Whence)
	s.setString("log-level", os.Getenv("RECUT_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("shutdown-timeout", os.Getenv("RECUT_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setFloatFromString("from", os.Getenv("RECUT_FROM"), &cfg.From); err != nil {
		return err
	}
	if err := s.setFloatFromString("to", os.Getenv("RECUT_TO"), &cfg.To); err != nil {
		return err
	}
	if err := s.setIntFromString("progress-every", os.Getenv("RECUT_PROGRESS_EVERY"), &cfg.ProgressEvery); err != nil {
		return err
	}

	s.setBoolFromString("watch", os.Getenv("RECUT_WATCH"), &cfg.Watch)

	return nil
}
