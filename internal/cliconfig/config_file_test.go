package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfig(t, `
project = "/data/edit.toml"
output_dir = "/data/out"
format = "timing"
from = 2.0
to = 8.5
whence = "seconds"
shutdown_timeout = "45s"
progress_every = 50
watch = true
log_level = "warn"
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if fc.Project != "/data/edit.toml" || fc.OutputDir != "/data/out" || fc.Format != "timing" {
		t.Errorf("strings = %+v", fc)
	}
	if fc.From != 2 || fc.To != 8.5 || fc.ProgressEvery != 50 {
		t.Errorf("numbers = %+v", fc)
	}
	if fc.Watch == nil || !*fc.Watch {
		t.Error("Watch should be true")
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFileConfig(writeConfig(t, "project = [")); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestApplyFileConfig(t *testing.T) {
	watch := true
	fc := FileConfig{
		Project:         "/file/edit.toml",
		OutputDir:       "/file/out",
		Format:          "timing",
		Whence:          "pts",
		From:            100,
		ShutdownTimeout: "1m",
		ProgressEvery:   10,
		Watch:           &watch,
		LogLevel:        "debug",
	}

	tests := []struct {
		name    string
		changed map[string]bool
		check   func(t *testing.T, cfg Config)
		wantErr bool
		fc      *FileConfig
	}{
		{
			name:    "applies file values",
			changed: map[string]bool{},
			check: func(t *testing.T, cfg Config) {
				if cfg.Project != "/file/edit.toml" || cfg.Format != "timing" || cfg.Whence != "pts" {
					t.Errorf("cfg = %+v", cfg)
				}
				if cfg.ShutdownTimeout != time.Minute || cfg.ProgressEvery != 10 || cfg.From != 100 || !cfg.Watch {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{
			name:    "flags win over file",
			changed: map[string]bool{"format": true, "output-dir": true},
			check: func(t *testing.T, cfg Config) {
				if cfg.Format != FormatPacketLog {
					t.Errorf("Format = %q, want flag value", cfg.Format)
				}
				if cfg.OutputDir != "" {
					t.Errorf("OutputDir = %q, want flag value", cfg.OutputDir)
				}
			},
		},
		{
			name:    "bad duration",
			changed: map[string]bool{},
			fc:      &FileConfig{ShutdownTimeout: "later"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			in := fc
			if tt.fc != nil {
				in = *tt.fc
			}
			err := ApplyFileConfig(&cfg, in, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyFileConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("HOME", "/home/editor")
	if got := DefaultConfigPath(); got != "/home/editor/.recut/config.toml" {
		t.Errorf("DefaultConfigPath() = %q", got)
	}
}

func TestFileExists(t *testing.T) {
	path := writeConfig(t, "")
	if !FileExists(path) {
		t.Error("FileExists() = false for existing file")
	}
	if FileExists(path + ".nope") {
		t.Error("FileExists() = true for missing file")
	}
}
