package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dshills/humane/internal/engine/style"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func load(t *testing.T, files memFS, path string) (*Config, error) {
	t.Helper()
	return Load(path, WithFS(files), WithEnvPrefix(""))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.History.Limit != 10000 {
		t.Errorf("History.Limit = %d, want 10000", cfg.History.Limit)
	}
	if cfg.Persist.FlushThreshold != 16 || cfg.Persist.FlushInterval != 5*time.Second {
		t.Errorf("Persist = %+v", cfg.Persist)
	}
	if cfg.Persist.TextBackups != 20 || cfg.Persist.TextBackupEvery != 100 {
		t.Errorf("Persist = %+v", cfg.Persist)
	}
	if cfg.Document.Name != "humane" || cfg.Document.Dir == "" {
		t.Errorf("Document = %+v", cfg.Document)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
	st, err := cfg.DefaultStyle()
	if err != nil || st != style.Default() {
		t.Errorf("DefaultStyle() = %+v, %v; want %+v", st, err, style.Default())
	}
}

func TestLoadFiles(t *testing.T) {
	files := memFS{
		"/etc/humane.toml": `
[document]
dir = "/var/humane"

[history]
limit = 50

[persist]
flush_interval = "250ms"

[logging]
level = "DEBUG"
format = "json"

[style]
font = "Helvetica"
foreground = "#336699"
background = "ivory"

[scripts]
files = ["lock.lua"]
`,
		"/etc/humane.yaml": `
document:
  dir: /var/humane
history:
  limit: 50
persist:
  flush_interval: 250ms
logging:
  level: DEBUG
  format: json
style:
  font: Helvetica
  foreground: "#336699"
  background: ivory
scripts:
  files: [lock.lua]
`,
	}

	for path := range files {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg, err := load(t, files, path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Document.Dir != "/var/humane" || cfg.Document.Name != "humane" {
				t.Errorf("Document = %+v", cfg.Document)
			}
			if cfg.History.Limit != 50 {
				t.Errorf("History.Limit = %d, want 50", cfg.History.Limit)
			}
			if cfg.Persist.FlushInterval != 250*time.Millisecond || cfg.Persist.FlushThreshold != 16 {
				t.Errorf("Persist = %+v", cfg.Persist)
			}
			if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
				t.Errorf("Logging = %+v", cfg.Logging)
			}
			if !slices.Equal(cfg.Scripts.Files, []string{"lock.lua"}) {
				t.Errorf("Scripts.Files = %v", cfg.Scripts.Files)
			}
			if !slices.Equal(cfg.Sources, []string{"defaults", path}) {
				t.Errorf("Sources = %v", cfg.Sources)
			}

			st, err := cfg.DefaultStyle()
			if err != nil {
				t.Fatal(err)
			}
			if st.Font != "Helvetica" || st.Size != style.DefaultSize || st.Foreground != style.RGB(0x33, 0x66, 0x99) {
				t.Errorf("DefaultStyle() = %+v", st)
			}
			if cfg.StorePath() != filepath.Join("/var/humane", "humane") {
				t.Errorf("StorePath() = %q", cfg.StorePath())
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := load(t, memFS{}, "/nowhere/humane.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(cfg.Sources, []string{"defaults"}) {
		t.Errorf("Sources = %v", cfg.Sources)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("HUMANE_HISTORY_LIMIT", "7")
	t.Setenv("HUMANE_PERSIST_TEXT_BACKUPS", "0")
	t.Setenv("HUMANE_LOG_LEVEL", "warn")
	t.Setenv("HUMANE_DIR", "/tmp/h")

	files := memFS{"/h.toml": "[history]\nlimit = 50\n"}
	cfg, err := Load("/h.toml", WithFS(files))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.Limit != 7 {
		t.Errorf("History.Limit = %d, want environment to win", cfg.History.Limit)
	}
	if cfg.Persist.TextBackups != 0 {
		t.Errorf("Persist.TextBackups = %d, want 0", cfg.Persist.TextBackups)
	}
	if cfg.Logging.Level != "warn" || cfg.Document.Dir != "/tmp/h" {
		t.Errorf("Logging.Level = %q, Document.Dir = %q", cfg.Logging.Level, cfg.Document.Dir)
	}
	if !slices.Equal(cfg.Sources, []string{"defaults", "/h.toml", "environment"}) {
		t.Errorf("Sources = %v", cfg.Sources)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		is      error
		path    string
	}{
		{"zero limit", "[history]\nlimit = 0\n", ErrValidationFailed, "history.limit"},
		{"negative threshold", "[persist]\nflush_threshold = -1\n", ErrValidationFailed, "persist.flush_threshold"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", ErrValidationFailed, "logging.level"},
		{"bad format", "[logging]\nformat = \"xml\"\n", ErrValidationFailed, "logging.format"},
		{"bad color", "[style]\nbackground = \"#zz\"\n", ErrValidationFailed, "style.background"},
		{"name with separator", "[document]\nname = \"a/b\"\n", ErrValidationFailed, "document.name"},
		{"string limit", "[history]\nlimit = \"many\"\n", ErrTypeMismatch, "history.limit"},
		{"bad duration", "[persist]\nflush_interval = \"soon\"\n", ErrTypeMismatch, "persist.flush_interval"},
		{"bad files", "[scripts]\nfiles = [1, 2]\n", ErrTypeMismatch, "scripts.files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, memFS{"/h.toml": tt.content}, "/h.toml")
			if !errors.Is(err, tt.is) {
				t.Fatalf("err = %v, want %v", err, tt.is)
			}
			if !strings.Contains(err.Error(), tt.path) {
				t.Errorf("err = %v, want mention of %s", err, tt.path)
			}
		})
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := load(t, memFS{}, "/h.ini"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestDurationAsSeconds(t *testing.T) {
	cfg, err := load(t, memFS{"/h.toml": "[persist]\nflush_interval = 3\n"}, "/h.toml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Persist.FlushInterval != 3*time.Second {
		t.Errorf("FlushInterval = %v, want 3s", cfg.Persist.FlushInterval)
	}
}
