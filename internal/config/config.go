package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/humane/internal/config/loader"
	"github.com/dshills/humane/internal/engine/style"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "HUMANE_"

// Config holds every humane setting.
type Config struct {
	Document DocumentConfig
	History  HistoryConfig
	Persist  PersistConfig
	Logging  LoggingConfig
	Style    StyleConfig
	Scripts  ScriptsConfig

	// Sources lists the layers that contributed, lowest priority first.
	Sources []string
}

// DocumentConfig locates the persisted document.
type DocumentConfig struct {
	// Dir holds the snapshot, change log and text backups.
	Dir string
	// Name is the base name of the snapshot file.
	Name string
}

// HistoryConfig bounds the undo history.
type HistoryConfig struct {
	// Limit is the number of entries kept when saving.
	Limit int
}

// PersistConfig controls how changes reach disk.
type PersistConfig struct {
	// FlushThreshold is the number of queued commands that forces a flush.
	FlushThreshold int
	// FlushInterval flushes queued commands periodically; zero disables it.
	FlushInterval time.Duration
	// TextBackups is the number of plain text backups kept.
	TextBackups int
	// TextBackupEvery writes a text backup after this many changes.
	TextBackupEvery int
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is the logging verbosity level ("debug", "info", "warn", "error").
	Level string
	// Format is the log format ("text", "json").
	Format string
	// File is the log file path (empty for stderr).
	File string
}

// StyleConfig is the style of text inserted without one.
type StyleConfig struct {
	Font       string
	Size       int
	Foreground string
	Background string
}

// ScriptsConfig lists the Lua files loaded at startup.
type ScriptsConfig struct {
	Files   []string
	Timeout time.Duration
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs        loader.FileSystem
	envPrefix string
}

// WithFS reads configuration files from fsys.
func WithFS(fsys loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithEnvPrefix reads environment overrides with prefix. An empty prefix
// disables them.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := decode(defaultConfig())
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	cfg.Sources = []string{"defaults"}
	return cfg
}

// Load builds the configuration from defaults, the file at path and the
// environment. An empty path or a missing file is skipped.
func Load(path string, opts ...Option) (*Config, error) {
	o := options{fs: loader.DefaultFS(), envPrefix: EnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	values := defaultConfig()
	sources := []string{"defaults"}

	if path != "" {
		l, err := loader.ForPath(o.fs, path)
		if err != nil {
			return nil, err
		}
		data, err := l.Load()
		if err != nil {
			return nil, err
		}
		if data != nil {
			values = loader.DeepMerge(values, data)
			sources = append(sources, path)
		}
	}

	if o.envPrefix != "" {
		data, err := loader.NewEnvLoader(o.envPrefix).Load()
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			values = loader.DeepMerge(values, data)
			sources = append(sources, "environment")
		}
	}

	cfg, err := decode(values)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources
	cfg.Document.Dir = expandHome(cfg.Document.Dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if c.Document.Name == "" {
		invalid("document.name", "must not be empty", c.Document.Name)
	}
	if strings.ContainsRune(c.Document.Name, filepath.Separator) {
		invalid("document.name", "must not contain a path separator", c.Document.Name)
	}
	if c.History.Limit <= 0 {
		invalid("history.limit", "must be positive", c.History.Limit)
	}
	if c.Persist.FlushThreshold <= 0 {
		invalid("persist.flush_threshold", "must be positive", c.Persist.FlushThreshold)
	}
	if c.Persist.FlushInterval < 0 {
		invalid("persist.flush_interval", "must not be negative", c.Persist.FlushInterval)
	}
	if c.Persist.TextBackups < 0 {
		invalid("persist.text_backups", "must not be negative", c.Persist.TextBackups)
	}
	if c.Persist.TextBackupEvery < 0 {
		invalid("persist.text_backup_every", "must not be negative", c.Persist.TextBackupEvery)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		invalid("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		invalid("logging.format", "must be text or json", c.Logging.Format)
	}
	if c.Style.Size <= 0 {
		invalid("style.size", "must be positive", c.Style.Size)
	}
	if _, err := c.DefaultStyle(); err != nil {
		errs = append(errs, err)
	}
	if c.Scripts.Timeout < 0 {
		invalid("scripts.timeout", "must not be negative", c.Scripts.Timeout)
	}
	return errors.Join(errs...)
}

// DefaultStyle converts the style section to a style record.
func (c *Config) DefaultStyle() (style.Style, error) {
	st := style.Default()
	if c.Style.Font != "" {
		st.Font = c.Style.Font
	}
	if c.Style.Size > 0 {
		st.Size = c.Style.Size
	}
	var err error
	if st.Foreground, err = parseColor("style.foreground", c.Style.Foreground, st.Foreground); err != nil {
		return st, err
	}
	if st.Background, err = parseColor("style.background", c.Style.Background, st.Background); err != nil {
		return st, err
	}
	return st, nil
}

func parseColor(path, s string, def style.Color) (style.Color, error) {
	if s == "" {
		return def, nil
	}
	c, err := style.ParseColor(s)
	if err != nil {
		return def, &ValidationError{Path: path, Message: err.Error(), Value: s}
	}
	return c, nil
}

// StorePath returns the snapshot path.
func (c *Config) StorePath() string {
	return filepath.Join(c.Document.Dir, c.Document.Name)
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "humane")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "humane")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// defaultConfig returns the default configuration values.
func defaultConfig() map[string]any {
	return map[string]any{
		"document": map[string]any{
			"dir":  defaultDataDir(),
			"name": "humane",
		},
		"history": map[string]any{
			"limit": 10000,
		},
		"persist": map[string]any{
			"flush_threshold":   16,
			"flush_interval":    "5s",
			"text_backups":      20,
			"text_backup_every": 100,
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
			"file":   "",
		},
		"style": map[string]any{
			"font":       style.DefaultFont,
			"size":       style.DefaultSize,
			"foreground": "",
			"background": "",
		},
		"scripts": map[string]any{
			"files":   []any{},
			"timeout": "5s",
		},
	}
}

// decode reads the merged values into a Config, collecting every type
// error.
func decode(values map[string]any) (*Config, error) {
	d := &decoder{values: values}
	cfg := &Config{
		Document: DocumentConfig{
			Dir:  d.string("document.dir"),
			Name: d.string("document.name"),
		},
		History: HistoryConfig{
			Limit: d.int("history.limit"),
		},
		Persist: PersistConfig{
			FlushThreshold:  d.int("persist.flush_threshold"),
			FlushInterval:   d.duration("persist.flush_interval"),
			TextBackups:     d.int("persist.text_backups"),
			TextBackupEvery: d.int("persist.text_backup_every"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(d.string("logging.level")),
			Format: strings.ToLower(d.string("logging.format")),
			File:   d.string("logging.file"),
		},
		Style: StyleConfig{
			Font:       d.string("style.font"),
			Size:       d.int("style.size"),
			Foreground: d.string("style.foreground"),
			Background: d.string("style.background"),
		},
		Scripts: ScriptsConfig{
			Files:   d.strings("scripts.files"),
			Timeout: d.duration("scripts.timeout"),
		},
	}
	return cfg, errors.Join(d.errs...)
}
