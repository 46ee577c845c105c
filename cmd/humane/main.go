// Package main is the entry point for humane, a line-oriented host for the
// document core.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/invopop/jsonschema"

	"github.com/dshills/humane/internal/config"
	"github.com/dshills/humane/internal/engine"
	"github.com/dshills/humane/internal/engine/persist"
	"github.com/dshills/humane/internal/logging"
	"github.com/dshills/humane/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	dir        string
	logLevel   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, rest, code := parseFlags(args, stdout, stderr)
	if code >= 0 {
		return code
	}
	if len(rest) > 0 && rest[0] == "schema" {
		if err := printSchema(stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}
	if opts.dir != "" {
		cfg.Document.Dir = opts.dir
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	logger, closer, err := logging.New(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()
	logger.Debug("configuration loaded", "sources", cfg.Sources)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger, stdin, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// serve builds the session, restores saved state and runs the REPL.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdin io.Reader, stdout io.Writer) error {
	host := script.NewHost(
		script.WithLogger(logger.With("component", "script")),
		script.WithStateOptions(script.WithExecutionTimeout(cfg.Scripts.Timeout)),
	)
	defer host.Close()
	for _, path := range cfg.Scripts.Files {
		if err := host.LoadFile(path); err != nil {
			return err
		}
	}

	defStyle, err := cfg.DefaultStyle()
	if err != nil {
		return err
	}
	store := persist.NewStore(cfg.Document.Dir, cfg.Document.Name,
		persist.WithMaxTextBackups(cfg.Persist.TextBackups))

	s, err := engine.New(
		engine.WithLogger(logger.With("component", "session")),
		engine.WithStore(store),
		engine.WithHistoryLimit(cfg.History.Limit),
		engine.WithFlushThreshold(cfg.Persist.FlushThreshold),
		engine.WithTextBackups(cfg.Persist.TextBackupEvery),
		engine.WithDefaultStyle(defStyle),
		engine.WithBehaviors(host.RegisterBehaviors),
		engine.WithCommands(host.RegisterCommands),
		engine.WithNotifier(func(msg string) { fmt.Fprintln(stdout, msg) }),
	)
	if err != nil {
		return err
	}

	switch err := s.Load(); {
	case errors.Is(err, persist.ErrNoState):
		if err := s.Save(); err != nil {
			return err
		}
	case err != nil:
		return recoveryHint(store, err)
	}

	if cfg.Persist.FlushInterval > 0 {
		flushCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go s.RunAutoFlush(flushCtx, cfg.Persist.FlushInterval)
	}

	r := &repl{s: s, out: stdout}
	runErr := r.run(ctx, stdin)
	if err := s.Close(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// recoveryHint names the text backups left when the saved state is
// unusable.
func recoveryHint(store *persist.Store, err error) error {
	backups, listErr := store.TextBackups()
	if listErr != nil || len(backups) == 0 {
		return err
	}
	return fmt.Errorf("%w\nthe latest text backup is %s", err, backups[len(backups)-1])
}

// printSchema writes the JSON schema of the snapshot file.
func printSchema(w io.Writer) error {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&persist.Snapshot{})
	schema.Title = "humane snapshot"
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}

// parseFlags returns the exit code to stop with, or -1 to continue.
func parseFlags(args []string, stdout, stderr io.Writer) (options, []string, int) {
	var opts options
	var showVersion bool

	fs := flag.NewFlagSet("humane", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to a TOML or YAML configuration file")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.dir, "dir", "", "Directory holding the document")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "humane - a document you edit with commands\n\n")
		fmt.Fprintf(stderr, "Usage: humane [options] [schema]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  humane                      Edit the default document\n")
		fmt.Fprintf(stderr, "  humane -dir ./notes         Edit the document in ./notes\n")
		fmt.Fprintf(stderr, "  humane schema               Print the snapshot JSON schema\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, nil, 0
		}
		return opts, nil, 2
	}
	if showVersion {
		fmt.Fprintf(stdout, "humane %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return opts, nil, 0
	}
	if opts.logLevel != "" {
		if _, err := logging.ParseLevel(opts.logLevel); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return opts, nil, 2
		}
	}
	return opts, fs.Args(), -1
}
