package engine

import (
	"log/slog"

	"github.com/dshills/humane/internal/engine/behavior"
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/persist"
	"github.com/dshills/humane/internal/engine/style"
)

// Default configuration values.
const (
	DefaultHistoryLimit    = 10000
	DefaultFlushThreshold  = 16
	DefaultTextBackupEvery = 100
)

// Option configures a Session during creation.
type Option func(*Session)

// WithContent sets the initial text of a new document.
func WithContent(content string) Option {
	return func(s *Session) {
		s.initContent = content
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistoryLimit caps the number of history entries kept in a snapshot.
func WithHistoryLimit(limit int) Option {
	return func(s *Session) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithStore enables persistence through store.
func WithStore(store *persist.Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithFlushThreshold sets how many changes are queued before they are
// written to the change log.
func WithFlushThreshold(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.flushThreshold = n
		}
	}
}

// WithTextBackups writes a plain text backup every n changes. 0 disables
// them.
func WithTextBackups(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.textBackupEvery = n
		}
	}
}

// WithClipboard sets the clipboard used by copy and paste.
func WithClipboard(c history.Clipboard) Option {
	return func(s *Session) {
		s.clipboard = c
	}
}

// WithNotifier receives transient messages for the user.
func WithNotifier(fn func(msg string)) Option {
	return func(s *Session) {
		s.notice = fn
	}
}

// WithBehaviors registers additional behaviors before the document is
// created.
func WithBehaviors(register func(*behavior.Store) error) Option {
	return func(s *Session) {
		s.behaviorHooks = append(s.behaviorHooks, register)
	}
}

// WithCommands registers additional commands.
func WithCommands(register func(*history.Registry) error) Option {
	return func(s *Session) {
		s.commandHooks = append(s.commandHooks, register)
	}
}

// WithDefaultStyle sets the style of text inserted without one.
func WithDefaultStyle(st style.Style) Option {
	return func(s *Session) {
		s.defaultStyle = &st
	}
}
