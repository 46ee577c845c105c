package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/humane/internal/engine/behavior"
	"github.com/dshills/humane/internal/engine/commands"
	"github.com/dshills/humane/internal/engine/document"
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/persist"
	"github.com/dshills/humane/internal/engine/span"
	"github.com/dshills/humane/internal/engine/style"
)

// Session owns one document together with its history, recordings,
// command registry and persistence. Every exported method takes the
// session lock, so a Session may be shared between goroutines.
type Session struct {
	mu sync.RWMutex

	env      *history.Env
	registry *history.Registry
	store    *persist.Store
	journal  *persist.Journal
	logger   *slog.Logger

	// Configuration
	historyLimit    int
	flushThreshold  int
	textBackupEvery int
	clipboard       history.Clipboard
	defaultStyle    *style.Style
	notice          func(string)
	behaviorHooks   []func(*behavior.Store) error
	commandHooks    []func(*history.Registry) error

	// Initialization
	initContent string
}

// New creates a Session with the given options.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		logger:          slog.New(slog.DiscardHandler),
		historyLimit:    DefaultHistoryLimit,
		flushThreshold:  DefaultFlushThreshold,
		textBackupEvery: DefaultTextBackupEvery,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clipboard == nil {
		if sys := (commands.SystemClipboard{}); sys.Available() {
			s.clipboard = sys
		}
	}

	bs, err := commands.NewBehaviorStore()
	if err != nil {
		return nil, err
	}
	for _, register := range s.behaviorHooks {
		if err := register(bs); err != nil {
			return nil, fmt.Errorf("register behaviors: %w", err)
		}
	}

	s.registry = history.NewRegistry()
	if err := commands.Register(s.registry); err != nil {
		return nil, err
	}
	for _, register := range s.commandHooks {
		if err := register(s.registry); err != nil {
			return nil, fmt.Errorf("register commands: %w", err)
		}
	}

	styles := style.NewStore()
	if s.defaultStyle != nil {
		styles.SetDefault(styles.Intern(*s.defaultStyle))
	}
	doc := document.New(styles, bs)
	if s.initContent != "" {
		if _, err := doc.Insert(0, s.initContent, nil); err != nil {
			return nil, err
		}
		doc.SetCursor(0)
	}
	s.env = &history.Env{
		Doc:       doc,
		History:   history.NewHistory(nil),
		Recorder:  history.NewRecorder(),
		Clipboard: s.clipboard,
		Logger:    s.logger.With("component", "commands"),
		Notice:    s.notice,
	}

	if s.store != nil {
		s.journal = persist.NewJournal(s.store, persist.NewGeneration(),
			persist.WithFlushThreshold(s.flushThreshold),
			persist.WithTextBackups(s.textBackupEvery, doc.Text),
			persist.WithJournalLogger(s.logger.With("component", "journal")),
		)
		s.env.History.SetChangeLogger(s.journal)
	}
	return s, nil
}

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the document content.
func (s *Session) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env.Doc.Text()
}

// Len returns the number of characters in the document.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env.Doc.Len()
}

// Cursor returns the cursor position.
func (s *Session) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env.Doc.Cursor()
}

// Selection returns entry i of the selection list.
func (s *Session) Selection(i int) span.Span {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env.Doc.Selection(i)
}

// StyledText returns [start, end] and its style records.
func (s *Session) StyledText(start, end int) (string, []style.Style) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ids := s.env.Doc.StyledText(start, end)
	styles := make([]style.Style, len(ids))
	for i, id := range ids {
		styles[i] = s.env.Doc.Styles().Style(id)
	}
	return text, styles
}

// View calls fn with the document while holding the read lock. fn must
// not modify the document.
func (s *Session) View(fn func(doc *document.Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.env.Doc)
}

// Do calls fn with the command environment while holding the session
// lock, for callers that need several steps to happen together.
func (s *Session) Do(fn func(env *history.Env) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.env)
}

// Registry returns the command registry.
func (s *Session) Registry() *history.Registry {
	return s.registry
}

// ============================================================================
// Commands
// ============================================================================

// Execute runs cmd. If it fails, is cancelled or panics, every change it
// made to the document is rolled back. Cancellations are returned as
// *history.CancelError.
func (s *Session) Execute(cmd history.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execute(cmd)
}

// Run executes the user command registered under name.
func (s *Session) Run(name string) error {
	cmd, err := s.registry.Find(name)
	if err != nil {
		return err
	}
	return s.Execute(cmd)
}

// ExecuteAll runs cmds as one history entry. If any of them fails, the
// ones already applied are undone.
func (s *Session) ExecuteAll(cmds ...history.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.env.Recorder.Transaction(s.env, func() error {
		for _, cmd := range cmds {
			if err := s.execute(cmd); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.finishRecording(rec)
}

// Undo undoes the last history entry.
func (s *Session) Undo() error {
	return s.Execute(&commands.UndoLast{})
}

// Redo redoes the last undone history entry.
func (s *Session) Redo() error {
	return s.Execute(&commands.RedoLast{})
}

// CanUndo reports whether there is anything to undo.
func (s *Session) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env.History.CanUndo()
}

// CanRedo reports whether there is anything to redo.
func (s *Session) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env.History.CanRedo()
}

// HistoryLen returns the number of history entries.
func (s *Session) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env.History.Len()
}

func (s *Session) execute(cmd history.Command) (err error) {
	env := s.env
	recording := env.Recorder.Depth() > 0
	if recording && !history.IsRecordable(cmd) && history.IsReplayable(cmd) {
		return history.Cancel("Finish the current recording first.")
	}

	mark := env.Doc.Begin()
	defer func() {
		if p := recover(); p != nil {
			env.Doc.Rollback(mark)
			s.logger.Error("command panicked", "command", cmd.Name(), "panic", p)
			err = fmt.Errorf("%w: %s: %v", ErrCommandPanic, cmd.Name(), p)
		}
	}()

	if err := cmd.Execute(env); err != nil {
		env.Doc.Rollback(mark)
		if ce, ok := history.AsCancel(err); ok {
			s.logger.Debug("command cancelled", "command", cmd.Name(), "reason", ce.Explanation)
		} else {
			s.logger.Warn("command failed", "command", cmd.Name(), "error", err)
		}
		return err
	}
	env.Doc.Commit(mark)

	switch {
	case !history.IsRecordable(cmd):
		if history.IsReplayable(cmd) {
			err = env.History.Log(cmd)
		}
	case recording:
		err = env.Recorder.Record(cmd)
	default:
		err = env.History.Add(cmd, true)
	}
	if err != nil {
		s.logger.Error("change not logged", "command", cmd.Name(), "error", err)
		return fmt.Errorf("%w: %w", ErrLogChange, err)
	}
	return nil
}

// ============================================================================
// Recordings
// ============================================================================

// StartRecording opens a recording. Commands executed until the matching
// StopRecording become one history entry.
func (s *Session) StartRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env.Recorder.Start()
}

// StopRecording closes the innermost recording. It becomes one entry of
// the enclosing recording, or of the history when none is open.
func (s *Session) StopRecording() (*history.Recorded, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.env.Recorder.Stop()
	if err != nil {
		return nil, err
	}
	return rec, s.finishRecording(rec)
}

// RollbackRecording closes the innermost recording and undoes it.
func (s *Session) RollbackRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env.Recorder.Rollback(s.env)
}

// Recording reports whether a recording is open.
func (s *Session) Recording() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env.Recorder.Depth() > 0
}

func (s *Session) finishRecording(rec *history.Recorded) error {
	if rec.Len() == 0 {
		return nil
	}
	if s.env.Recorder.Depth() > 0 {
		return s.env.Recorder.Record(rec)
	}
	if err := s.env.History.Add(rec, true); err != nil {
		return fmt.Errorf("%w: %w", ErrLogChange, err)
	}
	return nil
}

// ============================================================================
// Persistence
// ============================================================================

// Save writes a full snapshot and starts a new change log. It cancels
// while a recording is open.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNoStore
	}
	if s.env.Recorder.Depth() > 0 {
		return history.Cancel("Finish the current recording first.")
	}

	gen := persist.NewGeneration()
	start := time.Now()
	if err := s.store.Save(persist.Capture(gen, s.env, s.historyLimit)); err != nil {
		s.logger.Error("save failed", "path", s.store.Path(), "error", err)
		return err
	}
	s.journal.Reset(gen, 0)
	if s.textBackupEvery > 0 {
		if err := s.store.TextBackup(s.env.Doc.Text()); err != nil {
			s.logger.Warn("text backup failed", "error", err)
		}
	}
	s.logger.Info("saved", "path", s.store.Path(), "generation", gen,
		"chars", s.env.Doc.Len(), "history", s.env.History.Len(), "elapsed", time.Since(start))
	return nil
}

// Load replaces the document with the saved snapshot and replays the
// change log on top of it. It returns persist.ErrNoState when nothing has
// been saved, and a *persist.CorruptError when the saved state cannot be
// used. After a corruption error the session must not be used.
func (s *Session) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNoStore
	}

	snap, batches, err := s.store.Load()
	if errors.Is(err, persist.ErrNoState) {
		s.logger.Info("no saved state", "path", s.store.Path())
		return err
	}
	if err != nil {
		s.logger.Error("load failed", "path", s.store.Path(), "error", err)
		return err
	}

	s.env.History = history.NewHistory(nil)
	s.env.Recorder = history.NewRecorder()
	if err := snap.Apply(s.env); err != nil {
		err = &persist.CorruptError{Path: s.store.Path(), Err: err}
		s.logger.Error("load failed", "path", s.store.Path(), "error", err)
		return err
	}
	n, err := s.store.Replay(s.env, batches)
	if err != nil {
		s.logger.Error("replay failed", "path", s.store.LogPath(), "replayed", n, "error", err)
		return err
	}
	s.journal.Reset(snap.Generation, len(batches))
	s.env.History.SetChangeLogger(s.journal)
	s.logger.Info("loaded", "path", s.store.Path(), "generation", snap.Generation,
		"chars", s.env.Doc.Len(), "replayed", n)
	return nil
}

// Flush writes queued changes to the change log.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil
	}
	return s.journal.Flush()
}

// RunAutoFlush flushes queued changes every interval until ctx is done.
func (s *Session) RunAutoFlush(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				s.logger.Warn("auto flush failed", "error", err)
			}
		}
	}
}

// Close flushes queued changes.
func (s *Session) Close() error {
	return s.Flush()
}
