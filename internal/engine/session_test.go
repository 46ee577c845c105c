package engine

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/humane/internal/engine/commands"
	"github.com/dshills/humane/internal/engine/document"
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/persist"
	"github.com/dshills/humane/internal/engine/span"
	"github.com/dshills/humane/internal/engine/style"
)

type nullClipboard struct{}

func (nullClipboard) ReadAll() (string, error)   { return "", errors.New("empty") }
func (nullClipboard) WriteAll(text string) error { return nil }

func newSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := New(append([]Option{WithClipboard(nullClipboard{})}, opts...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func mustExecute(t *testing.T, s *Session, cmds ...history.Command) {
	t.Helper()
	for _, cmd := range cmds {
		if err := s.Execute(cmd); err != nil {
			t.Fatalf("%s: %v", cmd.Name(), err)
		}
	}
}

// scribble inserts text and then fails.
type scribble struct {
	panics bool
}

func (c *scribble) Name() string { return "scribble" }

func (c *scribble) Execute(env *history.Env) error {
	if _, err := env.Doc.Insert(0, "zz", nil); err != nil {
		return err
	}
	env.Doc.SetCursor(1)
	if c.panics {
		panic("scribble")
	}
	return errors.New("scribble failed")
}

func (c *scribble) Undo(env *history.Env) error { return nil }

func TestNewWithContent(t *testing.T) {
	s := newSession(t, WithContent("hello"))
	if s.Text() != "hello" {
		t.Errorf("expected %q, got %q", "hello", s.Text())
	}
	if s.Cursor() != 0 || s.HistoryLen() != 0 {
		t.Errorf("cursor %d history %d", s.Cursor(), s.HistoryLen())
	}
}

func TestExecuteUndoRedo(t *testing.T) {
	s := newSession(t, WithContent("abc"))
	mustExecute(t, s, &commands.SetCursor{Pos: 1}, &commands.AddText{Text: "X"})
	if s.Text() != "aXbc" {
		t.Fatalf("expected %q, got %q", "aXbc", s.Text())
	}

	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if s.Text() != "abc" || s.Cursor() != 1 {
		t.Errorf("after undo: %q cursor %d", s.Text(), s.Cursor())
	}
	if err := s.Redo(); err != nil {
		t.Fatal(err)
	}
	if s.Text() != "aXbc" {
		t.Errorf("after redo: %q", s.Text())
	}
	if !s.CanUndo() || s.CanRedo() {
		t.Error("unexpected undo/redo availability")
	}
}

func TestUndoEmptyCancels(t *testing.T) {
	s := newSession(t)
	err := s.Undo()
	ce, ok := history.AsCancel(err)
	if !ok || ce.Explanation != "Nothing to undo!" {
		t.Errorf("expected cancel, got %v", err)
	}
}

func TestExecuteRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		panics bool
	}{
		{"error", false},
		{"panic", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, WithContent("abc"))
			err := s.Execute(&scribble{panics: tt.panics})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.panics != errors.Is(err, ErrCommandPanic) {
				t.Errorf("unexpected error: %v", err)
			}
			if s.Text() != "abc" || s.Cursor() != 0 || s.HistoryLen() != 0 {
				t.Errorf("state after failure: %q cursor %d history %d", s.Text(), s.Cursor(), s.HistoryLen())
			}
		})
	}
}

func TestCancelLeavesNoTrace(t *testing.T) {
	s := newSession(t, WithContent("abc"))
	err := s.Execute(&commands.Leap{Target: "q"})
	if !history.IsCancel(err) {
		t.Fatalf("expected cancel, got %v", err)
	}
	if s.HistoryLen() != 0 {
		t.Errorf("cancelled command recorded")
	}
}

func TestRunRegisteredCommand(t *testing.T) {
	s := newSession(t, WithContent("hello world"))
	mustExecute(t, s, &commands.SetSelection{Index: document.Selection, Range: span.Span{Start: 0, End: 4}})
	if err := s.Run("LOCK"); err != nil {
		t.Fatal(err)
	}
	s.View(func(doc *document.Document) {
		if !doc.Behaviors().HasAction(commands.LockBehavior, 0) {
			t.Error("selection not locked")
		}
	})
	if err := s.Run("FROBNICATE"); !errors.Is(err, history.ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestRecording(t *testing.T) {
	s := newSession(t)
	s.StartRecording()
	mustExecute(t, s, &commands.AddText{Text: "a"})
	s.StartRecording()
	mustExecute(t, s, &commands.AddText{Text: "b"})
	if _, err := s.StopRecording(); err != nil {
		t.Fatal(err)
	}
	if s.HistoryLen() != 0 {
		t.Error("inner recording reached the history")
	}
	if err := s.Undo(); !history.IsCancel(err) {
		t.Errorf("undo while recording: %v", err)
	}
	rec, err := s.StopRecording()
	if err != nil {
		t.Fatal(err)
	}
	if rec.Len() != 2 || s.HistoryLen() != 1 || s.Recording() {
		t.Errorf("recorded %d, history %d", rec.Len(), s.HistoryLen())
	}

	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if s.Text() != "" {
		t.Errorf("after undo: %q", s.Text())
	}
	if _, err := s.StopRecording(); !errors.Is(err, history.ErrNotRecording) {
		t.Errorf("expected ErrNotRecording, got %v", err)
	}
}

func TestRollbackRecording(t *testing.T) {
	s := newSession(t, WithContent("abc"))
	s.StartRecording()
	mustExecute(t, s, &commands.AddText{Text: "xyz"})
	if err := s.RollbackRecording(); err != nil {
		t.Fatal(err)
	}
	if s.Text() != "abc" || s.HistoryLen() != 0 {
		t.Errorf("after rollback: %q history %d", s.Text(), s.HistoryLen())
	}
}

func TestExecuteAll(t *testing.T) {
	s := newSession(t, WithContent("abc"))
	err := s.ExecuteAll(
		&commands.AddText{Text: "x"},
		&commands.Leap{Target: "q"},
	)
	if !history.IsCancel(err) {
		t.Fatalf("expected cancel, got %v", err)
	}
	if s.Text() != "abc" || s.HistoryLen() != 0 {
		t.Errorf("after failed batch: %q history %d", s.Text(), s.HistoryLen())
	}

	if err := s.ExecuteAll(&commands.AddText{Text: "x"}, &commands.AddText{Text: "y"}); err != nil {
		t.Fatal(err)
	}
	if s.Text() != "xyabc" || s.HistoryLen() != 1 {
		t.Errorf("after batch: %q history %d", s.Text(), s.HistoryLen())
	}
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, WithStore(persist.NewStore(dir, "doc.json")), WithFlushThreshold(100))
	if err := s.Load(); !errors.Is(err, persist.ErrNoState) {
		t.Fatalf("expected ErrNoState, got %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	mustExecute(t, s, &commands.AddText{Text: "hello"})
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	mustExecute(t, s,
		&commands.AddText{Text: " world"},
		&commands.SetSelection{Index: document.Selection, Range: span.Span{Start: 0, End: 4}},
		&commands.Lock{},
	)
	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	loaded := newSession(t, WithStore(persist.NewStore(dir, "doc.json")))
	if err := loaded.Load(); err != nil {
		t.Fatal(err)
	}
	if loaded.Text() != s.Text() || loaded.Cursor() != s.Cursor() {
		t.Errorf("loaded %q cursor %d, want %q cursor %d", loaded.Text(), loaded.Cursor(), s.Text(), s.Cursor())
	}
	if loaded.HistoryLen() != s.HistoryLen() || !loaded.CanRedo() {
		t.Errorf("loaded history %d, want %d", loaded.HistoryLen(), s.HistoryLen())
	}
	if err := loaded.Redo(); err != nil {
		t.Fatal(err)
	}
	for loaded.CanUndo() {
		if err := loaded.Undo(); err != nil {
			t.Fatal(err)
		}
	}
	if loaded.Text() != "" {
		t.Errorf("after undoing everything: %q", loaded.Text())
	}
}

func TestSaveDuringRecording(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, WithContent("abc"), WithStore(persist.NewStore(dir, "doc.json")), WithFlushThreshold(100))
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	s.StartRecording()
	mustExecute(t, s, &commands.AddText{Text: "X"})
	if err := s.Save(); !history.IsCancel(err) {
		t.Fatalf("save while recording: %v", err)
	}
	if _, err := s.StopRecording(); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	loaded := newSession(t, WithStore(persist.NewStore(dir, "doc.json")))
	if err := loaded.Load(); err != nil {
		t.Fatal(err)
	}
	if loaded.Text() != s.Text() || loaded.Text() != "Xabc" {
		t.Errorf("loaded %q, want %q", loaded.Text(), s.Text())
	}
	if err := s.Save(); err != nil {
		t.Errorf("save after recording: %v", err)
	}
}

func TestCorruptStateIsReported(t *testing.T) {
	dir := t.TempDir()
	store := persist.NewStore(dir, "doc.json")
	s := newSession(t, WithStore(store))
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.LogPath(), []byte("not json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := newSession(t, WithStore(store)).Load(); !errors.Is(err, persist.ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestNoStore(t *testing.T) {
	s := newSession(t)
	if err := s.Save(); !errors.Is(err, ErrNoStore) {
		t.Errorf("Save: %v", err)
	}
	if err := s.Load(); !errors.Is(err, ErrNoStore) {
		t.Errorf("Load: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Errorf("Flush: %v", err)
	}
}

func TestRunAutoFlush(t *testing.T) {
	store := persist.NewStore(t.TempDir(), "doc.json")
	s := newSession(t, WithStore(store), WithFlushThreshold(1000))
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	mustExecute(t, s, &commands.AddText{Text: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunAutoFlush(ctx, 5*time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		// The log may be read while a batch is being appended.
		if _, batches, err := store.Load(); err == nil && len(batches) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("changes were not flushed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConcurrentExecute(t *testing.T) {
	s := newSession(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if err := s.Execute(&commands.AddText{Text: "x"}); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if s.Text() != strings.Repeat("x", 200) || s.HistoryLen() != 200 {
		t.Errorf("got %d chars, %d history entries", s.Len(), s.HistoryLen())
	}
}

func TestDo(t *testing.T) {
	s := newSession(t, WithContent("abc"))
	err := s.Do(func(env *history.Env) error {
		return env.History.Execute(env, &commands.SetCursor{Pos: 3})
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Cursor() != 3 {
		t.Errorf("cursor = %d", s.Cursor())
	}
}

func TestNotifier(t *testing.T) {
	var got []string
	s := newSession(t, WithContent("abcdef"), WithNotifier(func(msg string) { got = append(got, msg) }))
	mustExecute(t, s,
		&commands.SetSelection{Index: document.Selection, Range: span.Span{Start: 0, End: 5}},
		&commands.Lock{},
		&commands.SetCursor{Pos: 2},
		&commands.AddText{Text: "x"},
	)
	if len(got) != 1 || s.Text() != "abcdefx" {
		t.Errorf("notices %v, text %q", got, s.Text())
	}
}

func TestDefaultStyle(t *testing.T) {
	st := style.Default()
	st.Font = "Helvetica"
	st.Size = 12
	s := newSession(t, WithDefaultStyle(st), WithContent("ab"))

	_, styles := s.StyledText(0, 1)
	if len(styles) != 2 {
		t.Fatalf("len(styles) = %d, want 2", len(styles))
	}
	for i, got := range styles {
		if got != st {
			t.Errorf("style %d = %+v, want %+v", i, got, st)
		}
	}
}
