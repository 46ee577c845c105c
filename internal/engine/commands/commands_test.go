package commands

import (
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"testing"

	"github.com/dshills/humane/internal/engine/behavior"
	"github.com/dshills/humane/internal/engine/document"
	"github.com/dshills/humane/internal/engine/history"
	"github.com/dshills/humane/internal/engine/span"
	"github.com/dshills/humane/internal/engine/style"
)

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) ReadAll() (string, error) { return c.text, c.err }
func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return c.err
}

func newEnv(t *testing.T, text string) *history.Env {
	t.Helper()
	bs, err := NewBehaviorStore()
	if err != nil {
		t.Fatal(err)
	}
	doc := document.New(style.NewStore(), bs)
	if _, err := doc.Insert(0, text, nil); err != nil {
		t.Fatal(err)
	}
	doc.SetCursor(0)
	return &history.Env{
		Doc:      doc,
		History:  history.NewHistory(nil),
		Recorder: history.NewRecorder(),
	}
}

type state struct {
	text      string
	styles    []style.ID
	behaviors []behavior.BehaviorID
	memento   document.Memento
}

func capture(d *document.Document) state {
	return state{d.Text(), d.Styles().IDs(), d.Behaviors().IDs(), d.Memento()}
}

func (s state) equal(o state) bool {
	return s.text == o.text &&
		slices.Equal(s.styles, o.styles) &&
		slices.Equal(s.behaviors, o.behaviors) &&
		s.memento.Cursor == o.memento.Cursor &&
		slices.Equal(s.memento.Selections, o.memento.Selections)
}

func mustExec(t *testing.T, env *history.Env, cmd history.Command) {
	t.Helper()
	if err := env.History.Execute(env, cmd); err != nil {
		t.Fatalf("%s: %v", cmd.Name(), err)
	}
}

func selectRange(t *testing.T, env *history.Env, start, end int) {
	t.Helper()
	if !env.Doc.SetSelection(document.Selection, start, end) {
		t.Fatalf("cannot select [%d,%d]", start, end)
	}
}

func TestAddTextUndo(t *testing.T) {
	env := newEnv(t, "abc")
	env.Doc.SetCursor(1)
	before := capture(env.Doc)

	mustExec(t, env, &AddText{Text: "X"})
	if got := env.Doc.Text(); got != "aXbc" {
		t.Fatalf("text = %q, want %q", got, "aXbc")
	}
	if env.Doc.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2", env.Doc.Cursor())
	}
	if got := env.Doc.Selection(document.Selection); got != span.At(1) {
		t.Errorf("selection = %v, want [1,1]", got)
	}

	if err := env.History.Undo(env); err != nil {
		t.Fatal(err)
	}
	if after := capture(env.Doc); !after.equal(before) {
		t.Errorf("undo left %+v, want %+v", after, before)
	}
}

func TestAddTextMultiCharSetsAnchor(t *testing.T) {
	env := newEnv(t, "")
	mustExec(t, env, &AddText{Text: "hello"})
	if env.History.SelectionAnchor() != 5 {
		t.Errorf("anchor = %d, want 5", env.History.SelectionAnchor())
	}
	if got := env.Doc.Selection(document.Selection); got != (span.Span{Start: 0, End: 4}) {
		t.Errorf("selection = %v", got)
	}
}

func TestLockProtectsFromDelete(t *testing.T) {
	env := newEnv(t, "abcdefgh")
	selectRange(t, env, 2, 5)
	mustExec(t, env, &Lock{Behavior: LockBehavior})

	for pos := 0; pos < env.Doc.Len(); pos++ {
		want := pos >= 2 && pos <= 5
		if got := env.Doc.Behaviors().HasAction(LockBehavior, pos); got != want {
			t.Errorf("HasAction(LOCK, %d) = %v, want %v", pos, got, want)
		}
	}
	bg := env.Doc.Styles().Style(env.Doc.StyleAt(3)).Background
	if bg != style.RGB(245, 245, 245) {
		t.Errorf("locked background = %v", bg)
	}

	ranges := env.Doc.Behaviors().DeletableRanges(0, 6)
	want := []span.Span{{Start: 0, End: 1}, {Start: 6, End: 6}}
	if !slices.Equal(ranges, want) {
		t.Fatalf("DeletableRanges = %v, want %v", ranges, want)
	}

	selectRange(t, env, 0, 6)
	before := capture(env.Doc)
	mustExec(t, env, &DeleteText{})
	if got := env.Doc.Text(); got != "cdefh" {
		t.Errorf("after delete = %q, want %q", got, "cdefh")
	}
	if err := env.History.Undo(env); err != nil {
		t.Fatal(err)
	}
	if after := capture(env.Doc); !after.equal(before) {
		t.Errorf("undo left %+v, want %+v", after, before)
	}
}

func TestDeleteTextCancelsOnLockedSelection(t *testing.T) {
	env := newEnv(t, "abcdef")
	selectRange(t, env, 1, 3)
	mustExec(t, env, &Lock{Behavior: LockBehavior})

	err := env.History.Execute(env, &DeleteText{})
	if !history.IsCancel(err) {
		t.Fatalf("err = %v, want cancel", err)
	}
	if env.Doc.Text() != "abcdef" || env.History.Len() != 1 {
		t.Errorf("text %q history %d", env.Doc.Text(), env.History.Len())
	}
}

func TestTypingInLockedText(t *testing.T) {
	env := newEnv(t, "abcdefgh")
	selectRange(t, env, 2, 5)
	mustExec(t, env, &Lock{Behavior: LockBehavior})

	var notices []string
	env.Notice = func(msg string) { notices = append(notices, msg) }

	env.Doc.SetCursor(3)
	mustExec(t, env, &AddText{Text: "X"})
	if got := env.Doc.Text(); got != "abcdefXgh" {
		t.Errorf("typing inside lock = %q", got)
	}
	if len(notices) != 1 || notices[0] != "You cannot type in Locked text." {
		t.Errorf("notices = %v", notices)
	}
	if err := env.History.Undo(env); err != nil {
		t.Fatal(err)
	}
	if env.Doc.Text() != "abcdefgh" || env.Doc.Cursor() != 3 {
		t.Errorf("undo: text %q cursor %d", env.Doc.Text(), env.Doc.Cursor())
	}

	env.Doc.SetCursor(2)
	mustExec(t, env, &AddText{Text: "X"})
	if got := env.Doc.Text(); got != "abXcdefgh" {
		t.Fatalf("typing at lock start = %q", got)
	}
	if env.Doc.Behaviors().HasAction(LockBehavior, 2) {
		t.Error("inserted text is locked")
	}
	ext, ok := env.Doc.Behaviors().FindActionExtent(LockBehavior, 4)
	if !ok || ext != (span.Span{Start: 3, End: 6}) {
		t.Errorf("lock extent = %v, %v", ext, ok)
	}
	if bg := env.Doc.Styles().Style(env.Doc.StyleAt(2)).Background; bg != style.White {
		t.Errorf("inserted background = %v", bg)
	}
}

func TestUnlock(t *testing.T) {
	env := newEnv(t, "abcdef")
	selectRange(t, env, 1, 4)
	mustExec(t, env, &Lock{Behavior: LockBehavior})
	before := capture(env.Doc)

	mustExec(t, env, &Unlock{})
	for pos := 1; pos <= 4; pos++ {
		if env.Doc.Behaviors().HasAction(LockBehavior, pos) {
			t.Errorf("position %d still locked", pos)
		}
	}
	if err := env.History.Undo(env); err != nil {
		t.Fatal(err)
	}
	if after := capture(env.Doc); !after.equal(before) {
		t.Error("undo of unlock did not restore the lock")
	}
}

func TestExecuteUndoRedoRestores(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		setup func(t *testing.T, env *history.Env)
		cmd   func() history.Command
	}{
		{"add text", "abc", func(t *testing.T, env *history.Env) { env.Doc.SetCursor(3) },
			func() history.Command { return &AddText{Text: "def"} }},
		{"delete text", "abcdef", func(t *testing.T, env *history.Env) { selectRange(t, env, 1, 3) },
			func() history.Command { return &DeleteText{} }},
		{"style", "abcdef", func(t *testing.T, env *history.Env) { selectRange(t, env, 0, 2) },
			func() history.Command { return &Style{Overlay: style.Overlay{Bold: style.Bool(true)}} }},
		{"lock", "abcdef", func(t *testing.T, env *history.Env) { selectRange(t, env, 2, 4) },
			func() history.Command { return &Lock{Behavior: LockBehavior} }},
		{"add action", "abcdef", func(t *testing.T, env *history.Env) { selectRange(t, env, 0, 5) },
			func() history.Command { return &AddAction{Behavior: FormLockBehavior} }},
		{"leap", "one two one", func(t *testing.T, env *history.Env) {},
			func() history.Command { return &Leap{Target: "one", Backward: true} }},
		{"creep", "abc", func(t *testing.T, env *history.Env) { selectRange(t, env, 0, 0) },
			func() history.Command { return &Creep{} }},
		{"set selection list", "abcdef", func(t *testing.T, env *history.Env) {},
			func() history.Command {
				return &SetSelectionList{Selections: []span.Span{span.At(1), {Start: 2, End: 4}}}
			}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, tt.text)
			tt.setup(t, env)
			cmd := tt.cmd()
			before := capture(env.Doc)

			if err := cmd.Execute(env); err != nil {
				t.Fatal(err)
			}
			after := capture(env.Doc)
			if err := cmd.Undo(env); err != nil {
				t.Fatal(err)
			}
			if got := capture(env.Doc); !got.equal(before) {
				t.Errorf("undo: got %+v, want %+v", got, before)
			}
			if err := history.Redo(env, cmd); err != nil {
				t.Fatal(err)
			}
			if got := capture(env.Doc); !got.equal(after) {
				t.Errorf("redo: got %+v, want %+v", got, after)
			}
		})
	}
}

func TestLeap(t *testing.T) {
	env := newEnv(t, "one two one two")

	steps := []struct {
		leap *Leap
		want int
	}{
		{&Leap{Target: "two"}, 4},
		{&Leap{Target: "two"}, 12},
		{&Leap{Target: "two"}, 4},
		{&Leap{Target: "xyz", Backward: true}, -1},
		{&Leap{Target: "one", Backward: true}, 0},
		{&Leap{Target: "one", Backward: true}, 8},
		{&Leap{Target: "``"}, 14},
	}
	for i, st := range steps {
		err := env.History.Execute(env, st.leap)
		if st.want < 0 {
			if !history.IsCancel(err) {
				t.Errorf("step %d: err = %v, want cancel", i, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if env.Doc.Cursor() != st.want || env.Doc.Selection(document.Selection) != span.At(st.want) {
			t.Errorf("step %d: cursor %d selection %v, want %d", i, env.Doc.Cursor(), env.Doc.Selection(document.Selection), st.want)
		}
		if env.History.SelectionAnchor() != st.want {
			t.Errorf("step %d: anchor %d", i, env.History.SelectionAnchor())
		}
	}
}

func TestLeapPreselection(t *testing.T) {
	env := newEnv(t, "abc def ghi")
	env.Doc.SetCursor(1)
	selectRange(t, env, 0, 0)

	mustExec(t, env, &Leap{Target: "g"})
	if got := env.Doc.Selection(document.Preselection); got != (span.Span{Start: 1, End: 8}) {
		t.Errorf("preselection = %v", got)
	}
	if env.History.LastLeapTarget() != "g" {
		t.Errorf("last target = %q", env.History.LastLeapTarget())
	}

	mustExec(t, env, &Leap{Target: "d", Backward: true})
	if got := env.Doc.Selection(document.Preselection); got != (span.Span{Start: 4, End: 8}) {
		t.Errorf("backward preselection = %v", got)
	}
}

func TestRepeatLeapUsesLastTarget(t *testing.T) {
	env := newEnv(t, "xa xb xc")
	mustExec(t, env, &Leap{Target: "x"})
	if env.Doc.Cursor() != 0 {
		t.Fatalf("cursor = %d", env.Doc.Cursor())
	}
	repeat := &Leap{Repeat: true}
	mustExec(t, env, repeat)
	if env.Doc.Cursor() != 3 || repeat.Target != "x" {
		t.Errorf("cursor %d target %q", env.Doc.Cursor(), repeat.Target)
	}
}

func TestLeapFailureLeavesState(t *testing.T) {
	env := newEnv(t, "abc")
	before := capture(env.Doc)
	err := env.History.Execute(env, &Leap{Target: "zzz"})
	ce, ok := history.AsCancel(err)
	if !ok || ce.Explanation != "Leap to zzz failed." {
		t.Fatalf("err = %v", err)
	}
	if !capture(env.Doc).equal(before) || env.History.Len() != 0 {
		t.Error("failed leap changed state")
	}
}

func TestCreepAndSelect(t *testing.T) {
	env := newEnv(t, "abc")
	env.Doc.SetSelections([]span.Span{span.At(0), span.At(0)})

	mustExec(t, env, &Creep{})
	if env.Doc.Cursor() != 1 || env.Doc.Selection(document.Selection) != span.At(1) {
		t.Fatalf("cursor %d selection %v", env.Doc.Cursor(), env.Doc.Selection(document.Selection))
	}
	if got := env.Doc.Selection(document.Preselection); got != (span.Span{Start: 0, End: 1}) {
		t.Fatalf("preselection = %v", got)
	}

	mustExec(t, env, &Select{})
	if got := env.Doc.Selection(document.Selection); got != (span.Span{Start: 0, End: 1}) {
		t.Errorf("selection = %v", got)
	}
	if env.Doc.Cursor() != 2 {
		t.Errorf("cursor = %d", env.Doc.Cursor())
	}

	mustExec(t, env, &Creep{Left: true})
	if env.Doc.Cursor() != 0 || env.Doc.Selection(document.Selection) != span.At(0) {
		t.Errorf("creep left over extended selection: cursor %d selection %v",
			env.Doc.Cursor(), env.Doc.Selection(document.Selection))
	}
}

func TestSelectWithoutPreselection(t *testing.T) {
	env := newEnv(t, "abc")
	if err := env.History.Execute(env, &Select{}); !history.IsCancel(err) {
		t.Errorf("err = %v, want cancel", err)
	}
}

func TestSelectWord(t *testing.T) {
	env := newEnv(t, "hello world")
	env.Doc.SetCursor(7)
	mustExec(t, env, &SelectWord{})
	if got := env.Doc.Selection(document.Selection); got != (span.Span{Start: 6, End: 10}) {
		t.Errorf("selection = %v", got)
	}
	if env.Doc.Cursor() != 11 {
		t.Errorf("cursor = %d", env.Doc.Cursor())
	}
}

func TestPasteIsReproducible(t *testing.T) {
	env := newEnv(t, "")
	clip := &fakeClipboard{text: "a\r\nb\rc"}
	env.Clipboard = clip

	mustExec(t, env, &Paste{})
	if got := env.Doc.Text(); got != "a\nb\nc" {
		t.Fatalf("pasted %q", got)
	}
	clip.text = "changed"
	if err := env.History.Undo(env); err != nil {
		t.Fatal(err)
	}
	if err := env.History.Redo(env); err != nil {
		t.Fatal(err)
	}
	if got := env.Doc.Text(); got != "a\nb\nc" {
		t.Errorf("redo pasted %q", got)
	}
}

func TestPasteErrors(t *testing.T) {
	env := newEnv(t, "")
	if err := env.History.Execute(env, &Paste{}); !history.IsCancel(err) {
		t.Errorf("no clipboard: %v", err)
	}
	env.Clipboard = &fakeClipboard{err: errors.New("no text")}
	if err := env.History.Execute(env, &Paste{}); !history.IsCancel(err) {
		t.Errorf("unreadable clipboard: %v", err)
	}
}

func TestCopy(t *testing.T) {
	env := newEnv(t, "hello world")
	clip := &fakeClipboard{}
	env.Clipboard = clip
	selectRange(t, env, 6, 10)
	mustExec(t, env, &Copy{})
	if clip.text != "world" {
		t.Errorf("clipboard = %q", clip.text)
	}
	if env.History.Len() != 0 {
		t.Error("copy was recorded")
	}
}

func TestGeneratedReusesValue(t *testing.T) {
	env := newEnv(t, "")
	n := 0
	cmd := &Generated{Label: "COUNT", Produce: func(*history.Env) (string, error) {
		n++
		return strconv.Itoa(n * 7), nil
	}}
	mustExec(t, env, cmd)
	if err := env.History.Undo(env); err != nil {
		t.Fatal(err)
	}
	if err := env.History.Redo(env); err != nil {
		t.Fatal(err)
	}
	if env.Doc.Text() != "7" || n != 1 {
		t.Errorf("text %q produced %d times", env.Doc.Text(), n)
	}
}

func TestMetaCommands(t *testing.T) {
	env := newEnv(t, "")
	mustExec(t, env, &AddText{Text: "a"})
	mustExec(t, env, &AddText{Text: "b"})

	mustExec(t, env, &UndoLast{})
	if env.Doc.Text() != "a" {
		t.Errorf("after UNDO: %q", env.Doc.Text())
	}
	mustExec(t, env, &RedoLast{})
	if env.Doc.Text() != "ab" {
		t.Errorf("after REDO: %q", env.Doc.Text())
	}
	if err := env.History.Execute(env, &RedoLast{}); !history.IsCancel(err) {
		t.Errorf("REDO at end: %v", err)
	}

	mustExec(t, env, &ClearHistory{})
	if env.History.Len() != 1 {
		t.Errorf("history len = %d", env.History.Len())
	}
	mustExec(t, env, &UndoLast{})
	err := env.History.Execute(env, &UndoLast{})
	if ce, ok := history.AsCancel(err); !ok || ce.Explanation != "Nothing to undo!" {
		t.Errorf("UNDO on empty: %v", err)
	}
}

func TestEncodedHistoryCanUndo(t *testing.T) {
	env := newEnv(t, "abc")
	env.Doc.SetCursor(1)
	before := capture(env.Doc)
	mustExec(t, env, &AddText{Text: "XY"})
	selectRange(t, env, 0, 1)
	mustExec(t, env, &Lock{Behavior: LockBehavior})

	raw, err := json.Marshal(history.List(env.History.Entries()))
	if err != nil {
		t.Fatal(err)
	}
	var decoded history.List
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d commands", len(decoded))
	}
	for i := len(decoded) - 1; i >= 0; i-- {
		if err := decoded[i].Undo(env); err != nil {
			t.Fatal(err)
		}
	}
	if got := capture(env.Doc); !got.equal(before) {
		t.Errorf("undo of decoded commands: got %+v, want %+v", got, before)
	}
}

func TestRegister(t *testing.T) {
	r := history.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatal(err)
	}
	want := []string{"CLEAR UNDO HISTORY", "COPY IN", "COPY OUT", "LOCK", "REDO", "SELECT WORD", "UNDO", "UNLOCK"}
	if got := r.Names(); !slices.Equal(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
	if _, err := r.FindSystem("AddText"); err != nil {
		t.Error(err)
	}
	if _, err := r.Find("AddText"); !errors.Is(err, history.ErrUnknownCommand) {
		t.Errorf("AddText visible to users: %v", err)
	}
	if err := Register(r); !errors.Is(err, history.ErrDuplicateCommand) {
		t.Errorf("second Register: %v", err)
	}
}
