// Package document keeps characters, styles and behaviors in lock-step.
//
// A Document owns one character store, one style store and one behavior
// store whose lengths are always equal. It also holds the cursor and the
// selection list, and moves them when text is inserted or deleted.
//
// Every mutating method records its inverse while a transaction opened
// with Begin is active, so a failed command can be rolled back to the
// exact state it started from.
package document

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/humane/internal/engine/behavior"
	"github.com/dshills/humane/internal/engine/chars"
	"github.com/dshills/humane/internal/engine/span"
	"github.com/dshills/humane/internal/engine/style"
)

// Errors returned by document operations.
var (
	// ErrInvalidPosition indicates a position outside [0, Len].
	ErrInvalidPosition = errors.New("invalid position")

	// ErrLengthMismatch indicates per-character data whose length does not
	// match the text it belongs to.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrUnknownStyle indicates a style id missing from the pool.
	ErrUnknownStyle = errors.New("unknown style")
)

// Indexes into the selection list. Entries from OldSelection on are
// earlier selections, most recent first.
const (
	Preselection = iota
	Selection
	OldSelection
	FirstOldSelection
)

// Fragment is a run of text together with its per-character metadata.
type Fragment struct {
	Text      string                `json:"text"`
	Styles    []style.ID            `json:"styles,omitempty"`
	Behaviors []behavior.BehaviorID `json:"behaviors,omitempty"`
}

// Len returns the number of characters in the fragment.
func (f Fragment) Len() int {
	return utf8.RuneCountInString(f.Text)
}

// Memento captures the non-content state: cursor and selections.
type Memento struct {
	Cursor     int         `json:"cursor"`
	Selections []span.Span `json:"selections"`
}

// Document is a text with per-character styles and behaviors.
type Document struct {
	chars      *chars.Store
	styles     *style.Store
	behaviors  *behavior.Store
	cursor     int
	selections []span.Span
	journal    journal
}

// New creates an empty document over the given stores, which must be
// empty.
func New(styles *style.Store, behaviors *behavior.Store) *Document {
	if styles.Len() != 0 || behaviors.Len() != 0 {
		panic(fmt.Sprintf("document: stores must be empty (styles %d, behaviors %d)", styles.Len(), behaviors.Len()))
	}
	return &Document{
		chars:      chars.New(""),
		styles:     styles,
		behaviors:  behaviors,
		selections: initialSelections(),
	}
}

func initialSelections() []span.Span {
	return []span.Span{span.None, span.None, span.None, span.None}
}

// Styles returns the style store. Callers must not change its length.
func (d *Document) Styles() *style.Store { return d.styles }

// Behaviors returns the behavior store. Callers must not change its length.
func (d *Document) Behaviors() *behavior.Store { return d.behaviors }

// Len returns the number of characters.
func (d *Document) Len() int {
	return d.chars.Len()
}

// Text returns the whole content.
func (d *Document) Text() string {
	return d.chars.String()
}

// Slice returns the text in [start, end], clamped.
func (d *Document) Slice(start, end int) string {
	return d.chars.Slice(start, end)
}

// CharAt returns the character at pos.
func (d *Document) CharAt(pos int) rune {
	return d.chars.At(pos)
}

// StyleAt returns the style id at pos.
func (d *Document) StyleAt(pos int) style.ID {
	return d.styles.At(pos)
}

// BehaviorAt returns the behavior id at pos.
func (d *Document) BehaviorAt(pos int) behavior.BehaviorID {
	return d.behaviors.At(pos)
}

// StyledText returns the text in [start, end] with its style ids.
func (d *Document) StyledText(start, end int) (string, []style.ID) {
	return d.chars.Slice(start, end), d.styles.Slice(start, end)
}

// Fragment returns [start, end] with styles and behaviors.
func (d *Document) Fragment(start, end int) Fragment {
	return Fragment{
		Text:      d.chars.Slice(start, end),
		Styles:    d.styles.Slice(start, end),
		Behaviors: d.behaviors.Slice(start, end),
	}
}

// Find searches the text; see chars.Store.Find.
func (d *Document) Find(pattern string, start int, dir chars.Direction) int {
	return d.chars.Find(pattern, start, dir)
}

// WordBounds returns the word segment containing pos.
func (d *Document) WordBounds(pos int) (span.Span, bool) {
	return d.chars.WordBounds(pos)
}

// Insert adds text at pos. The text is normalized to NFC first. With no
// styles the new characters inherit the style at the insertion point; one
// style applies to all of them; otherwise there must be one style per
// normalized character. New characters get the default behavior. Insert
// returns the number of characters added.
func (d *Document) Insert(pos int, text string, styles []style.ID) (int, error) {
	if pos < 0 || pos > d.Len() {
		return 0, fmt.Errorf("%w: insert at %d, length %d", ErrInvalidPosition, pos, d.Len())
	}
	runes := []rune(norm.NFC.String(text))
	n := len(runes)
	if n == 0 {
		return 0, nil
	}

	var ids []style.ID
	switch len(styles) {
	case 0:
		ids = slices.Repeat([]style.ID{d.styles.Inherit(pos)}, n)
	case 1:
		ids = slices.Repeat([]style.ID{styles[0]}, n)
	case n:
		ids = slices.Clone(styles)
	default:
		return 0, fmt.Errorf("%w: %d styles for %d characters", ErrLengthMismatch, len(styles), n)
	}
	for _, id := range ids {
		if !d.styles.Valid(id) {
			return 0, fmt.Errorf("%w: %d", ErrUnknownStyle, id)
		}
	}

	d.insert(pos, runes, ids, nil)
	return n, nil
}

// InsertFragment puts a previously deleted fragment back at pos exactly as
// it was, without normalization.
func (d *Document) InsertFragment(pos int, f Fragment) error {
	if pos < 0 || pos > d.Len() {
		return fmt.Errorf("%w: insert at %d, length %d", ErrInvalidPosition, pos, d.Len())
	}
	runes := []rune(f.Text)
	if len(runes) == 0 {
		return nil
	}
	if len(f.Styles) != len(runes) {
		return fmt.Errorf("%w: %d styles for %d characters", ErrLengthMismatch, len(f.Styles), len(runes))
	}
	if f.Behaviors != nil && len(f.Behaviors) != len(runes) {
		return fmt.Errorf("%w: %d behaviors for %d characters", ErrLengthMismatch, len(f.Behaviors), len(runes))
	}
	d.insert(pos, runes, f.Styles, f.Behaviors)
	return nil
}

func (d *Document) insert(pos int, runes []rune, styles []style.ID, behaviors []behavior.BehaviorID) {
	n := len(runes)
	before := d.Memento()
	d.record(func() {
		d.delete(pos, pos+n-1)
		d.restoreMemento(before)
	})

	d.chars.Insert(pos, runes)
	d.styles.InsertIDs(pos, styles)
	if behaviors == nil {
		d.behaviors.Insert(pos, n)
	} else {
		d.behaviors.InsertIDs(pos, behaviors)
	}

	d.cursor = span.AdjustOnInsert(d.cursor, pos, n)
	for i, sel := range d.selections {
		d.selections[i] = span.Span{
			Start: span.AdjustOnInsert(sel.Start, pos, n),
			End:   span.AdjustOnInsert(sel.End, pos, n),
		}
	}
}

// Delete removes [start, end], clamped, and returns what was removed.
func (d *Document) Delete(start, end int) Fragment {
	r := span.Span{Start: start, End: end}.Clamp(d.Len())
	if r.IsEmpty() {
		return Fragment{}
	}
	before := d.Memento()
	f := d.delete(r.Start, r.End)
	d.record(func() {
		d.insert(r.Start, []rune(f.Text), f.Styles, f.Behaviors)
		d.restoreMemento(before)
	})
	return f
}

func (d *Document) delete(start, end int) Fragment {
	f := d.Fragment(start, end)
	d.chars.Delete(start, end)
	d.styles.Delete(start, end)
	d.behaviors.Delete(start, end)

	d.cursor = span.AdjustOnDelete(d.cursor, start, end)
	for i, sel := range d.selections {
		d.selections[i] = span.Span{
			Start: span.AdjustOnDelete(sel.Start, start, end),
			End:   span.AdjustOnDelete(sel.End, start, end),
		}
	}
	return f
}

// ApplyOverlay merges o into the style of every position in [start, end].
func (d *Document) ApplyOverlay(o style.Overlay, start, end int) {
	prev := d.styles.Slice(start, end)
	if len(prev) == 0 {
		return
	}
	first := max(start, 0)
	d.record(func() { d.styles.Replace(first, prev) })
	for i, id := range prev {
		d.styles.Set(first+i, d.styles.Merge(id, o))
	}
}

// SetStyles overwrites style ids starting at pos.
func (d *Document) SetStyles(pos int, ids []style.ID) {
	prev := d.styles.Slice(pos, pos+len(ids)-1)
	if len(prev) == 0 {
		return
	}
	first := max(pos, 0)
	d.record(func() { d.styles.Replace(first, prev) })
	d.styles.Replace(pos, ids)
}

// SetStyleRange assigns one style id to [start, end].
func (d *Document) SetStyleRange(id style.ID, start, end int) {
	prev := d.styles.Slice(start, end)
	if len(prev) == 0 {
		return
	}
	first := max(start, 0)
	d.record(func() { d.styles.Replace(first, prev) })
	d.styles.SetRange(id, start, end)
}

// AddAction pushes action a onto every position in [start, end].
func (d *Document) AddAction(a behavior.ActionID, start, end int) {
	d.saveBehaviors(start, end)
	d.behaviors.AddActionInRange(a, start, end)
}

// RemoveActions removes each action in set from every position in
// [start, end].
func (d *Document) RemoveActions(set []behavior.ActionID, start, end int) {
	d.saveBehaviors(start, end)
	d.behaviors.RemoveActionsInRange(set, start, end)
}

// SetBehaviors overwrites behavior ids starting at pos.
func (d *Document) SetBehaviors(pos int, ids []behavior.BehaviorID) {
	d.saveBehaviors(pos, pos+len(ids)-1)
	d.behaviors.Replace(pos, ids)
}

func (d *Document) saveBehaviors(start, end int) {
	prev := d.behaviors.Slice(start, end)
	if len(prev) == 0 {
		return
	}
	first := max(start, 0)
	d.record(func() { d.behaviors.Replace(first, prev) })
}

// Cursor returns the insertion point, in [0, Len].
func (d *Document) Cursor() int {
	return d.cursor
}

// SetCursor moves the insertion point, clamping it to [0, Len].
func (d *Document) SetCursor(pos int) {
	old := d.cursor
	d.record(func() { d.cursor = old })
	d.cursor = min(max(pos, 0), d.Len())
}

// Selection returns selection i, or span.None if the list is shorter.
func (d *Document) Selection(i int) span.Span {
	if i < 0 || i >= len(d.selections) {
		return span.None
	}
	return d.selections[i]
}

// Selections returns a copy of the selection list.
func (d *Document) Selections() []span.Span {
	return slices.Clone(d.selections)
}

// SetSelection sets selection i to the ordered range [start, end]. Ranges
// that do not lie inside the text are ignored and SetSelection reports
// false.
func (d *Document) SetSelection(i, start, end int) bool {
	r := span.New(start, end)
	if i < 0 || i >= len(d.selections) || r.Start < 0 || r.End > d.Len()-1 {
		return false
	}
	d.saveSelections()
	d.selections[i] = r
	return true
}

// SetSelections replaces the whole selection list.
func (d *Document) SetSelections(list []span.Span) {
	d.saveSelections()
	d.selections = padSelections(slices.Clone(list))
}

func padSelections(list []span.Span) []span.Span {
	for len(list) < FirstOldSelection+1 {
		list = append(list, span.None)
	}
	return list
}

func (d *Document) saveSelections() {
	prev := slices.Clone(d.selections)
	d.record(func() { d.selections = prev })
}

// IsExtendedSelection reports whether the selection covers more than one
// character.
func (d *Document) IsExtendedSelection() bool {
	return d.Selection(Selection).Len() > 1
}

// CreateNewSelection makes [start, end] the selection. When the current
// selection is extended it is kept as the most recent old selection.
// A new extended selection drops old selections it overlaps.
func (d *Document) CreateNewSelection(start, end int) {
	if d.Len() == 0 {
		return
	}
	last := d.Len() - 1
	r := span.New(min(max(start, 0), last), min(max(end, 0), last))

	d.saveSelections()
	if d.IsExtendedSelection() {
		d.selections = slices.Insert(d.selections, Selection, r)
	} else {
		d.selections[Selection] = r
	}
	if r.Len() > 1 {
		for i := len(d.selections) - 1; i >= OldSelection; i-- {
			if d.selections[i].Overlaps(r) {
				d.selections = slices.Delete(d.selections, i, i+1)
			}
		}
		d.selections = padSelections(d.selections)
	}
}

// Memento returns the current cursor and selections.
func (d *Document) Memento() Memento {
	return Memento{Cursor: d.cursor, Selections: slices.Clone(d.selections)}
}

// SetMemento restores cursor and selections.
func (d *Document) SetMemento(m Memento) {
	before := d.Memento()
	d.record(func() { d.restoreMemento(before) })
	d.restoreMemento(m)
}

func (d *Document) restoreMemento(m Memento) {
	d.cursor = min(max(m.Cursor, 0), d.Len())
	d.selections = padSelections(slices.Clone(m.Selections))
}

// State is the complete persisted form of a document.
type State struct {
	Text          string
	StylePool     []style.Style
	DefaultStyle  style.ID
	Styles        []style.ID
	BehaviorPools behavior.Pools
	Behaviors     []behavior.BehaviorID
	Memento       Memento
}

// State captures the document for saving.
func (d *Document) State() State {
	return State{
		Text:          d.Text(),
		StylePool:     d.styles.Styles(),
		DefaultStyle:  d.styles.Default(),
		Styles:        d.styles.IDs(),
		BehaviorPools: d.behaviors.Pools(),
		Behaviors:     d.behaviors.IDs(),
		Memento:       d.Memento(),
	}
}

// Restore replaces the whole document. On error the document may be
// partly restored and should be discarded.
func (d *Document) Restore(st State) error {
	runes := []rune(st.Text)
	if len(st.Styles) != len(runes) || len(st.Behaviors) != len(runes) {
		return fmt.Errorf("%w: %d characters, %d styles, %d behaviors",
			ErrLengthMismatch, len(runes), len(st.Styles), len(st.Behaviors))
	}
	if err := d.behaviors.Restore(st.BehaviorPools, st.Behaviors); err != nil {
		return err
	}
	if err := d.styles.Restore(st.StylePool, st.Styles, st.DefaultStyle); err != nil {
		return err
	}
	d.chars = chars.New(st.Text)
	d.journal = journal{}
	d.restoreMemento(st.Memento)
	return nil
}
