package style

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/humane/internal/engine/pool"
)

// ID identifies an interned style.
type ID = pool.ID

// DefaultID is the id of Default() in every store.
const DefaultID ID = 0

// Store is a style pool plus one style id per character position.
type Store struct {
	pool  *pool.Pool[Style, Style]
	ids   []ID
	defID ID
}

func identity(s Style) Style { return s }

// NewStore creates an empty store whose pool holds only the default style.
func NewStore() *Store {
	p := pool.New(identity)
	p.Intern(Default())
	return &Store{pool: p, defID: DefaultID}
}

// Len returns the number of positions.
func (s *Store) Len() int {
	return len(s.ids)
}

// Intern returns the id of st, adding it to the pool when new.
func (s *Store) Intern(st Style) ID {
	return s.pool.Intern(st)
}

// Style returns the style for id. Unknown ids panic.
func (s *Store) Style(id ID) Style {
	return s.pool.Value(id)
}

// Valid reports whether id names a style in the pool.
func (s *Store) Valid(id ID) bool {
	return s.pool.Valid(id)
}

// Merge returns the id of the style obtained by applying o to style id.
func (s *Store) Merge(id ID, o Overlay) ID {
	return s.pool.Intern(o.Apply(s.pool.Value(id)))
}

// Default returns the id used for positions outside the sequence.
func (s *Store) Default() ID {
	return s.defID
}

// SetDefault changes the default style and restyles every position with it.
func (s *Store) SetDefault(id ID) {
	s.pool.Value(id)
	s.defID = id
	for i := range s.ids {
		s.ids[i] = id
	}
}

// At returns the style id at pos, or the default id outside the sequence.
func (s *Store) At(pos int) ID {
	if pos < 0 || pos >= len(s.ids) {
		return s.defID
	}
	return s.ids[pos]
}

// Inherit returns the style new text inserted at pos takes on: the style
// of the character it displaces, else the one before it.
func (s *Store) Inherit(pos int) ID {
	switch {
	case len(s.ids) == 0:
		return s.defID
	case pos >= 0 && pos < len(s.ids):
		return s.ids[pos]
	case pos >= len(s.ids):
		return s.ids[len(s.ids)-1]
	default:
		return s.ids[0]
	}
}

// Set changes the style id at one position. Out-of-range positions are ignored.
func (s *Store) Set(pos int, id ID) {
	if pos < 0 || pos >= len(s.ids) {
		return
	}
	s.ids[pos] = id
}

// SetRange assigns id to every position in [start, end], clamped.
func (s *Store) SetRange(id ID, start, end int) {
	start, end = s.clamp(start, end)
	for i := start; i <= end; i++ {
		s.ids[i] = id
	}
}

// Insert adds n positions at pos, all with style id.
func (s *Store) Insert(pos, n int, id ID) {
	if n <= 0 {
		return
	}
	s.ids = slices.Insert(s.ids, s.insertPos(pos), slices.Repeat([]ID{id}, n)...)
}

// InsertIDs adds the given ids at pos.
func (s *Store) InsertIDs(pos int, ids []ID) {
	if len(ids) == 0 {
		return
	}
	s.ids = slices.Insert(s.ids, s.insertPos(pos), ids...)
}

// Delete removes [start, end], clamped.
func (s *Store) Delete(start, end int) {
	start, end = s.clamp(start, end)
	if end < start {
		return
	}
	s.ids = slices.Delete(s.ids, start, end+1)
}

// Slice returns a copy of the ids in [start, end], clamped.
func (s *Store) Slice(start, end int) []ID {
	start, end = s.clamp(start, end)
	if end < start {
		return nil
	}
	return slices.Clone(s.ids[start : end+1])
}

// Replace overwrites ids starting at pos. Ids past the end are dropped.
func (s *Store) Replace(pos int, ids []ID) {
	for i, id := range ids {
		s.Set(pos+i, id)
	}
}

// IDs returns a copy of the whole sequence.
func (s *Store) IDs() []ID {
	return slices.Clone(s.ids)
}

// Styles returns the pool contents in id order.
func (s *Store) Styles() []Style {
	return s.pool.Values()
}

// Restore replaces the pool, the sequence and the default id.
// Every id must name a style in styles.
func (s *Store) Restore(styles []Style, ids []ID, def ID) error {
	if len(styles) == 0 {
		return errors.New("style pool is empty")
	}
	for i, id := range ids {
		if id < 0 || int(id) >= len(styles) {
			return fmt.Errorf("style id %d at position %d not in pool of %d", id, i, len(styles))
		}
	}
	if def < 0 || int(def) >= len(styles) {
		return fmt.Errorf("default style id %d not in pool of %d", def, len(styles))
	}
	s.pool.Restore(styles)
	s.ids = slices.Clone(ids)
	s.defID = def
	return nil
}

func (s *Store) insertPos(pos int) int {
	if pos < 0 || pos > len(s.ids) {
		return len(s.ids)
	}
	return pos
}

func (s *Store) clamp(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(s.ids)-1 {
		end = len(s.ids) - 1
	}
	return start, end
}
