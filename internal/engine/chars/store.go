// Package chars stores document characters and searches them.
package chars

import (
	"fmt"
	"slices"
)

// Store is an ordered sequence of characters addressed by zero-based
// position. Ranges are inclusive: [start, end].
type Store struct {
	runes []rune
}

// New creates a store holding text.
func New(text string) *Store {
	return &Store{runes: []rune(text)}
}

// Len returns the number of characters.
func (s *Store) Len() int {
	return len(s.runes)
}

// At returns the character at pos. An invalid position is a programming
// error and panics.
func (s *Store) At(pos int) rune {
	if pos < 0 || pos >= len(s.runes) {
		panic(fmt.Sprintf("chars: position %d out of range [0,%d)", pos, len(s.runes)))
	}
	return s.runes[pos]
}

// Insert adds text at pos. Positions past the end append.
func (s *Store) Insert(pos int, text []rune) {
	if len(text) == 0 {
		return
	}
	if pos < 0 || pos > len(s.runes) {
		pos = len(s.runes)
	}
	s.runes = slices.Insert(s.runes, pos, text...)
}

// Delete removes [start, end], clamped to the store.
func (s *Store) Delete(start, end int) {
	start, end = s.clamp(start, end)
	if end < start {
		return
	}
	s.runes = slices.Delete(s.runes, start, end+1)
}

// Runes returns a copy of the characters in [start, end], clamped.
func (s *Store) Runes(start, end int) []rune {
	start, end = s.clamp(start, end)
	if end < start {
		return nil
	}
	return slices.Clone(s.runes[start : end+1])
}

// Slice returns [start, end] as a string, clamped.
func (s *Store) Slice(start, end int) string {
	return string(s.Runes(start, end))
}

// String returns the whole content.
func (s *Store) String() string {
	return string(s.runes)
}

// Direction selects the search direction.
type Direction int

// Search directions.
const (
	Forward Direction = iota
	Backward
)

// Find searches for pattern. Forward returns the first match starting at
// or after start. Backward returns the last match lying entirely before
// start. Both return -1 when nothing matches.
func (s *Store) Find(pattern string, start int, dir Direction) int {
	if dir == Backward {
		return SearchBackward(s.runes, []rune(pattern), start)
	}
	return SearchForward(s.runes, []rune(pattern), start)
}

func (s *Store) clamp(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(s.runes)-1 {
		end = len(s.runes) - 1
	}
	return start, end
}
