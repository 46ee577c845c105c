// Package span defines inclusive character ranges shared by the document stores.
package span

import "fmt"

// Span is an inclusive range of character positions: [Start, End].
// The empty span is represented by End < Start; None is the canonical one.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// None is the "no range" value used for unset selections.
var None = Span{Start: -1, End: -1}

// New creates a span, ordering the endpoints.
func New(start, end int) Span {
	if end < start {
		start, end = end, start
	}
	return Span{Start: start, End: end}
}

// At returns the single-position span [pos, pos].
func At(pos int) Span {
	return Span{Start: pos, End: pos}
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	return fmt.Sprintf("[%d,%d]", s.Start, s.End)
}

// Len returns the number of positions covered, or zero when empty.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start + 1
}

// IsEmpty reports whether the span covers no position.
func (s Span) IsEmpty() bool {
	return s.End < s.Start
}

// IsNone reports whether the span is the unset marker.
func (s Span) IsNone() bool {
	return s == None
}

// Contains reports whether pos is inside the span.
func (s Span) Contains(pos int) bool {
	return pos >= s.Start && pos <= s.End
}

// Overlaps reports whether two spans share at least one position.
func (s Span) Overlaps(other Span) bool {
	if s.IsEmpty() || other.IsEmpty() {
		return false
	}
	return s.Start <= other.End && other.Start <= s.End
}

// Clamp restricts the span to the valid positions of a sequence of the
// given length. The result is empty when nothing remains.
func (s Span) Clamp(length int) Span {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > length-1 {
		end = length - 1
	}
	return Span{Start: start, End: end}
}

// Shift returns the span moved by delta.
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

// AdjustOnInsert returns where pos lands after n positions are inserted at
// insertPos. Positions at or after the insertion point move right.
func AdjustOnInsert(pos, insertPos, n int) int {
	if insertPos <= pos {
		return pos + n
	}
	return pos
}

// AdjustOnDelete returns where pos lands after [start, end] is removed.
// Positions inside the removed range collapse to start.
func AdjustOnDelete(pos, start, end int) int {
	switch {
	case pos < start:
		return pos
	case pos <= end:
		return start
	default:
		return pos - (end - start + 1)
	}
}
