package chars

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dshills/humane/internal/engine/span"
)

// WordBounds returns the word segment containing pos, following the
// Unicode word boundary rules. Runs of spaces and punctuation form their
// own segments.
func (s *Store) WordBounds(pos int) (span.Span, bool) {
	if pos < 0 || pos >= len(s.runes) {
		return span.None, false
	}

	str := string(s.runes)
	state := -1
	offset := 0
	for len(str) > 0 {
		var word string
		word, str, state = uniseg.FirstWordInString(str, state)
		n := utf8.RuneCountInString(word)
		if pos < offset+n {
			return span.Span{Start: offset, End: offset + n - 1}, true
		}
		offset += n
	}
	return span.None, false
}
