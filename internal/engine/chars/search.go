package chars

import "unicode"

// shiftedKeys maps an unshifted key on a US keyboard to the character the
// same key produces with shift held.
var shiftedKeys = map[rune]rune{
	'`': '~', '1': '!', '2': '@', '3': '#', '4': '$', '5': '%', '6': '^',
	'7': '&', '8': '*', '9': '(', '0': ')', '-': '_', '=': '+', '[': '{',
	']': '}', '\\': '|', ';': ':', '\'': '"', ',': '<', '.': '>', '/': '?',
}

// Shift returns the character produced by typing c with shift held.
// Characters that shift does not change are returned as is.
func Shift(c rune) rune {
	c = unicode.ToUpper(c)
	if s, ok := shiftedKeys[c]; ok {
		return s
	}
	return c
}

// matchClass returns the characters a pattern character matches: itself,
// plus its shifted counterpart when it has one. An unshifted pattern
// character therefore matches either form, while a shifted one (an
// uppercase letter, "!") only matches itself.
func matchClass(c rune) []rune {
	if unicode.IsLower(c) {
		if u := unicode.ToUpper(c); u != c {
			return []rune{c, u}
		}
		return []rune{c}
	}
	if s := Shift(c); s != c {
		return []rune{c, s}
	}
	return []rune{c}
}

func classes(pattern []rune) [][]rune {
	cs := make([][]rune, len(pattern))
	for i, c := range pattern {
		cs[i] = matchClass(c)
	}
	return cs
}

func matchAt(cs [][]rune, text []rune, pos int) bool {
	for i, class := range cs {
		ok := false
		for _, c := range class {
			if text[pos+i] == c {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// SearchForward returns the first position >= start where pattern matches
// text, using Boyer-Moore-Horspool with per-character match classes.
// It returns -1 if there is no match or the pattern is empty.
func SearchForward(text, pattern []rune, start int) int {
	m := len(pattern)
	if m == 0 {
		return -1
	}
	if start < 0 {
		start = 0
	}
	cs := classes(pattern)

	skip := make(map[rune]int, 2*m)
	for i := 0; i < m-1; i++ {
		for _, c := range cs[i] {
			skip[c] = m - 1 - i
		}
	}

	for pos := start; pos+m <= len(text); {
		if matchAt(cs, text, pos) {
			return pos
		}
		if d, ok := skip[text[pos+m-1]]; ok {
			pos += d
		} else {
			pos += m
		}
	}
	return -1
}

// SearchBackward returns the last position where pattern matches text
// entirely within [0, start). It returns -1 if there is no match or the
// pattern is empty.
func SearchBackward(text, pattern []rune, start int) int {
	m := len(pattern)
	if m == 0 {
		return -1
	}
	if start > len(text) {
		start = len(text)
	}
	cs := classes(pattern)

	skip := make(map[rune]int, 2*m)
	for i := m - 1; i > 0; i-- {
		for _, c := range cs[i] {
			skip[c] = i
		}
	}

	for pos := start - m; pos >= 0; {
		if matchAt(cs, text, pos) {
			return pos
		}
		if d, ok := skip[text[pos]]; ok {
			pos -= d
		} else {
			pos -= m
		}
	}
	return -1
}
