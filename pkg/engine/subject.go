package engine

import (
	"sort"
	"unicode/utf8"
)

// Subject is a string prepared for matching. regexp2 searches rune
// slices, while callers speak in byte offsets; Subject converts between the
// two. A Subject is read-only once built and may be shared.
type Subject struct {
	text    string
	runes   []rune
	offsets []int // offsets[i] is the byte offset of runes[i]; offsets[len(runes)] == len(text)
}

// NewSubject decodes s. Invalid UTF-8 bytes decode to utf8.RuneError one
// byte at a time, so every byte offset stays addressable.
func NewSubject(s string) *Subject {
	n := utf8.RuneCountInString(s)
	sub := &Subject{
		text:    s,
		runes:   make([]rune, 0, n),
		offsets: make([]int, 0, n+1),
	}
	for i, r := range s {
		sub.runes = append(sub.runes, r)
		sub.offsets = append(sub.offsets, i)
	}
	sub.offsets = append(sub.offsets, len(s))
	return sub
}

func (s *Subject) String() string {
	return s.text
}

// Len returns the subject length in bytes.
func (s *Subject) Len() int {
	return len(s.text)
}

// Align rounds off up to the nearest code point boundary.
// Offsets past the end are returned unchanged.
func (s *Subject) Align(off int) int {
	if off <= 0 {
		return 0
	}
	if off >= len(s.text) {
		return off
	}
	return s.offsets[s.runeIndex(off)]
}

// Next returns the offset one code point after off. At or past the end
// it returns off+1, which lies beyond the subject.
func (s *Subject) Next(off int) int {
	if off < 0 {
		return 0
	}
	if off >= len(s.text) {
		return off + 1
	}
	i := s.runeIndex(off)
	if s.offsets[i] != off {
		// off was inside a code point; the next boundary is one step on.
		return s.offsets[i]
	}
	return s.offsets[i+1]
}

// runeIndex returns the index of the first rune starting at or after the
// byte offset off.
func (s *Subject) runeIndex(off int) int {
	return sort.SearchInts(s.offsets, off)
}

// byteOffset returns the byte offset of rune index i.
func (s *Subject) byteOffset(i int) int {
	return s.offsets[i]
}
