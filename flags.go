package regext

import (
	"fmt"
	"strings"
)

// Flags is the set of mode flags of a Pattern.
type Flags uint8

const (
	Global     Flags = 1 << iota // g: repeat matching across the whole subject
	IgnoreCase                   // i: case-insensitive matching
	Multiline                    // m: ^ and $ match at line boundaries
	DotAll                       // s: . matches newlines
	Unicode                      // u: code point escapes such as \u{1F600}
	Sticky                       // y: matches must start exactly at the cursor
)

// flagLetters is in canonical rendering order.
var flagLetters = []struct {
	flag   Flags
	letter byte
}{
	{Global, 'g'},
	{IgnoreCase, 'i'},
	{Multiline, 'm'},
	{DotAll, 's'},
	{Unicode, 'u'},
	{Sticky, 'y'},
}

// ParseFlags parses flag letters in any order. Unknown or repeated letters
// are rejected with an error wrapping ErrPatternSyntax.
func ParseFlags(s string) (Flags, error) {
	var flags Flags
	for i := 0; i < len(s); i++ {
		f, ok := flagForLetter(s[i])
		if !ok {
			return 0, fmt.Errorf("%w: invalid flag %q in %q", ErrPatternSyntax, s[i], s)
		}
		if flags&f != 0 {
			return 0, fmt.Errorf("%w: duplicate flag %q in %q", ErrPatternSyntax, s[i], s)
		}
		flags |= f
	}
	return flags, nil
}

func flagForLetter(c byte) (Flags, bool) {
	for _, fl := range flagLetters {
		if fl.letter == c {
			return fl.flag, true
		}
	}
	return 0, false
}

// Has reports whether every flag in f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// String renders the flags in canonical order, e.g. "gimsuy".
func (f Flags) String() string {
	var b strings.Builder
	for _, fl := range flagLetters {
		if f&fl.flag != 0 {
			b.WriteByte(fl.letter)
		}
	}
	return b.String()
}
