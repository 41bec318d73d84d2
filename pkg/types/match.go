package types

// Group is one capture group of a match. Groups are positional: the first
// parenthesised group of a pattern is Groups[0] of its Match.
type Group struct {
	Name    string `json:"name,omitempty"` // "" for unnamed groups
	Text    string `json:"text"`
	Index   int    `json:"index"`   // byte offset in the subject, -1 if not matched
	Matched bool   `json:"matched"` // false when the group did not participate
}

// Match is the immutable record of one successful match attempt.
type Match struct {
	Text   string  `json:"text"`
	Index  int     `json:"index"` // byte offset of the first matched byte
	End    int     `json:"end"`   // byte offset one past the last matched byte
	Groups []Group `json:"groups,omitempty"`
	Input  string  `json:"-"`
}

// Len returns the length of the matched text in bytes.
func (m *Match) Len() int {
	return m.End - m.Index
}

// Empty reports whether the match has zero width.
func (m *Match) Empty() bool {
	return m.End == m.Index
}

// Span returns the half-open byte range of the match.
func (m *Match) Span() OffsetSpan {
	return OffsetSpan{Start: m.Index, End: m.End}
}

// Group returns capture group n, where 0 is the whole match.
// ok is false if n is out of range or the group did not participate.
func (m *Match) Group(n int) (text string, ok bool) {
	if n == 0 {
		return m.Text, true
	}
	if n < 0 || n > len(m.Groups) {
		return "", false
	}
	g := m.Groups[n-1]
	return g.Text, g.Matched
}

// GroupByName returns the first participating group with the given name.
func (m *Match) GroupByName(name string) (text string, ok bool) {
	for _, g := range m.Groups {
		if g.Name == name && g.Matched {
			return g.Text, true
		}
	}
	return "", false
}

// NamedGroups returns the participating named groups keyed by name.
func (m *Match) NamedGroups() map[string]string {
	named := make(map[string]string)
	for _, g := range m.Groups {
		if g.Name == "" || !g.Matched {
			continue
		}
		if _, seen := named[g.Name]; !seen {
			named[g.Name] = g.Text
		}
	}
	return named
}

// Before returns the part of the input preceding the match.
func (m *Match) Before() string {
	return m.Input[:m.Index]
}

// After returns the part of the input following the match.
func (m *Match) After() string {
	return m.Input[m.End:]
}
