package engine

import (
	"fmt"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/regext/pkg/types"
)

// regexpMatcher implements Matcher on top of regexp2.
type regexpMatcher struct {
	re     *regexp2.Regexp
	source string
	groups []groupRef // positional order, group 1 first
}

func newRegexpMatcher(re *regexp2.Regexp, source string) *regexpMatcher {
	return &regexpMatcher{
		re:     re,
		source: source,
		groups: resolveGroups(re, source),
	}
}

// MatchAt implements Matcher.
func (m *regexpMatcher) MatchAt(s *Subject, pos int, sticky bool) (*types.Match, error) {
	if pos < 0 {
		pos = 0
	}
	if pos > s.Len() {
		return nil, nil
	}
	start := s.runeIndex(pos)

	rm, err := m.re.FindRunesMatchStartingAt(s.runes, start)
	if err != nil {
		return nil, fmt.Errorf("matching %q at offset %d: %w", m.source, pos, err)
	}
	if rm == nil {
		return nil, nil
	}
	if sticky && rm.Index != start {
		// The leftmost match starts later, so nothing starts at pos.
		return nil, nil
	}
	return m.buildMatch(s, rm), nil
}

// NumGroups implements Matcher.
func (m *regexpMatcher) NumGroups() int {
	return len(m.groups)
}

// GroupNames implements Matcher.
func (m *regexpMatcher) GroupNames() []string {
	names := make([]string, len(m.groups))
	for i, g := range m.groups {
		names[i] = g.name
	}
	return names
}

func (m *regexpMatcher) String() string {
	return m.source
}

// buildMatch converts a regexp2 match, whose positions are rune indices,
// into a types.Match with byte offsets.
func (m *regexpMatcher) buildMatch(s *Subject, rm *regexp2.Match) *types.Match {
	start := s.byteOffset(rm.Index)
	end := s.byteOffset(rm.Index + rm.Length)

	match := &types.Match{
		Text:  s.text[start:end],
		Index: start,
		End:   end,
		Input: s.text,
	}
	if len(m.groups) == 0 {
		return match
	}

	match.Groups = make([]types.Group, len(m.groups))
	for i, ref := range m.groups {
		match.Groups[i] = captureGroup(s, rm.GroupByNumber(ref.number), ref.name)
	}
	return match
}

// captureGroup extracts one capture group. A group that repeated reports
// its last capture; a group that did not participate reports Matched=false.
func captureGroup(s *Subject, g *regexp2.Group, name string) types.Group {
	out := types.Group{Name: name, Index: -1}
	if g == nil || len(g.Captures) == 0 {
		return out
	}

	last := g.Captures[len(g.Captures)-1]
	start := s.byteOffset(last.Index)
	end := s.byteOffset(last.Index + last.Length)

	out.Text = s.text[start:end]
	out.Index = start
	out.Matched = true
	return out
}
