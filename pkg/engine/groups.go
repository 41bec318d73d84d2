package engine

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// groupRef ties a positional capture group to its regexp2 group number.
type groupRef struct {
	name   string // "" when unnamed
	number int
}

// resolveGroups lists the capture groups of re in order of appearance.
//
// regexp2 numbers unnamed groups first and named groups after them, while
// ECMAScript and RE2 number every group by the position of its opening
// parenthesis. The openers are located in the source to restore positional
// order; if that scan disagrees with the engine's group count the engine
// numbering is used as is.
func resolveGroups(re *regexp2.Regexp, source string) []groupRef {
	total := len(re.GetGroupNumbers()) - 1 // drop group 0
	if total <= 0 {
		return nil
	}

	openers := scanCaptureOpeners(source)
	refs := make([]groupRef, 0, len(openers))
	unnamed := 0
	seen := make(map[int]bool)
	for _, name := range openers {
		var ref groupRef
		switch {
		case name == "":
			unnamed++
			ref = groupRef{number: unnamed}
		case isDecimal(name):
			n, _ := strconv.Atoi(name)
			ref = groupRef{number: n}
		default:
			ref = groupRef{name: name, number: re.GroupNumberFromName(name)}
		}
		if ref.number <= 0 || seen[ref.number] {
			continue
		}
		seen[ref.number] = true
		refs = append(refs, ref)
	}
	if len(refs) == total {
		return refs
	}

	refs = refs[:0]
	for _, n := range re.GetGroupNumbers() {
		if n == 0 {
			continue
		}
		name := re.GroupNameFromNumber(n)
		if isDecimal(name) {
			name = ""
		}
		refs = append(refs, groupRef{name: name, number: n})
	}
	return refs
}

// scanCaptureOpeners returns one entry per capturing "(" in pattern, in
// order: the group name, or "" for an unnamed group. Escapes, character
// classes, non-capturing groups, lookarounds and (?#...) comments are skipped.
func scanCaptureOpeners(pattern string) []string {
	var names []string
	inClass := false

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(':
			if i+1 >= len(pattern) || pattern[i+1] != '?' {
				names = append(names, "")
				continue
			}
			rest := pattern[i+2:]
			switch {
			case strings.HasPrefix(rest, "#"):
				if end := strings.IndexByte(rest, ')'); end >= 0 {
					i += 2 + end
				}
			case strings.HasPrefix(rest, "P<"):
				if name, ok := groupName(rest[2:], '>'); ok {
					names = append(names, name)
				}
			case strings.HasPrefix(rest, "<=") || strings.HasPrefix(rest, "<!"):
				// lookbehind
			case strings.HasPrefix(rest, "<"):
				if name, ok := groupName(rest[1:], '>'); ok {
					names = append(names, name)
				}
			case strings.HasPrefix(rest, "'"):
				if name, ok := groupName(rest[1:], '\''); ok {
					names = append(names, name)
				}
			}
		}
	}
	return names
}

// groupName reads a group name terminated by term. Balancing-group syntax
// (name-other) keeps the part before the dash.
func groupName(s string, term byte) (string, bool) {
	end := strings.IndexByte(s, term)
	if end <= 0 {
		return "", false
	}
	name := s[:end]
	if dash := strings.IndexByte(name, '-'); dash >= 0 {
		name = name[:dash]
	}
	return name, name != ""
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
