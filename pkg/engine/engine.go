// Package engine adapts github.com/dlclark/regexp2 to the narrow contract
// regext needs from a host regular-expression engine: compile a pattern
// with a flag set, attempt one match from a given offset, and report the
// match with its capture groups.
//
// Offsets crossing this package are byte offsets into the subject string.
// regexp2 works on runes, so Subject keeps both views.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/regext/pkg/types"
)

// Dialect selects the syntax and semantics regexp2 applies to a pattern.
type Dialect int

const (
	ECMAScript Dialect = iota // JavaScript RegExp syntax (default)
	RE2                       // Go regexp / RE2 compatible syntax
	Perl                      // regexp2 native (.NET / Perl style) syntax
)

var dialectNames = map[Dialect]string{
	ECMAScript: "ecmascript",
	RE2:        "re2",
	Perl:       "perl",
}

func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

// ParseDialect maps a dialect name (case-insensitive) to a Dialect.
// "js" and "net" are accepted as aliases.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ecmascript", "js":
		return ECMAScript, nil
	case "re2":
		return RE2, nil
	case "perl", "net":
		return Perl, nil
	default:
		return 0, fmt.Errorf("unknown dialect %q (want ecmascript, re2 or perl)", name)
	}
}

// Options is the flag set handed to Compile. Repeat and sticky modes are
// not engine options: the caller drives them through MatchAt.
type Options struct {
	Dialect    Dialect
	IgnoreCase bool
	Multiline  bool
	DotAll     bool
	Unicode    bool // only meaningful for ECMAScript

	// MatchTimeout bounds a single match attempt (0 = no timeout).
	// regexp2 is a backtracking engine; this guards against catastrophic patterns.
	MatchTimeout time.Duration
}

func (o Options) regexpOptions() regexp2.RegexOptions {
	var opt regexp2.RegexOptions
	switch o.Dialect {
	case ECMAScript:
		opt = regexp2.ECMAScript
		if o.Unicode {
			opt |= regexp2.Unicode
		}
	case RE2:
		opt = regexp2.RE2
	default:
		opt = regexp2.None
	}
	if o.IgnoreCase {
		opt |= regexp2.IgnoreCase
	}
	if o.Multiline {
		opt |= regexp2.Multiline
	}
	if o.DotAll {
		opt |= regexp2.Singleline
	}
	return opt
}

// Matcher performs single match attempts for one compiled pattern.
// Implementations are immutable and safe for concurrent use; cursor state
// belongs to the caller.
type Matcher interface {
	// MatchAt attempts a match starting the search at byte offset pos.
	// With sticky set, only a match beginning exactly at pos counts.
	// It returns (nil, nil) when there is no match.
	MatchAt(s *Subject, pos int, sticky bool) (*types.Match, error)

	// NumGroups returns the number of capture groups, excluding group 0.
	NumGroups() int

	// GroupNames returns the capture group names in positional order,
	// "" for unnamed groups.
	GroupNames() []string

	// String returns the source pattern.
	String() string
}

// Compile compiles source with the given options.
// The returned error is the engine's syntax error, unwrapped.
func Compile(source string, opts Options) (Matcher, error) {
	re, err := regexp2.Compile(source, opts.regexpOptions())
	if err != nil {
		return nil, err
	}
	if opts.MatchTimeout > 0 {
		re.MatchTimeout = opts.MatchTimeout
	}
	return newRegexpMatcher(re, source), nil
}
