// Package regext extends a host regular-expression engine with convenience
// operations: repeated matching, side-effect-free testing, bulk replace,
// extraction of matches and capture groups, counting and last-match lookup.
//
// Matching itself is delegated to github.com/dlclark/regexp2 (ECMAScript
// syntax by default). A Pattern adds one piece of state on top of the
// compiled expression: a cursor, the byte offset where the next Exec in
// repeat ("g") or sticky ("y") mode starts. Exec and Test move the cursor
// the way the engine's native exec does; every other operation leaves the
// caller-visible cursor exactly as it found it.
//
// # Basic Usage
//
//	re, err := regext.Compile(`a(b)c`, "g")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	matches, err := re.FindAll("abc abc abc")
//	if errors.Is(err, regext.ErrNoMatch) {
//	    fmt.Println("nothing found")
//	}
//	for _, m := range matches {
//	    fmt.Println(m.Index, m.Text, m.Groups[0].Text)
//	}
//
// # Replacing
//
// Replacement templates use ECMAScript substitutions ($&, $1, $<name>, $$):
//
//	re := regext.MustCompile(`(?<key>\w+)=(\w+)`, "g")
//	out, _ := re.ReplaceAll("a=1 b=2", "$2=$<key>") // "1=a 2=b"
//
// # Concurrency
//
// A Pattern is not safe for concurrent use: the cursor is shared state.
// Use Clone to give each goroutine its own Pattern; clones share the
// immutable compiled expression.
package regext

import (
	"fmt"
	"time"

	"github.com/praetorian-inc/regext/pkg/engine"
	"github.com/praetorian-inc/regext/pkg/types"
)

// Re-export the match types so callers can use just "github.com/praetorian-inc/regext".
type (
	// Match is the record of one successful match attempt.
	Match = types.Match

	// Group is one capture group of a Match.
	Group = types.Group
)

// MatchSequence is the ordered, non-empty result of a repeated match.
// An empty result is never returned; FindAll reports ErrNoMatch instead.
type MatchSequence []*types.Match

// Texts returns the matched text of every match.
func (s MatchSequence) Texts() []string {
	texts := make([]string, len(s))
	for i, m := range s {
		texts[i] = m.Text
	}
	return texts
}

// Last returns the final match, or nil for an empty sequence.
func (s MatchSequence) Last() *types.Match {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// Pattern is a compiled pattern plus its match cursor.
type Pattern struct {
	source  string
	flags   Flags
	config  patternConfig
	matcher engine.Matcher

	// cursor is the only mutable state: where the next Exec starts in
	// repeat or sticky mode.
	cursor int
}

// patternConfig holds compile options.
type patternConfig struct {
	dialect      engine.Dialect
	matchTimeout time.Duration
}

// Option configures compilation of a Pattern.
type Option func(*patternConfig)

// WithDialect selects the engine syntax. The default is engine.ECMAScript.
func WithDialect(d engine.Dialect) Option {
	return func(c *patternConfig) {
		c.dialect = d
	}
}

// WithMatchTimeout bounds every single match attempt. The default is no
// timeout. A timed-out attempt surfaces as an error from the operation.
func WithMatchTimeout(d time.Duration) Option {
	return func(c *patternConfig) {
		c.matchTimeout = d
	}
}

// Compile compiles pattern with the given flag letters ("gimsuy" in any
// order). Malformed syntax or flags yield a *PatternSyntaxError.
//
// Example:
//
//	re, err := regext.Compile(`\d+`, "g")
func Compile(pattern, flags string, opts ...Option) (*Pattern, error) {
	var config patternConfig
	for _, opt := range opts {
		opt(&config)
	}
	return compile(pattern, flags, config)
}

// MustCompile is like Compile but panics if the pattern cannot be compiled.
func MustCompile(pattern, flags string, opts ...Option) *Pattern {
	p, err := Compile(pattern, flags, opts...)
	if err != nil {
		panic("regext: Compile(`" + pattern + "`, " + fmt.Sprintf("%q", flags) + "): " + err.Error())
	}
	return p
}

// FromPattern compiles the source of p with a new set of flags. An empty
// flags string keeps p's flags. p's options carry over unless overridden
// by opts. The new Pattern starts with its cursor at 0.
func FromPattern(p *Pattern, flags string, opts ...Option) (*Pattern, error) {
	if flags == "" {
		flags = p.flags.String()
	}
	config := p.config
	for _, opt := range opts {
		opt(&config)
	}
	return compile(p.source, flags, config)
}

func compile(pattern, flagText string, config patternConfig) (*Pattern, error) {
	flags, err := ParseFlags(flagText)
	if err != nil {
		return nil, &PatternSyntaxError{Pattern: pattern, Flags: flagText, Err: err}
	}

	m, err := engine.Compile(pattern, engine.Options{
		Dialect:      config.dialect,
		IgnoreCase:   flags.Has(IgnoreCase),
		Multiline:    flags.Has(Multiline),
		DotAll:       flags.Has(DotAll),
		Unicode:      flags.Has(Unicode),
		MatchTimeout: config.matchTimeout,
	})
	if err != nil {
		return nil, &PatternSyntaxError{Pattern: pattern, Flags: flagText, Err: err}
	}

	return &Pattern{
		source:  pattern,
		flags:   flags,
		config:  config,
		matcher: m,
	}, nil
}

// Clone returns a copy of p with its own cursor, starting at p's current
// cursor value. The compiled expression is shared.
func (p *Pattern) Clone() *Pattern {
	clone := *p
	return &clone
}

// Source returns the pattern text as passed to Compile.
func (p *Pattern) Source() string {
	return p.source
}

// Flags returns the mode flags.
func (p *Pattern) Flags() Flags {
	return p.flags
}

// Global reports whether repeat ("g") mode is on.
func (p *Pattern) Global() bool { return p.flags.Has(Global) }

// IgnoreCase reports whether the "i" flag is on.
func (p *Pattern) IgnoreCase() bool { return p.flags.Has(IgnoreCase) }

// Multiline reports whether the "m" flag is on.
func (p *Pattern) Multiline() bool { return p.flags.Has(Multiline) }

// DotAll reports whether the "s" flag is on.
func (p *Pattern) DotAll() bool { return p.flags.Has(DotAll) }

// Unicode reports whether the "u" flag is on.
func (p *Pattern) Unicode() bool { return p.flags.Has(Unicode) }

// Sticky reports whether the "y" flag is on.
func (p *Pattern) Sticky() bool { return p.flags.Has(Sticky) }

// Dialect returns the engine syntax the pattern was compiled with.
func (p *Pattern) Dialect() engine.Dialect {
	return p.config.dialect
}

// NumGroups returns the number of capture groups.
func (p *Pattern) NumGroups() int {
	return p.matcher.NumGroups()
}

// GroupNames returns the capture group names in positional order, with ""
// for unnamed groups.
func (p *Pattern) GroupNames() []string {
	return p.matcher.GroupNames()
}

// String renders the pattern in literal form, e.g. "/a(b)c/gi".
func (p *Pattern) String() string {
	source := p.source
	if source == "" {
		source = "(?:)"
	}
	return "/" + source + "/" + p.flags.String()
}

// Cursor returns the byte offset where the next Exec starts in repeat or
// sticky mode.
func (p *Pattern) Cursor() int {
	return p.cursor
}

// SetCursor moves the cursor. Negative values are clamped to 0; values
// past the end of a subject make the next Exec fail and reset to 0.
func (p *Pattern) SetCursor(offset int) {
	if offset < 0 {
		offset = 0
	}
	p.cursor = offset
}

// Exec performs one match attempt following the engine's cursor rules:
//   - in repeat or sticky mode the attempt starts at the cursor; success
//     moves the cursor to the end of the match and failure resets it to 0
//   - otherwise the attempt starts at 0 and the cursor is not touched
//
// In sticky mode only a match beginning exactly at the cursor counts.
// Exec returns (nil, nil) when there is no match.
func (p *Pattern) Exec(subject string) (*types.Match, error) {
	return p.exec(engine.NewSubject(subject))
}

// Test reports whether Exec finds a match, with the same effect on the
// cursor.
func (p *Pattern) Test(subject string) (bool, error) {
	m, err := p.Exec(subject)
	return m != nil, err
}

func (p *Pattern) exec(s *engine.Subject) (*types.Match, error) {
	if !p.flags.Has(Global) && !p.flags.Has(Sticky) {
		return p.matcher.MatchAt(s, 0, false)
	}

	if p.cursor > s.Len() {
		p.cursor = 0
		return nil, nil
	}
	m, err := p.matcher.MatchAt(s, s.Align(p.cursor), p.flags.Has(Sticky))
	if err != nil {
		return nil, err
	}
	if m == nil {
		p.cursor = 0
		return nil, nil
	}
	p.cursor = m.End
	return m, nil
}
