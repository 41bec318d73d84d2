package regext

import (
	"errors"
	"strings"

	"github.com/praetorian-inc/regext/pkg/engine"
	"github.com/praetorian-inc/regext/pkg/types"
)

// ReplaceAll replaces matches of p in subject with the expansion of
// template. In repeat ("g") mode every match is replaced; otherwise only
// the first. An empty pattern inserts one expansion. A sticky pattern
// without repeat mode tries a single match at the cursor, the way the
// engine's exec would, and still leaves the cursor where it was.
//
// template follows ECMAScript substitution rules:
//
//	$$       a literal "$"
//	$&       the whole match
//	$`       the text before the match
//	$'       the text after the match
//	$n, $nn  capture group n (1-99)
//	$<name>  the named capture group
//
// References to groups that do not exist are copied literally. Groups that
// did not participate expand to "".
func (p *Pattern) ReplaceAll(subject, template string) (string, error) {
	return p.ReplaceAllFunc(subject, func(m *types.Match) string {
		return p.expand(m, template)
	})
}

// ReplaceAllFunc is like ReplaceAll but the replacement for each match is
// computed by repl. The text returned by repl is inserted as is.
func (p *Pattern) ReplaceAllFunc(subject string, repl func(*types.Match) string) (string, error) {
	s := engine.NewSubject(subject)

	if p.source == "" || !p.flags.Has(Global) {
		return p.replaceFirst(s, repl)
	}

	matches, err := p.findAll(s)
	if errors.Is(err, ErrNoMatch) {
		return subject, nil
	}
	if err != nil {
		return "", err
	}
	return splice(subject, matches, repl), nil
}

// ReplaceFirst replaces only the first match, regardless of repeat mode.
// It makes a single attempt from offset 0, or from the cursor for a
// sticky pattern without repeat mode, and leaves the cursor alone.
func (p *Pattern) ReplaceFirst(subject, template string) (string, error) {
	return p.ReplaceFirstFunc(subject, func(m *types.Match) string {
		return p.expand(m, template)
	})
}

// ReplaceFirstFunc is like ReplaceFirst with a replacement function.
func (p *Pattern) ReplaceFirstFunc(subject string, repl func(*types.Match) string) (string, error) {
	return p.replaceFirst(engine.NewSubject(subject), repl)
}

func (p *Pattern) replaceFirst(s *engine.Subject, repl func(*types.Match) string) (string, error) {
	m, err := p.replaceTarget(s)
	if err != nil {
		return "", err
	}
	if m == nil {
		return s.String(), nil
	}
	return splice(s.String(), MatchSequence{m}, repl), nil
}

// replaceTarget finds the match a single replacement applies to.
func (p *Pattern) replaceTarget(s *engine.Subject) (*types.Match, error) {
	if !p.flags.Has(Sticky) || p.flags.Has(Global) {
		return p.firstMatch(s)
	}
	var m *types.Match
	err := p.withCursor(func() error {
		var err error
		m, err = p.exec(s)
		return err
	})
	return m, err
}

// splice rebuilds subject with each match replaced. matches must be in
// document order and non-overlapping.
func splice(subject string, matches MatchSequence, repl func(*types.Match) string) string {
	var b strings.Builder
	b.Grow(len(subject))
	last := 0
	for _, m := range matches {
		b.WriteString(subject[last:m.Index])
		b.WriteString(repl(m))
		last = m.End
	}
	b.WriteString(subject[last:])
	return b.String()
}

// expand applies template to m.
func (p *Pattern) expand(m *types.Match, template string) string {
	if strings.IndexByte(template, '$') < 0 {
		return template
	}

	hasNames := false
	for _, name := range p.matcher.GroupNames() {
		if name != "" {
			hasNames = true
			break
		}
	}

	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 == len(template) {
			b.WriteByte(c)
			continue
		}

		next := template[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '&':
			b.WriteString(m.Text)
			i++
		case next == '`':
			b.WriteString(m.Before())
			i++
		case next == '\'':
			b.WriteString(m.After())
			i++
		case isDigit(next):
			n, width := groupReference(template[i+1:], len(m.Groups))
			if width == 0 {
				b.WriteByte('$')
				continue
			}
			text, _ := m.Group(n)
			b.WriteString(text)
			i += width
		case next == '<' && hasNames:
			end := strings.IndexByte(template[i+2:], '>')
			if end < 0 {
				b.WriteByte('$')
				continue
			}
			text, _ := m.GroupByName(template[i+2 : i+2+end])
			b.WriteString(text)
			i += end + 2
		default:
			b.WriteByte('$')
		}
	}
	return b.String()
}

// groupReference parses the digits following a "$". A two-digit reference
// wins when it names an existing group, then a one-digit one. It returns
// the group number and the number of digits consumed, or width 0 if
// neither form names a group.
func groupReference(s string, numGroups int) (n, width int) {
	if len(s) >= 2 && isDigit(s[1]) {
		if nn := int(s[0]-'0')*10 + int(s[1]-'0'); nn >= 1 && nn <= numGroups {
			return nn, 2
		}
	}
	if d := int(s[0] - '0'); d >= 1 && d <= numGroups {
		return d, 1
	}
	return 0, 0
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
