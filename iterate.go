package regext

import (
	"github.com/praetorian-inc/regext/pkg/engine"
	"github.com/praetorian-inc/regext/pkg/types"
)

// FindAll returns every match of p in subject, in document order.
//
// In repeat ("g") mode the search runs from offset 0 to the end of the
// subject. A zero-width match forces the next attempt one code point
// further on, so the loop always terminates and matches never overlap.
// Without "g" at most one attempt is made. An empty pattern makes exactly
// one attempt from the current cursor.
//
// FindAll returns ErrNoMatch when nothing matched. The cursor seen by the
// caller is unchanged on return, including on error.
func (p *Pattern) FindAll(subject string) (MatchSequence, error) {
	return p.findAll(engine.NewSubject(subject))
}

// FindAllBytes is like FindAll but takes a byte slice. A nil slice is an
// invalid argument; an empty non-nil slice is a valid empty subject.
func (p *Pattern) FindAllBytes(subject []byte) (MatchSequence, error) {
	if subject == nil {
		return nil, invalidSubject()
	}
	return p.FindAll(string(subject))
}

// SafeTest reports whether subject contains a match, starting from the
// current cursor in repeat or sticky mode, without moving the cursor.
func (p *Pattern) SafeTest(subject string) (bool, error) {
	var found bool
	err := p.withCursor(func() error {
		var err error
		found, err = p.Test(subject)
		return err
	})
	return found, err
}

// SafeTestBytes is like SafeTest but takes a byte slice. A nil slice is an
// invalid argument.
func (p *Pattern) SafeTestBytes(subject []byte) (bool, error) {
	if subject == nil {
		return false, invalidSubject()
	}
	return p.SafeTest(string(subject))
}

// withCursor runs fn and restores the cursor to its prior value on every
// exit path.
func (p *Pattern) withCursor(fn func() error) error {
	saved := p.cursor
	defer func() {
		p.cursor = saved
	}()
	return fn()
}

func (p *Pattern) findAll(s *engine.Subject) (MatchSequence, error) {
	var matches MatchSequence
	err := p.withCursor(func() error {
		var err error
		if p.source == "" {
			matches, err = p.execOnce(s)
			return err
		}
		matches, err = p.loop(s)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}
	return matches, nil
}

// execOnce makes a single attempt from the current cursor.
func (p *Pattern) execOnce(s *engine.Subject) (MatchSequence, error) {
	m, err := p.exec(s)
	if err != nil || m == nil {
		return nil, err
	}
	return MatchSequence{m}, nil
}

// loop drives repeated attempts from offset 0. The cursor is left wherever
// the last attempt put it; findAll restores it.
func (p *Pattern) loop(s *engine.Subject) (MatchSequence, error) {
	var matches MatchSequence
	p.cursor = 0

	for {
		m, err := p.exec(s)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return matches, nil
		}
		matches = append(matches, m)

		if !p.flags.Has(Global) {
			return matches, nil
		}

		if m.Empty() {
			p.cursor = s.Next(m.Index)
			if p.cursor > s.Len() {
				return matches, nil
			}
			continue
		}

		if p.cursor >= s.Len() {
			// A non-empty match reaching the end leaves room for exactly one
			// zero-width match at the end, e.g. /a*/g on "aa".
			if m.End == s.Len() {
				tail, err := p.exec(s)
				if err != nil {
					return nil, err
				}
				if tail != nil && tail.Empty() {
					matches = append(matches, tail)
				}
			}
			return matches, nil
		}
	}
}

// firstMatch makes one attempt at offset 0, ignoring repeat mode and the
// cursor, honouring sticky mode.
func (p *Pattern) firstMatch(s *engine.Subject) (*types.Match, error) {
	return p.matcher.MatchAt(s, 0, p.flags.Has(Sticky))
}
