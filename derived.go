package regext

import (
	"errors"

	"github.com/praetorian-inc/regext/pkg/types"
)

// Extract returns the text of every match, or an empty slice if nothing
// matched.
func (p *Pattern) Extract(subject string) ([]string, error) {
	matches, err := p.FindAll(subject)
	if errors.Is(err, ErrNoMatch) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return matches.Texts(), nil
}

// ExtractGroups returns the capture groups of every match, excluding the
// whole match. The result has one entry per match; patterns without groups
// yield empty entries.
func (p *Pattern) ExtractGroups(subject string) ([][]types.Group, error) {
	matches, err := p.FindAll(subject)
	if errors.Is(err, ErrNoMatch) {
		return [][]types.Group{}, nil
	}
	if err != nil {
		return nil, err
	}

	groups := make([][]types.Group, len(matches))
	for i, m := range matches {
		groups[i] = append([]types.Group{}, m.Groups...)
	}
	return groups, nil
}

// Count returns the number of matches.
func (p *Pattern) Count(subject string) (int, error) {
	matches, err := p.FindAll(subject)
	if errors.Is(err, ErrNoMatch) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// FindLast returns the last match, or ErrNoMatch.
func (p *Pattern) FindLast(subject string) (*types.Match, error) {
	matches, err := p.FindAll(subject)
	if err != nil {
		return nil, err
	}
	return matches.Last(), nil
}
