package rule

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/regext"
	"github.com/praetorian-inc/regext/pkg/types"
)

// FilterConfig specifies include and exclude patterns for rule filtering.
type FilterConfig struct {
	Include []string // Patterns - only rules whose ID matches are included
	Exclude []string // Patterns - rules whose ID matches are excluded
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include and exclude patterns to rule IDs.
// Include is applied first, then exclude.
// Empty include means "include all".
// Returns error if any pattern is invalid.
func Filter(rules []*types.Rule, config FilterConfig) ([]*types.Rule, error) {
	if len(rules) == 0 {
		return rules, nil
	}

	include, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	result := make([]*types.Rule, 0, len(rules))
	for _, rule := range rules {
		if len(include) > 0 {
			ok, err := matchesAny(rule.ID, include)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		ok, err := matchesAny(rule.ID, exclude)
		if err != nil {
			return nil, err
		}
		if ok {
			continue
		}
		result = append(result, rule)
	}

	return result, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func compileAll(patterns []string) ([]*regext.Pattern, error) {
	compiled := make([]*regext.Pattern, 0, len(patterns))
	for _, pattern := range patterns {
		p, err := regext.Compile(pattern, "")
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, p)
	}
	return compiled, nil
}

func matchesAny(ruleID string, patterns []*regext.Pattern) (bool, error) {
	for _, p := range patterns {
		ok, err := p.SafeTest(ruleID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
