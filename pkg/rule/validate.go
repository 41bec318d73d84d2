package rule

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/regext"
	"github.com/praetorian-inc/regext/pkg/types"
)

// ValidateRule checks rule consistency and required fields, compiles the
// pattern, and runs its examples through it: every example must match and
// no negative example may.
func ValidateRule(r *types.Rule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}

	// Check required fields
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern is required")
	}

	p, err := regext.Compile(r.Pattern, r.Flags)
	if err != nil {
		return fmt.Errorf("invalid pattern for rule %s: %w", r.ID, err)
	}

	// Validate StructuralID matches computed value
	expectedID := r.ComputeStructuralID()
	if r.StructuralID != "" && r.StructuralID != expectedID {
		return fmt.Errorf("rule %s has inconsistent StructuralID: got %s, expected %s",
			r.ID, r.StructuralID, expectedID)
	}

	for _, example := range r.Examples {
		ok, err := p.SafeTest(example)
		if err != nil {
			return fmt.Errorf("rule %s: example %q: %w", r.ID, example, err)
		}
		if !ok {
			return fmt.Errorf("rule %s does not match example %q", r.ID, example)
		}
		if !containsKeyword(r, example) {
			return fmt.Errorf("rule %s: example %q contains none of its keywords", r.ID, example)
		}
	}

	for _, example := range r.NegativeExamples {
		ok, err := p.SafeTest(example)
		if err != nil {
			return fmt.Errorf("rule %s: negative example %q: %w", r.ID, example, err)
		}
		if ok {
			return fmt.Errorf("rule %s matches negative example %q", r.ID, example)
		}
	}

	return nil
}

// ValidateRules validates every rule and rejects duplicate IDs.
func ValidateRules(rules []*types.Rule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := ValidateRule(r); err != nil {
			return err
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule ID: %s", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// containsKeyword reports whether text holds one of the rule's keywords,
// which the prefilter requires before the rule runs. Rules without
// keywords always run.
func containsKeyword(r *types.Rule, text string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	fold := strings.ContainsRune(r.Flags, 'i')
	for _, kw := range r.Keywords {
		if fold && strings.Contains(strings.ToLower(text), strings.ToLower(kw)) {
			return true
		}
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
