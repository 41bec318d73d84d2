package types

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
)

// Rule is a named pattern in a pattern library.
type Rule struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Pattern          string   `json:"pattern"`
	Flags            string   `json:"flags,omitempty"` // e.g. "gi"
	StructuralID     string   `json:"structural_id"`   // SHA-1 of pattern and flags (computed)
	Description      string   `json:"description,omitempty"`
	Examples         []string `json:"examples,omitempty"`          // must match
	NegativeExamples []string `json:"negative_examples,omitempty"` // must not match
	Keywords         []string `json:"keywords,omitempty"`          // literals for prefiltering
	Categories       []string `json:"categories,omitempty"`
}

// namedGroupRe matches named group openers in either (?<name> or (?P<name>
// form. Lookbehinds (?<= and (?<! are left alone.
var namedGroupRe = regexp.MustCompile(`\(\?P?<[A-Za-z_$][\w$]*>`)

// ComputeStructuralID hashes the pattern with group names stripped, so
// renaming a group keeps the ID stable, followed by the flags.
func (r *Rule) ComputeStructuralID() string {
	normalized := namedGroupRe.ReplaceAllString(r.Pattern, "(")
	h := sha1.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(r.Flags))
	return hex.EncodeToString(h.Sum(nil))
}
