// Package prefilter narrows a rule library to the rules worth running on a
// piece of content, using an Aho-Corasick automaton over rule keywords.
package prefilter

import (
	"bytes"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/regext/pkg/types"
)

// Prefilter uses Aho-Corasick for efficient keyword matching.
// Keywords of case-insensitive rules ("i" flag) are matched against
// lowercased content in a separate automaton.
type Prefilter struct {
	rules          []*types.Rule
	exact          *keywordSet
	folded         *keywordSet
	noKeywordRules []int // indexes of rules without keywords (always checked)
}

// keywordSet is one automaton plus the rules behind each keyword.
// ahocorasick.Matcher keeps per-call state, so Match runs under mu.
type keywordSet struct {
	mu       sync.Mutex
	matcher  *ahocorasick.Matcher
	keywords []string         // keyword at each automaton index
	rules    map[string][]int // keyword -> indexes of rules needing it
}

func newKeywordSet() *keywordSet {
	return &keywordSet{rules: make(map[string][]int)}
}

func (ks *keywordSet) add(keyword string, rule int) {
	if _, ok := ks.rules[keyword]; !ok {
		ks.keywords = append(ks.keywords, keyword)
	}
	ks.rules[keyword] = append(ks.rules[keyword], rule)
}

func (ks *keywordSet) build() {
	if len(ks.keywords) > 0 {
		ks.matcher = ahocorasick.NewStringMatcher(ks.keywords)
	}
}

// mark sets hit[i] for every rule i with a keyword in content.
func (ks *keywordSet) mark(content []byte, hit []bool) {
	if ks.matcher == nil {
		return
	}
	ks.mu.Lock()
	hits := ks.matcher.Match(content)
	ks.mu.Unlock()

	for _, idx := range hits {
		for _, rule := range ks.rules[ks.keywords[idx]] {
			hit[rule] = true
		}
	}
}

// New creates a prefilter from rules.
func New(rules []*types.Rule) *Prefilter {
	pf := &Prefilter{
		rules:  rules,
		exact:  newKeywordSet(),
		folded: newKeywordSet(),
	}

	for i, rule := range rules {
		if len(rule.Keywords) == 0 {
			pf.noKeywordRules = append(pf.noKeywordRules, i)
			continue
		}
		fold := strings.ContainsRune(rule.Flags, 'i')
		for _, keyword := range rule.Keywords {
			if fold {
				pf.folded.add(strings.ToLower(keyword), i)
			} else {
				pf.exact.add(keyword, i)
			}
		}
	}

	pf.exact.build()
	pf.folded.build()
	return pf
}

// Filter returns rules that might match content (keywords found OR no
// keywords defined), in the order they were given to New. It is safe for
// concurrent use.
func (pf *Prefilter) Filter(content []byte) []*types.Rule {
	hit := make([]bool, len(pf.rules))
	for _, i := range pf.noKeywordRules {
		hit[i] = true
	}

	pf.exact.mark(content, hit)
	if pf.folded.matcher != nil {
		pf.folded.mark(bytes.ToLower(content), hit)
	}

	result := make([]*types.Rule, 0, len(pf.rules))
	for i, rule := range pf.rules {
		if hit[i] {
			result = append(result, rule)
		}
	}
	return result
}
