// Package scanner runs a rule library over content and reports findings.
package scanner

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/praetorian-inc/regext"
	"github.com/praetorian-inc/regext/pkg/engine"
	"github.com/praetorian-inc/regext/pkg/prefilter"
	"github.com/praetorian-inc/regext/pkg/rule"
	"github.com/praetorian-inc/regext/pkg/types"
)

var (
	// cachedBuiltinRules holds builtin rules loaded once per process
	cachedBuiltinRules []*types.Rule
	cachedRulesErr     error
	cacheOnce          sync.Once
)

// BuiltinRules returns the built-in rules, loaded once per process.
func BuiltinRules() ([]*types.Rule, error) {
	cacheOnce.Do(func() {
		loader := rule.NewLoader()
		cachedBuiltinRules, cachedRulesErr = loader.LoadBuiltinRules()
	})
	return cachedBuiltinRules, cachedRulesErr
}

// Config for scanner initialization.
type Config struct {
	// Rules to compile. Every rule runs in repeat mode whatever its flags.
	Rules []*types.Rule

	// Dialect is the pattern syntax for all rules.
	Dialect engine.Dialect

	// MatchTimeout bounds each match attempt (0 = no timeout).
	MatchTimeout time.Duration

	// Tolerant continues past rules that fail on a blob (e.g. a timeout)
	// instead of failing the whole scan. Failures are reported in RuleStats.
	Tolerant bool

	// MaxFindingsPerBlob limits findings returned per blob (0 = unlimited).
	MaxFindingsPerBlob int
}

// DefaultConfig returns the default scanner configuration.
func DefaultConfig() Config {
	return Config{
		Dialect:      engine.ECMAScript,
		MatchTimeout: 5 * time.Second,
	}
}

// compiledRule pairs a rule with its compiled pattern.
type compiledRule struct {
	rule    *types.Rule
	pattern *regext.Pattern
}

// Scanner matches content against a compiled rule set. It is safe for
// concurrent use: each scan works on clones of the compiled patterns.
type Scanner struct {
	config    Config
	rules     map[*types.Rule]*compiledRule
	order     []*types.Rule
	prefilter *prefilter.Prefilter
}

// New compiles every rule in cfg.Rules.
func New(cfg Config) (*Scanner, error) {
	s := &Scanner{
		config: cfg,
		rules:  make(map[*types.Rule]*compiledRule, len(cfg.Rules)),
	}

	opts := []regext.Option{regext.WithDialect(cfg.Dialect)}
	if cfg.MatchTimeout > 0 {
		opts = append(opts, regext.WithMatchTimeout(cfg.MatchTimeout))
	}

	for _, r := range cfg.Rules {
		p, err := regext.Compile(r.Pattern, withGlobal(r.Flags), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", r.ID, err)
		}
		s.rules[r] = &compiledRule{rule: r, pattern: p}
		s.order = append(s.order, r)
	}
	s.prefilter = prefilter.New(s.order)

	return s, nil
}

func withGlobal(flags string) string {
	if strings.ContainsRune(flags, 'g') {
		return flags
	}
	return "g" + flags
}

// Rules returns the rules in the order they were given.
func (s *Scanner) Rules() []*types.Rule {
	return s.order
}

// Scan matches content against every candidate rule and returns the
// findings in rule order, then document order, without duplicates.
func (s *Scanner) Scan(content []byte, blobID types.BlobID, path string) (*Result, error) {
	result := &Result{
		RuleStats: make(map[string]RuleStat),
	}
	subject := string(content)
	seen := make(map[string]bool)

	candidates := s.prefilter.Filter(content)
	result.Summary.SkippedRules = len(s.order) - len(candidates)

	for _, r := range candidates {
		cr := s.rules[r]
		start := time.Now()

		matches, err := cr.pattern.Clone().FindAll(subject)
		stat := RuleStat{RuleID: r.ID, Duration: time.Since(start)}

		switch {
		case errors.Is(err, regext.ErrNoMatch):
			stat.Status = RuleCompleted
		case err != nil:
			stat.Status = RuleError
			stat.Error = err
			result.RuleStats[r.ID] = stat
			result.Summary.ErrorRules++
			if !s.config.Tolerant {
				return nil, fmt.Errorf("rule %s on %s: %w", r.ID, path, err)
			}
			continue
		default:
			stat.Status = RuleCompleted
		}

		for _, m := range matches {
			f := newFinding(cr.rule, content, blobID, path, m)
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			stat.Matches++
			result.Findings = append(result.Findings, f)
		}

		result.RuleStats[r.ID] = stat
		result.Summary.CompletedRules++
	}

	result.Summary.TotalRules = len(candidates)
	if limit := s.config.MaxFindingsPerBlob; limit > 0 && len(result.Findings) > limit {
		result.Findings = result.Findings[:limit]
	}
	return result, nil
}

// newFinding builds the finding for one match.
func newFinding(r *types.Rule, content []byte, blobID types.BlobID, path string, m *types.Match) *types.Finding {
	span := m.Span()
	return &types.Finding{
		ID:       types.ComputeFindingID(r.StructuralID, blobID, span),
		BlobID:   blobID,
		RuleID:   r.ID,
		RuleName: r.Name,
		Path:     path,
		Location: types.ComputeLocation(content, span),
		Text:     m.Text,
		Groups:   m.Groups,
	}
}
