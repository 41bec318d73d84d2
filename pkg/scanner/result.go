package scanner

import (
	"time"

	"github.com/praetorian-inc/regext/pkg/types"
)

// RuleStatus represents the completion status of a rule
type RuleStatus int

const (
	RuleCompleted RuleStatus = iota // Rule completed successfully
	RuleError                       // Rule encountered an error (including timeouts)
)

func (s RuleStatus) String() string {
	switch s {
	case RuleCompleted:
		return "completed"
	case RuleError:
		return "error"
	default:
		return "unknown"
	}
}

// RuleStat contains statistics about a single rule's execution
type RuleStat struct {
	RuleID   string        // Rule identifier
	Status   RuleStatus    // Completion status
	Matches  int           // Number of findings produced
	Duration time.Duration // Time spent matching this rule
	Error    error         // Error if Status == RuleError
}

// ResultSummary provides aggregate statistics across all rules
type ResultSummary struct {
	TotalRules     int // Rules run after prefiltering
	CompletedRules int // Rules that completed successfully
	ErrorRules     int // Rules that encountered errors
	SkippedRules   int // Rules skipped by the keyword prefilter
}

// Result contains the findings for one blob and execution statistics
type Result struct {
	Findings  []*types.Finding    // All findings, deduplicated
	RuleStats map[string]RuleStat // Per-rule statistics
	Summary   ResultSummary       // Aggregate statistics
}
