// Package sarif renders findings as a SARIF 2.1.0 log.
package sarif

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/regext/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "regext"

	// fingerprintKey names the partial fingerprint carrying the finding ID.
	fingerprintKey = "regextFindingId/v1"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`

	ruleIndex map[string]int
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule represents a pattern rule
type Rule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription Text            `json:"shortDescription"`
	Properties       *RuleProperties `json:"properties,omitempty"`
}

// RuleProperties carries the rule's pattern and categories.
type RuleProperties struct {
	Pattern string   `json:"pattern"`
	Tags    []string `json:"tags,omitempty"`
}

// Text is a SARIF message string.
type Text struct {
	Text string `json:"text"`
}

// Result represents a single finding
type Result struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             Text              `json:"message"`
	Locations           []Location        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region specifies the line/column range and byte span
type Region struct {
	StartLine   int   `json:"startLine"`
	StartColumn int   `json:"startColumn"`
	EndLine     int   `json:"endLine"`
	EndColumn   int   `json:"endColumn"`
	ByteOffset  int   `json:"byteOffset"`
	ByteLength  int   `json:"byteLength"`
	Snippet     *Text `json:"snippet,omitempty"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport(toolVersion string) *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: toolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
		ruleIndex: make(map[string]int),
	}
}

// AddRule adds a rule to the report. Rules already present are ignored.
func (r *Report) AddRule(rule *types.Rule) {
	if _, ok := r.ruleIndex[rule.ID]; ok {
		return
	}

	description := rule.Description
	if description == "" {
		description = rule.Name
	}

	driver := &r.Runs[0].Tool.Driver
	r.ruleIndex[rule.ID] = len(driver.Rules)
	driver.Rules = append(driver.Rules, Rule{
		ID:               rule.ID,
		Name:             rule.Name,
		ShortDescription: Text{Text: description},
		Properties: &RuleProperties{
			Pattern: "/" + rule.Pattern + "/" + rule.Flags,
			Tags:    rule.Categories,
		},
	})
}

// AddResult adds a finding to the report. A finding whose rule was never
// added registers a minimal rule from the finding itself.
func (r *Report) AddResult(f *types.Finding) {
	if _, ok := r.ruleIndex[f.RuleID]; !ok {
		r.AddRule(&types.Rule{ID: f.RuleID, Name: f.RuleName})
	}

	loc := f.Location
	region := Region{
		StartLine:   loc.Source.Start.Line,
		StartColumn: loc.Source.Start.Column,
		EndLine:     loc.Source.End.Line,
		EndColumn:   loc.Source.End.Column,
		ByteOffset:  loc.Offset.Start,
		ByteLength:  loc.Offset.Len(),
	}
	if f.Text != "" {
		region.Snippet = &Text{Text: f.Text}
	}

	result := Result{
		RuleID:    f.RuleID,
		RuleIndex: r.ruleIndex[f.RuleID],
		Level:     "note",
		Message:   Text{Text: f.RuleName},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{
						URI: formatFileURI(f.Path),
					},
					Region: region,
				},
			},
		},
	}
	if f.ID != "" {
		result.PartialFingerprints = map[string]string{fingerprintKey: f.ID}
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		// Normalize path separators for URI format
		path = filepath.ToSlash(path)
		// Ensure path starts with /
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	// Relative paths stay as-is
	return filepath.ToSlash(path)
}
