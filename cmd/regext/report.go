package main

import (
	"fmt"
	"io"
	"os"

	"github.com/praetorian-inc/regext/pkg/datastore"
	"github.com/praetorian-inc/regext/pkg/sarif"
	"github.com/praetorian-inc/regext/pkg/store"
	"github.com/praetorian-inc/regext/pkg/types"
	"github.com/spf13/cobra"
)

var (
	reportDatastore string
	reportFormat    string
	reportColor     string
	reportRule      string
	reportBlobsPath string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from scan results",
	Long:  "Read findings from a datastore and print them",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "datastore", "regext.db", "Path to datastore file")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
	reportCmd.Flags().StringVar(&reportRule, "rule", "", "Only report findings of this rule ID")
	reportCmd.Flags().StringVar(&reportBlobsPath, "blobs", "", "Blob directory written by scan --blobs, for source context")
}

// findingsOutput is everything needed to print a set of findings.
type findingsOutput struct {
	format   string
	color    string
	findings []*types.Finding
	rules    []*types.Rule
	blobs    *datastore.BlobStore // optional, for source context
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportDatastore == store.MemoryPath {
		return fmt.Errorf("cannot report from in-memory store")
	}
	if _, err := os.Stat(reportDatastore); err != nil {
		return fmt.Errorf("datastore not found: %s", reportDatastore)
	}

	// Open store
	s, err := store.New(store.Config{
		Path: reportDatastore,
	})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	// Get findings
	var findings []*types.Finding
	if reportRule != "" {
		findings, err = s.GetFindingsByRule(reportRule)
	} else {
		findings, err = s.GetFindings()
	}
	if err != nil {
		return fmt.Errorf("retrieving findings: %w", err)
	}

	rules, err := s.GetRules()
	if err != nil {
		return fmt.Errorf("retrieving rules: %w", err)
	}

	var blobs *datastore.BlobStore
	if reportBlobsPath != "" {
		if _, err := os.Stat(reportBlobsPath); err != nil {
			return fmt.Errorf("blob directory not found: %s", reportBlobsPath)
		}
		blobs = &datastore.BlobStore{Root: reportBlobsPath}
	}

	return outputFindings(cmd, findingsOutput{
		format:   reportFormat,
		color:    reportColor,
		findings: findings,
		rules:    rules,
		blobs:    blobs,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func outputFindings(cmd *cobra.Command, o findingsOutput) error {
	out := cmd.OutOrStdout()
	switch o.format {
	case "json":
		return writeJSON(out, o.findings)
	case "sarif":
		return outputSARIF(out, o.findings, o.rules)
	case "human":
		s, err := stylesFor(o.color, out)
		if err != nil {
			return err
		}
		outputFindingsHuman(out, s, o.findings, o.blobs)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", o.format)
	}
}

// outputSARIF writes findings in SARIF 2.1.0 format
func outputSARIF(out io.Writer, findings []*types.Finding, rules []*types.Rule) error {
	report := sarif.NewReport(version)
	for _, r := range rules {
		report.AddRule(r)
	}
	for _, f := range findings {
		report.AddResult(f)
	}

	jsonBytes, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing SARIF: %w", err)
	}
	if _, err := out.Write(append(jsonBytes, '\n')); err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	return nil
}

func outputFindingsHuman(out io.Writer, s *styles, findings []*types.Finding, blobs *datastore.BlobStore) {
	if len(findings) == 0 {
		fmt.Fprintf(out, "No findings.\n")
		return
	}

	total := len(findings)
	for i, f := range findings {
		// Finding header - "Finding N/M" in findingHeading style, "(id xyz)" with ID in id style
		fmt.Fprintf(out, "%s (%s %s)\n",
			s.findingHeading.Sprintf("Finding %d/%d", i+1, total),
			s.heading.Sprint("id"),
			s.id.Sprint(f.ID))

		fmt.Fprintf(out, "%s %s (%s)\n", s.heading.Sprint("Rule:"), s.ruleName.Sprint(f.RuleName), f.RuleID)
		fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("File:"), s.metadata.Sprint(f.Path))
		fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Blob:"), s.metadata.Sprint(f.BlobID.Hex()))

		src := f.Location.Source
		fmt.Fprintf(out, "%s %d:%d-%d:%d\n",
			s.heading.Sprint("Lines:"),
			src.Start.Line, src.Start.Column, src.End.Line, src.End.Column)

		fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Match:"), s.match.Sprint(f.Text))

		// Capture groups - "Group N:" or "Group name:" in heading style, value in match style
		for j, g := range f.Groups {
			if !g.Matched {
				continue
			}
			label := fmt.Sprintf("Group %d:", j+1)
			if g.Name != "" {
				label = fmt.Sprintf("Group %s:", g.Name)
			}
			fmt.Fprintf(out, "    %s %s\n", s.heading.Sprint(label), s.match.Sprint(g.Text))
		}

		// Source line with the matching portion highlighted
		if blobs != nil {
			ex, err := blobs.Excerpt(f.BlobID, f.Location.Offset)
			if err != nil {
				logger.WithField("blob", f.BlobID.Hex()).Debugf("no context: %v", err)
			} else {
				fmt.Fprintf(out, "\n        %s%s%s\n", ex.Before, s.match.Sprint(ex.Matching), ex.After)
			}
		}

		fmt.Fprintf(out, "\n")
	}
}
