package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/praetorian-inc/regext/pkg/rule"
	"github.com/praetorian-inc/regext/pkg/scanner"
	"github.com/praetorian-inc/regext/pkg/types"
	"github.com/spf13/cobra"
)

var (
	rulesPath    string
	outputFormat string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage pattern rules",
	Long:  "Commands for listing and checking pattern rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long:  "Display all available pattern rules with their IDs, names and flags",
	RunE:  runRulesList,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate rules against their examples",
	Long: `Compile every rule and run it against its examples and negative examples.
Exits with an error if any rule fails.`,
	RunE: runRulesCheck,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Path to custom rules file or directory")
	rulesListCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := loadRuleSet(rulesPath)
	if err != nil {
		return err
	}

	// Output based on format
	switch outputFormat {
	case "json":
		return writeJSON(cmd.OutOrStdout(), rules)
	case "table":
		return outputRulesTable(cmd, rules)
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	rules, err := loadRuleSet(rulesPath)
	if err != nil {
		return err
	}

	failed := 0
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		err := rule.ValidateRule(r)
		if err == nil && seen[r.ID] {
			err = fmt.Errorf("duplicate rule ID: %s", r.ID)
		}
		seen[r.ID] = true
		if err != nil {
			failed++
			logger.WithField("rule", r.ID).Error(err)
			continue
		}
		logger.WithField("rule", r.ID).Debug("ok")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d rules failed validation", failed, len(rules))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d rules OK\n", len(rules))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// loadRuleSet loads the builtin rules, or every rule in a YAML file or
// in the YAML files of a directory.
func loadRuleSet(path string) ([]*types.Rule, error) {
	if path == "" {
		rules, err := scanner.BuiltinRules()
		if err != nil {
			return nil, fmt.Errorf("loading builtin rules: %w", err)
		}
		return rules, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	loader := rule.NewLoader()
	if !info.IsDir() {
		return loader.LoadRulesFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("loading rules from %s: %w", path, err)
	}
	var rules []*types.Rule
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")) {
			continue
		}
		fileRules, err := loader.LoadRulesFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		rules = append(rules, fileRules...)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rule files in %s", path)
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func outputRulesTable(cmd *cobra.Command, rules []*types.Rule) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tFlags\tCategories\n")
	fmt.Fprintf(w, "--\t----\t-----\t----------\n")

	for _, r := range rules {
		categories := ""
		if len(r.Categories) > 0 {
			categories = r.Categories[0]
			if len(r.Categories) > 1 {
				categories += fmt.Sprintf(" (+%d)", len(r.Categories)-1)
			}
		}
		flags := r.Flags
		if flags == "" {
			flags = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, flags, categories)
	}

	return nil
}
