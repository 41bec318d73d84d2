package main

import (
	"fmt"
	"path/filepath"

	"github.com/praetorian-inc/regext/pkg/store"
	"github.com/spf13/cobra"
)

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge <a.db> <b.db> [more.db...]",
	Short: "Merge finding datastores",
	Long: `Merge the datastores written by several "regext scan" runs into one.

Blobs, rules and findings are keyed by content, so a finding reported by
more than one scan is stored once. The merged datastore can be read with
"regext report".`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Merged datastore path")
}

func runMerge(cmd *cobra.Command, args []string) error {
	dest, err := filepath.Abs(mergeOutput)
	if err != nil {
		return err
	}
	for _, src := range args {
		if abs, err := filepath.Abs(src); err == nil && abs == dest {
			return fmt.Errorf("output %s is also a merge source", mergeOutput)
		}
	}

	stats, err := store.Merge(store.MergeConfig{
		SourcePaths: args,
		DestPath:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	logger.Debugf("merged %v into %s", args, mergeOutput)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Merged %d datastores into %s\n", stats.SourcesProcessed, mergeOutput)
	fmt.Fprintf(out, "  new blobs:    %d\n", stats.BlobsMerged)
	fmt.Fprintf(out, "  new rules:    %d\n", stats.RulesMerged)
	fmt.Fprintf(out, "  new findings: %d\n", stats.FindingsMerged)
	return nil
}
