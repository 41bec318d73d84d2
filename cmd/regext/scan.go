package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/praetorian-inc/regext/pkg/datastore"
	"github.com/praetorian-inc/regext/pkg/engine"
	"github.com/praetorian-inc/regext/pkg/enum"
	"github.com/praetorian-inc/regext/pkg/rule"
	"github.com/praetorian-inc/regext/pkg/scanner"
	"github.com/praetorian-inc/regext/pkg/store"
	"github.com/praetorian-inc/regext/pkg/types"
	"github.com/spf13/cobra"
)

var (
	scanRulesPath     string
	scanRulesInclude  string
	scanRulesExclude  string
	scanIncludePaths  []string
	scanExcludePaths  []string
	scanDatastore     string
	scanOutputFormat  string
	scanColor         string
	scanMaxFileSize   int64
	scanIncludeHidden bool
	scanIncremental   bool
	scanTolerant      bool
	scanMaxFindings   int
	scanWorkers       int
	scanBlobsPath     string
)

var scanCmd = &cobra.Command{
	Use:   "scan PATH...",
	Short: "Scan files against pattern rules",
	Long: `Scan files and directories against the rule library and store the findings.

A summary goes to stderr; the stored findings are printed to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanRulesPath, "rules", "", "Path to custom rules file or directory")
	scanCmd.Flags().StringVar(&scanRulesInclude, "rules-include", "", "Include rules whose ID matches a pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanRulesExclude, "rules-exclude", "", "Exclude rules whose ID matches a pattern (comma-separated)")
	scanCmd.Flags().StringArrayVar(&scanIncludePaths, "include", nil, "Only scan paths matching this pattern (repeatable)")
	scanCmd.Flags().StringArrayVar(&scanExcludePaths, "exclude", nil, "Skip paths matching this pattern (repeatable)")
	scanCmd.Flags().StringVar(&scanDatastore, "datastore", "regext.db", "Datastore path (:memory: for no persistence)")
	scanCmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: human, json, sarif")
	scanCmd.Flags().StringVar(&scanColor, "color", "auto", "Color output: auto, always, never")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().BoolVar(&scanIncremental, "incremental", false, "Skip already-scanned blobs")
	scanCmd.Flags().BoolVar(&scanTolerant, "tolerant", false, "Keep scanning when a rule fails on a file")
	scanCmd.Flags().IntVar(&scanMaxFindings, "max-findings", 0, "Maximum findings per file (0 = unlimited)")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Parallel file readers (0 = number of CPUs)")
	scanCmd.Flags().StringVar(&scanBlobsPath, "blobs", "", "Directory to keep the content of files with findings")
}

// scanStats counts blobs and findings across concurrent callbacks.
type scanStats struct {
	mu       sync.Mutex
	blobs    int
	skipped  int
	matches  int
	findings int
}

func runScan(cmd *cobra.Command, args []string) error {
	// Validate targets exist
	for _, target := range args {
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("target does not exist: %s", target)
		}
	}

	// Load rules
	rules, err := loadRules(scanRulesPath, scanRulesInclude, scanRulesExclude)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	logger.Debugf("loaded %d rules", len(rules))

	// Create scanner
	dialect, err := engine.ParseDialect(dialectName)
	if err != nil {
		return err
	}
	cfg := scanner.DefaultConfig()
	cfg.Rules = rules
	cfg.Dialect = dialect
	if matchTimeout > 0 {
		cfg.MatchTimeout = matchTimeout
	}
	cfg.Tolerant = scanTolerant
	cfg.MaxFindingsPerBlob = scanMaxFindings

	sc, err := scanner.New(cfg)
	if err != nil {
		return fmt.Errorf("creating scanner: %w", err)
	}

	// Create store
	s, err := store.New(store.Config{
		Path: scanDatastore,
	})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer s.Close()

	for _, r := range rules {
		if err := s.AddRule(r); err != nil {
			return fmt.Errorf("storing rule: %w", err)
		}
	}

	var blobs *datastore.BlobStore
	if scanBlobsPath != "" {
		blobs, err = datastore.Open(scanBlobsPath)
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stats := &scanStats{}
	err = createEnumerator(args).Enumerate(ctx, func(content []byte, blobID types.BlobID, path string) error {
		return scanBlob(sc, s, blobs, stats, content, blobID, path)
	})
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	// Status goes to stderr to keep stdout for results
	status := cmd.ErrOrStderr()
	if scanIncremental {
		fmt.Fprintf(status, "Scan complete: %d blobs, %d matches, %d new findings (%d blobs skipped)\n",
			stats.blobs, stats.matches, stats.findings, stats.skipped)
	} else {
		fmt.Fprintf(status, "Scan complete: %d blobs, %d matches, %d new findings\n",
			stats.blobs, stats.matches, stats.findings)
	}
	if scanDatastore != store.MemoryPath {
		fmt.Fprintf(status, "Results stored in: %s\n", scanDatastore)
	}

	findings, err := s.GetFindings()
	if err != nil {
		return fmt.Errorf("retrieving findings: %w", err)
	}
	return outputFindings(cmd, findingsOutput{
		format:   scanOutputFormat,
		color:    scanColor,
		findings: findings,
		rules:    rules,
		blobs:    blobs,
	})
}

// scanBlob scans one blob and records it and its findings.
func scanBlob(sc *scanner.Scanner, s store.Store, blobs *datastore.BlobStore, stats *scanStats, content []byte, blobID types.BlobID, path string) error {
	// Check for incremental scanning
	if scanIncremental {
		exists, err := s.BlobExists(blobID)
		if err != nil {
			return fmt.Errorf("checking blob: %w", err)
		}
		if exists {
			logger.WithField("path", path).Debug("already scanned")
			stats.mu.Lock()
			stats.skipped++
			stats.mu.Unlock()
			return nil
		}
	}

	result, err := sc.Scan(content, blobID, path)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}
	for id, stat := range result.RuleStats {
		if stat.Status == scanner.RuleError {
			logger.WithField("path", path).WithField("rule", id).Warn(stat.Error)
		}
	}

	// Store blob
	if err := s.AddBlob(blobID, int64(len(content))); err != nil {
		return fmt.Errorf("storing blob: %w", err)
	}

	if blobs != nil && len(result.Findings) > 0 {
		if _, err := blobs.Store(content); err != nil {
			return fmt.Errorf("storing blob content: %w", err)
		}
	}

	newFindings := 0
	for _, f := range result.Findings {
		exists, err := s.FindingExists(f.ID)
		if err != nil {
			return fmt.Errorf("checking finding: %w", err)
		}
		if exists {
			continue
		}
		if err := s.AddFinding(f); err != nil {
			return fmt.Errorf("storing finding: %w", err)
		}
		newFindings++
	}

	logger.WithField("path", path).Debugf("%d findings (%d rules skipped by prefilter)",
		len(result.Findings), result.Summary.SkippedRules)

	stats.mu.Lock()
	stats.blobs++
	stats.matches += len(result.Findings)
	stats.findings += newFindings
	stats.mu.Unlock()
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func loadRules(path, include, exclude string) ([]*types.Rule, error) {
	rules, err := loadRuleSet(path)
	if err != nil {
		return nil, err
	}

	// Apply filtering if patterns specified
	if include != "" || exclude != "" {
		config := rule.FilterConfig{
			Include: rule.ParsePatterns(include),
			Exclude: rule.ParsePatterns(exclude),
		}
		rules, err = rule.Filter(rules, config)
		if err != nil {
			return nil, fmt.Errorf("filtering rules: %w", err)
		}
	}

	return rules, nil
}

func createEnumerator(targets []string) enum.Enumerator {
	enumerators := make([]enum.Enumerator, 0, len(targets))
	for _, target := range targets {
		enumerators = append(enumerators, enum.NewFilesystemEnumerator(enum.Config{
			Root:           target,
			IncludeHidden:  scanIncludeHidden,
			MaxFileSize:    scanMaxFileSize,
			FollowSymlinks: false,
			IncludePaths:   scanIncludePaths,
			ExcludePaths:   scanExcludePaths,
			Workers:        scanWorkers,
		}))
	}

	if len(enumerators) == 1 {
		return enumerators[0]
	}
	return enum.NewCombinedEnumerator(enumerators...)
}
