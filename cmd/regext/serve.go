package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/praetorian-inc/regext/pkg/engine"
	"github.com/praetorian-inc/regext/pkg/scanner"
	"github.com/praetorian-inc/regext/pkg/serve"
	"github.com/spf13/cobra"
)

var (
	serveRulesPath    string
	serveRulesInclude string
	serveRulesExclude string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming NDJSON server",
	Long: `Run regext as a long-lived streaming server that reads one JSON request
per line from stdin and writes one JSON response per line to stdout.

"match" requests compile and run an ad-hoc pattern; "scan" and "scan_batch"
requests run the rule library, which is loaded once at startup. The server
exits when stdin closes, on a "close" request, or on SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveRulesPath, "rules", "", "Path to custom rules file or directory")
	serveCmd.Flags().StringVar(&serveRulesInclude, "rules-include", "", "Include rules matching regex patterns (comma-separated)")
	serveCmd.Flags().StringVar(&serveRulesExclude, "rules-exclude", "", "Exclude rules matching regex patterns (comma-separated)")
}

func runServe(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(serveRulesPath, serveRulesInclude, serveRulesExclude)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

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
	cfg.Tolerant = true

	sc, err := scanner.New(cfg)
	if err != nil {
		return fmt.Errorf("creating scanner: %w", err)
	}

	opts, err := patternOptions()
	if err != nil {
		return err
	}

	// Set up signal handling
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Debugf("serving with %d rules", len(rules))

	srv := serve.NewServer(sc, cmd.InOrStdin(), cmd.OutOrStdout())
	srv.SetPatternOptions(opts...)
	return srv.Run(ctx)
}
