package main

import (
	"fmt"
	"time"

	"github.com/praetorian-inc/regext"
	"github.com/praetorian-inc/regext/pkg/engine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	patternFlags string
	dialectName  string
	matchTimeout time.Duration
)

// logger carries status and diagnostics to stderr; stdout is kept for results.
var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "regext",
	Short: "regext - repeat-mode regular expression toolkit",
	Long: `regext runs regular expressions the way JavaScript RegExp objects do,
with flags, a lastIndex cursor and safe global iteration.

It matches, extracts and replaces over files or stdin, and scans trees of
files against a library of YAML pattern rules.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: configureLogging,
}

// exitError ends the process with a status code and no message,
// the way grep reports "no match".
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var errNoMatch = &exitError{code: 1}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVarP(&patternFlags, "flags", "f", "g", "Pattern flags (any of gimsuy)")
	rootCmd.PersistentFlags().StringVar(&dialectName, "dialect", "ecmascript", "Pattern dialect: ecmascript, re2, perl")
	rootCmd.PersistentFlags().DurationVar(&matchTimeout, "timeout", 0, "Timeout for each match attempt (0 = none)")

	// Add subcommands
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(lastCmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func configureLogging(cmd *cobra.Command, args []string) error {
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	case quiet:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return nil
}

// patternOptions turns the --dialect and --timeout flags into compile options.
func patternOptions() ([]regext.Option, error) {
	dialect, err := engine.ParseDialect(dialectName)
	if err != nil {
		return nil, err
	}
	opts := []regext.Option{regext.WithDialect(dialect)}
	if matchTimeout > 0 {
		opts = append(opts, regext.WithMatchTimeout(matchTimeout))
	}
	return opts, nil
}

// compilePattern compiles a command-line pattern with the global flags.
func compilePattern(source string) (*regext.Pattern, error) {
	opts, err := patternOptions()
	if err != nil {
		return nil, err
	}
	p, err := regext.Compile(source, patternFlags, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debugf("compiled %s (dialect %s)", p, p.Dialect())
	return p, nil
}
