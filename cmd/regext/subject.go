package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/praetorian-inc/regext"
	"github.com/praetorian-inc/regext/pkg/types"
	"github.com/spf13/cobra"
)

var (
	subjectFormat string
	subjectColor  string
	replaceFirst  bool
)

var matchCmd = &cobra.Command{
	Use:   "match PATTERN [FILE]",
	Short: "Print every match of a pattern",
	Long: `Print every match of PATTERN in FILE (or stdin) with its line and column.
Exits with status 1 when nothing matches.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runMatch,
}

var testCmd = &cobra.Command{
	Use:   "test PATTERN [FILE]",
	Short: "Report whether a pattern matches",
	Long:  "Print true or false. Exits with status 1 when the pattern does not match.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTest,
}

var extractCmd = &cobra.Command{
	Use:   "extract PATTERN [FILE]",
	Short: "Print the text of every match, one per line",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runExtract,
}

var groupsCmd = &cobra.Command{
	Use:   "groups PATTERN [FILE]",
	Short: "Print the capture groups of every match",
	Long:  "Print the capture groups of every match, tab-separated, one match per line.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runGroups,
}

var countCmd = &cobra.Command{
	Use:   "count PATTERN [FILE]",
	Short: "Print the number of matches",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCount,
}

var lastCmd = &cobra.Command{
	Use:   "last PATTERN [FILE]",
	Short: "Print the last match",
	Long:  "Print the text of the last match. Exits with status 1 when nothing matches.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runLast,
}

var replaceCmd = &cobra.Command{
	Use:   "replace PATTERN REPLACEMENT [FILE]",
	Short: "Replace matches with a template",
	Long: `Replace matches of PATTERN in FILE (or stdin) and print the result.

REPLACEMENT understands $&, $1..$99, $<name>, $` + "`" + `, $' and $$.
Without the g flag, or with --first, only the first match is replaced.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runReplace,
}

func init() {
	for _, cmd := range []*cobra.Command{matchCmd, groupsCmd} {
		cmd.Flags().StringVar(&subjectFormat, "format", "text", "Output format: text, json")
	}
	matchCmd.Flags().StringVar(&subjectColor, "color", "auto", "Color output: auto, always, never")
	replaceCmd.Flags().BoolVar(&replaceFirst, "first", false, "Replace only the first match")
}

// readSubject reads args[i] as a file, or stdin when it is absent or "-".
func readSubject(cmd *cobra.Command, args []string, i int) (string, error) {
	var data []byte
	var err error
	if len(args) > i && args[i] != "-" {
		data, err = os.ReadFile(args[i])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return "", fmt.Errorf("reading subject: %w", err)
	}
	return string(data), nil
}

// patternAndSubject compiles args[0] and reads the subject after it.
func patternAndSubject(cmd *cobra.Command, args []string, subjectArg int) (*regext.Pattern, string, error) {
	p, err := compilePattern(args[0])
	if err != nil {
		return nil, "", err
	}
	subject, err := readSubject(cmd, args, subjectArg)
	if err != nil {
		return nil, "", err
	}
	return p, subject, nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	p, subject, err := patternAndSubject(cmd, args, 1)
	if err != nil {
		return err
	}

	matches, err := p.FindAll(subject)
	if errors.Is(err, regext.ErrNoMatch) {
		logger.Debug("no match")
		return errNoMatch
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch subjectFormat {
	case "json":
		return writeJSON(out, matches)
	case "text":
		s, err := stylesFor(subjectColor, out)
		if err != nil {
			return err
		}
		content := []byte(subject)
		for _, m := range matches {
			line, col := types.ComputeLineColumn(content, m.Index)
			fmt.Fprintf(out, "%s %s\n", s.metadata.Sprintf("%d:%d:", line, col), s.match.Sprint(m.Text))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", subjectFormat)
	}
}

func runTest(cmd *cobra.Command, args []string) error {
	p, subject, err := patternAndSubject(cmd, args, 1)
	if err != nil {
		return err
	}

	ok, err := p.SafeTest(subject)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ok)
	if !ok {
		return errNoMatch
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	p, subject, err := patternAndSubject(cmd, args, 1)
	if err != nil {
		return err
	}

	texts, err := p.Extract(subject)
	if err != nil {
		return err
	}
	for _, text := range texts {
		fmt.Fprintln(cmd.OutOrStdout(), text)
	}
	return nil
}

func runGroups(cmd *cobra.Command, args []string) error {
	p, subject, err := patternAndSubject(cmd, args, 1)
	if err != nil {
		return err
	}

	groups, err := p.ExtractGroups(subject)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch subjectFormat {
	case "json":
		return writeJSON(out, groups)
	case "text":
		for _, gs := range groups {
			texts := make([]string, len(gs))
			for i, g := range gs {
				texts[i] = g.Text
			}
			fmt.Fprintln(out, strings.Join(texts, "\t"))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", subjectFormat)
	}
}

func runCount(cmd *cobra.Command, args []string) error {
	p, subject, err := patternAndSubject(cmd, args, 1)
	if err != nil {
		return err
	}

	n, err := p.Count(subject)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}

func runLast(cmd *cobra.Command, args []string) error {
	p, subject, err := patternAndSubject(cmd, args, 1)
	if err != nil {
		return err
	}

	m, err := p.FindLast(subject)
	if errors.Is(err, regext.ErrNoMatch) {
		return errNoMatch
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), m.Text)
	return nil
}

func runReplace(cmd *cobra.Command, args []string) error {
	p, subject, err := patternAndSubject(cmd, args, 2)
	if err != nil {
		return err
	}

	replace := p.ReplaceAll
	if replaceFirst {
		replace = p.ReplaceFirst
	}
	result, err := replace(subject, args[1])
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), result)
	return err
}
