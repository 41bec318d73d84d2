package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLogging(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		quiet   bool
		want    logrus.Level
	}{
		{"default", false, false, logrus.InfoLevel},
		{"verbose", true, false, logrus.DebugLevel},
		{"quiet", false, true, logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbose, quiet = tt.verbose, tt.quiet
			defer func() { verbose, quiet = false, false }()

			var buf bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetErr(&buf)

			require.NoError(t, configureLogging(cmd, nil))
			assert.Equal(t, tt.want, logger.GetLevel())

			logger.Error("boom")
			assert.Contains(t, buf.String(), "boom")
		})
	}
}

func TestConfigureLogging_Conflict(t *testing.T) {
	verbose, quiet = true, true
	defer func() { verbose, quiet = false, false }()

	err := configureLogging(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"match", "test", "extract", "groups", "count", "last", "replace", "rules", "scan", "report", "merge", "serve", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestCompilePattern_Timeout(t *testing.T) {
	resetSubjectFlags()
	matchTimeout = time.Second
	defer resetSubjectFlags()

	p, err := compilePattern(`a+`)
	require.NoError(t, err)
	assert.True(t, p.Global())
	assert.Equal(t, "ecmascript", p.Dialect().String())
}
