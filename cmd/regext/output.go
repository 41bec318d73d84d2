package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// styles holds the color formatters shared by match and report output.
type styles struct {
	findingHeading *color.Color
	id             *color.Color
	ruleName       *color.Color
	heading        *color.Color
	match          *color.Color
	metadata       *color.Color
}

// newStyles creates color formatters. Each formatter is forced on or off
// so the result does not depend on the global color.NoColor.
func newStyles(enabled bool) *styles {
	s := &styles{
		findingHeading: color.New(color.Bold, color.FgHiWhite),
		id:             color.New(color.FgHiGreen),
		ruleName:       color.New(color.Bold, color.FgHiBlue),
		heading:        color.New(color.Bold),
		match:          color.New(color.FgYellow),
		metadata:       color.New(color.FgHiBlue),
	}

	for _, c := range []*color.Color{s.findingHeading, s.id, s.ruleName, s.heading, s.match, s.metadata} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return s
}

// stylesFor resolves a --color mode against the output writer. "auto"
// enables color only on a terminal without NO_COLOR set.
func stylesFor(mode string, out io.Writer) (*styles, error) {
	switch mode {
	case "always":
		return newStyles(true), nil
	case "never":
		return newStyles(false), nil
	case "auto":
		f, ok := out.(*os.File)
		enabled := ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == ""
		return newStyles(enabled), nil
	default:
		return nil, fmt.Errorf("unknown color mode: %s", mode)
	}
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
