package rule

import "embed"

// builtinRulesFS embeds the built-in pattern library.
//
//go:embed rules/*.yml
var builtinRulesFS embed.FS
