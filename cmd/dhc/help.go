package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jiaofangliang/datahub/internal/ui"
	"github.com/spf13/cobra"
)

// Patterns used to colourize Cobra's default help output.
var (
	// Section headers: an unindented line ending with ":" (e.g. "Datasets:", "Flags:").
	reGroupHeader = regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`)

	// Command names: two-space indent, a word, then two or more spaces.
	reCommand = regexp.MustCompile(`(?m)^(  )(\S+)(  )`)

	// Flag type annotations such as "--limit int".
	reFlagType = regexp.MustCompile(`(--?\S+\s+)(string|int|duration|stringSlice)`)

	reDefault = regexp.MustCompile(`\(default "[^"]*"\)`)
)

// colorizedHelpFunc renders Cobra's help text with ANSI styling when stdout supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		text := helpText(cmd)
		if !noColor && ui.ShouldUseColor() {
			text = colorizeHelpOutput(text)
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
	}
}

// helpText is the long description (or short, when there is none) followed
// by the usage block.
func helpText(cmd *cobra.Command) string {
	var buf bytes.Buffer
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	if desc != "" {
		buf.WriteString(strings.TrimRight(desc, "\n"))
		buf.WriteString("\n\n")
	}
	buf.WriteString(cmd.UsageString())
	return buf.String()
}

func colorizeHelpOutput(s string) string {
	s = reGroupHeader.ReplaceAllStringFunc(s, func(match string) string {
		return ui.RenderAccent(strings.TrimSpace(match))
	})
	s = reCommand.ReplaceAllStringFunc(s, func(match string) string {
		parts := reCommand.FindStringSubmatch(match)
		return parts[1] + ui.RenderCommand(parts[2]) + parts[3]
	})
	s = reFlagType.ReplaceAllStringFunc(s, func(match string) string {
		parts := reFlagType.FindStringSubmatch(match)
		return parts[1] + ui.RenderMuted(parts[2])
	})
	return reDefault.ReplaceAllStringFunc(s, ui.RenderMuted)
}
