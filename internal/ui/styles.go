// Package ui renders CLI output with optional ANSI colours.
package ui

import "fmt"

// ANSI256 colour codes.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOK     = 71  // green
	colorWarn   = 178 // amber
	colorAlert  = 167 // red
)

var noColor bool

func paint(code int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) colour.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) colour.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name.
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderClassification colours a security classification by its position in
// the registry's severity order: the least restrictive level is green, the
// most restrictive red, and everything between amber. Values not present in
// order are returned unstyled.
func RenderClassification(value string, order []string) string {
	rank := -1
	for i, v := range order {
		if v == value {
			rank = i
			break
		}
	}
	switch {
	case rank < 0:
		return value
	case rank == len(order)-1 && rank > 0:
		return paint(colorAlert, value)
	case rank == 0:
		return paint(colorOK, value)
	default:
		return paint(colorWarn, value)
	}
}

// ForceNoColor disables colour output globally.
func ForceNoColor() {
	noColor = true
}

// SetColor enables or disables colour output globally.
func SetColor(enabled bool) {
	noColor = !enabled
}
