package main

import (
	"strings"
	"testing"

	"github.com/jiaofangliang/datahub/internal/ui"
)

func TestHelpText_IncludesLongDescription(t *testing.T) {
	text := helpText(schemaSetCmd)
	if !strings.HasPrefix(text, "Replace the schema definition of a dataset.") {
		t.Fatalf("help should start with the long description, got:\n%s", text)
	}
	if !strings.Contains(text, "Usage:") {
		t.Fatalf("help missing usage block:\n%s", text)
	}
}

func TestColorizeHelpOutput(t *testing.T) {
	in := "Datasets:\n  dataset     Create, list, show, and delete datasets\n\nFlags:\n      --limit int   maximum number of results (default \"50\")\n"

	ui.SetColor(true)
	t.Cleanup(ui.ForceNoColor)
	out := colorizeHelpOutput(in)
	for _, want := range []string{
		ui.RenderAccent("Datasets:"),
		"  " + ui.RenderCommand("dataset") + "  ",
		"--limit " + ui.RenderMuted("int"),
		ui.RenderMuted(`(default "50")`),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%q", want, out)
		}
	}

	ui.ForceNoColor()
	if got := colorizeHelpOutput(in); got != in {
		t.Errorf("expected unchanged text without colour, got %q", got)
	}
}
