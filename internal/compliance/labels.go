package compliance

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// upperRun matches three or more consecutive uppercase ASCII letters.
var upperRun = regexp.MustCompile(`[A-Z]{3,}`)

// FormatClassificationLabel turns a camelCase classification value into a
// display label, e.g. "limitedDistribution" -> "Limited Distribution".
//
// A space is inserted before each uppercase letter unless it is the first
// character or already follows a space, so formatting a label twice returns it
// unchanged.
func FormatClassificationLabel(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 4)
	prev := rune(-1)
	for _, r := range value {
		if unicode.IsUpper(r) && prev != -1 && !unicode.IsSpace(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return capitalizeFirst(b.String())
}

// FormatIDLogicalTypeLabel turns an identifier logical type name into a
// display label: underscores become spaces and every run of three or more
// capitals is title-cased, so "COMPOSITE_URN" -> "Composite Urn" while
// "ID" stays "ID".
func FormatIDLogicalTypeLabel(name string) string {
	spaced := strings.ReplaceAll(name, "_", " ")
	return upperRun.ReplaceAllStringFunc(spaced, func(run string) string {
		// cases.Caser is stateful; use a fresh one per call.
		return cases.Title(language.Und).String(run)
	})
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
