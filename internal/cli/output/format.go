package output

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Title title-cases s, treating underscores as spaces.
func Title(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// FormatHeader returns a markdown heading of the given level.
func FormatHeader(level int, title string) string {
	level = min(max(level, 1), 6)
	return strings.Repeat("#", level) + " " + title
}

// FormatKeyValue returns a markdown list item of a bold key and its value.
func FormatKeyValue(key string, value any) string {
	return fmt.Sprintf("- **%s**: %v", key, value)
}

// FormatCodeBlock returns code in a fenced block tagged with lang.
func FormatCodeBlock(lang, code string) string {
	return "```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```"
}
