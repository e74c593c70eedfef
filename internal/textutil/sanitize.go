package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. Inner whitespace is collapsed and the result is
// trimmed. Characters legal in labels such as "&", "$" and "%" pass through.
func SanitizeFileName(name string) string {
	name = CollapseSpaces(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}
