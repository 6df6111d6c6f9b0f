package language

import "strings"

// DefaultFormat is assumed when a provider does not report a subtitle format.
const DefaultFormat = "SRT"

// NormalizeFormat maps an upstream-reported subtitle format to its canonical
// upper-case form. The upstream serializes an unset format field as the
// literal strings "False" or "True", so those placeholders and empty values
// fall back to DefaultFormat.
func NormalizeFormat(format string) string {
	f := strings.TrimSpace(format)
	if f == "" {
		return DefaultFormat
	}
	switch strings.ToLower(f) {
	case "false", "true":
		return DefaultFormat
	}
	return strings.ToUpper(f)
}
