package gst

import (
	"strings"
	"unicode"
)

// GSTINLength is the length of a GST identification number.
const GSTINLength = 15

// FormatGSTIN normalises a GST identification number. It strips spaces,
// upper-cases the result and reports false unless exactly 15 ASCII
// letters or digits remain.
func FormatGSTIN(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	formatted := strings.ToUpper(strings.ReplaceAll(raw, " ", ""))
	if len(formatted) != GSTINLength {
		return "", false
	}
	for _, r := range formatted {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return "", false
		}
	}
	return formatted, true
}
