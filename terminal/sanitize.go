package terminal

import (
	"regexp"
	"strings"
	"unicode"
)

// ansiSequence matches CSI and OSC sequences and two-byte escapes.
var ansiSequence = regexp.MustCompile(`\x1b(\[[0-?]*[ -/]*[@-~]|\][^\x07\x1b]*(\x07|\x1b\\)?|[@-~])`)

// Sanitize strips escape sequences and control characters from server text so
// it cannot move the cursor, recolor or clear the terminal. Line breaks and
// tabs become spaces.
func Sanitize(s string) string {
	s = ansiSequence.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			return -1
		}
		return r
	}, s)
}
