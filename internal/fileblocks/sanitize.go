package fileblocks

import "strings"

const lineSpace = " \t\f\v"

// Sanitize normalizes a code body for writing. Line endings become "\n",
// trailing whitespace is removed from every line, leading blank lines are
// dropped, and any trailing run of '%' and whitespace is cut. Some models
// append a stray "%%%%" after the last line.
//
// Sanitize(Sanitize(s)) == Sanitize(s) for every s.
func Sanitize(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")

	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, lineSpace)
	}
	start := 0
	for start < len(lines) && lines[start] == "" {
		start++
	}
	out := strings.Join(lines[start:], "\n")
	return strings.TrimRight(out, "%\n"+lineSpace)
}
