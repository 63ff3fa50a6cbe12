package web

import "strings"

// FormatUsage turns a section of README markdown into the plain text
// served at /api: everything from the line matching heading onward,
// with code fences dropped and "###" headings flattened to
// "Heading:" lines. Returns "" when the heading is not found.
func FormatUsage(markdown, heading string) string {
	lines := strings.Split(markdown, "\n")
	start := -1
	for i, line := range lines {
		if strings.TrimRight(line, "\r") == heading {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range lines[start:] {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "```") {
			continue
		}
		if strings.HasPrefix(line, "###") {
			line = strings.TrimLeft(line, "# ") + ":"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.ReplaceAll(b.String(), "\n\n\n", "\n")
}
