package mpd

import "strings"

var argEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Quote returns arg as a double-quoted protocol argument.
func Quote(arg string) string {
	return `"` + argEscaper.Replace(arg) + `"`
}

// FormatCommand renders one request line, including the trailing newline.
func FormatCommand(name string, args ...string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(Quote(arg))
	}
	b.WriteByte('\n')
	return b.String()
}
