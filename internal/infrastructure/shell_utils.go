package infrastructure

import "strings"

// shellSpecialChars are characters that change meaning when pasted into a shell
const shellSpecialChars = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// QuoteArg quotes a single argument so the rendered command line can be
// pasted into a shell. exec.Command never needs this; it only feeds the tool log.
func QuoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecialChars) {
		return s
	}
	// Close the quote, emit a double-quoted ', reopen.
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// FormatCommandLine renders a binary and its arguments as one shell-safe line
func FormatCommandLine(binary string, args ...string) string {
	var b strings.Builder
	b.WriteString(QuoteArg(binary))
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(QuoteArg(arg))
	}
	return b.String()
}
