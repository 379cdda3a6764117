package ci

import (
	"strings"
)

// Property is one key=value pair of a workflow command. Properties are kept
// in a slice so the rendered order is stable.
type Property struct {
	Key   string
	Value string
}

// Command renders a workflow command line such as
//
//	::error file=src/a.ts,line=3,col=5::Type 'string' is not assignable
//
// Empty property values are skipped. The result ends with a newline.
func Command(name string, props []Property, msg string) string {
	var sb strings.Builder
	sb.WriteString("::")
	sb.WriteString(name)
	first := true
	for _, p := range props {
		if p.Value == "" {
			continue
		}
		if first {
			sb.WriteByte(' ')
			first = false
		} else {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		sb.WriteString(EscapeProperty(p.Value))
	}
	sb.WriteString("::")
	sb.WriteString(EscapeData(msg))
	sb.WriteByte('\n')
	return sb.String()
}

// EscapeData escapes a command message.
func EscapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

// EscapeProperty escapes a command property value.
func EscapeProperty(s string) string {
	s = EscapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}

// Group opens a collapsible log group.
func Group(title string) string {
	return Command("group", nil, title)
}

// EndGroup closes the innermost log group.
func EndGroup() string {
	return "::endgroup::\n"
}
