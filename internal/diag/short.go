package diag

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FormatShort renders diagnostics one per line as
//
//	<category> <code> <path>:<line>:<col> <message>
//
// in the given order. Paths are made relative to baseDir when possible and
// multi-line messages are folded onto one line. Used for compact CLI output
// and for comparing runs in tests.
func FormatShort(diags []Diagnostic, baseDir string, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeShort(&b, d.Category.String(), d.Code, d.Position, d.Message, baseDir)
		if includeNotes {
			for _, n := range d.Notes {
				b.WriteByte('\n')
				writeShort(&b, "note", d.Code, n.Position, n.Msg, baseDir)
			}
		}
	}
	return b.String()
}

func writeShort(b *strings.Builder, label string, code Code, pos *Position, msg, baseDir string) {
	b.WriteString(label)
	if id := code.ID(); id != "" {
		b.WriteByte(' ')
		b.WriteString(id)
	}
	if pos != nil {
		line, col := pos.Human()
		fmt.Fprintf(b, " %s:%d:%d", RelPath(pos.File, baseDir), line, col)
	}
	b.WriteByte(' ')
	b.WriteString(sanitizeMessage(msg))
}

// RelPath returns path relative to baseDir with forward slashes, or path
// unchanged when it cannot be made relative.
func RelPath(path, baseDir string) string {
	if baseDir == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
