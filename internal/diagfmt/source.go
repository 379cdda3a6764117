package diagfmt

import (
	"bytes"
	"os"
	"unicode/utf8"
)

// sourceCache reads each referenced file at most once per report.
type sourceCache struct {
	files map[string][]string
}

func newSourceCache() *sourceCache {
	return &sourceCache{files: make(map[string][]string)}
}

// line returns the zero-based line of path, or false when the file cannot
// be read or is shorter.
func (c *sourceCache) line(path string, line uint32) (string, bool) {
	lines, ok := c.files[path]
	if !ok {
		data, err := os.ReadFile(path)
		if err == nil {
			lines = splitLines(data)
		}
		c.files[path] = lines
	}
	if int(line) >= len(lines) {
		return "", false
	}
	return lines[line], true
}

// splitLines breaks data at the line terminators the engine counts: CRLF,
// LF, a lone CR, U+2028 and U+2029.
func splitLines(data []byte) []string {
	text := string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	var out []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '\r':
			out = append(out, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				size++
			}
			start = i + size
		case '\n', '\u2028', '\u2029':
			out = append(out, text[start:i])
			start = i + size
		}
		i += size
	}
	return append(out, text[start:])
}

// utf16Offset converts a column in UTF-16 code units, as the engine reports
// it, to a byte offset into s. Offsets past the end clamp to len(s).
func utf16Offset(s string, units uint32) int {
	var n uint32
	for i, r := range s {
		if n >= units {
			return i
		}
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return len(s)
}

// utf16Len is the length of s in UTF-16 code units.
func utf16Len(s string) uint32 {
	var n uint32
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
