package lockfile

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// YarnEntry is one top-level block of a yarn.lock. A block may be shared by
// several dependency specs ("typescript@^5.0.0", "typescript@~5.0.1").
type YarnEntry struct {
	Specs  []string
	Fields map[string]any
	Line   int
}

// Field returns the raw value of a top-level field of the entry.
func (e YarnEntry) Field(name string) (any, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// YarnFile is a parsed yarn.lock with entries in file order.
type YarnFile struct {
	Berry   bool
	Entries []YarnEntry
}

// Find returns the first entry with a spec starting with prefix.
func (f *YarnFile) Find(prefix string) (YarnEntry, string, bool) {
	if f == nil {
		return YarnEntry{}, "", false
	}
	for _, e := range f.Entries {
		for _, spec := range e.Specs {
			if strings.HasPrefix(spec, prefix) {
				return e, spec, true
			}
		}
	}
	return YarnEntry{}, "", false
}

// SyntaxError reports the first malformed line of a lockfile.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// ParseYarn parses yarn.lock content. Lockfiles written by yarn 2+ are YAML
// and are detected by their __metadata block; everything else is parsed as
// the classic v1 format.
func ParseYarn(content string) (*YarnFile, error) {
	if isBerry(content) {
		return parseBerry(content)
	}
	return parseClassic(content)
}

func isBerry(content string) bool {
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "__metadata:") {
			return true
		}
	}
	return false
}

type classicFrame struct {
	indent int
	fields map[string]any
}

// parseClassic handles the indentation-based v1 syntax:
//
//	"typescript@^5.0.0", typescript@~5.0.0:
//	  version "5.0.4"
//	  dependencies:
//	    foo "^1.0.0"
func parseClassic(content string) (*YarnFile, error) {
	out := &YarnFile{}
	var stack []classicFrame
	current := -1

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := strings.TrimRight(sc.Text(), " \t\r")
		trimmed := strings.TrimLeft(raw, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "<<<<<<<") || strings.HasPrefix(trimmed, "=======") || strings.HasPrefix(trimmed, ">>>>>>>") {
			return nil, &SyntaxError{Line: lineNo, Msg: "unresolved merge conflict"}
		}
		if strings.HasPrefix(raw, "\t") {
			return nil, &SyntaxError{Line: lineNo, Msg: "tabs are not allowed for indentation"}
		}
		indent := len(raw) - len(trimmed)
		if indent%2 != 0 {
			return nil, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("invalid indentation of %d spaces", indent)}
		}

		if indent == 0 {
			if !strings.HasSuffix(trimmed, ":") {
				return nil, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("expected entry header, got %q", trimmed)}
			}
			specs, err := splitSpecs(strings.TrimSuffix(trimmed, ":"))
			if err != nil {
				return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
			}
			out.Entries = append(out.Entries, YarnEntry{Specs: specs, Fields: map[string]any{}, Line: lineNo})
			current = len(out.Entries) - 1
			stack = []classicFrame{{indent: 0, fields: out.Entries[current].Fields}}
			continue
		}
		if current < 0 {
			return nil, &SyntaxError{Line: lineNo, Msg: "field outside of an entry"}
		}

		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 || indent != stack[len(stack)-1].indent+2 {
			return nil, &SyntaxError{Line: lineNo, Msg: "unexpected indentation"}
		}
		parent := stack[len(stack)-1].fields

		if strings.HasSuffix(trimmed, ":") {
			key, err := unquote(strings.TrimSuffix(trimmed, ":"))
			if err != nil {
				return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
			}
			child := map[string]any{}
			parent[key] = child
			stack = append(stack, classicFrame{indent: indent, fields: child})
			continue
		}

		key, value, err := splitField(trimmed)
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
		}
		parent[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func splitSpecs(header string) ([]string, error) {
	parts := strings.Split(header, ",")
	specs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		s, err := unquote(p)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("empty entry header")
	}
	return specs, nil
}

// splitField splits `key value` where either side may be quoted.
func splitField(line string) (string, any, error) {
	var key, rest string
	if strings.HasPrefix(line, `"`) {
		end := closingQuote(line)
		if end < 0 {
			return "", nil, fmt.Errorf("unterminated string")
		}
		k, err := strconv.Unquote(line[:end+1])
		if err != nil {
			return "", nil, err
		}
		key, rest = k, line[end+1:]
	} else {
		idx := strings.IndexByte(line, ' ')
		if idx < 0 {
			return "", nil, fmt.Errorf("missing value for %q", line)
		}
		key, rest = line[:idx], line[idx:]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", nil, fmt.Errorf("missing value for %q", key)
	}
	value, err := scalar(rest)
	if err != nil {
		return "", nil, err
	}
	return key, value, nil
}

// scalar mirrors yarn's tokenizer: quoted strings stay strings, true/false
// become booleans and bare numbers become numbers.
func scalar(tok string) (any, error) {
	if strings.HasPrefix(tok, `"`) {
		return unquote(tok)
	}
	switch tok {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if n, err := strconv.ParseFloat(tok, 64); err == nil {
		return n, nil
	}
	return tok, nil
}

func unquote(s string) (string, error) {
	if !strings.HasPrefix(s, `"`) {
		return s, nil
	}
	if closingQuote(s) != len(s)-1 {
		return "", fmt.Errorf("unterminated string %s", s)
	}
	return strconv.Unquote(s)
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
