package diag

import "fmt"

// Code is the engine's numeric diagnostic code.
type Code uint32

// ID returns the stable printable form, e.g. "TS2322".
func (c Code) ID() string {
	if c == 0 {
		return ""
	}
	return fmt.Sprintf("TS%d", uint32(c))
}

func (c Code) String() string {
	return c.ID()
}

// Position is a source location in engine-native coordinates.
type Position struct {
	File   string
	Line   uint32 // zero-based
	Column uint32 // zero-based, UTF-16 code units as reported by the engine
	Length uint32
}

// Human returns the 1-based line and column.
func (p Position) Human() (line, col uint32) {
	return p.Line + 1, p.Column + 1
}

func (p Position) String() string {
	line, col := p.Human()
	return fmt.Sprintf("%s:%d:%d", p.File, line, col)
}

type Note struct {
	Position *Position
	Msg      string
}

type Diagnostic struct {
	Category Category
	Code     Code
	Message  string
	Position *Position
	Notes    []Note
}

func New(cat Category, code Code, pos *Position, msg string) Diagnostic {
	return Diagnostic{
		Category: cat,
		Code:     code,
		Position: pos,
		Message:  msg,
	}
}

func (d Diagnostic) WithNote(pos *Position, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Position: pos, Msg: msg})
	return d
}

// IsError reports whether d fails the run.
func (d Diagnostic) IsError() bool {
	return d.Category == CategoryError
}
