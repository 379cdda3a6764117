package diagfmt

import (
	"encoding/json"
	"io"

	"tsdoctor/internal/diag"
)

// LocationJSON is a file position with 1-based line and column.
type LocationJSON struct {
	File   string `json:"file"`
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
	Length uint32 `json:"length,omitempty"`
}

// NoteJSON is related information attached to a diagnostic.
type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

// DiagnosticJSON is one diagnostic in JSON output.
type DiagnosticJSON struct {
	Category string        `json:"category"`
	Code     string        `json:"code,omitempty"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
}

func makeLocation(pos *diag.Position, opts JSONOpts) *LocationJSON {
	if pos == nil {
		return nil
	}
	line, col := pos.Human()
	return &LocationJSON{
		File:   formatPath(pos.File, opts.PathMode, opts.BaseDir),
		Line:   line,
		Column: col,
		Length: pos.Length,
	}
}

// BuildDiagnosticsOutput builds the JSON document without encoding it.
// Errors counts every error in the bag, including ones cut by Max.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	n := len(items)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	out := make([]DiagnosticJSON, 0, n)
	for _, d := range items[:n] {
		dj := DiagnosticJSON{
			Category: d.Category.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: makeLocation(d.Position, opts),
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				dj.Notes[j] = NoteJSON{Message: note.Msg, Location: makeLocation(note.Position, opts)}
			}
		}
		out = append(out, dj)
	}
	return DiagnosticsOutput{
		Diagnostics: out,
		Count:       len(out),
		Errors:      bag.ErrorCount(),
	}
}

// JSON writes the diagnostics as one indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, opts))
}
