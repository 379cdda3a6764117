package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"tsdoctor/internal/diag"
)

type palette struct {
	err, warn, info, note, path, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.path, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) category(c diag.Category) *color.Color {
	switch c {
	case diag.CategoryError:
		return p.err
	case diag.CategoryWarning:
		return p.warn
	}
	return p.info
}

// Pretty writes diagnostics in bag order as
//
//	<path>:<line>:<col>: <category> <code>: <message>
//
// followed by the source line with a caret under the reported range, when
// the file can be read, and then the notes in the same form.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	pal := newPalette(opts.Color)
	src := newSourceCache()
	for _, d := range bag.Items() {
		var b strings.Builder
		label := pal.category(d.Category).Sprint(d.Category.String())
		if id := d.Code.ID(); id != "" {
			label += " " + pal.category(d.Category).Sprint(id)
		}
		writeHeader(&b, pal, d.Position, label, d.Message, opts)
		if d.Position != nil {
			writeSnippet(&b, pal, src, d.Position, opts)
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				b.WriteString("  ")
				writeHeader(&b, pal, n.Position, pal.note.Sprint("note"), n.Msg, opts)
			}
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(b *strings.Builder, pal palette, pos *diag.Position, label, msg string, opts PrettyOpts) {
	if pos != nil {
		line, col := pos.Human()
		b.WriteString(pal.path.Sprintf("%s:%d:%d", formatPath(pos.File, opts.PathMode, opts.BaseDir), line, col))
		b.WriteString(": ")
	}
	b.WriteString(label)
	b.WriteString(": ")
	lines := strings.Split(strings.ReplaceAll(msg, "\r\n", "\n"), "\n")
	b.WriteString(lines[0])
	b.WriteByte('\n')
	for _, l := range lines[1:] {
		b.WriteString("    ")
		b.WriteString(l)
		b.WriteByte('\n')
	}
}

func writeSnippet(b *strings.Builder, pal palette, src *sourceCache, pos *diag.Position, opts PrettyOpts) {
	text, ok := src.line(pos.File, pos.Line)
	if !ok {
		return
	}
	first := pos.Line
	if opts.Context > 0 {
		ctx := uint32(opts.Context)
		if first > ctx {
			first -= ctx
		} else {
			first = 0
		}
	}
	gutterWidth := len(fmt.Sprint(pos.Line + 1))
	for ln := first; ln <= pos.Line; ln++ {
		l := text
		if ln != pos.Line {
			l, _ = src.line(pos.File, ln)
		}
		fmt.Fprintf(b, "%s %s\n", pal.gutter.Sprintf("%*d |", gutterWidth, ln+1), clip(l, opts.Width))
	}

	start := utf16Offset(text, pos.Column)
	end := utf16Offset(text[start:], pos.Length) + start
	b.WriteString(pal.gutter.Sprintf("%*s |", gutterWidth, ""))
	b.WriteByte(' ')
	b.WriteString(indent(text[:start]))
	width := runewidth.StringWidth(text[start:end])
	if width < 1 {
		width = 1
	}
	b.WriteString(pal.caret.Sprint("^" + strings.Repeat("~", width-1)))
	b.WriteByte('\n')
}

// indent returns whitespace that lines up with prefix on a terminal. Tabs
// are kept as tabs so they expand the same way as in the source line.
func indent(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func clip(line string, width uint8) string {
	if width == 0 || runewidth.StringWidth(line) <= int(width) {
		return line
	}
	return runewidth.Truncate(line, int(width), "...")
}
