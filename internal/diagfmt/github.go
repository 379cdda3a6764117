package diagfmt

import (
	"io"
	"strconv"
	"strings"

	"tsdoctor/internal/ci"
	"tsdoctor/internal/diag"
)

// GitHub writes one workflow command per diagnostic. Errors become ::error,
// warnings ::warning and everything else ::notice, so every record shows up
// in the log and as an annotation. Notes are folded into the message.
func GitHub(w io.Writer, bag *diag.Bag, opts GitHubOpts) error {
	grouped := opts.Group != "" && bag.Len() > 0
	if grouped {
		if _, err := io.WriteString(w, ci.Group(opts.Group)); err != nil {
			return err
		}
	}
	for _, d := range bag.Items() {
		var props []ci.Property
		if p := d.Position; p != nil {
			line, col := p.Human()
			props = append(props,
				ci.Property{Key: "file", Value: diag.RelPath(p.File, opts.BaseDir)},
				ci.Property{Key: "line", Value: strconv.FormatUint(uint64(line), 10)},
				ci.Property{Key: "col", Value: strconv.FormatUint(uint64(col), 10)},
			)
		}
		props = append(props, ci.Property{Key: "title", Value: d.Code.ID()})

		msg := d.Message
		if opts.ShowNotes && len(d.Notes) > 0 {
			var b strings.Builder
			b.WriteString(msg)
			for _, n := range d.Notes {
				b.WriteString("\nnote: ")
				if n.Position != nil {
					line, col := n.Position.Human()
					b.WriteString(diag.RelPath(n.Position.File, opts.BaseDir))
					b.WriteString(":" + strconv.FormatUint(uint64(line), 10) + ":" + strconv.FormatUint(uint64(col), 10) + ": ")
				}
				b.WriteString(n.Msg)
			}
			msg = b.String()
		}
		if _, err := io.WriteString(w, ci.Command(annotation(d.Category), props, msg)); err != nil {
			return err
		}
	}
	if grouped {
		_, err := io.WriteString(w, ci.EndGroup())
		return err
	}
	return nil
}

func annotation(c diag.Category) string {
	switch c {
	case diag.CategoryError:
		return "error"
	case diag.CategoryWarning:
		return "warning"
	}
	return "notice"
}
