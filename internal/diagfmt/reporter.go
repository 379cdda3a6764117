package diagfmt

import (
	"fmt"
	"io"

	"tsdoctor/internal/diag"
)

// Reporter writes a whole collection in one format. A nil bag is reported
// like an empty one.
type Reporter interface {
	Report(bag *diag.Bag) error
}

// Printer is the Reporter used by the CLI.
type Printer struct {
	W      io.Writer
	Format Format // must be resolved; FormatAuto is treated as pretty
	Pretty PrettyOpts
	JSON   JSONOpts
	GitHub GitHubOpts
	Sarif  SarifRunMeta
}

// Report implements Reporter.
func (p *Printer) Report(bag *diag.Bag) error {
	switch p.Format {
	case FormatGitHub:
		return GitHub(p.W, bag, p.GitHub)
	case FormatJSON:
		return JSON(p.W, bag, p.JSON)
	case FormatSarif:
		return Sarif(p.W, bag, p.Sarif)
	case FormatShort:
		out := diag.FormatShort(bag.Items(), p.Pretty.BaseDir, p.Pretty.ShowNotes)
		if out == "" {
			return nil
		}
		_, err := io.WriteString(p.W, out+"\n")
		return err
	case FormatPretty, FormatAuto, "":
		return Pretty(p.W, bag, p.Pretty)
	}
	return fmt.Errorf("unknown format %q", p.Format)
}
