// Package doctor computes semantic diagnostics for one project configuration
// with a loaded engine.
package doctor

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"fortio.org/safecast"

	"tsdoctor/internal/diag"
	"tsdoctor/internal/engine"
)

// Doctor is bound to one engine and one configuration file for its lifetime.
type Doctor struct {
	configPath string
	engine     engine.Engine
	log        *slog.Logger
}

// FromConfigFile binds eng to configPath. The file is assumed to exist.
func FromConfigFile(configPath string, eng engine.Engine, log *slog.Logger) *Doctor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Doctor{configPath: configPath, engine: eng, log: log}
}

// SemanticDiagnostics returns the semantic diagnostics of every file in the
// program, in engine order. It returns (nil, nil) when the configuration does
// not yield a program; callers treat that like an empty bag.
func (d *Doctor) SemanticDiagnostics(ctx context.Context) (*diag.Bag, error) {
	resp, err := d.engine.Query(ctx, engine.Request{
		Op:         engine.OpSemanticDiagnostics,
		ConfigPath: d.configPath,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range resp.ConfigErrors {
		d.log.Warn("configuration problem", "config", d.configPath, "code", w.Code, "message", w.Message)
	}
	if !resp.Program {
		d.log.Info("configuration produced no program", "config", d.configPath)
		return nil, nil
	}

	bag := diag.NewBag(len(resp.Diagnostics))
	for i := range resp.Diagnostics {
		dg, err := convert(&resp.Diagnostics[i])
		if err != nil {
			return nil, fmt.Errorf("diagnostic %d: %w", i, err)
		}
		bag.Add(dg)
	}
	d.log.Debug("semantic diagnostics", "config", d.configPath, "files", resp.RootFiles, "count", bag.Len())
	return bag, nil
}

func convert(w *engine.WireDiagnostic) (diag.Diagnostic, error) {
	cat, err := diag.ParseCategory(w.Category)
	if err != nil {
		return diag.Diagnostic{}, err
	}
	code, err := safecast.Conv[uint32](w.Code)
	if err != nil {
		return diag.Diagnostic{}, fmt.Errorf("code %d: %w", w.Code, err)
	}
	pos, err := position(w)
	if err != nil {
		return diag.Diagnostic{}, err
	}
	out := diag.New(cat, diag.Code(code), pos, w.Message)
	for i := range w.Related {
		r := &w.Related[i]
		rpos, err := position(r)
		if err != nil {
			return diag.Diagnostic{}, err
		}
		out = out.WithNote(rpos, r.Message)
	}
	return out, nil
}

// position is nil for diagnostics without a file or without a start offset.
func position(w *engine.WireDiagnostic) (*diag.Position, error) {
	if w.File == "" || w.Line == nil || w.Character == nil {
		return nil, nil
	}
	line, err := safecast.Conv[uint32](*w.Line)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", *w.Line, err)
	}
	col, err := safecast.Conv[uint32](*w.Character)
	if err != nil {
		return nil, fmt.Errorf("column %d: %w", *w.Character, err)
	}
	length, err := safecast.Conv[uint32](w.Length)
	if err != nil {
		return nil, fmt.Errorf("length %d: %w", w.Length, err)
	}
	return &diag.Position{File: w.File, Line: line, Column: col, Length: length}, nil
}
