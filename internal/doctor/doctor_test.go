package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tsdoctor/internal/diag"
	"tsdoctor/internal/engine"
)

type fakeEngine struct {
	resp *engine.Response
	err  error
	reqs []engine.Request
}

func (f *fakeEngine) Version() string { return "5.0.4" }

func (f *fakeEngine) Query(_ context.Context, req engine.Request) (*engine.Response, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func intp(v int) *int { return &v }

func TestSemanticDiagnosticsKeepsEngineOrder(t *testing.T) {
	eng := &fakeEngine{resp: &engine.Response{
		OK:      true,
		Program: true,
		Diagnostics: []engine.WireDiagnostic{
			{Category: 1, Code: 2322, Message: "Type 'string' is not assignable to type 'number'.",
				File: "/w/src/b.ts", Line: intp(9), Character: intp(4), Length: 3},
			{Category: 0, Code: 6133, Message: "'x' is declared but its value is never read.",
				File: "/w/src/a.ts", Line: intp(0), Character: intp(0)},
			{Category: 3, Code: 6059, Message: "global message"},
			{Category: 2, Code: 80001, Message: "File is a CommonJS module.",
				File: "/w/src/a.ts", Line: intp(1), Character: intp(2),
				Related: []engine.WireDiagnostic{{Category: 3, Code: 1, Message: "see here", File: "/w/src/c.ts", Line: intp(4), Character: intp(0)}}},
		},
	}}
	d := FromConfigFile("/w/tsconfig.json", eng, nil)
	bag, err := d.SemanticDiagnostics(context.Background())
	require.NoError(t, err)
	require.Equal(t, []engine.Request{{Op: engine.OpSemanticDiagnostics, ConfigPath: "/w/tsconfig.json"}}, eng.reqs)

	items := bag.Items()
	require.Len(t, items, 4)
	require.Equal(t, diag.CategoryError, items[0].Category)
	require.Equal(t, "TS2322", items[0].Code.ID())
	require.Equal(t, &diag.Position{File: "/w/src/b.ts", Line: 9, Column: 4, Length: 3}, items[0].Position)
	require.Equal(t, diag.CategoryWarning, items[1].Category)
	require.Nil(t, items[2].Position)
	require.Equal(t, diag.CategorySuggestion, items[3].Category)
	require.Len(t, items[3].Notes, 1)
	require.Equal(t, "see here", items[3].Notes[0].Msg)
	require.Equal(t, "/w/src/c.ts", items[3].Notes[0].Position.File)
	require.Equal(t, 1, bag.ErrorCount())
}

func TestSemanticDiagnosticsNoProgram(t *testing.T) {
	eng := &fakeEngine{resp: &engine.Response{
		OK:           true,
		Program:      false,
		ConfigErrors: []engine.WireDiagnostic{{Category: 1, Code: 18003, Message: "No inputs were found in config file."}},
	}}
	bag, err := FromConfigFile("/w/tsconfig.json", eng, nil).SemanticDiagnostics(context.Background())
	require.NoError(t, err)
	require.Nil(t, bag)
	require.Zero(t, bag.ErrorCount())
}

func TestSemanticDiagnosticsEmpty(t *testing.T) {
	eng := &fakeEngine{resp: &engine.Response{OK: true, Program: true}}
	bag, err := FromConfigFile("/w/tsconfig.json", eng, nil).SemanticDiagnostics(context.Background())
	require.NoError(t, err)
	require.NotNil(t, bag)
	require.Zero(t, bag.Len())
}

func TestSemanticDiagnosticsErrors(t *testing.T) {
	_, err := FromConfigFile("/w/tsconfig.json", &fakeEngine{err: errors.New("boom")}, nil).
		SemanticDiagnostics(context.Background())
	require.EqualError(t, err, "boom")

	bad := &fakeEngine{resp: &engine.Response{OK: true, Program: true,
		Diagnostics: []engine.WireDiagnostic{{Category: 7, Code: 1, Message: "?"}}}}
	_, err = FromConfigFile("/w/tsconfig.json", bad, nil).SemanticDiagnostics(context.Background())
	require.ErrorContains(t, err, "unknown diagnostic category 7")

	neg := &fakeEngine{resp: &engine.Response{OK: true, Program: true,
		Diagnostics: []engine.WireDiagnostic{{Category: 1, Code: 1, File: "a.ts", Line: intp(-1), Character: intp(0)}}}}
	_, err = FromConfigFile("/w/tsconfig.json", neg, nil).SemanticDiagnostics(context.Background())
	require.ErrorContains(t, err, "line -1")
}

func TestSemanticDiagnosticsIsRepeatable(t *testing.T) {
	eng := &fakeEngine{resp: &engine.Response{OK: true, Program: true,
		Diagnostics: []engine.WireDiagnostic{{Category: 1, Code: 2304, Message: "Cannot find name 'foo'.", File: "a.ts", Line: intp(0), Character: intp(0)}}}}
	d := FromConfigFile("/w/tsconfig.json", eng, nil)
	first, err := d.SemanticDiagnostics(context.Background())
	require.NoError(t, err)
	second, err := d.SemanticDiagnostics(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.Items(), second.Items())
}
