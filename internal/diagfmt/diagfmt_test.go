package diagfmt

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tsdoctor/internal/diag"
)

func sampleBag(dir string) *diag.Bag {
	bag := diag.NewBag(3)
	bag.Add(diag.New(diag.CategoryError, 2322, &diag.Position{File: filepath.Join(dir, "src", "index.ts"), Line: 1, Column: 6, Length: 1},
		"Type 'string' is not assignable to type 'number'.").
		WithNote(&diag.Position{File: filepath.Join(dir, "src", "types.ts"), Line: 4, Column: 2}, "The expected type comes from here."))
	bag.Add(diag.New(diag.CategoryWarning, 6133, &diag.Position{File: filepath.Join(dir, "src", "index.ts"), Line: 0, Column: 4, Length: 1},
		"'a' is declared but its value is never read."))
	bag.Add(diag.New(diag.CategoryMessage, 6059, nil, "File list, 100% done"))
	return bag
}

func writeSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	src := "let a = 1;\nconst x: number = \"a\";\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "index.ts"), []byte(src), 0o644))
	return dir
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatAuto, f)
	f, err = ParseFormat(" SARIF ")
	require.NoError(t, err)
	require.Equal(t, FormatSarif, f)
	_, err = ParseFormat("xml")
	require.Error(t, err)

	require.Equal(t, FormatGitHub, FormatAuto.Resolve(true))
	require.Equal(t, FormatPretty, FormatAuto.Resolve(false))
	require.Equal(t, FormatJSON, FormatJSON.Resolve(true))
}

func TestPrettyWithSnippet(t *testing.T) {
	dir := writeSource(t)
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, sampleBag(dir), PrettyOpts{BaseDir: dir, ShowNotes: true}))
	out := buf.String()

	require.Contains(t, out, "src/index.ts:2:7: error TS2322: Type 'string' is not assignable to type 'number'.\n")
	require.Contains(t, out, "2 | const x: number = \"a\";\n")
	require.Contains(t, out, " |       ^\n")
	require.Contains(t, out, "  src/types.ts:5:3: note: The expected type comes from here.\n")
	require.Contains(t, out, "src/index.ts:1:5: warning TS6133: 'a' is declared but its value is never read.\n")
	require.Contains(t, out, "message TS6059: File list, 100% done\n")
	require.NotContains(t, out, "\x1b[")

	require.Less(t, strings.Index(out, "TS2322"), strings.Index(out, "TS6133"))
	require.Less(t, strings.Index(out, "TS6133"), strings.Index(out, "TS6059"))
}

func TestPrettyContextAndColor(t *testing.T) {
	dir := writeSource(t)
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, sampleBag(dir), PrettyOpts{BaseDir: dir, Context: 1, Color: true}))
	out := buf.String()
	require.Contains(t, out, "let a = 1;")
	require.Contains(t, out, "\x1b[")
}

func TestPrettyMissingSourceSkipsSnippet(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.CategoryError, 2304, &diag.Position{File: "/nowhere/a.ts", Line: 0, Column: 0}, "Cannot find name 'foo'."))
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, bag, PrettyOpts{PathMode: PathModeBasename}))
	require.Equal(t, "a.ts:1:1: error TS2304: Cannot find name 'foo'.\n", buf.String())
}

func TestGitHubAnnotations(t *testing.T) {
	dir := "/home/runner/work/app"
	var buf bytes.Buffer
	require.NoError(t, GitHub(&buf, sampleBag(dir), GitHubOpts{BaseDir: dir}))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"::error file=src/index.ts,line=2,col=7,title=TS2322::Type 'string' is not assignable to type 'number'.",
		"::warning file=src/index.ts,line=1,col=5,title=TS6133::'a' is declared but its value is never read.",
		"::notice title=TS6059::File list, 100%25 done",
	}, lines)
}

func TestGitHubNotes(t *testing.T) {
	dir := "/w"
	var buf bytes.Buffer
	require.NoError(t, GitHub(&buf, sampleBag(dir), GitHubOpts{BaseDir: dir, ShowNotes: true}))
	require.Contains(t, buf.String(), "'number'.%0Anote: src/types.ts:5:3: The expected type comes from here.\n")
}

func TestGitHubGroup(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GitHub(&buf, sampleBag("/w"), GitHubOpts{BaseDir: "/w", Group: "TypeScript 5.0.4 diagnostics"}))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	require.Equal(t, "::group::TypeScript 5.0.4 diagnostics", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "::error "))
	require.Equal(t, "::endgroup::", lines[4])

	buf.Reset()
	require.NoError(t, GitHub(&buf, nil, GitHubOpts{Group: "TypeScript diagnostics"}))
	require.Empty(t, buf.String())
}

func TestJSON(t *testing.T) {
	dir := "/w"
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleBag(dir), JSONOpts{BaseDir: dir, IncludeNotes: true}))

	var out DiagnosticsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, 3, out.Count)
	require.Equal(t, 1, out.Errors)
	first := out.Diagnostics[0]
	require.Equal(t, "error", first.Category)
	require.Equal(t, "TS2322", first.Code)
	require.Equal(t, &LocationJSON{File: "src/index.ts", Line: 2, Column: 7, Length: 1}, first.Location)
	require.Len(t, first.Notes, 1)
	require.Nil(t, out.Diagnostics[2].Location)
}

func TestJSONMaxAndNilBag(t *testing.T) {
	out := BuildDiagnosticsOutput(sampleBag("/w"), JSONOpts{Max: 1})
	require.Equal(t, 1, out.Count)
	require.Empty(t, out.Diagnostics[0].Notes)

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, nil, JSONOpts{}))
	require.JSONEq(t, `{"diagnostics":[],"count":0,"errors":0}`, buf.String())
}

func TestSarif(t *testing.T) {
	dir := writeSource(t)
	var buf bytes.Buffer
	require.NoError(t, Sarif(&buf, sampleBag(dir), SarifRunMeta{
		ToolName:      "tsdoctor",
		ToolVersion:   "1.0.0",
		EngineVersion: "5.0.4",
		BaseDir:       dir,
	}))

	var log map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))
	require.Equal(t, "2.1.0", log["version"])
	runs := log["runs"].([]any)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	require.Equal(t, "utf16CodeUnits", run["columnKind"])
	results := run["results"].([]any)
	require.Len(t, results, 3)

	first := results[0].(map[string]any)
	require.Equal(t, "TS2322", first["ruleId"])
	require.Equal(t, "error", first["level"])
	phys := first["locations"].([]any)[0].(map[string]any)["physicalLocation"].(map[string]any)
	require.Equal(t, map[string]any{"uri": "src/index.ts", "uriBaseId": "%SRCROOT%"}, phys["artifactLocation"])
	require.Equal(t, map[string]any{"startLine": float64(2), "startColumn": float64(7), "endColumn": float64(8)}, phys["region"])
	require.Len(t, first["relatedLocations"], 1)

	require.Equal(t, "note", results[2].(map[string]any)["level"])
	require.NotContains(t, results[2].(map[string]any), "locations")

	rules := run["tool"].(map[string]any)["driver"].(map[string]any)["rules"].([]any)
	require.Len(t, rules, 3)
}

func TestSarifEndColumnStaysOnLine(t *testing.T) {
	dir := writeSource(t)
	index := filepath.Join(dir, "src", "index.ts")
	bag := diag.NewBag(3)
	bag.Add(diag.New(diag.CategoryError, 2322, &diag.Position{File: index, Line: 1, Column: 18, Length: 3}, "on one line"))
	bag.Add(diag.New(diag.CategoryError, 2322, &diag.Position{File: index, Line: 0, Column: 4, Length: 20}, "across a line break"))
	bag.Add(diag.New(diag.CategoryError, 2322, &diag.Position{File: filepath.Join(dir, "missing.ts"), Line: 0, Column: 0, Length: 2}, "unreadable"))

	var buf bytes.Buffer
	require.NoError(t, Sarif(&buf, bag, SarifRunMeta{ToolName: "tsdoctor", BaseDir: dir}))
	var log map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))
	results := log["runs"].([]any)[0].(map[string]any)["results"].([]any)
	region := func(i int) map[string]any {
		loc := results[i].(map[string]any)["locations"].([]any)[0].(map[string]any)
		return loc["physicalLocation"].(map[string]any)["region"].(map[string]any)
	}
	require.Equal(t, map[string]any{"startLine": float64(2), "startColumn": float64(19), "endColumn": float64(22)}, region(0))
	require.Equal(t, map[string]any{"startLine": float64(1), "startColumn": float64(5)}, region(1))
	require.Equal(t, map[string]any{"startLine": float64(1), "startColumn": float64(1)}, region(2))
}

func TestPrinterDispatch(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{W: &buf, Format: FormatShort, Pretty: PrettyOpts{BaseDir: "/w"}}
	require.NoError(t, p.Report(sampleBag("/w")))
	require.Equal(t, "error TS2322 src/index.ts:2:7 Type 'string' is not assignable to type 'number'.\n"+
		"warning TS6133 src/index.ts:1:5 'a' is declared but its value is never read.\n"+
		"message TS6059 File list, 100% done\n", buf.String())

	buf.Reset()
	require.NoError(t, p.Report(nil))
	require.Empty(t, buf.String())

	p.Format = Format("xml")
	require.Error(t, p.Report(nil))
}

func TestUTF16Offset(t *testing.T) {
	require.Equal(t, 0, utf16Offset("abc", 0))
	require.Equal(t, 2, utf16Offset("abc", 2))
	require.Equal(t, 3, utf16Offset("abc", 9))
	// U+1F600 is two UTF-16 units and four bytes.
	require.Equal(t, 4, utf16Offset("\U0001F600x", 2))
	require.Equal(t, 2, utf16Offset("éx", 1))
}

func TestSplitLines(t *testing.T) {
	require.Equal(t, []string{""}, splitLines(nil))
	require.Equal(t, []string{"a", "b", ""}, splitLines([]byte("\xef\xbb\xbfa\nb\n")))
	require.Equal(t, []string{"a", "b", "c"}, splitLines([]byte("a\r\nb\rc")))
	require.Equal(t, []string{"a", "", "b"}, splitLines([]byte("a\r\rb")))
	require.Equal(t, []string{"a", "b", "c"}, splitLines([]byte("a\u2028b\u2029c")))
}

func TestSourceCacheLineTerminators(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.ts")
	require.NoError(t, os.WriteFile(path, []byte("let a = 1;\rconst x: number = \"a\";\u2028let b;\n"), 0o644))
	src := newSourceCache()
	line, ok := src.line(path, 1)
	require.True(t, ok)
	require.Equal(t, `const x: number = "a";`, line)
	line, ok = src.line(path, 2)
	require.True(t, ok)
	require.Equal(t, "let b;", line)
}

func TestFormatPath(t *testing.T) {
	require.Equal(t, "src/a.ts", formatPath("/w/src/a.ts", PathModeAuto, "/w"))
	require.Equal(t, "/other/a.ts", formatPath("/other/a.ts", PathModeAuto, "/w"))
	require.Equal(t, "../other/a.ts", formatPath("/other/a.ts", PathModeRelative, "/w"))
	require.Equal(t, "a.ts", formatPath("/w/src/a.ts", PathModeBasename, "/w"))
	require.Equal(t, "/w/src/a.ts", formatPath("/w/src/a.ts", PathModeAbsolute, ""))
}
