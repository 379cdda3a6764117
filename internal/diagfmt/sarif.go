package diagfmt

import (
	"encoding/json"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"tsdoctor/internal/diag"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
	// srcRootID names the uriBaseId that relative artifact URIs resolve against.
	srcRootID = "%SRCROOT%"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool               sarifTool                   `json:"tool"`
	Invocations        []sarifInvocation           `json:"invocations,omitempty"`
	OriginalURIBaseIDs map[string]sarifArtifactLoc `json:"originalUriBaseIds,omitempty"`
	Results            []sarifResult               `json:"results"`
	ColumnKind         string                      `json:"columnKind"`
	AutomationDetails  *sarifAutomation            `json:"automationDetails,omitempty"`
}

type sarifAutomation struct {
	ID string `json:"id"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string        `json:"id"`
	ShortDescription *sarifMessage `json:"shortDescription,omitempty"`
}

type sarifInvocation struct {
	CommandLine         string   `json:"commandLine,omitempty"`
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifArtifactLoc struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn"`
	EndColumn   uint32 `json:"endColumn,omitempty"`
}

type sarifPhysicalLoc struct {
	ArtifactLocation sarifArtifactLoc `json:"artifactLocation"`
	Region           *sarifRegion     `json:"region,omitempty"`
}

type sarifLocation struct {
	ID               *int              `json:"id,omitempty"`
	PhysicalLocation *sarifPhysicalLoc `json:"physicalLocation,omitempty"`
	Message          *sarifMessage     `json:"message,omitempty"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId,omitempty"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations,omitempty"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
}

// Sarif writes the diagnostics as a SARIF v2.1.0 log with one run. Columns
// are reported in UTF-16 code units, matching the engine.
func Sarif(w io.Writer, bag *diag.Bag, meta SarifRunMeta) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           meta.ToolName,
			Version:        meta.ToolVersion,
			InformationURI: "https://www.typescriptlang.org/",
		}},
		Results:    make([]sarifResult, 0, bag.Len()),
		ColumnKind: "utf16CodeUnits",
	}
	if meta.BaseDir != "" {
		run.OriginalURIBaseIDs = map[string]sarifArtifactLoc{
			srcRootID: {URI: fileURI(meta.BaseDir)},
		}
	}
	if meta.EngineVersion != "" {
		run.AutomationDetails = &sarifAutomation{ID: meta.ToolName + "/typescript-" + meta.EngineVersion + "/"}
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{
			Arguments:           meta.InvocationArgs,
			ExecutionSuccessful: true,
		}}
	}

	src := newSourceCache()
	seen := make(map[string]bool)
	for _, d := range bag.Items() {
		id := d.Code.ID()
		if id != "" && !seen[id] {
			seen[id] = true
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{ID: id})
		}
		res := sarifResult{
			RuleID:  id,
			Level:   sarifLevel(d.Category),
			Message: sarifMessage{Text: d.Message},
		}
		if loc := sarifPhysical(d.Position, meta.BaseDir, src); loc != nil {
			res.Locations = []sarifLocation{{PhysicalLocation: loc}}
		}
		for i, n := range d.Notes {
			id := i + 1
			res.RelatedLocations = append(res.RelatedLocations, sarifLocation{
				ID:               &id,
				PhysicalLocation: sarifPhysical(n.Position, meta.BaseDir, src),
				Message:          &sarifMessage{Text: n.Msg},
			})
		}
		run.Results = append(run.Results, res)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []sarifRun{run},
	})
}

func sarifLevel(c diag.Category) string {
	switch c {
	case diag.CategoryError:
		return "error"
	case diag.CategoryWarning:
		return "warning"
	}
	return "note"
}

// sarifPhysical maps pos to a SARIF location. The region gets an end column
// only when the span ends on its start line, which needs the source.
func sarifPhysical(pos *diag.Position, baseDir string, src *sourceCache) *sarifPhysicalLoc {
	if pos == nil {
		return nil
	}
	line, col := pos.Human()
	loc := &sarifPhysicalLoc{
		ArtifactLocation: sarifArtifactLoc{URI: diag.RelPath(pos.File, baseDir)},
		Region:           &sarifRegion{StartLine: line, StartColumn: col},
	}
	if pos.Length > 0 {
		if text, ok := src.line(pos.File, pos.Line); ok && pos.Column+pos.Length <= utf16Len(text) {
			loc.Region.EndColumn = col + pos.Length
		}
	}
	if baseDir != "" && loc.ArtifactLocation.URI != filepath.ToSlash(pos.File) {
		loc.ArtifactLocation.URIBaseID = srcRootID
	}
	return loc
}

func fileURI(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	p := filepath.ToSlash(dir)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
