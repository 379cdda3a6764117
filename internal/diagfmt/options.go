package diagfmt

import (
	"fmt"
	"path/filepath"
	"strings"

	"tsdoctor/internal/diag"
)

// Format selects a reporter output.
type Format string

const (
	// FormatAuto picks github inside GitHub Actions and pretty elsewhere.
	FormatAuto   Format = "auto"
	FormatPretty Format = "pretty"
	FormatShort  Format = "short"
	// FormatGitHub emits workflow commands that GitHub turns into annotations.
	FormatGitHub Format = "github"
	FormatJSON   Format = "json"
	FormatSarif  Format = "sarif"
)

// ParseFormat accepts a format name case-insensitively; empty means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatPretty, FormatShort, FormatGitHub, FormatJSON, FormatSarif:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want auto, pretty, short, github, json or sarif)", s)
}

// Resolve replaces FormatAuto with a concrete format.
func (f Format) Resolve(inActions bool) Format {
	if f != FormatAuto && f != "" {
		return f
	}
	if inActions {
		return FormatGitHub
	}
	return FormatPretty
}

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to the base directory when they are
	// inside it and absolute otherwise.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int8 // lines of source shown above the primary line
	PathMode  PathMode
	BaseDir   string
	Width     uint8 // maximum width of a source line, 0 means unlimited
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	BaseDir      string
	Max          int // truncates output, not the bag
	IncludeNotes bool
}

// GitHubOpts configures workflow-command annotations.
type GitHubOpts struct {
	// BaseDir is usually GITHUB_WORKSPACE; annotation paths must be relative
	// to the repository root to attach to the diff.
	BaseDir   string
	ShowNotes bool
	// Group, when set, folds the annotations into a collapsible log group
	// with this title.
	Group string
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	EngineVersion  string
	InvocationArgs []string
	BaseDir        string
}

func formatPath(path string, mode PathMode, baseDir string) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
		return filepath.ToSlash(path)
	case PathModeRelative:
		if baseDir != "" && filepath.IsAbs(path) {
			if rel, err := filepath.Rel(baseDir, path); err == nil {
				return filepath.ToSlash(rel)
			}
		}
		return filepath.ToSlash(path)
	case PathModeAuto:
		return diag.RelPath(path, baseDir)
	case PathModeBasename:
		return filepath.Base(path)
	}
	return path
}
