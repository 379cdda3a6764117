// Package engine loads a specific version of the checking engine and exposes
// it through a small query interface.
//
// The engine is a Node.js package. Loading means making sure the exact
// version is installed in a per-version cache directory (installing it with
// npm on a cold cache) and returning a Handle. Queries run a bundled bridge
// script under node: one JSON request on stdin, one JSON response on stdout.
package engine

import (
	"context"
)

// Op names a bridge operation.
type Op string

const (
	// OpVersion reports the loaded engine's own version string.
	OpVersion Op = "version"
	// OpSemanticDiagnostics builds the program for a configuration file and
	// returns the semantic diagnostics of every file in it.
	OpSemanticDiagnostics Op = "semanticDiagnostics"
)

// Request is the bridge input.
type Request struct {
	Op         Op     `json:"op"`
	EnginePath string `json:"enginePath"`
	ConfigPath string `json:"configPath,omitempty"`
}

// WireDiagnostic is a diagnostic as serialised by the bridge. Line and
// Character are zero-based.
type WireDiagnostic struct {
	Category  int              `json:"category"`
	Code      int              `json:"code"`
	Message   string           `json:"message"`
	File      string           `json:"file,omitempty"`
	Line      *int             `json:"line,omitempty"`
	Character *int             `json:"character,omitempty"`
	Length    int              `json:"length,omitempty"`
	Related   []WireDiagnostic `json:"related,omitempty"`
}

// Response is the bridge output.
type Response struct {
	OK           bool             `json:"ok"`
	Error        string           `json:"error,omitempty"`
	Version      string           `json:"version,omitempty"`
	Program      bool             `json:"program"`
	RootFiles    int              `json:"rootFiles,omitempty"`
	ConfigErrors []WireDiagnostic `json:"configErrors,omitempty"`
	Diagnostics  []WireDiagnostic `json:"diagnostics,omitempty"`
}

// Engine is a loaded checking engine bound to one version.
type Engine interface {
	// Version is the version the engine was loaded at.
	Version() string
	// Query runs one bridge operation.
	Query(ctx context.Context, req Request) (*Response, error)
}
