package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Handle is a loaded engine. Every query runs the bridge script in a fresh
// node process against the package directory the handle was loaded from.
type Handle struct {
	version    string
	packageDir string
	bridge     string
	command    []string
	env        []string
	log        *slog.Logger
}

// Version implements Engine.
func (h *Handle) Version() string {
	return h.version
}

// PackageDir is the directory of the installed engine package.
func (h *Handle) PackageDir() string {
	return h.packageDir
}

// Query implements Engine.
func (h *Handle) Query(ctx context.Context, req Request) (*Response, error) {
	req.EnginePath = h.packageDir
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	argv := append(append([]string(nil), h.command[1:]...), h.bridge)
	cmd := exec.CommandContext(ctx, h.command[0], argv...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(h.env) > 0 {
		cmd.Env = append(os.Environ(), h.env...)
	}

	h.log.Debug("engine query", "op", string(req.Op), "version", h.version)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("engine %s (%s) failed: %w: %s", h.version, req.Op, err, msg)
		}
		return nil, fmt.Errorf("engine %s (%s) failed: %w", h.version, req.Op, err)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("engine %s (%s) returned malformed output: %w", h.version, req.Op, err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("engine %s (%s): %s", h.version, req.Op, resp.Error)
	}
	return &resp, nil
}
