package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// InstallRequest describes one package installation.
type InstallRequest struct {
	Package string
	Version string
	// Dir is the prefix directory; the package ends up in Dir/node_modules.
	Dir string
}

// Installer places a package at an exact version into a directory.
type Installer interface {
	Install(ctx context.Context, req InstallRequest) error
}

// NPMInstaller installs packages by running npm.
type NPMInstaller struct {
	NPM      string // npm executable, "npm" when empty
	Registry string // optional registry URL
	Env      []string
	Log      *slog.Logger
}

const installTailLines = 20

// Install runs `npm install` into req.Dir. npm's stdout and stderr are
// streamed to the debug log while it runs; the tail of stderr is attached to
// the returned error.
func (i *NPMInstaller) Install(ctx context.Context, req InstallRequest) error {
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return err
	}
	// A package.json stops npm from walking up to an enclosing project.
	manifest := filepath.Join(req.Dir, "package.json")
	if err := os.WriteFile(manifest, []byte(`{"private":true,"name":"tsdoctor-engine"}`+"\n"), 0o644); err != nil {
		return err
	}

	npm := i.NPM
	if npm == "" {
		npm = "npm"
	}
	args := []string{
		"install",
		"--prefix", req.Dir,
		"--no-audit",
		"--no-fund",
		"--no-package-lock",
		"--ignore-scripts",
		"--save-exact",
	}
	if i.Registry != "" {
		args = append(args, "--registry", i.Registry)
	}
	args = append(args, req.Package+"@"+req.Version)

	cmd := exec.CommandContext(ctx, npm, args...)
	cmd.Dir = req.Dir
	if len(i.Env) > 0 {
		cmd.Env = append(os.Environ(), i.Env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	log := i.logger()
	log.Debug("running npm", "args", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", npm, err)
	}

	tail := &lineTail{max: installTailLines}
	var g errgroup.Group
	g.Go(func() error {
		return pumpLines(stdout, func(line string) {
			log.Debug("npm", "stream", "stdout", "line", line)
		})
	})
	g.Go(func() error {
		return pumpLines(stderr, func(line string) {
			log.Debug("npm", "stream", "stderr", "line", line)
			tail.add(line)
		})
	})
	pumpErr := g.Wait()
	waitErr := cmd.Wait()
	if waitErr != nil {
		if t := tail.String(); t != "" {
			return fmt.Errorf("%s install %s@%s: %w\n%s", npm, req.Package, req.Version, waitErr, t)
		}
		return fmt.Errorf("%s install %s@%s: %w", npm, req.Package, req.Version, waitErr)
	}
	if pumpErr != nil {
		return fmt.Errorf("failed to read npm output: %w", pumpErr)
	}
	return nil
}

func (i *NPMInstaller) logger() *slog.Logger {
	if i.Log != nil {
		return i.Log
	}
	return discardLogger()
}

func pumpLines(r io.Reader, fn func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			fn(line)
		}
	}
	return sc.Err()
}

// lineTail keeps the last max lines written to it.
type lineTail struct {
	mu    sync.Mutex
	max   int
	lines []string
}

func (t *lineTail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
