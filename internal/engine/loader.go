package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"tsdoctor/internal/failure"
	"tsdoctor/internal/project"
)

// DefaultPackage is the npm package name of the engine.
const DefaultPackage = "typescript"

// Loader resolves a version string to a Handle.
type Loader struct {
	// CacheDir holds one directory per package and version.
	CacheDir string
	Package  string
	// Node is the argv prefix used to run the bridge, ["node"] when empty.
	Node      []string
	Env       []string
	Installer Installer
	// Verify fails the load when the engine reports a version other than
	// the one requested.
	Verify bool
	Log    *slog.Logger
	now    func() time.Time
}

// Load returns a handle for version, installing it first on a cold cache.
// Every failure is classified as failure.EngineLoadFailure.
func (l *Loader) Load(ctx context.Context, version string) (Engine, error) {
	h, err := l.load(ctx, version)
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, failure.Wrap(err, failure.EngineLoadFailure,
			fmt.Sprintf("failed to load %s@%s", l.pkg(), version)).
			WithContext(failure.CtxVersion, version)
	}
	return h, nil
}

func (l *Loader) load(ctx context.Context, version string) (*Handle, error) {
	pkg := l.pkg()
	if !ValidVersion(version) {
		return nil, failure.Newf(failure.EngineLoadFailure, "invalid %s version %q", pkg, version).
			WithContext(failure.CtxVersion, version)
	}
	if l.CacheDir == "" {
		return nil, fmt.Errorf("no cache directory configured")
	}
	log := l.logger().With("package", pkg, "version", version)
	dir := l.VersionDir(version)

	receipt, err := l.warm(dir, version)
	if err != nil {
		log.Warn("discarding unusable cache entry", "dir", dir, "error", err)
	}
	if receipt == nil {
		log.Info("installing engine", "dir", dir)
		if err := l.install(ctx, dir, version); err != nil {
			return nil, err
		}
	} else {
		log.Debug("engine cache hit", "dir", dir, "installed_at", receipt.InstalledAt)
	}

	bridge, err := writeBridge(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to write bridge script: %w", err)
	}
	h := &Handle{
		version:    version,
		packageDir: packageDir(dir, pkg),
		bridge:     bridge,
		command:    l.node(),
		env:        l.Env,
		log:        log,
	}
	// A version query starts node and requires the package, so a broken
	// runtime or install fails here rather than mid-check.
	resp, err := h.Query(ctx, Request{Op: OpVersion})
	if err != nil {
		return nil, err
	}
	if l.Verify && resp.Version != version {
		return nil, fmt.Errorf("loaded %s reports version %q", pkg, resp.Version)
	}
	return h, nil
}

// warm returns the receipt of an intact installation of version in dir, or
// nil when the directory must be (re)installed.
func (l *Loader) warm(dir, version string) (*Receipt, error) {
	r, err := readReceipt(dir)
	if err != nil || r == nil {
		return nil, err
	}
	if r.Package != l.pkg() || r.Version != version {
		return nil, fmt.Errorf("receipt is for %s@%s", r.Package, r.Version)
	}
	digest, installed, err := readManifest(packageDir(dir, l.pkg()))
	if err != nil {
		return nil, err
	}
	if installed != version || digest != r.ManifestDigest {
		return nil, fmt.Errorf("installed package does not match receipt")
	}
	return r, nil
}

// install populates a scratch directory and renames it into place so a
// concurrent run sharing the cache never sees a half-installed version.
func (l *Loader) install(ctx context.Context, dir, version string) error {
	if l.Installer == nil {
		return fmt.Errorf("no installer configured")
	}
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.RemoveAll(tmp)
	}()

	pkg := l.pkg()
	if err := l.Installer.Install(ctx, InstallRequest{Package: pkg, Version: version, Dir: tmp}); err != nil {
		return err
	}
	digest, installed, err := readManifest(packageDir(tmp, pkg))
	if err != nil {
		return fmt.Errorf("installation produced no usable package: %w", err)
	}
	if installed != version {
		return fmt.Errorf("installer produced %s@%s, wanted %s", pkg, installed, version)
	}
	if err := writeReceipt(tmp, &Receipt{
		Package:        pkg,
		Version:        version,
		InstalledAt:    l.clock().UTC(),
		ManifestDigest: digest,
	}); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.Rename(tmp, dir); err != nil {
		// Another run may have won the race.
		if r, werr := l.warm(dir, version); werr == nil && r != nil {
			return nil
		}
		return err
	}
	return nil
}

// VersionDir is the cache directory for version.
func (l *Loader) VersionDir(version string) string {
	return filepath.Join(l.CacheDir, l.pkg(), version)
}

func (l *Loader) pkg() string {
	if strings.TrimSpace(l.Package) == "" {
		return DefaultPackage
	}
	return l.Package
}

func (l *Loader) node() []string {
	if len(l.Node) == 0 {
		return []string{"node"}
	}
	return l.Node
}

func (l *Loader) logger() *slog.Logger {
	if l.Log != nil {
		return l.Log
	}
	return discardLogger()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (l *Loader) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

// ValidVersion reports whether v is an exact semantic version such as
// "5.0.4" or "5.4.0-beta". Ranges and tags are rejected.
func ValidVersion(v string) bool {
	if v == "" || strings.HasPrefix(v, "v") {
		return false
	}
	return semver.IsValid("v"+v) && semver.Canonical("v"+v) == "v"+strings.SplitN(v, "+", 2)[0]
}

func packageDir(prefix, pkg string) string {
	return filepath.Join(prefix, "node_modules", filepath.FromSlash(pkg))
}

// readManifest hashes dir/package.json and returns its version field.
func readManifest(dir string) (project.Digest, string, error) {
	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return project.Digest{}, "", err
	}
	var m struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return project.Digest{}, "", fmt.Errorf("%s: %w", path, err)
	}
	return project.Sum(data), m.Version, nil
}
