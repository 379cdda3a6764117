// Package lockfile resolves the checking engine's pinned version from a
// project's dependency lock artifact.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tsdoctor/internal/failure"
)

const (
	// YarnLock is preferred over NPMLock when both exist.
	YarnLock = "yarn.lock"
	NPMLock  = "package-lock.json"

	// DefaultPackage is the engine's package name.
	DefaultPackage = "typescript"
)

// Format identifies the lock artifact that was read.
type Format uint8

const (
	FormatYarnClassic Format = iota + 1
	FormatYarnBerry
	FormatNPM
)

func (f Format) String() string {
	switch f {
	case FormatYarnClassic:
		return "yarn-v1"
	case FormatYarnBerry:
		return "yarn-berry"
	case FormatNPM:
		return "npm"
	default:
		return "unknown"
	}
}

// Entry is the engine's lock entry.
type Entry struct {
	Name    string // dependency spec or path the record was found under
	Version string
	Path    string // lock artifact path
	Format  Format
}

// Resolver finds the version of Package pinned in a directory's lockfile.
type Resolver struct {
	Package string
}

// NewResolver returns a Resolver for pkg, defaulting to DefaultPackage.
func NewResolver(pkg string) Resolver {
	if strings.TrimSpace(pkg) == "" {
		pkg = DefaultPackage
	}
	return Resolver{Package: pkg}
}

func (r Resolver) pkg() string {
	if r.Package == "" {
		return DefaultPackage
	}
	return r.Package
}

// Resolve returns the pinned engine version for dir.
func (r Resolver) Resolve(dir string) (string, error) {
	e, err := r.Lookup(dir)
	if err != nil {
		return "", err
	}
	return e.Version, nil
}

// Lookup is Resolve with the full lock entry.
func (r Resolver) Lookup(dir string) (Entry, error) {
	yarnPath := filepath.Join(dir, YarnLock)
	npmPath := filepath.Join(dir, NPMLock)

	ok, err := exists(yarnPath)
	if err != nil {
		return Entry{}, err
	}
	if ok {
		content, err := os.ReadFile(yarnPath)
		if err != nil {
			return Entry{}, fmt.Errorf("failed to read %s: %w", yarnPath, err)
		}
		e, err := r.FromYarn(string(content))
		e.Path = yarnPath
		return e, err
	}

	ok, err = exists(npmPath)
	if err != nil {
		return Entry{}, err
	}
	if ok {
		content, err := os.ReadFile(npmPath)
		if err != nil {
			return Entry{}, fmt.Errorf("failed to read %s: %w", npmPath, err)
		}
		e, err := r.FromNPM(content)
		e.Path = npmPath
		return e, err
	}

	return Entry{}, failure.New(failure.LockFileNotFound, "no lock file found.").
		WithContext(failure.CtxPath, dir)
}

// FromYarn extracts the engine entry from yarn.lock content.
func (r Resolver) FromYarn(content string) (Entry, error) {
	pkg := r.pkg()
	f, err := ParseYarn(content)
	if err != nil {
		return Entry{}, failure.Wrap(err, failure.ParseError, "failed to parse lock file "+YarnLock)
	}
	format := FormatYarnClassic
	if f.Berry {
		format = FormatYarnBerry
	}
	entry, spec, ok := f.Find(pkg + "@")
	if !ok {
		return Entry{}, failure.Newf(failure.EngineNotFound, "could not find %s in %s", pkg, YarnLock).
			WithContext(failure.CtxPackage, pkg)
	}
	raw, _ := entry.Field("version")
	version, ok := raw.(string)
	if !ok || strings.TrimSpace(version) == "" {
		return Entry{}, failure.Newf(failure.VersionFieldMissing, "could not parse %s version from %s", pkg, YarnLock).
			WithContext(failure.CtxPackage, pkg)
	}
	return Entry{Name: spec, Version: strings.TrimSpace(version), Format: format}, nil
}

// FromNPM extracts the engine entry from package-lock.json content.
func (r Resolver) FromNPM(content []byte) (Entry, error) {
	pkg := r.pkg()
	f, err := ParseNPM(content)
	if err != nil {
		return Entry{}, failure.Wrap(err, failure.ParseError, "failed to parse lock file "+NPMLock)
	}
	raw, key, ok := f.Lookup(pkg)
	if !ok {
		return Entry{}, failure.Newf(failure.EngineNotFound, "could not find %s in %s", pkg, NPMLock).
			WithContext(failure.CtxPackage, pkg)
	}
	version, ok := versionField(raw)
	if !ok || strings.TrimSpace(version) == "" {
		return Entry{}, failure.Newf(failure.VersionFieldMissing, "could not parse %s version from %s", pkg, NPMLock).
			WithContext(failure.CtxPackage, pkg)
	}
	return Entry{Name: key, Version: strings.TrimSpace(version), Format: FormatNPM}, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %q: %w", path, err)
}
