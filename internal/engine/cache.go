package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

const cacheDirName = "tsdoctor"

// DefaultCacheDir picks the engine cache root. The runner tool cache is
// preferred on CI so installed versions survive between jobs on the same
// runner.
func DefaultCacheDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("RUNNER_TOOL_CACHE")); dir != "" {
		return filepath.Join(dir, cacheDirName), nil
	}
	if dir := strings.TrimSpace(os.Getenv("XDG_CACHE_HOME")); dir != "" {
		return filepath.Join(dir, cacheDirName), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, cacheDirName), nil
}

// List returns the receipts of every installed version of pkg, oldest
// version first. Directories without a receipt are skipped.
func List(cacheDir, pkg string) ([]Receipt, error) {
	if pkg == "" {
		pkg = DefaultPackage
	}
	root := filepath.Join(cacheDir, pkg)
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Receipt
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		r, err := readReceipt(filepath.Join(root, e.Name()))
		if err != nil || r == nil {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return semver.Compare("v"+out[i].Version, "v"+out[j].Version) < 0
	})
	return out, nil
}

// Clean removes one cached version of pkg, or every version when version is
// empty. It returns the directories it removed.
func Clean(cacheDir, pkg, version string) ([]string, error) {
	if pkg == "" {
		pkg = DefaultPackage
	}
	root := filepath.Join(cacheDir, pkg)
	if version != "" {
		dir := filepath.Join(root, version)
		if _, err := os.Stat(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil
			}
			return nil, err
		}
		if err := os.RemoveAll(dir); err != nil {
			return nil, err
		}
		return []string{dir}, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var removed []string
	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		if err := os.RemoveAll(dir); err != nil {
			return removed, err
		}
		removed = append(removed, dir)
	}
	return removed, nil
}
