package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tsdoctor/internal/failure"
)

// DefaultConfigFile is the engine's project configuration file name.
const DefaultConfigFile = "tsconfig.json"

// ResolveDirectory returns the absolute working directory of a run. An empty
// input selects the process's current directory; relative inputs are
// resolved against it.
func ResolveDirectory(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		return wd, nil
	}
	dir, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory %q: %w", input, err)
	}
	return dir, nil
}

// LocateConfig returns the absolute path of name inside dir. Only dir itself
// is searched: parent directories are not walked.
func LocateConfig(dir, name string) (string, error) {
	if name == "" {
		name = DefaultConfigFile
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, name)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", failure.Newf(failure.ConfigNotFound, "could not find %s at: %s", filepath.Base(name), dir).
				WithContext(failure.CtxPath, path)
		}
		return "", fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if info.IsDir() {
		return "", failure.Newf(failure.ConfigNotFound, "%s is a directory, not a configuration file", path).
			WithContext(failure.CtxPath, path)
	}
	return path, nil
}
