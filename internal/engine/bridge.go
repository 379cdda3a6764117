package engine

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"

	"tsdoctor/internal/project"
)

//go:embed bridge.js
var bridgeScript []byte

const bridgeFile = "tsdoctor-bridge.js"

// BridgeScript returns the bundled bridge source.
func BridgeScript() []byte {
	return bridgeScript
}

// writeBridge places the bridge script in dir unless an identical copy is
// already there, and returns its path.
func writeBridge(dir string) (string, error) {
	path := filepath.Join(dir, bridgeFile)
	want := project.Sum(bridgeScript)
	have, err := project.FileDigest(path)
	if err == nil && have == want {
		return path, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	f, err := os.CreateTemp(dir, "bridge-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := f.Write(bridgeScript); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}
