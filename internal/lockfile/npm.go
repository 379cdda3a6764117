package lockfile

import (
	"encoding/json"
	"fmt"
)

// NPMFile is the subset of package-lock.json the resolver reads.
//
// Lockfile v1 and v2 carry a "dependencies" map keyed by package name.
// Lockfile v3 drops it and only has "packages" keyed by install path
// ("node_modules/typescript").
type NPMFile struct {
	LockfileVersion int                        `json:"lockfileVersion"`
	Dependencies    map[string]json.RawMessage `json:"dependencies"`
	Packages        map[string]json.RawMessage `json:"packages"`
}

// ParseNPM decodes package-lock.json content.
func ParseNPM(content []byte) (*NPMFile, error) {
	var f NPMFile
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return &f, nil
}

// Lookup returns the raw record for pkg and the key it was found under.
func (f *NPMFile) Lookup(pkg string) (json.RawMessage, string, bool) {
	if f == nil {
		return nil, "", false
	}
	if f.Dependencies != nil {
		raw, ok := f.Dependencies[pkg]
		if ok && !isJSONNull(raw) {
			return raw, "dependencies." + pkg, true
		}
		return nil, "", false
	}
	key := "node_modules/" + pkg
	if raw, ok := f.Packages[key]; ok && !isJSONNull(raw) {
		return raw, "packages." + key, true
	}
	return nil, "", false
}

// versionField extracts "version" from a record. ok is false when the record
// is not an object or the field is absent or not a string.
func versionField(raw json.RawMessage) (string, bool) {
	var rec map[string]any
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", false
	}
	v, ok := rec["version"].(string)
	return v, ok
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
