package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tsdoctor/internal/failure"
)

const classicLock = `# THIS IS AN AUTOGENERATED FILE. DO NOT EDIT THIS FILE DIRECTLY.
# yarn lockfile v1


"@types/node@^18.0.0":
  version "18.19.3"
  resolved "https://registry.yarnpkg.com/@types/node/-/node-18.19.3.tgz"
  dependencies:
    undici-types "~5.26.4"

typescript@^4.9.5, typescript@~4.9.0:
  version "4.9.5"
  resolved "https://registry.yarnpkg.com/typescript/-/typescript-4.9.5.tgz"
  integrity sha512-1FXk9E2Hm+QzZQ7z+McJiHL4NW1F995ZXV/nLGnchwRq0/wFhvkSrHa/nQoZ7UUNNfM3Fy+5eFQ9c5aq4DxgeA==

undici-types@~5.26.4:
  version "5.26.5"
`

const berryLock = `# This file is generated by running "yarn install" inside your project.

__metadata:
  version: 6
  cacheKey: 8

"left-pad@npm:^1.3.0":
  version: 1.3.0
  resolution: "left-pad@npm:1.3.0"

"typescript@npm:^5.0.0, typescript@npm:~5.0.0":
  version: 5.0.4
  resolution: "typescript@npm:5.0.4"
  bin:
    tsc: bin/tsc
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestResolveYarnClassic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, YarnLock, classicLock)

	v, err := NewResolver("").Resolve(dir)
	require.NoError(t, err)
	require.Equal(t, "4.9.5", v)

	e, err := NewResolver("").Lookup(dir)
	require.NoError(t, err)
	require.Equal(t, "typescript@^4.9.5", e.Name)
	require.Equal(t, FormatYarnClassic, e.Format)
	require.Equal(t, filepath.Join(dir, YarnLock), e.Path)
}

func TestResolveYarnBerry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, YarnLock, berryLock)

	e, err := NewResolver("typescript").Lookup(dir)
	require.NoError(t, err)
	require.Equal(t, "5.0.4", e.Version)
	require.Equal(t, "typescript@npm:^5.0.0", e.Name)
	require.Equal(t, FormatYarnBerry, e.Format)
}

func TestResolveNPM(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, NPMLock, `{"dependencies":{"typescript":{"version":"5.1.0"}}}`)

	v, err := NewResolver("").Resolve(dir)
	require.NoError(t, err)
	require.Equal(t, "5.1.0", v)
}

func TestResolveNPMv3Packages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, NPMLock, `{
  "name": "app",
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "app"},
    "node_modules/typescript": {"version": "5.3.3", "dev": true}
  }
}`)

	e, err := NewResolver("").Lookup(dir)
	require.NoError(t, err)
	require.Equal(t, "5.3.3", e.Version)
	require.Equal(t, "packages.node_modules/typescript", e.Name)
}

func TestYarnTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, YarnLock, classicLock)
	writeFile(t, dir, NPMLock, `{"dependencies":{"typescript":{"version":"5.1.0"}}}`)

	e, err := NewResolver("").Lookup(dir)
	require.NoError(t, err)
	require.Equal(t, "4.9.5", e.Version)
	require.Equal(t, FormatYarnClassic, e.Format)

	// A broken yarn.lock is not skipped in favour of the npm lock.
	writeFile(t, dir, YarnLock, "typescript@^4.9.5:\n  version \"4.9.5\n")
	_, err = NewResolver("").Resolve(dir)
	require.True(t, failure.Is(err, failure.ParseError), "got %v", err)
}

func TestResolveNoLockFile(t *testing.T) {
	_, err := NewResolver("").Resolve(t.TempDir())
	require.True(t, failure.Is(err, failure.LockFileNotFound), "got %v", err)
	require.EqualError(t, err, "no lock file found.")
}

func TestResolveEngineNotFound(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"yarn", YarnLock, "left-pad@^1.3.0:\n  version \"1.3.0\"\n"},
		{"yarn case sensitive", YarnLock, "TypeScript@^5.0.0:\n  version \"5.0.0\"\n"},
		{"yarn prefix only", YarnLock, "typescript-eslint@^6.0.0:\n  version \"6.0.0\"\n"},
		{"npm", NPMLock, `{"dependencies":{"left-pad":{"version":"1.3.0"}}}`},
		{"npm empty", NPMLock, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)
			_, err := NewResolver("").Resolve(dir)
			require.True(t, failure.Is(err, failure.EngineNotFound), "got %v", err)
		})
	}
}

func TestResolveVersionFieldMissing(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"yarn absent", YarnLock, "typescript@^5.0.0:\n  resolved \"x\"\n"},
		{"yarn number", YarnLock, "typescript@^5.0.0:\n  version 5\n"},
		{"berry number", YarnLock, "__metadata:\n  version: 6\n\n\"typescript@npm:^5.0.0\":\n  version: 5\n"},
		{"npm absent", NPMLock, `{"dependencies":{"typescript":{"resolved":"x"}}}`},
		{"npm not string", NPMLock, `{"dependencies":{"typescript":{"version":5}}}`},
		{"npm not object", NPMLock, `{"dependencies":{"typescript":"5.0.0"}}`},
		{"npm empty", NPMLock, `{"dependencies":{"typescript":{"version":""}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)
			_, err := NewResolver("").Resolve(dir)
			require.True(t, failure.Is(err, failure.VersionFieldMissing), "got %v", err)
		})
	}
}

func TestResolveParseErrors(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"merge conflict", YarnLock, "<<<<<<< HEAD\ntypescript@^5.0.0:\n  version \"5.0.0\"\n"},
		{"bad header", YarnLock, "typescript@^5.0.0\n  version \"5.0.0\"\n"},
		{"odd indent", YarnLock, "typescript@^5.0.0:\n   version \"5.0.0\"\n"},
		{"npm json", NPMLock, `{"dependencies":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)
			_, err := NewResolver("").Resolve(dir)
			require.True(t, failure.Is(err, failure.ParseError), "got %v", err)
			require.Contains(t, err.Error(), "failed to parse lock file")
		})
	}
}

func TestResolveCustomPackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, YarnLock, classicLock)
	v, err := NewResolver("undici-types").Resolve(dir)
	require.NoError(t, err)
	require.Equal(t, "5.26.5", v)
}

func TestResolveIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, YarnLock, classicLock+"\ntypescript@^5.0.0:\n  version \"5.0.0\"\n")

	first, err := NewResolver("").Resolve(dir)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		v, err := NewResolver("").Resolve(dir)
		require.NoError(t, err)
		require.Equal(t, first, v)
	}
	require.Equal(t, "4.9.5", first)
}
