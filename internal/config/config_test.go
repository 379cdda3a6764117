package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tsdoctor/internal/ci"
)

func env(vars map[string]string) ci.Env {
	return ci.Env{Lookup: func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, "typescript", cfg.Engine.Package)
	require.Equal(t, "tsconfig.json", cfg.Project.Config)
	require.Equal(t, "auto", cfg.Output.Format)
	require.Empty(t, cfg.Path)
	require.Empty(t, cfg.Overrides)
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`
[project]
working_directory = "packages/web"

[engine]
package = "typescript"
registry = "https://npm.example.com"
verify = true

[output]
format = "pretty"
context = 2
`), 0o644))

	cfg, err := Load(Options{Dir: dir, Env: env(map[string]string{
		"TSDOCTOR_ENGINE_REGISTRY": "https://mirror.example.com",
		"TSDOCTOR_OUTPUT_CONTEXT":  "not-a-number",
		"TSDOCTOR_ENGINE_VERIFY":   "FALSE",
		"INPUT_FORMAT":             "sarif",
		"INPUT_WORKINGDIRECTORY":   "   ",
	})})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, FileName), cfg.Path)
	require.Equal(t, "packages/web", cfg.Project.WorkingDirectory, "blank input does not override")
	require.Equal(t, "https://mirror.example.com", cfg.Engine.Registry)
	require.False(t, cfg.Engine.Verify)
	require.Equal(t, 2, cfg.Output.Context, "unparsable override is ignored")
	require.Equal(t, "sarif", cfg.Output.Format)
	require.Equal(t, []string{"TSDOCTOR_ENGINE_REGISTRY", "TSDOCTOR_ENGINE_VERIFY", "INPUT_FORMAT"}, cfg.Overrides)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("[engine]\npackag = \"x\"\n"), 0o644))
	_, err := Load(Options{Dir: dir})
	require.ErrorContains(t, err, "unknown keys: engine.packag")
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "missing.toml")})
	require.ErrorContains(t, err, "failed to read config")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Engine.Package = " "
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Output.PathMode = "weird"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Output.Context = -1
	require.Error(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "action.env")
	require.NoError(t, os.WriteFile(path, []byte("INPUT_WORKINGDIRECTORY=examples/app\n"), 0o644))
	t.Setenv("INPUT_WORKINGDIRECTORY", "")
	require.NoError(t, os.Unsetenv("INPUT_WORKINGDIRECTORY"))

	require.NoError(t, LoadEnvFile(path))
	require.Equal(t, "examples/app", os.Getenv("INPUT_WORKINGDIRECTORY"))

	require.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
