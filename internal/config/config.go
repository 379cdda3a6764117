// Package config assembles run settings from defaults, an optional
// .tsdoctor.toml, TSDOCTOR_* environment variables and CI step inputs, in
// that order of precedence. Command-line flags are applied last by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"tsdoctor/internal/ci"
)

// FileName is the optional configuration file looked up in the directory
// tsdoctor is started from.
const FileName = ".tsdoctor.toml"

// Config is the merged configuration of one run.
type Config struct {
	Project ProjectConfig `toml:"project"`
	Engine  EngineConfig  `toml:"engine"`
	Output  OutputConfig  `toml:"output"`

	// Path is the configuration file that was read, empty when none was.
	Path string `toml:"-"`
	// Overrides lists the environment variables and inputs that changed a
	// setting, for debug logging.
	Overrides []string `toml:"-"`
}

type ProjectConfig struct {
	WorkingDirectory string `toml:"working_directory"`
	// Config is the engine's project configuration file name.
	Config string `toml:"config"`
}

type EngineConfig struct {
	Package  string `toml:"package"`
	Node     string `toml:"node"`
	NPM      string `toml:"npm"`
	Registry string `toml:"registry"`
	CacheDir string `toml:"cache_dir"`
	// Verify asks the loaded engine for its version before checking.
	Verify bool `toml:"verify"`
}

type OutputConfig struct {
	Format   string `toml:"format"`
	PathMode string `toml:"path_mode"`
	Notes    bool   `toml:"notes"`
	Context  int    `toml:"context"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Project: ProjectConfig{Config: "tsconfig.json"},
		Engine: EngineConfig{
			Package: "typescript",
			Node:    "node",
			NPM:     "npm",
		},
		Output: OutputConfig{
			Format:   "auto",
			PathMode: "auto",
			Notes:    true,
		},
	}
}

// Options controls Load.
type Options struct {
	// Dir is searched for FileName when File is empty.
	Dir string
	// File is an explicit configuration file; it must exist.
	File string
	Env  ci.Env
}

// Load merges defaults, the configuration file, environment overrides and
// CI inputs.
func Load(opts Options) (Config, error) {
	cfg := Default()

	path := opts.File
	required := path != ""
	if path == "" {
		path = filepath.Join(opts.Dir, FileName)
	}
	if err := cfg.mergeFile(path, required); err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv(opts.Env)
	cfg.ApplyInputs(opts.Env)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	c.Path = path
	return nil
}

// Validate checks values that the rest of the program cannot recover from.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Engine.Package) == "" {
		return errors.New("engine.package must not be empty")
	}
	if strings.TrimSpace(c.Project.Config) == "" {
		return errors.New("project.config must not be empty")
	}
	switch strings.ToLower(c.Output.PathMode) {
	case "", "auto", "absolute", "relative", "basename":
	default:
		return fmt.Errorf("output.path_mode: unknown mode %q", c.Output.PathMode)
	}
	if c.Output.Context < 0 || c.Output.Context > 20 {
		return fmt.Errorf("output.context must be between 0 and 20, got %d", c.Output.Context)
	}
	return nil
}

// LoadEnvFile adds the variables in a dotenv file to the process
// environment. Variables that are already set keep their value.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
