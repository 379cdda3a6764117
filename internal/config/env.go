package config

import (
	"strconv"
	"strings"

	"tsdoctor/internal/ci"
)

// EnvPrefix prefixes every environment override, e.g. TSDOCTOR_ENGINE_PACKAGE.
const EnvPrefix = "TSDOCTOR_"

// ApplyEnv applies TSDOCTOR_<SECTION>_<KEY> overrides. Values that do not
// parse are ignored.
func (c *Config) ApplyEnv(env ci.Env) {
	// Project
	c.setString(env, &c.Project.WorkingDirectory, EnvPrefix+"PROJECT_WORKING_DIRECTORY")
	c.setString(env, &c.Project.Config, EnvPrefix+"PROJECT_CONFIG")

	// Engine
	c.setString(env, &c.Engine.Package, EnvPrefix+"ENGINE_PACKAGE")
	c.setString(env, &c.Engine.Node, EnvPrefix+"ENGINE_NODE")
	c.setString(env, &c.Engine.NPM, EnvPrefix+"ENGINE_NPM")
	c.setString(env, &c.Engine.Registry, EnvPrefix+"ENGINE_REGISTRY")
	c.setString(env, &c.Engine.CacheDir, EnvPrefix+"ENGINE_CACHE_DIR")
	c.setBool(env, &c.Engine.Verify, EnvPrefix+"ENGINE_VERIFY")

	// Output
	c.setString(env, &c.Output.Format, EnvPrefix+"OUTPUT_FORMAT")
	c.setString(env, &c.Output.PathMode, EnvPrefix+"OUTPUT_PATH_MODE")
	c.setBool(env, &c.Output.Notes, EnvPrefix+"OUTPUT_NOTES")
	c.setInt(env, &c.Output.Context, EnvPrefix+"OUTPUT_CONTEXT")
}

// ApplyInputs applies CI step inputs. Empty inputs are treated as unset,
// since the runner passes every declared input even when the workflow does
// not set it.
func (c *Config) ApplyInputs(env ci.Env) {
	c.setInput(env, &c.Project.WorkingDirectory, "workingDirectory")
	c.setInput(env, &c.Project.Config, "configFile")
	c.setInput(env, &c.Engine.Package, "enginePackage")
	c.setInput(env, &c.Engine.Registry, "registry")
	c.setInput(env, &c.Engine.CacheDir, "cacheDir")
	c.setInput(env, &c.Output.Format, "format")
}

func (c *Config) setString(env ci.Env, target *string, key string) {
	if val, ok := lookup(env, key); ok {
		c.Overrides = append(c.Overrides, key)
		*target = val
	}
}

func (c *Config) setBool(env ci.Env, target *bool, key string) {
	if val, ok := lookup(env, key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(val))); err == nil {
			c.Overrides = append(c.Overrides, key)
			*target = b
		}
	}
}

func (c *Config) setInt(env ci.Env, target *int, key string) {
	if val, ok := lookup(env, key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			c.Overrides = append(c.Overrides, key)
			*target = i
		}
	}
}

func (c *Config) setInput(env ci.Env, target *string, name string) {
	if val := env.Input(name); val != "" {
		c.Overrides = append(c.Overrides, ci.InputKey(name))
		*target = val
	}
}

func lookup(env ci.Env, key string) (string, bool) {
	if env.Lookup == nil {
		return "", false
	}
	return env.Lookup(key)
}
