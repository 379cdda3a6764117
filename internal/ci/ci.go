// Package ci is a thin shim over the CI platform's step protocol: reading
// step inputs from the environment and writing workflow commands to the log.
//
// The failure flag of a step is modelled as a Result value. Only the outermost
// caller turns a Result into the platform signal (Signal), so no package below
// cmd/ mutates process-wide state.
package ci

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// LookupEnv matches os.LookupEnv; tests replace it.
type LookupEnv func(key string) (string, bool)

// Env reads step inputs and platform variables.
type Env struct {
	Lookup LookupEnv
}

// OSEnv returns an Env backed by the process environment.
func OSEnv() Env {
	return Env{Lookup: os.LookupEnv}
}

// InputKey returns the environment key under which the platform exposes input
// name: spaces become underscores and the name is upper-cased.
func InputKey(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// Input returns the trimmed value of the named step input, or "" when unset.
func (e Env) Input(name string) string {
	if e.Lookup == nil {
		return ""
	}
	v, ok := e.Lookup(InputKey(name))
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// InActions reports whether the process runs inside a GitHub Actions job.
func (e Env) InActions() bool {
	if e.Lookup == nil {
		return false
	}
	v, _ := e.Lookup("GITHUB_ACTIONS")
	return v == "true"
}

// Workspace returns the checkout directory of the job, if the platform set one.
func (e Env) Workspace() string {
	if e.Lookup == nil {
		return ""
	}
	v, _ := e.Lookup("GITHUB_WORKSPACE")
	return v
}

// Result is the pass/fail outcome of one step.
type Result struct {
	Failed  bool
	Message string
}

// Success is the passing Result.
func Success() Result { return Result{} }

// Failure returns a failed Result carrying msg.
func Failure(msg string) Result { return Result{Failed: true, Message: msg} }

// Failuref is Failure with a format string.
func Failuref(format string, args ...any) Result {
	return Failure(fmt.Sprintf(format, args...))
}

// Signal writes the failure annotation for r (if any) and returns the process
// exit code the step must end with.
func Signal(w io.Writer, r Result) int {
	if !r.Failed {
		return 0
	}
	if w != nil {
		_, _ = io.WriteString(w, Command("error", nil, r.Message))
	}
	return 1
}
