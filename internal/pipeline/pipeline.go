// Package pipeline runs a check: it resolves the working directory, locates
// the project configuration, resolves and loads the pinned engine version,
// computes semantic diagnostics, reports them and classifies the outcome.
//
// Stages run strictly in order and the first error stops the check. Errors
// are turned into a failed ci.Result only in Run; nothing below it signals
// the CI platform.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"tsdoctor/internal/ci"
	"tsdoctor/internal/diag"
	"tsdoctor/internal/doctor"
	"tsdoctor/internal/engine"
	"tsdoctor/internal/failure"
	"tsdoctor/internal/observ"
	"tsdoctor/internal/project"
	"tsdoctor/internal/trace"
)

// VersionResolver finds the pinned engine version for a directory.
type VersionResolver interface {
	Resolve(dir string) (string, error)
}

// EngineLoader turns a version into a loaded engine.
type EngineLoader interface {
	Load(ctx context.Context, version string) (engine.Engine, error)
}

// Reporter emits the computed diagnostics.
type Reporter interface {
	Report(bag *diag.Bag) error
}

// Request configures one check.
type Request struct {
	// WorkingDirectory defaults to the process's current directory.
	WorkingDirectory string
	// ConfigFile is the configuration file name inside the directory,
	// project.DefaultConfigFile when empty.
	ConfigFile string
	Resolver   VersionResolver
	Loader     EngineLoader
	Progress   ProgressSink
	Timer      *observ.Timer
	Log        *slog.Logger
}

// Result is what a check produced before reporting.
type Result struct {
	Dir        string
	ConfigPath string
	Version    string
	// Diagnostics is nil when the configuration yielded no program.
	Diagnostics *diag.Bag
	Timings     Timings
}

// Check runs every stage up to and including diagnostics computation.
func Check(ctx context.Context, req *Request) (Result, error) {
	var res Result
	log := logger(req)

	err := runStage(ctx, req, &res, StageResolveDirectory, func(context.Context) (string, error) {
		dir, err := project.ResolveDirectory(req.WorkingDirectory)
		res.Dir = dir
		return dir, err
	})
	if err != nil {
		return res, err
	}

	err = runStage(ctx, req, &res, StageLocateConfig, func(context.Context) (string, error) {
		name := req.ConfigFile
		if name == "" {
			name = project.DefaultConfigFile
		}
		path, err := project.LocateConfig(res.Dir, name)
		res.ConfigPath = path
		return path, err
	})
	if err != nil {
		return res, err
	}

	err = runStage(ctx, req, &res, StageResolveVersion, func(context.Context) (string, error) {
		if req.Resolver == nil {
			return "", errors.New("no version resolver configured")
		}
		v, err := req.Resolver.Resolve(res.Dir)
		res.Version = v
		return v, err
	})
	if err != nil {
		return res, err
	}
	log.Info("resolved engine version", "dir", res.Dir, "version", res.Version)

	var eng engine.Engine
	err = runStage(ctx, req, &res, StageLoadEngine, func(ctx context.Context) (string, error) {
		if req.Loader == nil {
			return "", errors.New("no engine loader configured")
		}
		var err error
		eng, err = req.Loader.Load(ctx, res.Version)
		if err != nil {
			return "", err
		}
		return eng.Version(), nil
	})
	if err != nil {
		return res, err
	}

	err = runStage(ctx, req, &res, StageComputeDiagnostics, func(ctx context.Context) (string, error) {
		bag, err := doctor.FromConfigFile(res.ConfigPath, eng, log).SemanticDiagnostics(ctx)
		res.Diagnostics = bag
		if bag == nil {
			return "no program", err
		}
		return fmt.Sprintf("%d diagnostics", bag.Len()), err
	})
	return res, err
}

// Classify fails when the collection holds at least one error. A nil bag is
// a success.
func Classify(bag *diag.Bag) ci.Result {
	if n := bag.ErrorCount(); n > 0 {
		return ci.Failuref("Found %d errors!", n)
	}
	return ci.Success()
}

// Run performs a whole check and reports the diagnostics with rep. It is
// the single place where errors and panics become a failed ci.Result; the
// caller signals that result to the CI platform.
func Run(ctx context.Context, req *Request, rep Reporter) (res Result, out ci.Result) {
	log := logger(req)
	span, ctx := trace.Start(ctx, trace.ScopeRun, "check")
	defer func() {
		if r := recover(); r != nil {
			err := failure.FromPanic(r)
			log.Error("check panicked", "kind", err.Kind, "error", err)
			out = ci.Failure(err.Error())
		}
		if out.Failed {
			span.End(out.Message)
		} else {
			span.End("ok")
		}
	}()

	res, err := Check(ctx, req)
	if err != nil {
		return res, fail(log, err)
	}

	err = runStage(ctx, req, &res, StageReport, func(context.Context) (string, error) {
		if rep == nil {
			return "", nil
		}
		return fmt.Sprintf("%d diagnostics", res.Diagnostics.Len()), rep.Report(res.Diagnostics)
	})
	if err != nil {
		return res, fail(log, fmt.Errorf("failed to report diagnostics: %w", err))
	}

	_ = runStage(ctx, req, &res, StageClassify, func(context.Context) (string, error) {
		out = Classify(res.Diagnostics)
		if out.Failed {
			return out.Message, nil
		}
		return "passed", nil
	})
	return res, out
}

func fail(log *slog.Logger, err error) ci.Result {
	args := []any{"kind", failure.KindOf(err), "error", err}
	var fe *failure.Error
	if errors.As(err, &fe) {
		keys := make([]string, 0, len(fe.Context))
		for k := range fe.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			args = append(args, k, fe.Context[k])
		}
	}
	log.Debug("check failed", args...)
	return ci.Failure(err.Error())
}

func runStage(ctx context.Context, req *Request, res *Result, stage Stage, fn func(context.Context) (string, error)) error {
	span, sctx := trace.Start(ctx, trace.ScopeStage, string(stage))
	idx := req.Timer.Begin(string(stage))
	emit(req.Progress, Event{Stage: stage, Status: StatusWorking})
	start := time.Now()

	detail, err := fn(sctx)

	elapsed := time.Since(start)
	res.Timings.Set(stage, elapsed)
	if err != nil {
		req.Timer.End(idx, "failed")
		span.End("error: " + err.Error())
		emit(req.Progress, Event{Stage: stage, Status: StatusError, Err: err, Elapsed: elapsed})
		return err
	}
	req.Timer.End(idx, detail)
	span.End(detail)
	emit(req.Progress, Event{Stage: stage, Status: StatusDone, Detail: detail, Elapsed: elapsed})
	return nil
}

func emit(sink ProgressSink, evt Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(evt)
}

func logger(req *Request) *slog.Logger {
	if req.Log != nil {
		return req.Log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
