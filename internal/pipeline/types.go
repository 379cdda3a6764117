package pipeline

import "time"

// Stage is one step of a check, in execution order.
type Stage string

const (
	StageResolveDirectory   Stage = "resolve-directory"
	StageLocateConfig       Stage = "locate-config"
	StageResolveVersion     Stage = "resolve-version"
	StageLoadEngine         Stage = "load-engine"
	StageComputeDiagnostics Stage = "compute-diagnostics"
	StageReport             Stage = "report"
	StageClassify           Stage = "classify"
)

// Stages lists every stage in the order a check runs them.
var Stages = []Stage{
	StageResolveDirectory,
	StageLocateConfig,
	StageResolveVersion,
	StageLoadEngine,
	StageComputeDiagnostics,
	StageReport,
	StageClassify,
}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the stage has not started.
	StatusQueued Status = "queued"
	// StatusWorking indicates the stage is running.
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusError indicates the stage failed and the check stopped.
	StatusError Status = "error"
)

// Event reports progress for one stage.
type Event struct {
	Stage   Stage
	Status  Status
	Detail  string // e.g. the resolved version once StageResolveVersion is done
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum returns the total duration of the given stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
