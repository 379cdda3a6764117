// Package failure defines the error taxonomy shared by the check pipeline.
//
// Every error that terminates a run carries a Kind. The orchestrator does not
// branch on kinds (all of them are fatal), but tests and the CLI use them to
// tell failure causes apart without matching on message text.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a terminal pipeline error.
type Kind string

const (
	LockFileNotFound    Kind = "LOCK_FILE_NOT_FOUND"
	ParseError          Kind = "PARSE_ERROR"
	EngineNotFound      Kind = "ENGINE_NOT_FOUND"
	VersionFieldMissing Kind = "VERSION_FIELD_MISSING"
	ConfigNotFound      Kind = "CONFIG_NOT_FOUND"
	EngineLoadFailure   Kind = "ENGINE_LOAD_FAILURE"
	// UnexpectedException covers anything outside the taxonomy, including recovered panics.
	UnexpectedException Kind = "UNEXPECTED_EXCEPTION"
)

// Context keys attached by producers.
const (
	CtxPath    = "path"
	CtxVersion = "version"
	CtxPackage = "package"
)

// Error is a classified pipeline error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithContext records a key/value pair for logs. It does not change Error().
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New returns an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind.
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// UnexpectedException when there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return UnexpectedException
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// FromPanic converts a recovered value into an UnexpectedException.
func FromPanic(r any) *Error {
	if err, ok := r.(error); ok {
		return Wrap(err, UnexpectedException, "unexpected exception")
	}
	return Newf(UnexpectedException, "unexpected exception: %v", r)
}
