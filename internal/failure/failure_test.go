package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(LockFileNotFound, "no lock file found.")
	require.Equal(t, "no lock file found.", err.Error())

	wrapped := Wrap(errors.New("exit status 1"), EngineLoadFailure, "failed to install typescript@5.0.0")
	require.Equal(t, "failed to install typescript@5.0.0: exit status 1", wrapped.Error())
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(EngineNotFound, "could not find typescript in yarn.lock")
	err := fmt.Errorf("resolve: %w", base)

	require.Equal(t, EngineNotFound, KindOf(err))
	require.True(t, Is(err, EngineNotFound))
	require.False(t, Is(err, ParseError))
}

func TestKindOfUnclassified(t *testing.T) {
	require.Equal(t, UnexpectedException, KindOf(errors.New("boom")))
	require.False(t, Is(nil, UnexpectedException))
}

func TestWithContextKeepsMessage(t *testing.T) {
	err := New(ConfigNotFound, "could not find tsconfig.json at: /tmp/x").
		WithContext(CtxPath, "/tmp/x")
	require.Equal(t, "could not find tsconfig.json at: /tmp/x", err.Error())
	require.Equal(t, "/tmp/x", err.Context[CtxPath])
}

func TestFromPanic(t *testing.T) {
	err := FromPanic("nil map")
	require.Equal(t, UnexpectedException, err.Kind)
	require.Contains(t, err.Error(), "nil map")

	err = FromPanic(errors.New("index out of range"))
	require.ErrorContains(t, err, "index out of range")
}
