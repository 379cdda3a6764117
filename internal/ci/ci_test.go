package ci

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string) Env {
	return Env{Lookup: func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}}
}

func TestInputKey(t *testing.T) {
	require.Equal(t, "INPUT_WORKINGDIRECTORY", InputKey("workingDirectory"))
	require.Equal(t, "INPUT_CONFIG_FILE", InputKey("config file"))
}

func TestInputTrimsAndDefaults(t *testing.T) {
	env := fakeEnv(map[string]string{"INPUT_WORKINGDIRECTORY": "  packages/app \n"})
	require.Equal(t, "packages/app", env.Input("workingDirectory"))
	require.Equal(t, "", env.Input("format"))
	require.Equal(t, "", Env{}.Input("workingDirectory"))
}

func TestInActions(t *testing.T) {
	require.True(t, fakeEnv(map[string]string{"GITHUB_ACTIONS": "true"}).InActions())
	require.False(t, fakeEnv(nil).InActions())
}

func TestSignal(t *testing.T) {
	var buf bytes.Buffer
	require.Equal(t, 0, Signal(&buf, Success()))
	require.Empty(t, buf.String())

	require.Equal(t, 1, Signal(&buf, Failure("Found 1 errors!")))
	require.Equal(t, "::error::Found 1 errors!\n", buf.String())
}

func TestCommandEscaping(t *testing.T) {
	got := Command("warning", []Property{
		{Key: "file", Value: "src/a,b.ts"},
		{Key: "line", Value: "3"},
		{Key: "title", Value: ""},
		{Key: "col", Value: "5"},
	}, "100% wrong\nsecond line")
	require.Equal(t, "::warning file=src/a%2Cb.ts,line=3,col=5::100%25 wrong%0Asecond line\n", got)
}

func TestGroup(t *testing.T) {
	require.Equal(t, "::group::Diagnostics\n", Group("Diagnostics"))
	require.Equal(t, "::endgroup::\n", EndGroup())
}
