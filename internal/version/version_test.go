package version

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestSummary(t *testing.T) {
	withVersion(t, "1.2.3", "abc123def456", "2024-01-15T10:30:00Z")
	require.Equal(t, "tsdoctor 1.2.3\ncommit: abc123def456\nbuilt:  2024-01-15T10:30:00Z\n", Summary(false))

	withVersion(t, "1.2.3", "", "")
	require.Equal(t, "tsdoctor 1.2.3\n", Summary(false))
}

func TestColoredKeepsSuffix(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	for _, v := range []string{"0.1.0-dev", "1.2.3-rc.1+build.123", "1.0.0", "dev"} {
		withVersion(t, v, "", "")
		require.Equal(t, v, Colored())
	}
}
