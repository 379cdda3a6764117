package lockfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClassicFields(t *testing.T) {
	f, err := ParseYarn(classicLock)
	require.NoError(t, err)
	require.False(t, f.Berry)
	require.Len(t, f.Entries, 3)

	types := f.Entries[0]
	require.Equal(t, []string{"@types/node@^18.0.0"}, types.Specs)
	deps, ok := types.Fields["dependencies"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "~5.26.4", deps["undici-types"])

	ts := f.Entries[1]
	require.Equal(t, []string{"typescript@^4.9.5", "typescript@~4.9.0"}, ts.Specs)
	require.Equal(t, "4.9.5", ts.Fields["version"])
	require.Equal(t, 11, ts.Line)
}

func TestParseClassicScalars(t *testing.T) {
	f, err := ParseYarn("foo@1:\n  version \"1.0.0\"\n  optional true\n  weight 12\n  \"quoted key\" bare\n")
	require.NoError(t, err)
	fields := f.Entries[0].Fields
	require.Equal(t, true, fields["optional"])
	require.Equal(t, float64(12), fields["weight"])
	require.Equal(t, "bare", fields["quoted key"])
}

func TestParseClassicSyntaxErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
	}{
		{"field before entry", "  version \"1.0.0\"\n", 1},
		{"missing value", "foo@1:\n  version\n", 2},
		{"unterminated", "foo@1:\n  version \"1.0.0\n", 2},
		{"tab indent", "foo@1:\n\tversion \"1.0.0\"\n", 2},
		{"too deep", "foo@1:\n    version \"1.0.0\"\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYarn(tt.content)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			require.Equal(t, tt.line, se.Line)
		})
	}
}

func TestParseBerryOrder(t *testing.T) {
	f, err := ParseYarn(berryLock)
	require.NoError(t, err)
	require.True(t, f.Berry)
	require.Len(t, f.Entries, 2)
	require.Equal(t, []string{"left-pad@npm:^1.3.0"}, f.Entries[0].Specs)
	require.Equal(t, []string{"typescript@npm:^5.0.0", "typescript@npm:~5.0.0"}, f.Entries[1].Specs)

	_, spec, ok := f.Find("typescript@")
	require.True(t, ok)
	require.Equal(t, "typescript@npm:^5.0.0", spec)
}

func TestParseBerryInvalid(t *testing.T) {
	_, err := ParseYarn("__metadata:\n  version: 6\n\"typescript@npm:^5\": [unclosed\n")
	require.Error(t, err)
}

func TestFindOnNilFile(t *testing.T) {
	var f *YarnFile
	_, _, ok := f.Find("typescript@")
	require.False(t, ok)
}
