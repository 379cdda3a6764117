package diag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBagPreservesOrder(t *testing.T) {
	bag := NewBag(3)
	bag.Add(New(CategoryWarning, 6133, nil, "b"))
	bag.Add(New(CategoryError, 2322, nil, "a"))
	bag.Add(New(CategoryMessage, 6194, nil, "c"))

	items := bag.Items()
	require.Len(t, items, 3)
	require.Equal(t, "b", items[0].Message)
	require.Equal(t, "a", items[1].Message)
	require.Equal(t, "c", items[2].Message)
}

func TestBagCounts(t *testing.T) {
	bag := NewBag(0)
	bag.Add(New(CategoryError, 2322, nil, "x"))
	bag.Add(New(CategoryError, 2345, nil, "y"))
	bag.Add(New(CategorySuggestion, 80001, nil, "z"))

	require.Equal(t, 2, bag.ErrorCount())
	require.Equal(t, 1, bag.Count(CategorySuggestion))
}

func TestNilBagIsEmpty(t *testing.T) {
	var bag *Bag
	require.Equal(t, 0, bag.Len())
	require.Nil(t, bag.Items())
	require.Equal(t, 0, bag.ErrorCount())
}

func TestBagOnlyNonErrors(t *testing.T) {
	bag := NewBag(0)
	bag.Add(New(CategoryWarning, 1, nil, "w"))
	bag.Add(New(CategorySuggestion, 2, nil, "s"))
	bag.Add(New(CategoryMessage, 3, nil, "m"))
	require.Zero(t, bag.ErrorCount())
	require.Equal(t, 3, bag.Len())
}

func TestCategory(t *testing.T) {
	c, err := ParseCategory(1)
	require.NoError(t, err)
	require.Equal(t, CategoryError, c)
	require.Equal(t, "error", c.String())

	_, err = ParseCategory(7)
	require.Error(t, err)
}

func TestPositionHuman(t *testing.T) {
	p := Position{File: "/w/src/a.ts", Line: 2, Column: 4}
	line, col := p.Human()
	require.Equal(t, uint32(3), line)
	require.Equal(t, uint32(5), col)
	require.Equal(t, "/w/src/a.ts:3:5", p.String())
	require.Equal(t, "TS2322", Code(2322).ID())
	require.Equal(t, "", Code(0).ID())
}

func TestFormatShort(t *testing.T) {
	diags := []Diagnostic{
		New(CategoryError, 2322, &Position{File: "/w/src/a.ts", Line: 0, Column: 6},
			"Type 'string' is not assignable to type 'number'.\n  details").
			WithNote(&Position{File: "/w/src/b.ts", Line: 9, Column: 0}, "declared here"),
		New(CategoryMessage, 6194, nil, "Found 1 error."),
	}

	want := "error TS2322 src/a.ts:1:7 Type 'string' is not assignable to type 'number'.   details\n" +
		"note TS2322 src/b.ts:10:1 declared here\n" +
		"message TS6194 Found 1 error."
	require.Equal(t, want, FormatShort(diags, "/w", true))
	require.Equal(t, "", FormatShort(nil, "/w", true))
}

func TestRelPath(t *testing.T) {
	require.Equal(t, "src/a.ts", RelPath("/w/src/a.ts", "/w"))
	require.Equal(t, "/elsewhere/a.ts", RelPath("/elsewhere/a.ts", "/w"))
	require.Equal(t, "lib.d.ts", RelPath("lib.d.ts", "/w"))
}
