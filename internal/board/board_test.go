package board

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// #region helpers
func grid4(geoms ...Geom) Board {
	return New(4, 4, geoms)
}

// #endregion helpers

// #region geometry-tests
func TestRowCol_RoundTrip(t *testing.T) {
	b := New(5, 3, nil)
	for pos := 1; pos <= b.Cells(); pos++ {
		row, col := b.RowCol(pos)
		assert.Equal(t, pos, b.Cell(row, col))
	}
	row, col := b.RowCol(7)
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)
}

func TestStep_Edges(t *testing.T) {
	b := grid4()

	_, ok := b.Step(1, Up)
	assert.False(t, ok, "up from row 0")
	_, ok = b.Step(1, Left)
	assert.False(t, ok, "left from col 0")
	_, ok = b.Step(16, Down)
	assert.False(t, ok, "down from last row")
	_, ok = b.Step(16, Right)
	assert.False(t, ok, "right from last col")

	p, ok := b.Step(1, Right)
	require.True(t, ok)
	assert.Equal(t, 2, p)
	p, ok = b.Step(1, Down)
	require.True(t, ok)
	assert.Equal(t, 5, p)
	p, ok = b.Step(6, Up)
	require.True(t, ok)
	assert.Equal(t, 2, p)
	p, ok = b.Step(6, Left)
	require.True(t, ok)
	assert.Equal(t, 5, p)
}

func TestTopStack(t *testing.T) {
	b := grid4(Geom{2, 0, 1}, Geom{2, 1, 1}, Geom{3, 0, 1}, Geom{2, -1, 1})
	assert.Equal(t, 1, b.TopStack(2, -1))
	assert.Equal(t, 0, b.TopStack(2, 1))
	assert.Equal(t, -1, b.TopStack(4, -1))
	assert.True(t, b.Occupied(3))
	assert.False(t, b.Occupied(4))
}

func TestFreeCells(t *testing.T) {
	b := New(2, 2, []Geom{{1, 0, 1}, {4, 0, 1}, {2, -1, 1}})
	assert.Equal(t, []int{2, 3}, b.FreeCells())
}

func TestDistance(t *testing.T) {
	b := grid4()
	assert.Equal(t, 0, b.Distance(6, 6))
	assert.Equal(t, 1, b.Distance(1, 2))
	assert.Equal(t, 6, b.Distance(1, 16))
	assert.Equal(t, 2, b.Distance(2, 5))
}

// #endregion geometry-tests

// #region validate-tests
func TestValidate_OK(t *testing.T) {
	b := grid4(Geom{1, 0, 1}, Geom{1, 1, 12}, Geom{0, -1, 0})
	require.NoError(t, b.Validate())
}

func TestValidate_Violations(t *testing.T) {
	cases := []struct {
		name  string
		geoms []Geom
		index int
	}{
		{"position low", []Geom{{0, 0, 1}}, 0},
		{"position high", []Geom{{1, 0, 1}, {17, 0, 1}}, 1},
		{"orientation zero", []Geom{{1, 0, 0}}, 0},
		{"orientation high", []Geom{{1, 0, 13}}, 0},
		{"duplicate slot", []Geom{{3, 0, 1}, {3, 0, 2}}, 1},
		{"stack below off", []Geom{{3, -2, 1}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := grid4(tc.geoms...).Validate()
			var ie *InvariantError
			require.True(t, errors.As(err, &ie), "expected InvariantError, got %v", err)
			assert.Equal(t, tc.index, ie.Index)
		})
	}
}

// #endregion validate-tests

// #region compare-tests
func TestEqual_IgnoresOffBoardFields(t *testing.T) {
	a := grid4(Geom{1, 0, 1}, Geom{5, -1, 3})
	b := grid4(Geom{1, 0, 1}, Geom{9, -1, 7})
	assert.True(t, a.Equal(b))

	c := grid4(Geom{1, 0, 2}, Geom{5, -1, 3})
	assert.False(t, a.Equal(c), "orientation differs on-board")

	d := grid4(Geom{1, 0, 1}, Geom{5, 0, 3})
	assert.False(t, a.Equal(d), "on/off mismatch")
}

func TestPosKey_ExcludesOrientation(t *testing.T) {
	a := grid4(Geom{1, 0, 1}, Geom{5, -1, 3})
	b := grid4(Geom{1, 0, 9}, Geom{2, -1, 4})
	assert.Equal(t, a.PosKey(), b.PosKey())

	c := grid4(Geom{1, 1, 1}, Geom{5, -1, 3})
	assert.NotEqual(t, a.PosKey(), c.PosKey())
}

func TestManhattan_OnlyBothOnBoard(t *testing.T) {
	start := grid4(Geom{1, 0, 1}, Geom{2, 0, 1}, Geom{3, -1, 1})
	goal := grid4(Geom{16, 0, 1}, Geom{2, -1, 1}, Geom{4, 0, 1})
	assert.Equal(t, 6, start.Manhattan(goal))
}

// #endregion compare-tests

// #region serialise-tests
func TestFlatten(t *testing.T) {
	b := New(3, 2, []Geom{{1, 0, 4}, {6, -1, 2}})
	assert.Equal(t, "3x2|1,0,4;6,-1,2", b.Flatten())
}

func TestPairHash_DistinguishesOrder(t *testing.T) {
	a := grid4(Geom{1, 0, 1})
	b := grid4(Geom{2, 0, 1})
	assert.Len(t, PairHash(a, b), 32)
	assert.Equal(t, PairHash(a, b), PairHash(a.Clone(), b.Clone()))
	assert.NotEqual(t, PairHash(a, b), PairHash(b, a))
}

func TestGeomJSON_RoundTrip(t *testing.T) {
	in := []Geom{{1, 0, 4}, {6, -1, 2}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,0,4],[6,-1,2]]`, string(data))

	var out []Geom
	require.NoError(t, json.Unmarshal(data, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("geoms mismatch (-want +got):\n%s", diff)
	}
}

func TestGeomJSON_BadArity(t *testing.T) {
	var g Geom
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &g))
}

func TestString(t *testing.T) {
	b := New(2, 1, []Geom{{1, 0, 3}, {1, 1, 5}, {2, -1, 1}})
	assert.Equal(t, "[0:0@3 1:1@5] .\noff: 2\n", b.String())
}

func TestString_LabelsAboveGeomCount(t *testing.T) {
	// Geom 0 left cell 1 and came back on top of geom 1, so its label is 2
	// with only two geoms on the board.
	b := New(2, 2, []Geom{{1, 2, 1}, {1, 1, 1}})
	require.NoError(t, b.Validate())
	assert.Equal(t, "[1:1@1 0:2@1] .\n. .\n", b.String())

	for i := range b.Geoms {
		assert.Contains(t, b.String(), strconv.Itoa(i)+":", "geom %d missing from rendering", i)
	}
}

// #endregion serialise-tests

// #region with-tests
func TestWith_DoesNotAlias(t *testing.T) {
	a := grid4(Geom{1, 0, 1})
	b := a.With(0, Geom{2, 0, 1})
	assert.Equal(t, 1, a.Geoms[0].Pos)
	assert.Equal(t, 2, b.Geoms[0].Pos)
}

func TestParseDirection(t *testing.T) {
	for _, d := range Directions {
		got, err := ParseDirection(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDirection("sideways")
	assert.Error(t, err)
}

// #endregion with-tests
