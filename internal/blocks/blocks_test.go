package blocks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablerecover/tablerecover/internal/blocks"
	"github.com/tablerecover/tablerecover/internal/config"
	"github.com/tablerecover/tablerecover/internal/grid"
)

func gridFrom(rows [][]string) *grid.Grid {
	s := grid.Sheet{Rows: len(rows), Cols: len(rows[0]), Values: rows}
	return grid.Build(s, false)
}

func TestSplitSingleDenseTable(t *testing.T) {
	g := gridFrom([][]string{
		{"Name", "Qty", "Price"},
		{"Widget", "3", "9.99"},
		{"Gadget", "1", "19.99"},
		{"Gizmo", "7", "4.50"},
	})
	o := config.Default()
	bs := blocks.Split(g, o)
	require.Len(t, bs, 1)
	b := bs[0]
	assert.Equal(t, 0, b.R0)
	assert.Equal(t, 4, b.R1)
	assert.Equal(t, 0, b.C0)
	assert.Equal(t, 3, b.C1)
	assert.Equal(t, "b1", b.ID)
}

func TestSplitTwoSideBySideTables(t *testing.T) {
	rows := make([][]string, 6)
	for r := range rows {
		rows[r] = make([]string, 7)
	}
	// left table columns 0-2, right table columns 4-6, col 3 stays empty.
	for r := 0; r < 6; r++ {
		rows[r][0] = "a"
		rows[r][1] = "b"
		rows[r][2] = "c"
		rows[r][4] = "d"
		rows[r][5] = "e"
		rows[r][6] = "f"
	}
	g := gridFrom(rows)
	o := config.Default()
	o.HoleToleranceRows = 0
	o.HoleToleranceCols = 0
	bs := blocks.Split(g, o)
	require.Len(t, bs, 2)
	assert.Equal(t, 0, bs[0].C0)
	assert.Equal(t, 3, bs[0].C1)
	assert.Equal(t, 4, bs[1].C0)
	assert.Equal(t, 7, bs[1].C1)
}

func TestSizeFilterDropsTinyComponents(t *testing.T) {
	rows := [][]string{
		{"x", "", "", "", ""},
		{"", "", "", "", ""},
		{"", "", "A", "B", "C"},
		{"", "", "1", "2", "3"},
		{"", "", "4", "5", "6"},
	}
	g := gridFrom(rows)
	o := config.Default()
	o.HoleToleranceRows = 0
	o.HoleToleranceCols = 0
	o.MinBlockHeight = 3
	o.MinBlockWidth = 3
	bs := blocks.Split(g, o)
	for _, b := range bs {
		assert.GreaterOrEqual(t, b.Height(), o.MinBlockHeight)
		assert.GreaterOrEqual(t, b.Width(), o.MinBlockWidth)
	}
}

func TestHoleToleranceBridgesGap(t *testing.T) {
	rows := [][]string{
		{"a", "", "c"},
		{"d", "", "f"},
	}
	g := gridFrom(rows)
	o := config.Default()
	o.HoleToleranceCols = 1
	o.MinBlockWidth = 2
	bs := blocks.Split(g, o)
	require.Len(t, bs, 1)
	assert.Equal(t, 0, bs[0].C0)
	assert.Equal(t, 3, bs[0].C1)
}
