package headers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablerecover/tablerecover/internal/blocks"
	"github.com/tablerecover/tablerecover/internal/config"
	"github.com/tablerecover/tablerecover/internal/grid"
	"github.com/tablerecover/tablerecover/internal/headers"
)

func TestSingleRowHeader(t *testing.T) {
	rows := [][]string{
		{"Name", "Qty", "Price"},
		{"Widget", "3", "9.99"},
		{"Gadget", "1", "19.99"},
	}
	s := grid.Sheet{Rows: len(rows), Cols: 3, Values: rows}
	s.HasStyles = true
	s.Styles = map[[2]int]grid.Style{{0, 0}: {Bold: true}, {0, 1}: {Bold: true}, {0, 2}: {Bold: true}}
	g := grid.Build(s, false)
	o := config.Default()
	b := blocks.Block{R0: 0, R1: 3, C0: 0, C1: 3}

	h := headers.Parse(g, s, b, o)
	require.Equal(t, []int{0}, h.HeaderRows)
	assert.Equal(t, []string{"Name", "Qty", "Price"}, h.LeafColumns)
}

func TestTwoLevelHeaderWithMergesKeepPath(t *testing.T) {
	rows := [][]string{
		{"Revenue", "", "Cost", ""},
		{"FY2023", "FY2024", "FY2023", "FY2024"},
		{"100", "110", "10", "12"},
		{"200", "220", "20", "24"},
	}
	s := grid.Sheet{Rows: len(rows), Cols: 4, Values: rows}
	s.Merges = []grid.MergeRange{{R0: 0, R1: 0, C0: 0, C1: 1}, {R0: 0, R1: 0, C0: 2, C1: 3}}
	s.HasStyles = true
	s.Styles = map[[2]int]grid.Style{
		{0, 0}: {Bold: true}, {0, 2}: {Bold: true},
		{1, 0}: {Bold: true}, {1, 1}: {Bold: true}, {1, 2}: {Bold: true}, {1, 3}: {Bold: true},
	}
	g := grid.Build(s, false)
	o := config.Default()
	o.KeepLeafOnly = false
	o.MaxHeaderRows = 2
	b := blocks.Block{R0: 0, R1: 4, C0: 0, C1: 4}

	h := headers.Parse(g, s, b, o)
	assert.Equal(t, []string{"Revenue/FY2023", "Revenue/FY2024", "Cost/FY2023", "Cost/FY2024"}, h.LeafColumns)
}

func TestTwoLevelHeaderKeepLeafOnlyDisambiguates(t *testing.T) {
	rows := [][]string{
		{"Revenue", "", "Cost", ""},
		{"FY2023", "FY2024", "FY2023", "FY2024"},
		{"100", "110", "10", "12"},
	}
	s := grid.Sheet{Rows: len(rows), Cols: 4, Values: rows}
	s.Merges = []grid.MergeRange{{R0: 0, R1: 0, C0: 0, C1: 1}, {R0: 0, R1: 0, C0: 2, C1: 3}}
	s.HasStyles = true
	s.Styles = map[[2]int]grid.Style{
		{0, 0}: {Bold: true}, {0, 2}: {Bold: true},
		{1, 0}: {Bold: true}, {1, 1}: {Bold: true}, {1, 2}: {Bold: true}, {1, 3}: {Bold: true},
	}
	g := grid.Build(s, false)
	o := config.Default()
	o.KeepLeafOnly = true
	o.MaxHeaderRows = 2
	b := blocks.Block{R0: 0, R1: 3, C0: 0, C1: 4}

	h := headers.Parse(g, s, b, o)
	assert.Equal(t, []string{"FY2023", "FY2024", "FY2023_1", "FY2024_1"}, h.LeafColumns)
}

func TestNoHeaderFallsBackToFirstRow(t *testing.T) {
	rows := [][]string{
		{"1", "2", "3"},
		{"4", "5", "6"},
	}
	s := grid.Sheet{Rows: 2, Cols: 3, Values: rows}
	g := grid.Build(s, false)
	o := config.Default()
	b := blocks.Block{R0: 0, R1: 2, C0: 0, C1: 3}

	h := headers.Parse(g, s, b, o)
	assert.Empty(t, h.HeaderRows)
	assert.Equal(t, []string{"1", "2", "3"}, h.LeafColumns)
}

func TestEmptyHeaderCellUsesColumnFallback(t *testing.T) {
	rows := [][]string{
		{"Name", "", "Price"},
		{"Widget", "extra", "9.99"},
	}
	s := grid.Sheet{Rows: 2, Cols: 3, Values: rows}
	s.HasStyles = true
	s.Styles = map[[2]int]grid.Style{{0, 0}: {Bold: true}, {0, 2}: {Bold: true}}
	g := grid.Build(s, false)
	o := config.Default()
	b := blocks.Block{R0: 0, R1: 2, C0: 0, C1: 3}

	h := headers.Parse(g, s, b, o)
	require.Equal(t, []int{0}, h.HeaderRows)
	assert.Equal(t, []string{"Name", "Column1", "Price"}, h.LeafColumns)
}
