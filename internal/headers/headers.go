// Package headers detects header rows within a block and expands them
// into a hierarchy of leaf column names, per spec.md §4.3. Grounded on
// the teacher's headerConfidence heuristic in
// internal/insights/detect_tables.go, generalized to multi-row header
// detection, merge-aware path expansion, and duplicate-name
// disambiguation as specified.
package headers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tablerecover/tablerecover/internal/blocks"
	"github.com/tablerecover/tablerecover/internal/config"
	"github.com/tablerecover/tablerecover/internal/grid"
)

// Hierarchy is the result of header detection and expansion for one block.
type Hierarchy struct {
	// HeaderRows are absolute row indices, in block order.
	HeaderRows []int
	// Paths maps an absolute (r,c) within the header band to the
	// ordered title path observed at that cell.
	Paths map[[2]int][]string
	// LeafColumns has one name per column in the block's column range.
	LeafColumns []string
	// DuplicatesRenamed counts how many columns received a disambiguation
	// suffix because their leaf name collided with an earlier one.
	DuplicatesRenamed int
}

// Parse detects header rows for block b and expands them into a
// Hierarchy, per spec.md §4.3.
func Parse(g *grid.Grid, sheet grid.Sheet, b blocks.Block, o config.Options) Hierarchy {
	headerRows := detectHeaderRows(g, b, o)
	if len(headerRows) == 0 {
		return Hierarchy{LeafColumns: fallbackLeafColumns(sheet, b)}
	}

	paths := buildPaths(g, sheet, b, headerRows)
	leaf, renamed := expandLeafColumns(b, headerRows, paths, o)

	return Hierarchy{
		HeaderRows:        headerRows,
		Paths:             paths,
		LeafColumns:       leaf,
		DuplicatesRenamed: renamed,
	}
}

// detectHeaderRows scores each candidate row in [r0, r0+maxHeaderRows)
// and keeps those scoring above 0.4, per spec.md §4.3.
func detectHeaderRows(g *grid.Grid, b blocks.Block, o config.Options) []int {
	limit := b.R0 + o.MaxHeaderRows
	if limit > b.R1 {
		limit = b.R1
	}
	if limit > g.Rows {
		limit = g.Rows
	}

	var rows []int
	for r := b.R0; r < limit; r++ {
		if rowScore(g, r, b, o) > 0.4 {
			rows = append(rows, r)
		}
	}
	if len(rows) > o.MaxHeaderRows {
		rows = rows[:o.MaxHeaderRows]
	}
	return rows
}

func rowScore(g *grid.Grid, r int, b blocks.Block, o config.Options) float64 {
	var textCells, numericCells int
	for c := b.C0; c < b.C1 && c < g.Cols; c++ {
		if !g.O[r][c] {
			continue
		}
		switch g.T[r][c] {
		case grid.TypeText:
			textCells++
		case grid.TypeNumeric:
			numericCells++
		}
	}

	total := textCells + numericCells
	var textRatio, numericRatio float64
	if total > 0 {
		textRatio = float64(textCells) / float64(total)
		numericRatio = float64(numericCells) / float64(total)
	}

	var styleMean float64
	width := b.C1 - b.C0
	if width > 0 {
		var sum float64
		for c := b.C0; c < b.C1 && c < g.Cols; c++ {
			sum += g.S[r][c]
		}
		styleMean = sum / float64(width)
	}

	numericPenalty := 1 - numericRatio
	return 0.4*textRatio + o.HeaderStyleWeight*styleMean + 0.3*numericPenalty
}

func fallbackLeafColumns(sheet grid.Sheet, b blocks.Block) []string {
	leaf := make([]string, 0, b.C1-b.C0)
	for c := b.C0; c < b.C1; c++ {
		var val string
		if b.R0 < sheet.Rows && c < sheet.Cols {
			val = strings.TrimSpace(cellValue(sheet, b.R0, c))
		}
		if val == "" {
			val = fmt.Sprintf("Column%d", c)
		}
		leaf = append(leaf, val)
	}
	return leaf
}

func cellValue(sheet grid.Sheet, r, c int) string {
	if r < 0 || r >= len(sheet.Values) || c < 0 || c >= len(sheet.Values[r]) {
		return ""
	}
	return sheet.Values[r][c]
}

// buildPaths collects, for every (r,c) in the header band, the
// non-empty value observed there (resolving merge anchors).
func buildPaths(g *grid.Grid, sheet grid.Sheet, b blocks.Block, headerRows []int) map[[2]int][]string {
	paths := make(map[[2]int][]string)
	for _, r := range headerRows {
		for c := b.C0; c < b.C1; c++ {
			val := strings.TrimSpace(g.ValueAt(sheet, r, c))
			if val == "" {
				continue
			}
			key := [2]int{r, c}
			paths[key] = append(paths[key], val)
		}
	}
	return paths
}

// expandLeafColumns walks the retained header rows top-to-bottom for
// each column, preferring the merged-range anchor value, collecting
// distinct non-empty strings into a path, then joining or truncating to
// a leaf per keep_leaf_only, finally disambiguating duplicates.
func expandLeafColumns(b blocks.Block, headerRows []int, paths map[[2]int][]string, o config.Options) ([]string, int) {
	leaf := make([]string, 0, b.C1-b.C0)

	for c := b.C0; c < b.C1; c++ {
		var path []string
		seen := make(map[string]bool)
		for _, r := range headerRows {
			for _, v := range paths[[2]int{r, c}] {
				if seen[v] {
					continue
				}
				seen[v] = true
				path = append(path, v)
			}
		}

		var name string
		switch {
		case len(path) == 0:
			name = fmt.Sprintf("Column%d", c)
		case o.KeepLeafOnly:
			name = path[len(path)-1]
		default:
			name = strings.Join(path, "/")
		}
		leaf = append(leaf, name)
	}

	return disambiguate(leaf, o.DuplicateColSuffix)
}

// disambiguate renames the 2nd, 3rd, … occurrences of any name that
// appears more than once, appending the configured suffix templated
// with the running occurrence count starting at 1. The first
// occurrence is left bare. Returns the renamed names and how many
// columns received a suffix.
func disambiguate(names []string, suffixTemplate string) ([]string, int) {
	total := make(map[string]int)
	for _, n := range names {
		total[n]++
	}

	seen := make(map[string]int)
	out := make([]string, len(names))
	var renamed int
	for i, n := range names {
		if total[n] <= 1 {
			out[i] = n
			continue
		}
		seen[n]++
		if seen[n] == 1 {
			out[i] = n
			continue
		}
		out[i] = n + formatSuffix(suffixTemplate, seen[n]-1)
		renamed++
	}
	return out, renamed
}

// formatSuffix substitutes "{n}" in the configured template with the
// given occurrence count.
func formatSuffix(template string, n int) string {
	return strings.ReplaceAll(template, "{n}", strconv.Itoa(n))
}
