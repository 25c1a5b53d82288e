// Package grid builds the four aligned derived matrices (occupancy,
// border, style, type) plus a merge-anchor index from a raw sheet, per
// spec.md §3 and §4.1. It is grounded on the teacher's
// internal/insights/detect_tables.go grid-scan loop, generalized from a
// single bounded scan into the full derived-matrix set the recovery
// pipeline needs.
package grid

import (
	"strconv"
	"strings"
)

// CellType is the per-cell type code of the T matrix.
type CellType uint8

const (
	TypeEmpty CellType = iota
	TypeText
	TypeNumeric
	TypeDateLike
)

// Borders are the four-way per-cell border indicators of the B matrix.
type Borders struct {
	Top, Right, Bottom, Left bool
}

// Style is the per-cell style indicator feeding the S matrix.
type Style struct {
	Bold bool
	Fill bool
}

// MergeRange is an axis-aligned closed range; no two merges overlap.
type MergeRange struct {
	R0, R1, C0, C1 int
}

// Sheet is the input contract an external collaborator (a format
// decoder) must satisfy for one sheet, per spec.md §6.
type Sheet struct {
	Name    string
	Rows    int
	Cols    int
	Values  [][]string // Values[r][c], already trimmed-or-not; Grid trims.
	Merges  []MergeRange
	Borders map[[2]int]Borders // present only for border-enabled formats
	Styles  map[[2]int]Style   // present only for style-enabled formats
	HasBorders bool
	HasStyles  bool
	HiddenRows map[int]bool
	HiddenCols map[int]bool
}

// Grid holds the derived matrices for one sheet, sized Rows×Cols.
type Grid struct {
	Rows, Cols int

	O [][]bool
	B [][]Borders // zero value when !HasBorders
	S [][]float64
	T [][]CellType

	HasBorders bool

	// MergeAnchor maps a covered (r,c) to the top-left anchor (r,c) of
	// the merge range that covers it. Cells not covered by any merge
	// are absent from the map.
	MergeAnchor map[[2]int][2]int
	Merges      []MergeRange
}

// Build constructs the derived matrices for sheet s, applying the
// include-hidden override from config (spec.md §4.1, §6 include_hidden).
func Build(s Sheet, includeHidden bool) *Grid {
	g := &Grid{
		Rows:       s.Rows,
		Cols:       s.Cols,
		HasBorders: s.HasBorders,
		Merges:     s.Merges,
	}
	g.O = make([][]bool, g.Rows)
	g.S = make([][]float64, g.Rows)
	g.T = make([][]CellType, g.Rows)
	if g.HasBorders {
		g.B = make([][]Borders, g.Rows)
	}
	for r := 0; r < g.Rows; r++ {
		g.O[r] = make([]bool, g.Cols)
		g.S[r] = make([]float64, g.Cols)
		g.T[r] = make([]CellType, g.Cols)
		if g.HasBorders {
			g.B[r] = make([]Borders, g.Cols)
		}
	}

	g.buildOccupancy(s, includeHidden)
	g.buildType(s)
	if s.HasBorders {
		g.buildBorders(s)
	}
	g.buildStyle(s)
	g.buildMergeIndex(s)

	return g
}

func (g *Grid) buildOccupancy(s Sheet, includeHidden bool) {
	for r := 0; r < g.Rows; r++ {
		row := s.Values[r]
		for c := 0; c < g.Cols && c < len(row); c++ {
			if strings.TrimSpace(row[c]) != "" {
				g.O[r][c] = true
			}
		}
	}
	if includeHidden {
		return
	}
	for r := range s.HiddenRows {
		if r >= 0 && r < g.Rows {
			for c := 0; c < g.Cols; c++ {
				g.O[r][c] = false
			}
		}
	}
	for c := range s.HiddenCols {
		if c >= 0 && c < g.Cols {
			for r := 0; r < g.Rows; r++ {
				g.O[r][c] = false
			}
		}
	}
}

// dateIndicators are checked before text classification but after
// numeric, per spec.md §3/§4.1's explicit ordering requirement.
var dateIndicators = []string{"-", "/", ":", "T", "年", "月", "日"}

func (g *Grid) buildType(s Sheet) {
	for r := 0; r < g.Rows; r++ {
		row := s.Values[r]
		for c := 0; c < g.Cols; c++ {
			var v string
			if c < len(row) {
				v = strings.TrimSpace(row[c])
			}
			switch {
			case v == "":
				g.T[r][c] = TypeEmpty
			case isNumeric(v):
				g.T[r][c] = TypeNumeric
			case isDateLike(v):
				g.T[r][c] = TypeDateLike
			default:
				g.T[r][c] = TypeText
			}
		}
	}
}

func isNumeric(s string) bool {
	cleaned := s
	for _, ch := range []string{",", "%", "¥", "$", "€", "£"} {
		cleaned = strings.ReplaceAll(cleaned, ch, "")
	}
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}

func isDateLike(s string) bool {
	if len(s) < 6 {
		return false
	}
	for _, ind := range dateIndicators {
		if strings.Contains(s, ind) {
			return true
		}
	}
	return false
}

func (g *Grid) buildBorders(s Sheet) {
	for rc, b := range s.Borders {
		r, c := rc[0], rc[1]
		if r < 0 || r >= g.Rows || c < 0 || c >= g.Cols {
			continue
		}
		g.B[r][c] = b
	}
}

// buildStyle computes the S matrix per spec.md §3: bold contributes 0.5,
// any fill contributes 0.3; when style info is absent, a per-row
// text-ratio bonus of up to 0.2 is added to the top 10 rows instead.
func (g *Grid) buildStyle(s Sheet) {
	if s.HasStyles {
		for rc, st := range s.Styles {
			r, c := rc[0], rc[1]
			if r < 0 || r >= g.Rows || c < 0 || c >= g.Cols {
				continue
			}
			var score float64
			if st.Bold {
				score += 0.5
			}
			if st.Fill {
				score += 0.3
			}
			g.S[r][c] = score
		}
		return
	}

	limit := 10
	if limit > g.Rows {
		limit = g.Rows
	}
	for r := 0; r < limit; r++ {
		textCells := 0
		for c := 0; c < g.Cols; c++ {
			if g.T[r][c] == TypeText || g.T[r][c] == TypeDateLike {
				textCells++
			}
		}
		ratio := 0.0
		if g.Cols > 0 {
			ratio = float64(textCells) / float64(g.Cols)
		}
		bonus := ratio * 0.2
		for c := 0; c < g.Cols; c++ {
			g.S[r][c] += bonus
		}
	}
}

func (g *Grid) buildMergeIndex(s Sheet) {
	g.MergeAnchor = make(map[[2]int][2]int, len(s.Merges)*2)
	for _, m := range s.Merges {
		anchor := [2]int{m.R0, m.C0}
		for r := m.R0; r <= m.R1; r++ {
			for c := m.C0; c <= m.C1; c++ {
				g.MergeAnchor[[2]int{r, c}] = anchor
			}
		}
	}
}

// ValueAt returns the effective textual value at (r,c), resolving merge
// anchors: every covered cell takes the value of its range's top-left.
func (g *Grid) ValueAt(s Sheet, r, c int) string {
	if anchor, ok := g.MergeAnchor[[2]int{r, c}]; ok {
		r, c = anchor[0], anchor[1]
	}
	if r < 0 || r >= len(s.Values) || c < 0 || c >= len(s.Values[r]) {
		return ""
	}
	return s.Values[r][c]
}
