// Package scoring computes the composite TableScore for candidate blocks,
// selects the main table among siblings, judges pairwise merge gain, and
// performs the post-assembly cleaning passes (mid-header removal, unit-line
// extraction), all per spec.md §4.4. Grounded on the original cleaner.py
// reference and generalized into the idiom of the teacher's scoring-free
// but similarly composite internal/insights confidence heuristics.
package scoring

import (
	"regexp"
	"strings"

	"github.com/tablerecover/tablerecover/internal/blocks"
	"github.com/tablerecover/tablerecover/internal/config"
	"github.com/tablerecover/tablerecover/internal/grid"
)

// TableScore is the weighted composite quality score for one block.
type TableScore struct {
	Area                int
	Density             float64
	TypeConsistency     float64
	BorderCompleteness  float64
	HeaderCompleteness  float64
	Total               float64
}

// Score computes the composite TableScore for block b, given the block's
// detected header rows (absolute row indices, may be nil).
func Score(b blocks.Block, g *grid.Grid, headerRows []int) TableScore {
	s := TableScore{Area: b.Area()}
	s.Density = density(b, g)
	s.TypeConsistency = typeConsistency(b, g)
	s.BorderCompleteness = borderCompleteness(b, g)
	s.HeaderCompleteness = headerCompleteness(b, headerRows)

	s.Total = s.Density*0.3 + s.TypeConsistency*0.25 + s.BorderCompleteness*0.2 + s.HeaderCompleteness*0.25
	return s
}

func density(b blocks.Block, g *grid.Grid) float64 {
	area := b.Area()
	if area == 0 {
		return 0
	}
	var occupied int
	for r := b.R0; r < b.R1; r++ {
		for c := b.C0; c < b.C1; c++ {
			if g.O[r][c] {
				occupied++
			}
		}
	}
	return float64(occupied) / float64(area)
}

// typeConsistency averages, over every column in the block, the share of
// cells holding the column's single most common non-empty type.
func typeConsistency(b blocks.Block, g *grid.Grid) float64 {
	width := b.Width()
	if width == 0 {
		return 0
	}

	var sum float64
	for c := b.C0; c < b.C1; c++ {
		counts := map[grid.CellType]int{}
		var n int
		for r := b.R0; r < b.R1; r++ {
			if r >= g.Rows || c >= g.Cols || g.T[r][c] == grid.TypeEmpty {
				continue
			}
			counts[g.T[r][c]]++
			n++
		}
		if n == 0 {
			continue
		}
		sum += float64(mostCommonCount(counts)) / float64(n)
	}
	return sum / float64(width)
}

func mostCommonCount(counts map[grid.CellType]int) int {
	var best int
	for _, n := range counts {
		if n > best {
			best = n
		}
	}
	return best
}

func borderCompleteness(b blocks.Block, g *grid.Grid) float64 {
	if !g.HasBorders {
		return 0.5
	}
	var borderCount, totalEdges int
	for r := b.R0; r < b.R1; r++ {
		for c := b.C0; c < b.C1; c++ {
			if r >= len(g.B) || c >= len(g.B[r]) {
				continue
			}
			bd := g.B[r][c]
			if r == b.R0 && bd.Top {
				borderCount++
			}
			if r == b.R1-1 && bd.Bottom {
				borderCount++
			}
			if c == b.C0 && bd.Left {
				borderCount++
			}
			if c == b.C1-1 && bd.Right {
				borderCount++
			}
			totalEdges += 4
		}
	}
	if totalEdges == 0 {
		return 0
	}
	return float64(borderCount) / float64(totalEdges)
}

func headerCompleteness(b blocks.Block, headerRows []int) float64 {
	if len(headerRows) == 0 {
		return 0
	}
	var inBlock int
	for _, r := range headerRows {
		if r >= b.R0 && r < b.R1 {
			inBlock++
		}
	}
	return float64(inBlock) / float64(len(headerRows))
}

// IdentifyMainTable returns the block_id of the highest-Total block, the
// first block winning ties.
func IdentifyMainTable(bs []blocks.Block, scores map[string]TableScore) string {
	if len(bs) == 0 {
		return ""
	}
	best := bs[0].ID
	bestTotal := scores[best].Total
	for _, b := range bs[1:] {
		if t := scores[b.ID].Total; t > bestTotal {
			bestTotal = t
			best = b.ID
		}
	}
	return best
}

// MergeGain judges whether two blocks should be merged and returns the
// computed gain, per spec.md §4.4's alignment/type-consistency/density/gap
// formula.
func MergeGain(b1, b2 blocks.Block, g *grid.Grid, o config.Options) (shouldMerge bool, gain float64) {
	alignment := alignment(b1, b2)
	typeCons := overlapTypeConsistency(b1, b2, g)

	merged := mergeBBox(b1, b2)
	mergedDensity := density(merged, g)
	densityChange := mergedDensity - minFloat(density(b1, g), density(b2, g))
	if densityChange < 0 {
		densityChange = 0
	}

	penalty := mergePenalty(b1, b2)

	gain = 0.4*alignment + 0.3*typeCons + 0.2*densityChange - 0.1*penalty
	return gain >= o.MergeGainThreshold, gain
}

func alignment(b1, b2 blocks.Block) float64 {
	if b1.R0 == b2.R0 && b1.R1 == b2.R1 {
		if b1.C1 == b2.C0 || b2.C1 == b1.C0 {
			return 1.0
		}
	}
	if b1.C0 == b2.C0 && b1.C1 == b2.C1 {
		if b1.R1 == b2.R0 || b2.R1 == b1.R0 {
			return 0.8
		}
	}
	return 0.0
}

func overlapTypeConsistency(b1, b2 blocks.Block, g *grid.Grid) float64 {
	c0 := maxInt(b1.C0, b2.C0)
	c1 := minInt(b1.C1, b2.C1)
	if c1 <= c0 {
		return 0.0
	}

	var consistent float64
	for c := c0; c < c1; c++ {
		t1, ok1 := dominantType(b1, c, g)
		t2, ok2 := dominantType(b2, c, g)
		if ok1 && ok2 && t1 == t2 {
			consistent++
		}
	}
	return consistent / float64(c1-c0)
}

func dominantType(b blocks.Block, c int, g *grid.Grid) (grid.CellType, bool) {
	counts := map[grid.CellType]int{}
	for r := b.R0; r < b.R1; r++ {
		if r >= g.Rows || c >= g.Cols {
			continue
		}
		counts[g.T[r][c]]++
	}
	if len(counts) == 0 {
		return 0, false
	}
	var best grid.CellType
	var bestN int
	for t, n := range counts {
		if n > bestN {
			bestN = n
			best = t
		}
	}
	return best, true
}

func mergeBBox(b1, b2 blocks.Block) blocks.Block {
	return blocks.Block{
		R0: minInt(b1.R0, b2.R0),
		R1: maxInt(b1.R1, b2.R1),
		C0: minInt(b1.C0, b2.C0),
		C1: maxInt(b1.C1, b2.C1),
	}
}

// mergePenalty grows with the gap between the two blocks, normalized
// against a 10-cell span, capped at 1.
func mergePenalty(b1, b2 blocks.Block) float64 {
	rGap := maxInt(0, maxInt(b1.R0, b2.R0)-minInt(b1.R1, b2.R1))
	cGap := maxInt(0, maxInt(b1.C0, b2.C0)-minInt(b1.C1, b2.C1))
	gap := maxInt(rGap, cGap)
	p := float64(gap) / 10.0
	if p > 1.0 {
		return 1.0
	}
	return p
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// RemoveMidHeaders scans data rows after the last header row for a
// repeated-header pattern (compared over the first 5 columns of the
// earliest header row) and returns the relative row indices to drop,
// matching a row when at least 70% of the compared non-empty cells
// equal the header pattern.
func RemoveMidHeaders(data [][]string, headerRows []int) []int {
	if len(headerRows) == 0 || len(data) == 0 {
		return nil
	}

	firstHeader := headerRows[0]
	if firstHeader >= len(data) {
		return nil
	}
	pattern := rowPrefix(data[firstHeader], 5)
	if allEmpty(pattern) {
		return nil
	}
	var nonEmpty int
	for _, p := range pattern {
		if p != "" {
			nonEmpty++
		}
	}

	lastHeader := headerRows[0]
	for _, r := range headerRows {
		if r > lastHeader {
			lastHeader = r
		}
	}

	var removed []int
	for r := lastHeader + 1; r < len(data); r++ {
		candidate := rowPrefix(data[r], 5)
		var matches int
		for i := range pattern {
			if pattern[i] != "" && pattern[i] == candidate[i] {
				matches++
			}
		}
		if float64(matches) >= float64(nonEmpty)*0.7 {
			removed = append(removed, r)
		}
	}
	return removed
}

func rowPrefix(row []string, n int) []string {
	if n > len(row) {
		n = len(row)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = strings.TrimSpace(row[i])
	}
	return out
}

func allEmpty(vals []string) bool {
	for _, v := range vals {
		if v != "" {
			return false
		}
	}
	return true
}

// ExtractUnitLine scans the first 10 rows and first 5 columns of data for
// a cell matching one of patterns, returning the trimmed matched value.
// Patterns are tried in order; the first match wins.
func ExtractUnitLine(data [][]string, patterns []string) string {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
	}

	maxRows := 10
	if maxRows > len(data) {
		maxRows = len(data)
	}

	for _, re := range compiled {
		for r := 0; r < maxRows; r++ {
			maxCols := 5
			if maxCols > len(data[r]) {
				maxCols = len(data[r])
			}
			for c := 0; c < maxCols; c++ {
				val := data[r][c]
				if val == "" {
					continue
				}
				if loc := re.FindStringIndex(val); loc != nil && loc[0] == 0 {
					return strings.TrimSpace(val)
				}
			}
		}
	}
	return ""
}
