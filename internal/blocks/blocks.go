// Package blocks discovers rectangular candidate table regions from a
// grid's occupancy matrix, per spec.md §4.2. The connected-components
// walk is grounded on the teacher's internal/insights/detect_tables.go
// BFS flood fill, generalized with hole tolerance, and on the
// queue-based, non-recursive BFS idiom of katalvlaran/lvlath's bfs
// package (explicit queue + visited bitmap, no recursion).
package blocks

import (
	"github.com/tablerecover/tablerecover/internal/config"
	"github.com/tablerecover/tablerecover/internal/grid"
)

// Block is a rectangle with half-open row/column ranges and a stable ID
// assigned in final enumeration order.
type Block struct {
	R0, R1, C0, C1 int
	ID             string
}

func (b Block) Height() int { return b.R1 - b.R0 }
func (b Block) Width() int  { return b.C1 - b.C0 }
func (b Block) Area() int   { return b.Height() * b.Width() }

// Split runs the full §4.2 pipeline: connected components with hole
// tolerance, size filter, border-enhancement gate, MDL split/keep
// decision, and final block_id assignment.
func Split(g *grid.Grid, o config.Options) []Block {
	if g.Rows == 0 || g.Cols == 0 {
		return nil
	}

	comps := connectedComponents(g, o.HoleToleranceRows, o.HoleToleranceCols)

	filtered := make([]Block, 0, len(comps))
	for _, b := range comps {
		if b.Height() >= o.MinBlockHeight && b.Width() >= o.MinBlockWidth {
			filtered = append(filtered, b)
		}
	}

	if g.HasBorders {
		filtered = enhanceWithBorders(filtered, g)
	}

	var final []Block
	for _, b := range filtered {
		final = append(final, mdlSplitDecision(b, g, o)...)
	}

	for i := range final {
		final[i].ID = blockID(i)
	}
	return final
}

func blockID(i int) string {
	// b1, b2, … in final enumeration order.
	return "b" + itoa(i+1)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	pos := len(digits)
	for n > 0 {
		pos--
		digits[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[pos:])
}

// connectedComponents seeds a BFS at each unvisited occupied cell using
// an explicit queue and visited bitmap (no recursion, per spec.md §9).
// The neighborhood is a rectangle of half-extents (holeR+1, holeC+1)
// around the current cell, excluding the origin.
func connectedComponents(g *grid.Grid, holeR, holeC int) []Block {
	visited := make([][]bool, g.Rows)
	for r := range visited {
		visited[r] = make([]bool, g.Cols)
	}

	var blocks []Block
	type point struct{ r, c int }

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if !g.O[r][c] || visited[r][c] {
				continue
			}

			queue := []point{{r, c}}
			visited[r][c] = true
			minR, maxR, minC, maxC := r, r, c, c

			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]

				if cur.r < minR {
					minR = cur.r
				}
				if cur.r > maxR {
					maxR = cur.r
				}
				if cur.c < minC {
					minC = cur.c
				}
				if cur.c > maxC {
					maxC = cur.c
				}

				for dr := -holeR - 1; dr <= holeR+1; dr++ {
					for dc := -holeC - 1; dc <= holeC+1; dc++ {
						if dr == 0 && dc == 0 {
							continue
						}
						nr, nc := cur.r+dr, cur.c+dc
						if nr < 0 || nr >= g.Rows || nc < 0 || nc >= g.Cols {
							continue
						}
						if visited[nr][nc] || !g.O[nr][nc] {
							continue
						}
						visited[nr][nc] = true
						queue = append(queue, point{nr, nc})
					}
				}
			}

			r0 := max0(minR - holeR)
			r1 := minInt(g.Rows, maxR+holeR+1)
			c0 := max0(minC - holeC)
			c1 := minInt(g.Cols, maxC+holeC+1)
			blocks = append(blocks, Block{R0: r0, R1: r1, C0: c0, C1: c1})
		}
	}
	return blocks
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// enhanceWithBorders keeps blocks whose border completeness exceeds 0.3;
// others pass through an attempted border-contour re-split, which is a
// pass-through stub per spec.md §4.2 step 3 / §9 open question (a).
func enhanceWithBorders(bs []Block, g *grid.Grid) []Block {
	var enhanced []Block
	for _, b := range bs {
		if borderCompleteness(b, g) > 0.3 {
			enhanced = append(enhanced, b)
		} else {
			enhanced = append(enhanced, splitByBorderContours(b, g)...)
		}
	}
	if len(enhanced) == 0 {
		return bs
	}
	return enhanced
}

// splitByBorderContours is an intentional pass-through; the reference
// implementation never reverse-engineered a contour-splitting
// algorithm, and spec.md §9 directs implementers to leave it as a stub
// with a clear extension point.
func splitByBorderContours(b Block, g *grid.Grid) []Block {
	_ = g
	return []Block{b}
}

func borderCompleteness(b Block, g *grid.Grid) float64 {
	if !g.HasBorders {
		return 0
	}
	var borderCount, totalCount int
	for r := b.R0; r < b.R1; r++ {
		for c := b.C0; c < b.C1; c++ {
			if r < 0 || r >= len(g.B) || c < 0 || c >= len(g.B[r]) {
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
			totalCount += 4
		}
	}
	if totalCount == 0 {
		return 0
	}
	return float64(borderCount) / float64(totalCount)
}

func density(b Block, g *grid.Grid) float64 {
	if b.Area() == 0 {
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
	return float64(occupied) / float64(b.Area())
}

// rectangularity equals density in this design (the occupied fraction
// of the bbox), matching spec.md §4.2's "same as density here, by
// design" note.
func rectangularity(b Block, g *grid.Grid) float64 {
	return density(b, g)
}

// mdlSplitDecision implements the §4.2 step 4 cost comparison, trying a
// gap split only when density or rectangularity falls below threshold,
// and keeping the lower-cost option with ties going to the whole block.
func mdlSplitDecision(b Block, g *grid.Grid, o config.Options) []Block {
	d := density(b, g)
	rect := rectangularity(b, g)
	w := o.MDLWeights

	costKeep := w.Alpha*(1-d) + w.Beta*(1-rect) + w.Gamma*1

	if d >= o.DensityThreshold && rect >= o.RectangularityThreshold {
		return []Block{b}
	}

	split := tryGapSplit(b, g, o)
	if len(split) <= 1 {
		return []Block{b}
	}

	var costSplit float64
	for _, sb := range split {
		sd := density(sb, g)
		sr := rectangularity(sb, g)
		costSplit += w.Alpha*(1-sd) + w.Beta*(1-sr)
	}
	costSplit += w.Gamma * float64(len(split))

	if costSplit < costKeep {
		return split
	}
	return []Block{b}
}

// tryGapSplit finds fully empty rows/columns within the block's own
// sub-matrix and cuts along the first axis that yields ≥2 slabs meeting
// the minimum dimension, per spec.md §4.2 step 5.
func tryGapSplit(b Block, g *grid.Grid, o config.Options) []Block {
	rows := b.Height()
	cols := b.Width()

	emptyRows := make([]int, 0)
	for r := 0; r < rows; r++ {
		empty := true
		for c := 0; c < cols; c++ {
			if g.O[b.R0+r][b.C0+c] {
				empty = false
				break
			}
		}
		if empty {
			emptyRows = append(emptyRows, r)
		}
	}

	if len(emptyRows) >= 2 {
		if slabs := splitAlongRows(b, emptyRows, o.MinBlockHeight); len(slabs) > 1 {
			return slabs
		}
	}

	emptyCols := make([]int, 0)
	for c := 0; c < cols; c++ {
		empty := true
		for r := 0; r < rows; r++ {
			if g.O[b.R0+r][b.C0+c] {
				empty = false
				break
			}
		}
		if empty {
			emptyCols = append(emptyCols, c)
		}
	}

	if len(emptyCols) >= 2 {
		if slabs := splitAlongCols(b, emptyCols, o.MinBlockWidth); len(slabs) > 1 {
			return slabs
		}
	}

	return []Block{b}
}

func splitAlongRows(b Block, emptyRows []int, minHeight int) []Block {
	var splits []Block
	start := 0
	for _, er := range emptyRows {
		if er-start >= minHeight {
			splits = append(splits, Block{R0: b.R0 + start, R1: b.R0 + er, C0: b.C0, C1: b.C1})
		}
		start = er + 1
	}
	if b.R1-(b.R0+start) >= minHeight {
		splits = append(splits, Block{R0: b.R0 + start, R1: b.R1, C0: b.C0, C1: b.C1})
	}
	return splits
}

func splitAlongCols(b Block, emptyCols []int, minWidth int) []Block {
	var splits []Block
	start := 0
	for _, ec := range emptyCols {
		if ec-start >= minWidth {
			splits = append(splits, Block{R0: b.R0, R1: b.R1, C0: b.C0 + start, C1: b.C0 + ec})
		}
		start = ec + 1
	}
	if b.C1-(b.C0+start) >= minWidth {
		splits = append(splits, Block{R0: b.R0, R1: b.R1, C0: b.C0 + start, C1: b.C1})
	}
	return splits
}
