// Package assembler slices a Block's rectangle out of the raw grid,
// applies the header hierarchy and cleaner rewrites, and produces the
// final row-oriented RecoveredTable plus its TableMeta record, per
// spec.md §4.5. Grounded on the original source's parser.py orchestration
// and the teacher's TableMeta-shaped result structs in
// internal/insights/detect_tables.go.
package assembler

import (
	"github.com/tablerecover/tablerecover/internal/blocks"
	"github.com/tablerecover/tablerecover/internal/config"
	"github.com/tablerecover/tablerecover/internal/grid"
	"github.com/tablerecover/tablerecover/internal/headers"
	"github.com/tablerecover/tablerecover/internal/scoring"
	"github.com/tablerecover/tablerecover/pkg/tblerr"
)

// RecoveredTable is one emitted, row-oriented table.
type RecoveredTable struct {
	Key     string // df1, df2, … in global block-discovery order.
	Columns []string
	Rows    [][]string
	Meta    TableMeta
}

// TableMeta is the per-table record attached to the manifest and the
// tables_meta.json artifact, per spec.md §3.
type TableMeta struct {
	Key            string
	BlockID        string // b1, b2, … in final enumeration order, from blocks.Block.ID
	Source         string
	Sheet          string // absent (empty) for delimited-text input
	R0, R1, C0, C1 int
	IsMain         bool // set by the caller after scoring every block in the sheet
	Score          scoring.TableScore
	Header         headers.Hierarchy
	Unit           string
	Warnings       []tblerr.WarningCode
	Artifact       string // populated by the output writer after export
}

// Assemble slices block b's rectangle from grid g, builds its header
// hierarchy, applies mid-header removal and unit-line extraction, and
// returns the finished table. key is the caller-assigned global df-key
// ("df1", "df2", …); source/sheet identify the origin for TableMeta.
func Assemble(g *grid.Grid, sheet grid.Sheet, b blocks.Block, o config.Options, key, source string) RecoveredTable {
	h := headers.Parse(g, sheet, b, o)

	data := sliceRegion(g, sheet, b)

	headerLocal := toLocal(h.HeaderRows, b.R0)
	localRemoved := localRemovedRows(data, headerLocal, o)

	dataRows, warnings := stripRows(data, headerLocal, localRemoved)
	if h.DuplicatesRenamed > 0 {
		warnings = append(warnings, tblerr.DuplicateColumns)
	}

	var unit string
	if u := scoring.ExtractUnitLine(dataRows, o.UnitLinePatterns); u != "" {
		unit = u
	}

	score := scoring.Score(b, g, h.HeaderRows)

	meta := TableMeta{
		Key:      key,
		BlockID:  b.ID,
		Source:   source,
		Sheet:    sheet.Name,
		R0:       b.R0,
		R1:       b.R1,
		C0:       b.C0,
		C1:       b.C1,
		Score:    score,
		Header:   h,
		Unit:     unit,
		Warnings: warnings,
	}

	return RecoveredTable{
		Key:     key,
		Columns: h.LeafColumns,
		Rows:    dataRows,
		Meta:    meta,
	}
}

// sliceRegion copies block b's rectangle out of the sheet, resolving
// merge anchors cell-by-cell.
func sliceRegion(g *grid.Grid, sheet grid.Sheet, b blocks.Block) [][]string {
	region := make([][]string, b.Height())
	for i, r := 0, b.R0; r < b.R1; i, r = i+1, r+1 {
		row := make([]string, b.Width())
		for j, c := 0, b.C0; c < b.C1; j, c = j+1, c+1 {
			row[j] = g.ValueAt(sheet, r, c)
		}
		region[i] = row
	}
	return region
}

func toLocal(absolute []int, r0 int) []int {
	local := make([]int, len(absolute))
	for i, r := range absolute {
		local[i] = r - r0
	}
	return local
}

func localRemovedRows(data [][]string, headerLocal []int, o config.Options) []int {
	if !o.AllowMidHeaders {
		return nil
	}
	return scoring.RemoveMidHeaders(data, headerLocal)
}

// stripRows removes the header rows and any mid-header-repeat rows from
// data, in ascending local-index order, and records a MidHeadersRemoved
// warning when the latter fired.
func stripRows(data [][]string, headerLocal, midRemoved []int) ([][]string, []tblerr.WarningCode) {
	drop := make(map[int]bool, len(headerLocal)+len(midRemoved))
	for _, r := range headerLocal {
		drop[r] = true
	}
	for _, r := range midRemoved {
		drop[r] = true
	}

	out := make([][]string, 0, len(data)-len(drop))
	for i, row := range data {
		if drop[i] {
			continue
		}
		out = append(out, row)
	}

	var warnings []tblerr.WarningCode
	if len(midRemoved) > 0 {
		warnings = append(warnings, tblerr.MidHeadersRemoved)
	}
	return out, warnings
}
