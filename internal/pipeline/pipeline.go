// Package pipeline orchestrates one sheet end-to-end — grid build,
// block split, per-block header parsing/scoring/assembly, main-table
// selection — and one file end-to-end across its sheets, per spec.md §5.
// Grounded on original_source/excel_reader/parser.py's top-level
// per-sheet/per-file loop, generalized to Go's explicit-error,
// explicit-concurrency style using the teacher's internal/runtime
// guardrails.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/tablerecover/tablerecover/internal/assembler"
	"github.com/tablerecover/tablerecover/internal/blocks"
	"github.com/tablerecover/tablerecover/internal/config"
	"github.com/tablerecover/tablerecover/internal/grid"
	"github.com/tablerecover/tablerecover/internal/runtime"
	"github.com/tablerecover/tablerecover/internal/scoring"
	"github.com/tablerecover/tablerecover/internal/telemetry"
	"github.com/tablerecover/tablerecover/pkg/tblerr"
)

// Pipeline runs the grid-analysis and table-recovery stages for a batch
// of sheets, serializing the global df-key counter across sheets so
// keys stay deterministic regardless of how many sheets run in
// parallel (spec.md §5's "deterministic order consistent with
// sequential execution" contract).
type Pipeline struct {
	cfg  config.Options
	ctrl *runtime.Controller
	rec  *telemetry.Recorder

	mu      sync.Mutex
	nextKey int
}

// New constructs a Pipeline. rec may be nil to disable logging.
func New(cfg config.Options, ctrl *runtime.Controller, rec *telemetry.Recorder) *Pipeline {
	return &Pipeline{cfg: cfg, ctrl: ctrl, rec: rec, nextKey: 1}
}

// allocateKeys reserves n consecutive df-keys and returns the first
// one's index; caller assigns key fmt.Sprintf("df%d", base), base+1, …
func (p *Pipeline) allocateKeys(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	base := p.nextKey
	p.nextKey += n
	return base
}

// SheetInput is one sheet to process, paired with its source identity
// for TableMeta.
type SheetInput struct {
	Sheet  grid.Sheet
	Source string
}

// ProcessSheet runs the grid build → block split → per-block
// assemble chain for one sheet and returns its recovered tables in
// block-discovery order, with is_main set on the single highest-scoring
// block.
func (p *Pipeline) ProcessSheet(ctx context.Context, in SheetInput) ([]assembler.RecoveredTable, error) {
	if p.ctrl != nil {
		if err := p.ctrl.AcquireSheet(ctx); err != nil {
			return nil, fmt.Errorf("pipeline: acquire sheet slot: %w", err)
		}
		defer p.ctrl.ReleaseSheet()
	}

	cells := in.Sheet.Rows * in.Sheet.Cols
	if p.ctrl != nil && !p.ctrl.CheckCellBudget(cells) {
		return nil, tblerr.New(tblerr.InvalidArgument, "pipeline.ProcessSheet",
			fmt.Errorf("sheet %q has %d cells, exceeding the configured budget", in.Sheet.Name, cells))
	}

	g := grid.Build(in.Sheet, p.cfg.IncludeHidden)
	p.log(func(r *telemetry.Recorder) { r.GridBuild(in.Sheet.Name, g.Rows, g.Cols) })

	bs := blocks.Split(g, p.cfg)
	sizes := make([][2]int, len(bs))
	for i, b := range bs {
		sizes[i] = [2]int{b.Height(), b.Width()}
	}
	p.log(func(r *telemetry.Recorder) { r.SplitBlocks(in.Sheet.Name, len(bs), sizes) })

	if len(bs) == 0 {
		return nil, nil
	}

	base := p.allocateKeys(len(bs))
	tables := make([]assembler.RecoveredTable, len(bs))
	scores := make(map[string]scoring.TableScore, len(bs))

	for i, b := range bs {
		key := fmt.Sprintf("df%d", base+i)
		t := assembler.Assemble(g, in.Sheet, b, p.cfg, key, in.Source)
		tables[i] = t
		scores[b.ID] = t.Meta.Score
		p.log(func(r *telemetry.Recorder) {
			r.HeaderDetect(in.Sheet.Name, b.ID, t.Meta.Header.HeaderRows, len(t.Meta.Header.LeafColumns))
			if len(t.Meta.Header.HeaderRows) > 0 {
				for _, w := range t.Meta.Warnings {
					if w == tblerr.MidHeadersRemoved {
						r.MidHeadersRemoved(in.Sheet.Name, b.ID, nil)
					}
				}
			}
		})
	}

	mainID := scoring.IdentifyMainTable(bs, scores)
	for i, b := range bs {
		if b.ID == mainID {
			tables[i].Meta.IsMain = true
		}
	}

	return tables, nil
}

func (p *Pipeline) log(f func(*telemetry.Recorder)) {
	if p.rec == nil {
		return
	}
	f(p.rec)
}

// ProcessSheetsConcurrently runs ProcessSheet over every sheet in
// inputs, bounded by the Pipeline's Controller, per spec.md §5's
// "sheets are independent and may be processed in parallel" grant.
// Results are returned in input order regardless of completion order;
// df-keys remain deterministic because allocateKeys serializes the
// counter, not the work.
func (p *Pipeline) ProcessSheetsConcurrently(ctx context.Context, inputs []SheetInput) ([][]assembler.RecoveredTable, error) {
	results := make([][]assembler.RecoveredTable, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in SheetInput) {
			defer wg.Done()
			tables, err := p.ProcessSheet(ctx, in)
			results[i] = tables
			errs[i] = err
		}(i, in)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
