// Package telemetry builds the run's dual log sinks (a plain-text line
// log and a JSON-object-per-line log) and the pipeline lifecycle event
// vocabulary, per spec.md §6 "Log sinks". Grounded on the teacher's
// internal/telemetry/hooks.go lifecycle-callback shape, generalized from
// MCP session/tool-call events to sheet/block pipeline events, and on
// original_source/excel_reader/logger.py's DualLogger field set
// (event, file, format, sheet, block_id, metrics, error_code,
// warning_code).
package telemetry

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tablerecover/tablerecover/pkg/tblerr"
)

// Recorder logs pipeline lifecycle events to both configured sinks.
type Recorder struct {
	logger zerolog.Logger
}

// NewRecorder builds a Recorder writing to both txt and jsonl, via
// zerolog.MultiLevelWriter so every event reaches both sinks atomically
// at line granularity: txt receives human-readable text lines through a
// zerolog.ConsoleWriter, jsonl receives one JSON object per line.
func NewRecorder(txt, jsonl io.Writer) *Recorder {
	textSink := zerolog.ConsoleWriter{Out: txt, NoColor: true, TimeFormat: time.RFC3339}
	logger := zerolog.New(zerolog.MultiLevelWriter(textSink, jsonl)).With().Timestamp().Logger()
	zerolog.TimeFieldFormat = time.RFC3339
	return &Recorder{logger: logger}
}

// Context carries the optional fields attached to every event, per
// spec.md §6: file, format, sheet, block_id, metrics.
type Context struct {
	File    string
	Format  string
	Sheet   string
	BlockID string
	Metrics map[string]any
}

func (r *Recorder) event(level zerolog.Level, name string, c Context) *zerolog.Event {
	var evt *zerolog.Event
	switch level {
	case zerolog.ErrorLevel:
		evt = r.logger.Error()
	case zerolog.WarnLevel:
		evt = r.logger.Warn()
	default:
		evt = r.logger.Info()
	}
	evt = evt.Str("event", name)
	if c.File != "" {
		evt = evt.Str("file", c.File)
	}
	if c.Format != "" {
		evt = evt.Str("format", c.Format)
	}
	if c.Sheet != "" {
		evt = evt.Str("sheet", c.Sheet)
	}
	if c.BlockID != "" {
		evt = evt.Str("block_id", c.BlockID)
	}
	if c.Metrics != nil {
		evt = evt.Interface("metrics", c.Metrics)
	}
	return evt
}

// RunStart logs the run.start event.
func (r *Recorder) RunStart(runID, source string) {
	r.event(zerolog.InfoLevel, "run.start", Context{File: source}).Str("run_id", runID).Msg("run started")
}

// RunEnd logs the run.end event.
func (r *Recorder) RunEnd(runID string, tableCount int, dur time.Duration) {
	r.event(zerolog.InfoLevel, "run.end", Context{Metrics: map[string]any{"tables": tableCount}}).
		Str("run_id", runID).Dur("duration", dur).Msg("run finished")
}

// GridBuild logs the grid.build event for one sheet.
func (r *Recorder) GridBuild(sheet string, rows, cols int) {
	r.event(zerolog.InfoLevel, "grid.build", Context{
		Sheet:   sheet,
		Metrics: map[string]any{"rows": rows, "cols": cols},
	}).Msg("grid built")
}

// SplitBlocks logs the split.blocks event with the discovered block count
// and sizes.
func (r *Recorder) SplitBlocks(sheet string, count int, sizes [][2]int) {
	r.event(zerolog.InfoLevel, "split.blocks", Context{
		Sheet:   sheet,
		Metrics: map[string]any{"count": count, "sizes": sizes},
	}).Msg("blocks split")
}

// HeaderDetect logs the header.detect event for one block.
func (r *Recorder) HeaderDetect(sheet, blockID string, headerRows []int, leafCols int) {
	r.event(zerolog.InfoLevel, "header.detect", Context{
		Sheet:   sheet,
		BlockID: blockID,
		Metrics: map[string]any{"header_rows": headerRows, "leaf_cols": leafCols},
	}).Msg("header parsed")
}

// MidHeadersRemoved logs the clean.mid_headers_removed warning event.
func (r *Recorder) MidHeadersRemoved(sheet, blockID string, rows []int) {
	r.event(zerolog.WarnLevel, "clean.mid_headers_removed", Context{
		Sheet:   sheet,
		BlockID: blockID,
		Metrics: map[string]any{"rows": rows},
	}).Str("warning_code", string(tblerr.MidHeadersRemoved)).Msg("mid-stream header rows removed")
}

// ExportCSV logs the export.csv event for one emitted artifact.
func (r *Recorder) ExportCSV(blockID, path string, rowCount, colCount int) {
	r.event(zerolog.InfoLevel, "export.csv", Context{
		BlockID: blockID,
		Metrics: map[string]any{"rows": rowCount, "cols": colCount},
	}).Str("path", path).Msg("table exported")
}

// Error logs a fatal pipeline error, tagging its tblerr.Kind when present.
func (r *Recorder) Error(op string, err error) {
	evt := r.logger.Error().Str("op", op).Err(err)
	if kind, ok := tblerr.KindOf(err); ok {
		evt = evt.Str("error_code", string(kind))
	}
	evt.Msg("pipeline error")
}
