package output_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablerecover/tablerecover/internal/assembler"
	"github.com/tablerecover/tablerecover/internal/config"
	"github.com/tablerecover/tablerecover/internal/output"
	"github.com/tablerecover/tablerecover/pkg/tblerr"
)

func sampleTable(key string) assembler.RecoveredTable {
	return assembler.RecoveredTable{
		Key:     key,
		Columns: []string{"Name", "Qty"},
		Rows: [][]string{
			{"Widget", "3"},
			{"Gadget", "1"},
		},
		Meta: assembler.TableMeta{Key: key, BlockID: "b1", Source: "book.xlsx", Sheet: "Sheet1"},
	}
}

func TestSanitizeFilenameReplacesForbiddenChars(t *testing.T) {
	cfg := config.Default()
	got := output.SanitizeFilename(`a/b\c:d*e?f"g<h>i|j`, cfg)
	assert.NotContains(t, got, "/")
	assert.NotContains(t, got, "\\")
	assert.NotContains(t, got, ":")
	assert.NotContains(t, got, "*")
}

func TestSanitizeFilenameEmptyBecomesTable(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "table", output.SanitizeFilename("   ", cfg))
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	cfg := config.Default()
	cfg.LongPathSupport = false
	long := strings.Repeat("x", 500)
	got := output.SanitizeFilename(long, cfg)
	assert.LessOrEqual(t, len(got), 120)
}

func TestWriteTableProducesDelimitedFile(t *testing.T) {
	dir := t.TempDir()
	csvDir := filepath.Join(dir, "csv")
	require.NoError(t, os.MkdirAll(csvDir, 0o755))

	cfg := config.Default()
	o := output.DefaultOptions()
	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	rel, err := output.WriteTable(dir, csvDir, sampleTable("df1"), "Sheet1", ts, cfg, o)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "csv"))
	assert.True(t, strings.HasSuffix(rel, ".csv"))

	full := filepath.Join(dir, rel)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Name,Qty")
	assert.Contains(t, string(data), "Widget,3")
}

func TestWriteTableCollisionGetsDupSuffix(t *testing.T) {
	dir := t.TempDir()
	csvDir := filepath.Join(dir, "csv")
	require.NoError(t, os.MkdirAll(csvDir, 0o755))

	cfg := config.Default()
	o := output.DefaultOptions()
	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	first, err := output.WriteTable(dir, csvDir, sampleTable("df1"), "Sheet1", ts, cfg, o)
	require.NoError(t, err)
	second, err := output.WriteTable(dir, csvDir, sampleTable("df2"), "Sheet1", ts, cfg, o)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Contains(t, second, "_dup1_")
}

func TestWriteMetadataWritesJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, output.WriteMetadata(dir, []assembler.RecoveredTable{sampleTable("df1")}))

	data, err := os.ReadFile(filepath.Join(dir, "tables_meta.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"df1"`)
	assert.Contains(t, string(data), `"source_file": "book.xlsx"`)
}

func TestWriteManifestWritesYAML(t *testing.T) {
	dir := t.TempDir()
	m := output.Manifest{
		RunID:         "RUN_20260731T120000Z_UTC",
		Source:        "book.xlsx",
		Format:        "xlsx",
		ConfigProfile: "default",
		StartedAtUTC:  "2026-07-31T12:00:00Z",
		FinishedAtUTC: "2026-07-31T12:00:05Z",
		Outputs:       []output.OutputItem{{Key: "df1", Name: "Sheet1", Path: "csv/Sheet1_x.csv", Rows: 2, Cols: 2}},
		Warnings:      map[string]int{string(tblerr.MidHeadersRemoved): 1},
	}
	require.NoError(t, output.WriteManifest(dir, m))

	data, err := os.ReadFile(filepath.Join(dir, "manifest.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: RUN_20260731T120000Z_UTC")
	assert.Contains(t, string(data), "MidHeadersRemoved: 1")
}

func TestWarningCountsTalliesAcrossTables(t *testing.T) {
	t1 := sampleTable("df1")
	t1.Meta.Warnings = []tblerr.WarningCode{tblerr.MidHeadersRemoved, tblerr.DuplicateColumns}
	t2 := sampleTable("df2")
	t2.Meta.Warnings = []tblerr.WarningCode{tblerr.MidHeadersRemoved}

	counts := output.WarningCounts([]assembler.RecoveredTable{t1, t2})
	assert.Equal(t, 2, counts[string(tblerr.MidHeadersRemoved)])
	assert.Equal(t, 1, counts[string(tblerr.DuplicateColumns)])
}
