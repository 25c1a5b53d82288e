// Package output emits a run's artifacts: one delimited-text file per
// recovered table, a tables_meta.json metadata file, and a manifest.yml
// at the run root, per spec.md §6. Grounded on
// original_source/excel_reader/exporter.py's Exporter
// (export_csv/export_metadata/export_manifest, filename sanitization and
// dup-collision counter), with the delimited-text writer's option set
// generalized from goxls/pkg/export/csv.go's CSVOptions.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tablerecover/tablerecover/internal/assembler"
	"github.com/tablerecover/tablerecover/internal/config"
	"github.com/tablerecover/tablerecover/pkg/tblerr"
)

// invalidFilenameChars are replaced with "_" during sanitization, per
// spec.md §6.
const invalidFilenameChars = `\/:*?"<>|`

const runTimestampLayout = "20060102T150405Z"

// Options controls delimited-text emission, generalized from
// exporter.py's csv_encoding/csv_index/csv_na_rep knobs and
// goxls's CSVOptions (Delimiter, UseCRLF).
type Options struct {
	// Encoding names the text encoding tag recorded in metadata; the
	// writer itself always emits UTF-8 bytes.
	Encoding string
	// IncludeRowIndex prepends a zero-based row-index column, mirroring
	// pandas' default to_csv(index=True) behavior.
	IncludeRowIndex bool
	// NullValue is written for absent/empty cells.
	NullValue string
	// Delimiter separates fields; ',' for CSV, '\t' for TSV.
	Delimiter rune
	// UseCRLF uses "\r\n" line endings instead of "\n".
	UseCRLF bool
}

// DefaultOptions mirrors exporter.py's CSV defaults.
func DefaultOptions() Options {
	return Options{
		Encoding:  "utf-8",
		NullValue: "",
		Delimiter: ',',
		UseCRLF:   false,
	}
}

// Extension returns the file extension implied by the delimiter.
func (o Options) Extension() string {
	if o.Delimiter == '\t' {
		return "tsv"
	}
	return "csv"
}

// SanitizeFilename strips characters forbidden in output filenames and
// caps length, per spec.md §6. When cfg.SanitizeFileName is false the
// name is returned unchanged.
func SanitizeFilename(name string, cfg config.Options) string {
	if !cfg.SanitizeFileName {
		return name
	}

	out := name
	for _, ch := range invalidFilenameChars {
		out = strings.ReplaceAll(out, string(ch), "_")
	}
	out = strings.TrimSpace(out)

	maxLen := 120
	if cfg.LongPathSupport {
		maxLen = 200
	}
	if len(out) > maxLen {
		out = out[:maxLen]
	}

	if out == "" {
		out = "table"
	}
	return out
}

// WriteTable sanitizes table's name, resolves a non-colliding filename
// under csvDir (inserting "_dupN" on collision, per spec.md §6 and §8
// property 7), writes it as delimited text, and returns the path
// relative to runDir.
func WriteTable(runDir, csvDir string, table assembler.RecoveredTable, name string, ts time.Time, cfg config.Options, o Options) (string, error) {
	safeName := SanitizeFilename(name, cfg)
	tsStr := ts.UTC().Format(runTimestampLayout)
	ext := o.Extension()

	f, finalName, err := createExclusive(csvDir, safeName, tsStr, ext)
	if err != nil {
		return "", tblerr.New(tblerr.OutputWrite, "output.WriteTable", err)
	}
	defer f.Close()

	if err := writeDelimited(f, table, o); err != nil {
		return "", tblerr.New(tblerr.OutputWrite, "output.WriteTable", err)
	}

	full := filepath.Join(csvDir, finalName)
	rel, err := filepath.Rel(runDir, full)
	if err != nil {
		return full, nil
	}
	return rel, nil
}

// createExclusive opens a new, uniquely-named file in dir using
// O_CREATE|O_EXCL so concurrent writers never clobber one another,
// incrementing a "_dupN" suffix on collision per exporter.py's
// export_csv. A prior "_dupN" suffix is stripped from safeName before a
// new one is appended, so repeated collisions never stack suffixes.
func createExclusive(dir, safeName, tsStr, ext string) (*os.File, string, error) {
	base := safeName
	name := fmt.Sprintf("%s_%s.%s", base, tsStr, ext)

	for counter := 1; ; counter++ {
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !os.IsExist(err) {
			return nil, "", err
		}

		trimmed := base
		if idx := strings.LastIndex(trimmed, fmt.Sprintf("_dup%d", counter-1)); counter > 1 && idx >= 0 {
			trimmed = trimmed[:idx]
		}
		name = fmt.Sprintf("%s_dup%d_%s.%s", trimmed, counter, tsStr, ext)
	}
}

func writeDelimited(f *os.File, table assembler.RecoveredTable, o Options) error {
	w := csv.NewWriter(f)
	w.Comma = o.Delimiter
	w.UseCRLF = o.UseCRLF

	header := table.Columns
	if o.IncludeRowIndex {
		header = append([]string{""}, header...)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for rowIdx, row := range table.Rows {
		record := make([]string, 0, len(row)+1)
		if o.IncludeRowIndex {
			record = append(record, fmt.Sprintf("%d", rowIdx))
		}
		for _, cell := range row {
			if cell == "" {
				cell = o.NullValue
			}
			record = append(record, cell)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", rowIdx, err)
		}
	}

	w.Flush()
	return w.Error()
}

// metaDoc is the on-disk shape of one tables_meta.json entry, field
// names grounded on exporter.py's export_metadata dict literal.
type metaDoc struct {
	SourceFile string               `json:"source_file"`
	Sheet      string               `json:"sheet,omitempty"`
	BlockID    string               `json:"block_id"`
	Bbox       [4]int               `json:"bbox"`
	IsMain     bool                 `json:"is_main"`
	Score      scoreDoc             `json:"score"`
	Header     headerDoc            `json:"header"`
	CSVPath    string               `json:"csv_path,omitempty"`
	Warnings   []tblerr.WarningCode `json:"warnings,omitempty"`
	Units      string               `json:"units,omitempty"`
}

type scoreDoc struct {
	Area               int     `json:"area"`
	Density            float64 `json:"density"`
	TypeConsistency    float64 `json:"type_consistency"`
	BorderCompleteness float64 `json:"border_completeness"`
	HeaderCompleteness float64 `json:"header_completeness"`
	Total              float64 `json:"total"`
}

type headerDoc struct {
	HeaderRows  []int    `json:"header_rows"`
	LeafColumns []string `json:"leaf_columns"`
}

// WriteMetadata writes one tables_meta.json under artifactsDir,
// keyed by each table's df-key, per spec.md §6.
func WriteMetadata(artifactsDir string, tables []assembler.RecoveredTable) error {
	doc := make(map[string]metaDoc, len(tables))
	for _, t := range tables {
		m := t.Meta
		doc[t.Key] = metaDoc{
			SourceFile: m.Source,
			Sheet:      m.Sheet,
			BlockID:    m.BlockID,
			Bbox:       [4]int{m.R0, m.R1, m.C0, m.C1},
			IsMain:     m.IsMain,
			Score: scoreDoc{
				Area:               m.Score.Area,
				Density:            m.Score.Density,
				TypeConsistency:    m.Score.TypeConsistency,
				BorderCompleteness: m.Score.BorderCompleteness,
				HeaderCompleteness: m.Score.HeaderCompleteness,
				Total:              m.Score.Total,
			},
			Header: headerDoc{
				HeaderRows:  m.Header.HeaderRows,
				LeafColumns: m.Header.LeafColumns,
			},
			CSVPath:  m.Artifact,
			Warnings: m.Warnings,
			Units:    m.Unit,
		}
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return tblerr.New(tblerr.OutputWrite, "output.WriteMetadata", err)
	}

	path := filepath.Join(artifactsDir, "tables_meta.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return tblerr.New(tblerr.OutputWrite, "output.WriteMetadata", err)
	}
	return nil
}

// OutputItem is one manifest output-list entry, per spec.md §6.
type OutputItem struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	Rows int    `yaml:"rows"`
	Cols int    `yaml:"cols"`
}

// Manifest is the manifest.yml document written at the run root, per
// spec.md §6 "Manifest".
type Manifest struct {
	RunID         string         `yaml:"run_id"`
	Source        string         `yaml:"source"`
	Format        string         `yaml:"format"`
	Sheets        []string       `yaml:"sheets,omitempty"`
	ConfigProfile string         `yaml:"config_profile"`
	StartedAtUTC  string         `yaml:"started_at_utc"`
	FinishedAtUTC string         `yaml:"finished_at_utc"`
	Outputs       []OutputItem   `yaml:"outputs"`
	Warnings      map[string]int `yaml:"warnings"`
}

// WriteManifest writes manifest.yml at runDir's root.
func WriteManifest(runDir string, m Manifest) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return tblerr.New(tblerr.OutputWrite, "output.WriteManifest", err)
	}
	path := filepath.Join(runDir, "manifest.yml")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return tblerr.New(tblerr.OutputWrite, "output.WriteManifest", err)
	}
	return nil
}

// WarningCounts tallies every warning code across a run's tables for
// the manifest's warnings dictionary.
func WarningCounts(tables []assembler.RecoveredTable) map[string]int {
	counts := make(map[string]int)
	for _, t := range tables {
		for _, w := range t.Meta.Warnings {
			counts[string(w)]++
		}
	}
	return counts
}
