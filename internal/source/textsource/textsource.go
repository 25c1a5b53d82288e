// Package textsource decodes a delimited-text file (CSV/TSV) into the
// single pseudo-sheet contract spec.md §6 describes for non-spreadsheet
// input: no merges, borders, styles, or hidden sets, all values
// textual. Grounded on the teacher's plain stdlib `encoding/csv` reading
// style (the teacher has no CSV reader of its own, so this follows
// encoding/csv idiomatically the way goxls/pkg/export/csv.go writes CSV
// with the same package).
package textsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tablerecover/tablerecover/internal/grid"
	"github.com/tablerecover/tablerecover/pkg/tblerr"
)

// Delimiter picks the field separator from the file extension: tab
// for .tsv, comma for everything else (.csv and .txt).
func Delimiter(path string) rune {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tsv") {
		return '\t'
	}
	return ','
}

// ReadFile decodes path into a single pseudo-sheet using the delimiter
// its extension implies. The sheet's Name is left empty, since delimited
// text has no sheet concept (spec.md §6).
func ReadFile(path string) (grid.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return grid.Sheet{}, tblerr.New(tblerr.FileRead, "textsource.ReadFile", err)
	}
	defer f.Close()

	return Read(f, Delimiter(path))
}

// Read decodes r into a single pseudo-sheet using the given delimiter.
func Read(r io.Reader, delimiter rune) (grid.Sheet, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1 // rows may have a ragged column count
	cr.LazyQuotes = true

	var values [][]string
	cols := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return grid.Sheet{}, tblerr.New(tblerr.FileRead, "textsource.Read", err)
		}
		if len(record) > cols {
			cols = len(record)
		}
		values = append(values, record)
	}

	return grid.Sheet{
		Rows:   len(values),
		Cols:   cols,
		Values: values,
	}, nil
}

// ValidateExtension reports whether path's extension is a supported
// delimited-text format, per spec.md §7's UnsupportedFormat kind.
func ValidateExtension(path string) error {
	lower := strings.ToLower(path)
	for _, ok := range []string{".csv", ".tsv", ".txt"} {
		if strings.HasSuffix(lower, ok) {
			return nil
		}
	}
	return tblerr.New(tblerr.UnsupportedFormat, "textsource.ValidateExtension", fmt.Errorf("unsupported extension: %s", path))
}
