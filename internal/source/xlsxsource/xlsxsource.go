// Package xlsxsource is the excelize-backed Sheet provider satisfying
// the external "file-format decoding" collaborator contract of spec.md
// §6: it surfaces {values, merges, borders, styles, hidden_rows,
// hidden_cols, sheet_name} for every sheet in a workbook. Grounded on
// the teacher's internal/insights package excelize usage
// (f.GetRows, excelize.CellNameToCoordinates/CoordinatesToCellName,
// f.GetCellStyle/f.GetStyle for style inspection).
package xlsxsource

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tablerecover/tablerecover/internal/grid"
	"github.com/tablerecover/tablerecover/pkg/tblerr"
)

// Source reads every sheet of one workbook into grid.Sheet values.
type Source struct {
	file *excelize.File
	path string
}

// Open reads the workbook at path. The caller must Close it when done.
func Open(path string) (*Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, tblerr.New(tblerr.FileRead, "xlsxsource.Open", err)
	}
	return &Source{file: f, path: path}, nil
}

// Close releases the underlying workbook.
func (s *Source) Close() error {
	return s.file.Close()
}

// SheetNames lists every sheet in discovery order.
func (s *Source) SheetNames() []string {
	return s.file.GetSheetList()
}

// ReadSheet decodes one sheet into a grid.Sheet, resolving merges,
// borders, styles, and hidden rows/cols through excelize.
func (s *Source) ReadSheet(name string) (grid.Sheet, error) {
	values, err := s.file.GetRows(name)
	if err != nil {
		return grid.Sheet{}, tblerr.New(tblerr.FileRead, "xlsxsource.ReadSheet", err)
	}

	rows := len(values)
	cols := 0
	for _, row := range values {
		if len(row) > cols {
			cols = len(row)
		}
	}

	sheet := grid.Sheet{
		Name:       name,
		Rows:       rows,
		Cols:       cols,
		Values:     values,
		HasStyles:  true,
		HasBorders: true,
		HiddenRows: map[int]bool{},
		HiddenCols: map[int]bool{},
	}

	sheet.Merges, err = s.readMerges(name)
	if err != nil {
		return grid.Sheet{}, err
	}

	sheet.Styles, sheet.Borders = s.readStyles(name, rows, cols)
	s.readHidden(name, rows, cols, &sheet)

	return sheet, nil
}

func (s *Source) readMerges(name string) ([]grid.MergeRange, error) {
	cells, err := s.file.GetMergeCells(name)
	if err != nil {
		return nil, tblerr.New(tblerr.FileRead, "xlsxsource.readMerges", err)
	}

	merges := make([]grid.MergeRange, 0, len(cells))
	for _, c := range cells {
		c0, r0, err1 := excelize.CellNameToCoordinates(c.GetStartAxis())
		c1, r1, err2 := excelize.CellNameToCoordinates(c.GetEndAxis())
		if err1 != nil || err2 != nil {
			continue
		}
		merges = append(merges, grid.MergeRange{
			R0: r0 - 1, R1: r1 - 1,
			C0: c0 - 1, C1: c1 - 1,
		})
	}
	return merges, nil
}

func (s *Source) readStyles(name string, rows, cols int) (map[[2]int]grid.Style, map[[2]int]grid.Borders) {
	styles := make(map[[2]int]grid.Style)
	borders := make(map[[2]int]grid.Borders)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cellName, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			styleID, err := s.file.GetCellStyle(name, cellName)
			if err != nil || styleID == 0 {
				continue
			}
			st, err := s.file.GetStyle(styleID)
			if err != nil || st == nil {
				continue
			}

			key := [2]int{r, c}
			var gridStyle grid.Style
			if st.Font != nil && st.Font.Bold {
				gridStyle.Bold = true
			}
			if st.Fill.Pattern > 0 || len(st.Fill.Color) > 0 {
				gridStyle.Fill = true
			}
			if gridStyle.Bold || gridStyle.Fill {
				styles[key] = gridStyle
			}

			if len(st.Border) > 0 {
				b := grid.Borders{}
				for _, bd := range st.Border {
					switch strings.ToLower(bd.Type) {
					case "top":
						b.Top = true
					case "right":
						b.Right = true
					case "bottom":
						b.Bottom = true
					case "left":
						b.Left = true
					}
				}
				if b.Top || b.Right || b.Bottom || b.Left {
					borders[key] = b
				}
			}
		}
	}
	return styles, borders
}

func (s *Source) readHidden(name string, rows, cols int, sheet *grid.Sheet) {
	for r := 0; r < rows; r++ {
		visible, err := s.file.GetRowVisible(name, r+1)
		if err == nil && !visible {
			sheet.HiddenRows[r] = true
		}
	}
	for c := 0; c < cols; c++ {
		colName, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			continue
		}
		visible, err := s.file.GetColVisible(name, colName)
		if err == nil && !visible {
			sheet.HiddenCols[c] = true
		}
	}
}

// ValidateExtension reports whether path's extension is a supported
// Excel format, per spec.md §7's UnsupportedFormat kind.
func ValidateExtension(path string) error {
	ext := strings.ToLower(path)
	for _, ok := range []string{".xlsx", ".xlsm", ".xltx", ".xltm", ".xlsb"} {
		if strings.HasSuffix(ext, ok) {
			return nil
		}
	}
	return tblerr.New(tblerr.UnsupportedFormat, "xlsxsource.ValidateExtension", fmt.Errorf("unsupported extension: %s", path))
}
