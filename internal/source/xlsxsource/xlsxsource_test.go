package xlsxsource_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tablerecover/tablerecover/internal/source/xlsxsource"
)

func buildWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	sh := "Sheet1"

	require.NoError(t, f.SetSheetRow(sh, "A1", &[]string{"Name", "Qty", "Price"}))
	require.NoError(t, f.SetSheetRow(sh, "A2", &[]string{"Widget", "3", "9.99"}))
	require.NoError(t, f.SetSheetRow(sh, "A3", &[]string{"Gadget", "1", "19.99"}))

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sh, "A1", "C1", boldStyle))

	require.NoError(t, f.SetColVisible(sh, "B", false))

	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestReadSheetDecodesValuesAndStyles(t *testing.T) {
	path := buildWorkbook(t)
	src, err := xlsxsource.Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Contains(t, src.SheetNames(), "Sheet1")

	sheet, err := src.ReadSheet("Sheet1")
	require.NoError(t, err)

	assert.Equal(t, 3, sheet.Rows)
	assert.Equal(t, []string{"Name", "Qty", "Price"}, sheet.Values[0])
	assert.True(t, sheet.HasStyles)
	assert.True(t, sheet.Styles[[2]int{0, 0}].Bold)
	assert.True(t, sheet.HiddenCols[1])
}

func TestReadSheetDecodesMerges(t *testing.T) {
	f := excelize.NewFile()
	sh := "Sheet1"
	require.NoError(t, f.SetSheetRow(sh, "A1", &[]string{"Revenue", "", "Cost", ""}))
	require.NoError(t, f.MergeCell(sh, "A1", "B1"))
	require.NoError(t, f.MergeCell(sh, "C1", "D1"))

	dir := t.TempDir()
	path := filepath.Join(dir, "merged.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	src, err := xlsxsource.Open(path)
	require.NoError(t, err)
	defer src.Close()

	sheet, err := src.ReadSheet("Sheet1")
	require.NoError(t, err)
	require.Len(t, sheet.Merges, 2)
}

func TestValidateExtensionAcceptsAndRejects(t *testing.T) {
	assert.NoError(t, xlsxsource.ValidateExtension("book.xlsx"))
	assert.NoError(t, xlsxsource.ValidateExtension("book.xlsb"))
	assert.Error(t, xlsxsource.ValidateExtension("book.docx"))
}
