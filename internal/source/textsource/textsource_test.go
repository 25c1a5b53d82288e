package textsource_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablerecover/tablerecover/internal/source/textsource"
)

func TestReadDecodesCSV(t *testing.T) {
	r := strings.NewReader("Name,Qty,Price\nWidget,3,9.99\nGadget,1,19.99\n")
	sheet, err := textsource.Read(r, ',')
	require.NoError(t, err)

	assert.Equal(t, 3, sheet.Rows)
	assert.Equal(t, 3, sheet.Cols)
	assert.Equal(t, []string{"Name", "Qty", "Price"}, sheet.Values[0])
	assert.False(t, sheet.HasStyles)
	assert.False(t, sheet.HasBorders)
	assert.Empty(t, sheet.Merges)
}

func TestReadDecodesTSVWithRaggedRows(t *testing.T) {
	r := strings.NewReader("a\tb\tc\nx\ty\n")
	sheet, err := textsource.Read(r, '\t')
	require.NoError(t, err)

	assert.Equal(t, 2, sheet.Rows)
	assert.Equal(t, 3, sheet.Cols)
	assert.Equal(t, []string{"x", "y"}, sheet.Values[1])
}

func TestReadFilePicksDelimiterFromExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.tsv")
	require.NoError(t, os.WriteFile(path, []byte("a\tb\n1\t2\n"), 0o644))

	sheet, err := textsource.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sheet.Values[0])
}

func TestValidateExtensionAcceptsAndRejects(t *testing.T) {
	assert.NoError(t, textsource.ValidateExtension("data.csv"))
	assert.NoError(t, textsource.ValidateExtension("data.tsv"))
	assert.NoError(t, textsource.ValidateExtension("data.txt"))
	assert.Error(t, textsource.ValidateExtension("data.xlsx"))
}
