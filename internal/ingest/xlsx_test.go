package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/datascrub-cli/internal/profile"
)

// buildWorkbook writes a two-sheet workbook: People (header in row 1, a
// blank row 3) and Other (header in row 2).
func buildWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "People"))
	require.NoError(t, f.SetSheetRow("People", "A1", &[]any{"name", "age"}))
	require.NoError(t, f.SetSheetRow("People", "A2", &[]any{"Alice", 30}))
	require.NoError(t, f.SetCellValue("People", "A4", "Bob"))

	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Other", "A2", &[]any{"x"}))
	require.NoError(t, f.SetSheetRow("Other", "A3", &[]any{"y"}))

	p := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(p))
	return p
}

func TestLoadXLSXFirstSheet(t *testing.T) {
	p := buildWorkbook(t)
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "People", tbl.Sheet)
	assert.Equal(t, []string{"name", "age"}, tbl.Data.Schema.Columns())
	require.Equal(t, 2, tbl.Data.Len(), "blank row skipped")
	assert.Equal(t, "Alice", tbl.Data.Rows[0]["name"])
	assert.Equal(t, "30", tbl.Data.Rows[0]["age"])
	assert.Equal(t, "Bob", tbl.Data.Rows[1]["name"])
	assert.Nil(t, profile.Normalize(tbl.Data.Rows[1]["age"]))
}

func TestLoadXLSXSheetByName(t *testing.T) {
	p := buildWorkbook(t)
	tbl, err := Load(p, Options{Sheet: "other"})
	require.NoError(t, err)
	assert.Equal(t, "Other", tbl.Sheet)
	assert.Equal(t, []string{"x"}, tbl.Data.Schema.Columns())
	require.Equal(t, 1, tbl.Data.Len())
	assert.Equal(t, "y", tbl.Data.Rows[0]["x"])

	tbl, err = Load(p, Options{SheetIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, "Other", tbl.Sheet)
}

func TestLoadXLSXSheetErrors(t *testing.T) {
	p := buildWorkbook(t)
	_, err := Load(p, Options{Sheet: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available sheets: People, Other")

	_, err = Load(p, Options{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestResolveSheetDefaultsToFirst(t *testing.T) {
	s, err := resolveSheet([]string{"A", "B"}, Options{}, "w.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "A", s)

	_, err = resolveSheet(nil, Options{}, "w.xlsx")
	assert.Error(t, err)
}
