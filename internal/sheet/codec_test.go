package sheet

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JonMunkholm/fundsheet/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTemp(t *testing.T, g *core.Grid, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, New().WriteGrid(&buf, g, "Data"))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestWriteThenRead(t *testing.T) {
	g := core.NewGrid([][]any{
		{"organization_name", "monthly_visits", "website"},
		{"Acme", 1200, "acme.com"},
		{"Globex", nil, "globex.com"},
	})

	path := writeTemp(t, g, "book.xlsx")
	got, err := New().ReadGrid(path)
	require.NoError(t, err)

	assert.Equal(t, "A1:C3", got.Ref)
	require.Len(t, got.Rows, 3)
	assert.Equal(t, "Acme", got.Cell(1, 0))
	assert.Equal(t, "1200", got.Cell(1, 1))
	assert.Nil(t, got.Cell(2, 1), "empty cell should read as nil")
	assert.Equal(t, "globex.com", got.Cell(2, 2))
}

func TestWriteGrid_FormatsDates(t *testing.T) {
	g := core.NewGrid([][]any{
		{"founded_date"},
		{time.Date(2015, 3, 9, 0, 0, 0, 0, time.UTC)},
	})

	got, err := New().ReadGrid(writeTemp(t, g, "dates.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "2015-03-09", got.Cell(1, 0))
}

func TestReadGrid_NotAWorkbook(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		wantReason string
	}{
		{"garbage xlsx", "bad.xlsx", "cannot open workbook"},
		{"legacy xls", "old.xls", "legacy .xls workbooks are not supported, save as .xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0o600))

			_, err := New().ReadGrid(path)
			var fe *core.FormatError
			require.True(t, errors.As(err, &fe), "want FormatError, got %v", err)
			assert.Equal(t, tt.wantReason, fe.Reason)
		})
	}
}

func TestReadGrid_MissingFile(t *testing.T) {
	_, err := New().ReadGrid(filepath.Join(t.TempDir(), "missing.xlsx"))
	var fe *core.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestWriteFile_ReadsBackFirstSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.xlsx")
	g := core.NewGrid([][]any{
		{"a", "b"},
		{"1", "2"},
	})
	require.NoError(t, New().WriteFile(path, g, "First"))

	got, err := New().ReadGrid(path)
	require.NoError(t, err)
	assert.Equal(t, "A1:B2", got.Ref)
	assert.Equal(t, "2", got.Cell(1, 1))
}

func TestExportRoundTripThroughWorkbook(t *testing.T) {
	reg := core.Funding()
	records := []core.Record{
		{"organization_name": "Acme", "website": "acme.com", "number_of_employees": "1001-5000"},
		{"organization_name": "Initech", "contact_name": "Bill Lumbergh"},
	}

	g, err := core.ExportGrid(records, reg)
	require.NoError(t, err)

	got, err := New().ReadGrid(writeTemp(t, g, "export.xlsx"))
	require.NoError(t, err)

	decoded, err := core.DecodeAll(got, reg, core.DecodeOptions{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, decoded, len(records))

	for i, want := range records {
		for _, f := range reg.Fields() {
			assert.Equal(t, want[f.Name], decoded[i][f.Name], "record %d field %s", i, f.Name)
		}
	}
}

// setDimension rewrites the stored dimension of the first sheet.
func setDimension(t *testing.T, path, ref string) {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.SetSheetDimension(f.GetSheetName(0), ref))
	require.NoError(t, f.Save())
}

func TestReadGrid_DimensionOnlyWidens(t *testing.T) {
	tests := []struct {
		name      string
		dimension string
		wantRef   string
	}{
		{"stale single cell", "A1", "A1:C3"},
		{"stale partial range", "A1:B2", "A1:C3"},
		{"accurate", "A1:C3", "A1:C3"},
		{"wider than data", "A1:E6", "A1:E6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "book.xlsx")
			g := core.NewGrid([][]any{
				{"organization_name", "monthly_visits", "website"},
				{"Acme", "1200", "acme.com"},
				{"Globex", nil, "globex.com"},
			})
			require.NoError(t, New().WriteFile(path, g, "Data"))
			setDimension(t, path, tt.dimension)

			got, err := New().ReadGrid(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRef, got.Ref)

			records, err := core.DecodeAll(got, core.Funding(), core.DecodeOptions{SkipRows: 1})
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(records), 2)
			assert.Equal(t, "Acme", records[0]["organization_name"])
			assert.Equal(t, "globex.com", records[1]["website"])
		})
	}
}
