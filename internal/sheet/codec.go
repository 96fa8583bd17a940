// Package sheet converts between workbook files and core.Grid using excelize.
//
// Only the first sheet of a workbook is read. Cell values are read raw
// (unformatted), so dates arrive as Excel serial numbers and numbers keep
// full precision; coercion to column types happens at persistence time.
package sheet

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/fundsheet/internal/core"
	"github.com/xuri/excelize/v2"
)

// Codec implements core.SheetCodec over excelize.
type Codec struct{}

// New returns a Codec.
func New() *Codec {
	return &Codec{}
}

// ReadGrid reads the first sheet of the workbook at path.
//
// The bounding reference is the sheet's dimension element widened to cover
// every occupied cell. A sheet with neither is a *core.FormatError.
func (c *Codec) ReadGrid(path string) (*core.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if strings.EqualFold(filepath.Ext(path), ".xls") {
			return nil, &core.FormatError{Reason: "legacy .xls workbooks are not supported, save as .xlsx", Err: err}
		}
		return nil, &core.FormatError{Reason: "cannot open workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &core.FormatError{Reason: "workbook has no sheets"}
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &core.FormatError{Reason: fmt.Sprintf("cannot read sheet %q", name), Err: err}
	}

	ref, err := f.GetSheetDimension(name)
	if err != nil {
		return nil, &core.FormatError{Reason: fmt.Sprintf("cannot read dimension of sheet %q", name), Err: err}
	}

	grid := core.NewGrid(toCells(rows))
	grid.Ref = boundingRef(grid, ref)
	if _, err := grid.Range(); err != nil {
		return nil, err
	}
	return grid, nil
}

// WriteGrid writes g to w as a workbook with one sheet. Rows are streamed
// starting at A1 regardless of g's reference.
func (c *Codec) WriteGrid(w io.Writer, g *core.Grid, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	for r, row := range g.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toValues(row)); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile writes g to a new workbook file at path.
func (c *Codec) WriteFile(path string, g *core.Grid, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	for r, row := range g.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	return f.SaveAs(path)
}

// boundingRef merges the stated dimension with the occupied extent of g.
// The dimension can only widen the range: excelize itself writes "A1"
// whatever the sheet holds.
func boundingRef(g *core.Grid, dimension string) string {
	extent, occupied := g.Extent()
	dim, err := core.ParseRange(dimension)
	switch {
	case occupied && err == nil:
		return extent.Union(dim).Ref()
	case occupied:
		return extent.Ref()
	case err == nil:
		return dim.Ref()
	default:
		return ""
	}
}

// toCells converts excelize rows to grid rows; empty strings become nil.
func toCells(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			if v != "" {
				cells[j] = v
			}
		}
		out[i] = cells
	}
	return out
}

// toValues prepares a grid row for the stream writer.
func toValues(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		v = core.NormalizeValue(v)
		if t, ok := v.(time.Time); ok {
			v = t.Format("2006-01-02")
		}
		out[i] = v
	}
	return out
}

var _ core.SheetCodec = (*Codec)(nil)
