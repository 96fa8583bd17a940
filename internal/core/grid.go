package core

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellRange is an inclusive, 0-based rectangle of sheet cells.
type CellRange struct {
	RowStart, RowEnd int
	ColStart, ColEnd int
}

// Rows returns the number of rows in the range.
func (r CellRange) Rows() int { return r.RowEnd - r.RowStart + 1 }

// Cols returns the number of columns in the range.
func (r CellRange) Cols() int { return r.ColEnd - r.ColStart + 1 }

// Ref returns the A1-style reference for the range, e.g. "A1:AR12".
func (r CellRange) Ref() string {
	start, err := excelize.CoordinatesToCellName(r.ColStart+1, r.RowStart+1)
	if err != nil {
		return ""
	}
	end, err := excelize.CoordinatesToCellName(r.ColEnd+1, r.RowEnd+1)
	if err != nil {
		return ""
	}
	return start + ":" + end
}

// Union returns the smallest range covering both r and o.
func (r CellRange) Union(o CellRange) CellRange {
	return CellRange{
		RowStart: min(r.RowStart, o.RowStart),
		RowEnd:   max(r.RowEnd, o.RowEnd),
		ColStart: min(r.ColStart, o.ColStart),
		ColEnd:   max(r.ColEnd, o.ColEnd),
	}
}

// ParseRange decodes an A1-style bounding reference. A single cell
// reference ("B3") is a one-cell range.
func ParseRange(ref string) (CellRange, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return CellRange{}, &FormatError{Reason: "missing sheet bounding reference"}
	}

	startRef, endRef, found := strings.Cut(ref, ":")
	if !found {
		endRef = startRef
	}

	c1, r1, err := excelize.CellNameToCoordinates(startRef)
	if err != nil {
		return CellRange{}, &FormatError{Reason: fmt.Sprintf("bad reference %q", ref), Err: err}
	}
	c2, r2, err := excelize.CellNameToCoordinates(endRef)
	if err != nil {
		return CellRange{}, &FormatError{Reason: fmt.Sprintf("bad reference %q", ref), Err: err}
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}

	return CellRange{RowStart: r1 - 1, RowEnd: r2 - 1, ColStart: c1 - 1, ColEnd: c2 - 1}, nil
}

// Grid is one spreadsheet sheet: a bounding reference plus cell values.
// Rows are addressed absolutely, so Rows[0] is sheet row 1 and Rows[r][0]
// is column A. Rows may be ragged; cells outside them are empty.
// An empty cell is nil.
type Grid struct {
	Ref  string
	Rows [][]any
}

// NewGrid builds a grid anchored at A1 whose reference covers every row and
// the widest column of rows.
func NewGrid(rows [][]any) *Grid {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	g := &Grid{Rows: rows}
	if len(rows) > 0 && width > 0 {
		g.Ref = CellRange{RowEnd: len(rows) - 1, ColEnd: width - 1}.Ref()
	}
	return g
}

// Range parses the grid's bounding reference.
func (g *Grid) Range() (CellRange, error) {
	if g == nil {
		return CellRange{}, &FormatError{Reason: "no sheet data"}
	}
	return ParseRange(g.Ref)
}

// Cell returns the value at a 0-based row and column, or nil when empty.
func (g *Grid) Cell(row, col int) any {
	if row < 0 || row >= len(g.Rows) {
		return nil
	}
	cells := g.Rows[row]
	if col < 0 || col >= len(cells) {
		return nil
	}
	return cells[col]
}

// Extent returns the bounding range of the grid's non-empty cells.
// ok is false when every cell is empty.
func (g *Grid) Extent() (r CellRange, ok bool) {
	for i, row := range g.Rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			if !ok {
				r = CellRange{RowStart: i, RowEnd: i, ColStart: j, ColEnd: j}
				ok = true
				continue
			}
			r = r.Union(CellRange{RowStart: i, RowEnd: i, ColStart: j, ColEnd: j})
		}
	}
	return r, ok
}
