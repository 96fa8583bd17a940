package core

import "fmt"

// ExportSheetName is the sheet name used for exported workbooks.
const ExportSheetName = "Exported Data"

// ExportGrid projects records into a grid whose first row holds the field
// labels and whose following rows hold one record each, in registry order.
// An empty input is an [EmptyResultError] rather than a header-only grid.
func ExportGrid(records []Record, reg *Registry) (*Grid, error) {
	if len(records) == 0 {
		return nil, &EmptyResultError{Op: "export"}
	}

	rows := make([][]any, 0, len(records)+1)

	header := make([]any, reg.Len())
	for i, label := range reg.Labels() {
		header[i] = label
	}
	rows = append(rows, header)

	for i, rec := range records {
		if err := reg.Validate(rec); err != nil {
			return nil, fmt.Errorf("export record %d: %w", i+1, err)
		}
		rows = append(rows, rec.Values(reg))
	}

	return &Grid{
		Ref:  CellRange{RowEnd: len(rows) - 1, ColEnd: reg.Len() - 1}.Ref(),
		Rows: rows,
	}, nil
}
