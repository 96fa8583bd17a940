package core

// decode.go turns a sheet grid into records.
//
// The i-th column of the grid's bounding range maps to the field at
// position i. Columns past the last field are ignored; fields past the last
// column are nil. Cell values are carried verbatim; coercion happens at
// persistence time (see convert.go).

// DecodeOptions controls which rows of the range become records.
type DecodeOptions struct {
	// SkipRows drops this many leading rows of the range (header rows).
	SkipRows int
}

// RecordReader yields one record per grid row, in row order.
// It is lazy and cannot be restarted.
type RecordReader struct {
	grid *Grid
	reg  *Registry
	rng  CellRange

	next int // next sheet row to read
	row  int // sheet row of the current record
	cur  Record
}

// Decode validates the grid's bounding reference and returns a reader over
// its data rows. It fails only with a [FormatError]; cell contents are never
// inspected here.
func Decode(g *Grid, reg *Registry, opts DecodeOptions) (*RecordReader, error) {
	rng, err := g.Range()
	if err != nil {
		return nil, err
	}

	skip := opts.SkipRows
	if skip < 0 {
		skip = 0
	}

	return &RecordReader{
		grid: g,
		reg:  reg,
		rng:  rng,
		next: rng.RowStart + skip,
		row:  -1,
	}, nil
}

// Next advances to the next record. It returns false when the range is
// exhausted.
func (r *RecordReader) Next() bool {
	if r.next > r.rng.RowEnd {
		r.cur = nil
		return false
	}

	rec := make(Record, r.reg.Len())
	for i, f := range r.reg.fields {
		col := r.rng.ColStart + i
		if col > r.rng.ColEnd {
			rec[f.Name] = nil
			continue
		}
		rec[f.Name] = r.grid.Cell(r.next, col)
	}

	r.cur = rec
	r.row = r.next
	r.next++
	return true
}

// Record returns the current record. Valid after Next returns true.
func (r *RecordReader) Record() Record {
	return r.cur
}

// Row returns the 1-based sheet row of the current record.
func (r *RecordReader) Row() int {
	return r.row + 1
}

// Remaining returns how many records are left, including none once
// exhausted.
func (r *RecordReader) Remaining() int {
	n := r.rng.RowEnd - r.next + 1
	if n < 0 {
		return 0
	}
	return n
}

// DecodeAll drains a reader into a slice. Intended for tests and previews.
func DecodeAll(g *Grid, reg *Registry, opts DecodeOptions) ([]Record, error) {
	rr, err := Decode(g, reg, opts)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, rr.Remaining())
	for rr.Next() {
		records = append(records, rr.Record())
	}
	return records, nil
}
