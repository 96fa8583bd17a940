package core

import "strings"

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteColumns quotes each column name in the slice.
func quoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdentifier(col)
	}
	return quoted
}

// placeholders returns n comma-separated ? markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// WhereBuilder accumulates parameterized conditions for a WHERE clause.
// Conditions are joined with OR; every value is bound through a ? marker.
type WhereBuilder struct {
	conditions []string
	args       []any
}

// NewWhereBuilder returns an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddIn adds `col IN (?, ...)`. Empty values are skipped.
func (wb *WhereBuilder) AddIn(col string, values []string) {
	if len(values) == 0 {
		return
	}
	wb.conditions = append(wb.conditions,
		quoteIdentifier(col)+" IN ("+placeholders(len(values))+")")
	for _, v := range values {
		wb.args = append(wb.args, v)
	}
}

// AddBetween adds `col BETWEEN ? AND ?`.
func (wb *WhereBuilder) AddBetween(col string, low, high int64) {
	wb.conditions = append(wb.conditions, quoteIdentifier(col)+" BETWEEN ? AND ?")
	wb.args = append(wb.args, low, high)
}

// AddMin adds `col >= ?`.
func (wb *WhereBuilder) AddMin(col string, minimum int64) {
	wb.conditions = append(wb.conditions, quoteIdentifier(col)+" >= ?")
	wb.args = append(wb.args, minimum)
}

// Len returns the number of conditions added so far.
func (wb *WhereBuilder) Len() int {
	return len(wb.conditions)
}

// Build returns the WHERE clause (with a leading space) and its args.
// Returns "" and nil when no conditions were added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " OR "), wb.args
}
