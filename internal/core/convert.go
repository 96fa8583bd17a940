package core

// convert.go coerces raw spreadsheet cell values into typed column values.
//
// Decoding keeps cells verbatim; coercion happens here, at persistence time,
// according to each field's kind. Spreadsheet data is messy:
//   - Multiple date formats (US, EU, ISO) and Excel serial day numbers
//   - Currency symbols, thousands separators and accounting negatives
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Employee counts written as ranges ("1001-5000", "10001+")
//
// All ToPg* functions return pgtype values with Valid=false for empty or
// unparseable input, so bad cells become NULL rather than failing the row.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// leadingIntRegex matches the integer a value starts with ("1001-5000" → 1001).
var leadingIntRegex = regexp.MustCompile(`^[+-]?\d+`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// maxExcelSerial is the serial day number of 9999-12-31.
const maxExcelSerial = 2958465

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "01-02-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "Jan 2006",
		"2006-01-02 15:04:05", time.RFC3339,
		"20060102", "2006",
	}
)

// CoerceRecord converts a record's raw values into typed column values in
// registry order, ready to bind to [Registry.InsertSQL].
func CoerceRecord(reg *Registry, rec Record) []any {
	values := make([]any, reg.Len())
	for i, f := range reg.fields {
		values[i] = CoerceValue(f.Kind, rec[f.Name])
	}
	return values
}

// CoerceValue converts one raw cell value to the pgtype value for kind.
func CoerceValue(kind FieldKind, v any) any {
	switch kind {
	case KindInteger:
		return toPgInt8Any(v)
	case KindDate:
		return toPgDateAny(v)
	case KindMoney:
		return ToPgNumeric(CellString(v))
	case KindMoneyCurrency:
		return ToPgText(strings.ToUpper(CellString(v)))
	case KindFlag:
		if b, ok := v.(bool); ok {
			return pgtype.Bool{Bool: b, Valid: true}
		}
		return ToPgBool(CellString(v))
	default:
		return ToPgText(CellString(v))
	}
}

// CellString renders a raw cell value as text. nil becomes "".
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprint(x)
	}
}

func toPgInt8Any(v any) pgtype.Int8 {
	switch x := v.(type) {
	case int64:
		return pgtype.Int8{Int64: x, Valid: true}
	case int:
		return pgtype.Int8{Int64: int64(x), Valid: true}
	case float64:
		if math.IsNaN(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return pgtype.Int8{Valid: false}
		}
		return pgtype.Int8{Int64: int64(x), Valid: true}
	}
	return ToPgInt8(CellString(v))
}

func toPgDateAny(v any) pgtype.Date {
	switch x := v.(type) {
	case time.Time:
		return pgtype.Date{Time: x, Valid: true}
	case float64:
		return excelSerialDate(x)
	}
	return ToPgDate(CellString(v))
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgInt8 converts a string to pgtype.Int8.
// Thousands separators are ignored, decimals are truncated, and a value that
// merely starts with an integer ("1001-5000", "10001+") yields that integer.
func ToPgInt8(s string) pgtype.Int8 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return pgtype.Int8{Valid: false}
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return pgtype.Int8{Int64: i, Valid: true}
	}
	if numericRegex.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= math.MinInt64 && f < math.MaxInt64 {
			return pgtype.Int8{Int64: int64(f), Valid: true}
		}
	}
	if m := leadingIntRegex.FindString(s); m != "" {
		if i, err := strconv.ParseInt(m, 10, 64); err == nil {
			return pgtype.Int8{Int64: i, Valid: true}
		}
	}
	return pgtype.Int8{Valid: false}
}

// ToPgDate converts a string to pgtype.Date.
// Supports multiple date formats, 2-digit years with pivot, and Excel serial
// day numbers.
func ToPgDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	currentYear := time.Now().Year()
	pivotYear := currentYear + TwoDigitYearPivot

	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return excelSerialDate(f)
	}

	return pgtype.Date{Valid: false}
}

func excelSerialDate(serial float64) pgtype.Date {
	if serial < 1 || serial > maxExcelSerial {
		return pgtype.Date{Valid: false}
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return pgtype.Date{Valid: false}
	}
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// ToPgNumeric converts a string to pgtype.Numeric.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ToPgNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, "₹", "") // Rupee
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}

	return n
}

// ToPgBool converts a string to pgtype.Bool.
// Accepts various representations: true/false, yes/no, t/f, y/n, 1/0.
func ToPgBool(s string) pgtype.Bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return pgtype.Bool{Valid: false}
	}

	switch s {
	case "true", "t", "yes", "y", "1":
		return pgtype.Bool{Bool: true, Valid: true}
	case "false", "f", "no", "n", "0":
		return pgtype.Bool{Bool: false, Valid: true}
	default:
		return pgtype.Bool{Valid: false}
	}
}

// NormalizeValue converts a value read back from a store into a plain Go
// scalar suitable for JSON and spreadsheet output.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Date:
		if !x.Valid {
			return nil
		}
		return x.Time
	case pgtype.Text:
		if !x.Valid {
			return nil
		}
		return x.String
	default:
		return v
	}
}
