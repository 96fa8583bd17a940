package core

import (
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ----------------------------------------------------------------------------
// ToPgInt8 Tests
// ----------------------------------------------------------------------------

func TestToPgInt8(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      int64
	}{
		{"plain integer", "1500", true, 1500},
		{"thousands separators", "12,345", true, 12345},
		{"surrounding whitespace", "  42 ", true, 42},
		{"negative", "-7", true, -7},
		{"decimal truncated", "12.9", true, 12},
		{"scientific", "1e3", true, 1000},
		{"employee range", "1001-5000", true, 1001},
		{"open range", "10001+", true, 10001},
		{"empty", "", false, 0},
		{"whitespace only", "   ", false, 0},
		{"words", "about ten", false, 0},
		{"overflow", "99999999999999999999", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgInt8(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgInt8(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.Int64 != tt.want {
				t.Errorf("ToPgInt8(%q) = %d, want %d", tt.input, got.Int64, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgNumeric Tests
// ----------------------------------------------------------------------------

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      float64
	}{
		{"integer", "123", true, 123},
		{"decimal", "123.45", true, 123.45},
		{"leading decimal point", ".99", true, 0.99},
		{"dollar with separators", "$1,234.56", true, 1234.56},
		{"euro", "€500", true, 500},
		{"pound", "£20", true, 20},
		{"accounting negative", "(1,000.00)", true, -1000},
		{"empty", "", false, 0},
		{"text", "N/A", false, 0},
		{"two decimal points", "1.2.3", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgNumeric(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgNumeric(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if !tt.wantValid {
				return
			}
			f, err := got.Float64Value()
			if err != nil {
				t.Fatalf("Float64Value: %v", err)
			}
			if math.Abs(f.Float64-tt.want) > 1e-9 {
				t.Errorf("ToPgNumeric(%q) = %v, want %v", tt.input, f.Float64, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgDate Tests
// ----------------------------------------------------------------------------

func TestToPgDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      string // YYYY-MM-DD
	}{
		{"ISO", "2024-01-15", true, "2024-01-15"},
		{"ISO slashes", "2024/02/29", true, "2024-02-29"},
		{"US slashes", "3/9/2015", true, "2015-03-09"},
		{"US dashes padded", "03-09-2015", true, "2015-03-09"},
		{"month name", "Jan 2, 2019", true, "2019-01-02"},
		{"long month name", "January 2, 2019", true, "2019-01-02"},
		{"year only", "2011", true, "2011-01-01"},
		{"compact", "20190102", true, "2019-01-02"},
		{"excel serial", "42072", true, "2015-03-09"},
		{"excel serial with fraction", "42072.75", true, "2015-03-09"},
		{"empty", "", false, ""},
		{"text", "sometime", false, ""},
		{"invalid day", "2024-02-30", false, ""},
		{"serial too small", "0", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgDate(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgDate(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.Time.Format("2006-01-02") != tt.want {
				t.Errorf("ToPgDate(%q) = %s, want %s", tt.input, got.Time.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestToPgDate_TwoDigitYear(t *testing.T) {
	originalPivot := TwoDigitYearPivot
	defer func() { TwoDigitYearPivot = originalPivot }()
	TwoDigitYearPivot = 20

	pivotYear := time.Now().Year() + 20

	tests := []struct {
		input    string
		wantYear int
	}{
		{"01/15/99", 1999},
		{"01/15/85", 1985},
		{"01/15/05", 2005},
	}

	for _, tt := range tests {
		got := ToPgDate(tt.input)
		if !got.Valid {
			t.Fatalf("ToPgDate(%q) invalid", tt.input)
		}
		if got.Time.Year() != tt.wantYear {
			t.Errorf("ToPgDate(%q) year = %d, want %d", tt.input, got.Time.Year(), tt.wantYear)
		}
		if got.Time.Year() > pivotYear {
			t.Errorf("ToPgDate(%q) year %d beyond pivot %d", tt.input, got.Time.Year(), pivotYear)
		}
	}
}

// ----------------------------------------------------------------------------
// ToPgBool / ToPgText Tests
// ----------------------------------------------------------------------------

func TestToPgBool(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"Yes", true, true},
		{"y", true, true},
		{"1", true, true},
		{" t ", true, true},
		{"false", true, false},
		{"No", true, false},
		{"0", true, false},
		{"f", true, false},
		{"", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		got := ToPgBool(tt.input)
		if got.Valid != tt.wantValid || got.Bool != tt.want {
			t.Errorf("ToPgBool(%q) = {%v %v}, want {%v %v}", tt.input, got.Bool, got.Valid, tt.want, tt.wantValid)
		}
	}
}

func TestToPgText(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      string
	}{
		{"Acme", true, "Acme"},
		{"  padded  ", true, "padded"},
		{"multi\nline", true, "multi\nline"},
		{"", false, ""},
		{" \t\n", false, ""},
	}

	for _, tt := range tests {
		got := ToPgText(tt.input)
		if got.Valid != tt.wantValid || got.String != tt.want {
			t.Errorf("ToPgText(%q) = {%q %v}, want {%q %v}", tt.input, got.String, got.Valid, tt.want, tt.wantValid)
		}
	}
}

// ----------------------------------------------------------------------------
// CoerceValue / CoerceRecord Tests
// ----------------------------------------------------------------------------

func TestCoerceValue_NonStringCells(t *testing.T) {
	if got := CoerceValue(KindInteger, float64(1500)); got != (pgtype.Int8{Int64: 1500, Valid: true}) {
		t.Errorf("integer from float64 = %+v", got)
	}
	if got := CoerceValue(KindInteger, math.NaN()); got != (pgtype.Int8{}) {
		t.Errorf("integer from NaN = %+v, want invalid", got)
	}
	if got := CoerceValue(KindFlag, true); got != (pgtype.Bool{Bool: true, Valid: true}) {
		t.Errorf("flag from bool = %+v", got)
	}
	if got := CoerceValue(KindMoneyCurrency, "usd"); got != (pgtype.Text{String: "USD", Valid: true}) {
		t.Errorf("currency = %+v, want USD", got)
	}

	d, ok := CoerceValue(KindDate, float64(42072)).(pgtype.Date)
	if !ok || !d.Valid || d.Time.Format("2006-01-02") != "2015-03-09" {
		t.Errorf("date from serial = %+v", d)
	}

	when := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	if got := CoerceValue(KindDate, when); got != (pgtype.Date{Time: when, Valid: true}) {
		t.Errorf("date from time.Time = %+v", got)
	}
}

func TestCoerceRecord_RegistryOrder(t *testing.T) {
	reg := Funding()
	values := CoerceRecord(reg, Record{
		"organization_name":   "Acme",
		"number_of_employees": "1001-5000",
		"comment":             "last",
	})

	if len(values) != reg.Len() {
		t.Fatalf("len = %d, want %d", len(values), reg.Len())
	}
	if values[0] != (pgtype.Text{String: "Acme", Valid: true}) {
		t.Errorf("values[0] = %+v", values[0])
	}

	f, _ := reg.Lookup("number_of_employees")
	if values[f.Position] != (pgtype.Int8{Int64: 1001, Valid: true}) {
		t.Errorf("number_of_employees = %+v", values[f.Position])
	}
	if values[reg.Len()-1] != (pgtype.Text{String: "last", Valid: true}) {
		t.Errorf("last value = %+v", values[reg.Len()-1])
	}

	f, _ = reg.Lookup("monthly_visits")
	if values[f.Position] != (pgtype.Int8{}) {
		t.Errorf("missing integer should be NULL, got %+v", values[f.Position])
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{[]byte("b"), "b"},
		{float64(1.5), "1.5"},
		{float64(1000), "1000"},
		{42, "42"},
		{int64(-3), "-3"},
		{true, "true"},
		{time.Date(2015, 3, 9, 0, 0, 0, 0, time.UTC), "2015-03-09"},
	}
	for _, tt := range tests {
		if got := CellString(tt.in); got != tt.want {
			t.Errorf("CellString(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeValue(t *testing.T) {
	if got := NormalizeValue([]byte("abc")); got != "abc" {
		t.Errorf("bytes = %#v", got)
	}
	if got := NormalizeValue(ToPgNumeric("12.5")); got != 12.5 {
		t.Errorf("numeric = %#v", got)
	}
	if got := NormalizeValue(pgtype.Numeric{}); got != nil {
		t.Errorf("invalid numeric = %#v, want nil", got)
	}
	if got := NormalizeValue(int64(3)); got != int64(3) {
		t.Errorf("int64 = %#v", got)
	}
}
