package core

import (
	"fmt"
	"testing"
)

// ============================================================================
// Conversion Function Benchmarks
// ============================================================================

// BenchmarkToPgNumeric benchmarks money string conversion.
// This is a hot path during ingestion for the funding amount columns.
func BenchmarkToPgNumeric(b *testing.B) {
	testCases := []string{
		"123",
		"-456.78",
		"$1,234.56",
		"(123.45)",      // Accounting negative
		"1,234,567.89",  // Thousands separators
		"  999.99  ",    // Whitespace
		"\u20ac1234.56", // Euro
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToPgNumeric(tc)
		}
	}
}

// BenchmarkToPgInt8 benchmarks integer conversion, including the
// employee range form that falls through to the leading-integer path.
func BenchmarkToPgInt8(b *testing.B) {
	testCases := []string{
		"12345",
		"1,234,567",
		"1001-5000",
		"10001+",
		"42.9",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToPgInt8(tc)
		}
	}
}

// BenchmarkToPgDate benchmarks date parsing across the supported layouts.
func BenchmarkToPgDate(b *testing.B) {
	testCases := []string{
		"2024-01-15",   // ISO format
		"01/15/2024",   // US format
		"Jan 15, 2024", // Text month
		"1/5/24",       // 2-digit year
		"45306",        // Excel serial
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToPgDate(tc)
		}
	}
}

// BenchmarkToPgDate_ISO benchmarks the most common date format (ISO 8601).
func BenchmarkToPgDate_ISO(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ToPgDate("2024-01-15")
	}
}

// BenchmarkToPgDate_Serial benchmarks the slowest path: every layout misses.
func BenchmarkToPgDate_Serial(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ToPgDate("45306")
	}
}

func BenchmarkToPgBool(b *testing.B) {
	testCases := []string{"true", "FALSE", "yes", "n", "1", "maybe"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToPgBool(tc)
		}
	}
}

// ============================================================================
// Record Benchmarks
// ============================================================================

func benchRecord() Record {
	return Record{
		"organization_name":   "Acme Corporation",
		"monthly_visits":      "1,234,567",
		"founded_date":        "2015-03-09",
		"number_of_employees": "1001-5000",
		"actively_hiring":     "Yes",
		"last_funding_amount": "$25,000,000",
		"website":             "acme.com",
		"description":         "Makes everything",
		"contact_name":        "Wile E. Coyote",
	}
}

// BenchmarkCoerceRecord benchmarks converting one decoded row to insert
// arguments. It runs once per ingested row.
func BenchmarkCoerceRecord(b *testing.B) {
	reg := Funding()
	rec := benchRecord()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CoerceRecord(reg, rec)
	}
}

func benchGrid(rows int) *Grid {
	records := make([]Record, rows)
	for i := range records {
		rec := benchRecord()
		rec["organization_name"] = fmt.Sprintf("Company %d", i)
		records[i] = rec
	}
	g, err := ExportGrid(records, Funding())
	if err != nil {
		panic(err)
	}
	return g
}

// BenchmarkDecode benchmarks draining a 1,000 row grid.
func BenchmarkDecode(b *testing.B) {
	reg := Funding()
	g := benchGrid(1000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr, err := Decode(g, reg, DecodeOptions{SkipRows: 1})
		if err != nil {
			b.Fatal(err)
		}
		for rr.Next() {
			_ = rr.Record()
		}
	}
}

// BenchmarkExportGrid benchmarks projecting 1,000 records into a sheet.
func BenchmarkExportGrid(b *testing.B) {
	reg := Funding()
	records, err := DecodeAll(benchGrid(1000), reg, DecodeOptions{SkipRows: 1})
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ExportGrid(records, reg); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Query Building Benchmarks
// ============================================================================

// BenchmarkWhereBuilder benchmarks building a WHERE clause with multiple conditions.
func BenchmarkWhereBuilder(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wb := NewWhereBuilder()
		wb.AddIn("organization_name", []string{"Acme", "Globex", "Initech"})
		wb.AddBetween("number_of_employees", 1001, 5000)
		wb.AddMin("number_of_employees", 10001)
		wb.AddIn("website", []string{"acme.com"})
		wb.Build()
	}
}

// BenchmarkBuild benchmarks turning a typical search payload into SQL.
func BenchmarkBuild(b *testing.B) {
	builder := NewBuilder(Funding(), "")
	criteria := SearchCriteria{
		"organization_name":   TextValue("Acme, Globex\nInitech"),
		"website":             TextValue("acme.com globex.com"),
		"number_of_employees": TextValue("1001-5000, 10001+"),
		"industries":          TextValue("Fintech"),
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(criteria); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkQuoteIdentifier benchmarks SQL identifier quoting.
func BenchmarkQuoteIdentifier(b *testing.B) {
	testCases := []string{
		"funding_data",
		"organization_name",
		`table"with"quotes`,
		"last_equity_funding_amount_currency",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			quoteIdentifier(tc)
		}
	}
}

// ============================================================================
// Parallel Benchmarks
// ============================================================================

func BenchmarkToPgNumericParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ToPgNumeric("$1,234,567.89")
		}
	})
}

func BenchmarkCoerceRecordParallel(b *testing.B) {
	reg := Funding()
	rec := benchRecord()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			CoerceRecord(reg, rec)
		}
	})
}

func BenchmarkBuildParallel(b *testing.B) {
	builder := NewBuilder(Funding(), "")
	criteria := SearchCriteria{"organization_name": TextValue("Acme, Globex")}

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			builder.Build(criteria)
		}
	})
}
