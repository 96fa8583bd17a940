package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultTable is the table funding records are stored in.
const DefaultTable = "funding_data"

// Registry is an immutable, ordered set of field specifications.
// The same instance must back decoding, querying and exporting so column
// order can never drift between them.
type Registry struct {
	fields []FieldSpec
	index  map[string]int
}

// NewRegistry builds a registry from specs, assigning positions in slice order.
// Panics if a name is empty or repeated; registries are built at init time.
func NewRegistry(specs []FieldSpec) *Registry {
	r := &Registry{
		fields: make([]FieldSpec, len(specs)),
		index:  make(map[string]int, len(specs)),
	}

	for i, spec := range specs {
		if spec.Name == "" {
			panic(fmt.Sprintf("field %d has no name", i))
		}
		if _, exists := r.index[spec.Name]; exists {
			panic(fmt.Sprintf("field already registered: %s", spec.Name))
		}
		if spec.Label == "" {
			spec.Label = spec.Name
		}
		spec.Position = i
		r.fields[i] = spec
		r.index[spec.Name] = i
	}

	return r
}

var (
	fundingOnce     sync.Once
	fundingRegistry *Registry
)

// Funding returns the registry of the funding_data table.
func Funding() *Registry {
	fundingOnce.Do(func() {
		fundingRegistry = NewRegistry(fundingFields)
	})
	return fundingRegistry
}

// Fields returns the field specs in position order.
func (r *Registry) Fields() []FieldSpec {
	out := make([]FieldSpec, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r *Registry) Len() int {
	return len(r.fields)
}

// Lookup returns the spec for a field name.
func (r *Registry) Lookup(name string) (FieldSpec, bool) {
	i, ok := r.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return r.fields[i], true
}

// Columns returns the field names in position order.
func (r *Registry) Columns() []string {
	cols := make([]string, len(r.fields))
	for i, f := range r.fields {
		cols[i] = f.Name
	}
	return cols
}

// Labels returns the header labels in position order.
func (r *Registry) Labels() []string {
	labels := make([]string, len(r.fields))
	for i, f := range r.fields {
		labels[i] = f.Label
	}
	return labels
}

// Validate reports field names in rec that the registry does not know.
func (r *Registry) Validate(rec Record) error {
	var unknown []string
	for name := range rec {
		if _, ok := r.index[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown fields: %s", strings.Join(unknown, ", "))
}

// CreateTableSQL returns the bootstrap DDL for table.
func (r *Registry) CreateTableSQL(table string) string {
	defs := make([]string, len(r.fields))
	for i, f := range r.fields {
		defs[i] = quoteIdentifier(f.Name) + " " + f.Kind.SQLType()
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		quoteIdentifier(table), strings.Join(defs, ",\n\t"))
}

// InsertSQL returns a single-row insert for table with one ? per field.
func (r *Registry) InsertSQL(table string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table),
		strings.Join(quoteColumns(r.Columns()), ", "),
		placeholders(len(r.fields)),
	)
}

// fundingFields lists the funding_data columns in table order.
var fundingFields = []FieldSpec{
	{Name: "organization_name", Label: "Organization Name", Kind: KindText},
	{Name: "monthly_visits", Label: "Monthly Visits", Kind: KindInteger},
	{Name: "founded_date", Label: "Founded Date", Kind: KindDate},
	{Name: "operating_status", Label: "Operating Status", Kind: KindText},
	{Name: "company_type", Label: "Company Type", Kind: KindText},
	{Name: "ipo_status", Label: "IPO Status", Kind: KindText},
	// Bands such as "1001-5000" or "10001+" are stored as their lower bound
	// so that range searches compare numerically; search and export return
	// that integer, not the band text.
	{Name: "number_of_employees", Label: "Number of Employees", Kind: KindInteger},
	{Name: "contact_job_departments", Label: "Contact Job Departments", Kind: KindText},
	{Name: "actively_hiring", Label: "Actively Hiring", Kind: KindFlag},
	{Name: "last_funding_date", Label: "Last Funding Date", Kind: KindDate},
	{Name: "estimated_revenue_range", Label: "Estimated Revenue Range", Kind: KindText},
	{Name: "last_funding_type", Label: "Last Funding Type", Kind: KindText},
	{Name: "industries", Label: "Industries", Kind: KindText},
	{Name: "headquarters_location", Label: "Headquarters Location", Kind: KindText},
	{Name: "description", Label: "Description", Kind: KindFreeText},
	{Name: "cb_rank_company", Label: "CB Rank (Company)", Kind: KindInteger},
	{Name: "headquarters_regions", Label: "Headquarters Regions", Kind: KindText},
	{Name: "website", Label: "Website", Kind: KindText},
	{Name: "linkedin", Label: "LinkedIn", Kind: KindText},
	{Name: "contact_email", Label: "Contact Email", Kind: KindText},
	{Name: "phone_number", Label: "Phone Number", Kind: KindText},
	{Name: "last_funding_amount", Label: "Last Funding Amount", Kind: KindMoney},
	{Name: "last_funding_amount_currency", Label: "Last Funding Amount Currency", Kind: KindMoneyCurrency},
	{Name: "last_funding_amount_usd", Label: "Last Funding Amount (in USD)", Kind: KindMoney},
	{Name: "funding_status", Label: "Funding Status", Kind: KindText},
	{Name: "number_of_funding_rounds", Label: "Number of Funding Rounds", Kind: KindInteger},
	{Name: "last_equity_funding_amount", Label: "Last Equity Funding Amount", Kind: KindMoney},
	{Name: "last_equity_funding_amount_currency", Label: "Last Equity Funding Amount Currency", Kind: KindMoneyCurrency},
	{Name: "last_equity_funding_amount_usd", Label: "Last Equity Funding Amount (in USD)", Kind: KindMoney},
	{Name: "last_equity_funding_type", Label: "Last Equity Funding Type", Kind: KindText},
	{Name: "total_equity_funding_amount", Label: "Total Equity Funding Amount", Kind: KindMoney},
	{Name: "total_equity_funding_amount_currency", Label: "Total Equity Funding Amount Currency", Kind: KindMoneyCurrency},
	{Name: "total_equity_funding_amount_usd", Label: "Total Equity Funding Amount (in USD)", Kind: KindMoney},
	{Name: "total_funding_amount", Label: "Total Funding Amount", Kind: KindMoney},
	{Name: "total_funding_amount_currency", Label: "Total Funding Amount Currency", Kind: KindMoneyCurrency},
	{Name: "total_funding_amount_usd", Label: "Total Funding Amount (in USD)", Kind: KindMoney},
	{Name: "lead_investor", Label: "Lead Investor", Kind: KindText},
	{Name: "valuation_at_ipo", Label: "Valuation at IPO", Kind: KindMoney},
	{Name: "contact_name", Label: "Contact Name", Kind: KindText},
	{Name: "contact_title", Label: "Contact Title", Kind: KindText},
	{Name: "work_email", Label: "Work Email", Kind: KindText},
	{Name: "linkedin_url", Label: "LinkedIn URL", Kind: KindText},
	{Name: "source_url", Label: "Source URL", Kind: KindText},
	{Name: "comment", Label: "Comment", Kind: KindFreeText},
}
