package core

// query.go builds the search query from loosely typed criteria.
//
// Each supported field has a normalization strategy that turns its raw value
// into predicates:
//
//	names  (organization_name, contact_name, contact_title)
//	       split on newlines and commas → IN (...)
//	urls   (website, linkedin_url)
//	       split on whitespace → IN (...)
//	range  (number_of_employees)
//	       "N+" → >= N, "A-B" → BETWEEN A AND B, anything else dropped
//
// estimated_revenue_range, industries and headquarters_location are accepted
// and ignored. All predicates, within and across fields, are OR'ed.

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// PredicateKind identifies the shape of a predicate.
type PredicateKind int

const (
	SetMembership PredicateKind = iota
	NumericRange
	NumericLowerBound
)

func (k PredicateKind) String() string {
	switch k {
	case SetMembership:
		return "in"
	case NumericRange:
		return "between"
	case NumericLowerBound:
		return "gte"
	default:
		return "unknown"
	}
}

// Predicate is one filter condition derived from a criteria field.
// Args are in placeholder order.
type Predicate struct {
	Field string
	Kind  PredicateKind
	Args  []any
}

// Query is a parameterized SELECT over the records table.
// SQL uses ? placeholders; len(Args) always equals their count.
type Query struct {
	SQL        string
	Args       []any
	Predicates []Predicate
}

// Rebind returns q.SQL with placeholders rewritten for a driver's bind type
// (sqlx.QUESTION, sqlx.DOLLAR, ...).
func (q *Query) Rebind(bindType int) string {
	return sqlx.Rebind(bindType, q.SQL)
}

type strategy int

const (
	strategyIgnore strategy = iota
	strategyNames
	strategyURLs
	strategyRange
)

var searchStrategies = map[string]strategy{
	"organization_name":       strategyNames,
	"website":                 strategyURLs,
	"number_of_employees":     strategyRange,
	"estimated_revenue_range": strategyIgnore,
	"industries":              strategyIgnore,
	"headquarters_location":   strategyIgnore,
	"linkedin_url":            strategyURLs,
	"contact_name":            strategyNames,
	"contact_title":           strategyNames,
}

// SearchKeys returns the criteria keys the search endpoint recognizes.
func SearchKeys() []string {
	keys := make([]string, 0, len(searchStrategies))
	for _, f := range Funding().fields {
		if _, ok := searchStrategies[f.Name]; ok {
			keys = append(keys, f.Name)
		}
	}
	return keys
}

var nameDelims = regexp.MustCompile(`[\n,]+`)

// Builder turns search criteria into a [Query].
type Builder struct {
	reg   *Registry
	table string
}

// NewBuilder returns a builder over table using reg for the projection.
func NewBuilder(reg *Registry, table string) *Builder {
	if table == "" {
		table = DefaultTable
	}
	return &Builder{reg: reg, table: table}
}

// Build normalizes c into predicates and assembles the query.
// It returns an [InvalidCriteriaError] when c is empty or when no predicate
// survives normalization; it never returns an unfiltered query.
func (b *Builder) Build(c SearchCriteria) (*Query, error) {
	if !c.Supplied() {
		return nil, &InvalidCriteriaError{Reason: "at least one search parameter is required"}
	}

	wb := NewWhereBuilder()
	var preds []Predicate

	// Registry order keeps the SQL text deterministic.
	for _, f := range b.reg.fields {
		raw, ok := c[f.Name]
		if !ok || raw.IsZero() {
			continue
		}
		for _, p := range predicatesFor(f.Name, raw) {
			p.addTo(wb)
			preds = append(preds, p)
		}
	}

	if wb.Len() == 0 {
		return nil, &InvalidCriteriaError{Reason: "no usable search values"}
	}

	where, args := wb.Build()
	sql := fmt.Sprintf("SELECT DISTINCT %s FROM %s%s",
		strings.Join(quoteColumns(b.reg.Columns()), ", "),
		quoteIdentifier(b.table),
		where,
	)

	return &Query{SQL: sql, Args: args, Predicates: preds}, nil
}

func (p Predicate) addTo(wb *WhereBuilder) {
	switch p.Kind {
	case SetMembership:
		values := make([]string, len(p.Args))
		for i, a := range p.Args {
			values[i] = a.(string)
		}
		wb.AddIn(p.Field, values)
	case NumericRange:
		wb.AddBetween(p.Field, p.Args[0].(int64), p.Args[1].(int64))
	case NumericLowerBound:
		wb.AddMin(p.Field, p.Args[0].(int64))
	}
}

// predicatesFor applies field's strategy to raw.
func predicatesFor(field string, raw RawValue) []Predicate {
	switch searchStrategies[field] {
	case strategyNames:
		return setPredicate(field, tokens(raw, splitNames))
	case strategyURLs:
		return setPredicate(field, tokens(raw, strings.Fields))
	case strategyRange:
		return rangePredicates(field, tokens(raw, splitNames))
	default:
		return nil
	}
}

func setPredicate(field string, toks []string) []Predicate {
	if len(toks) == 0 {
		return nil
	}
	args := make([]any, len(toks))
	for i, t := range toks {
		args[i] = t
	}
	return []Predicate{{Field: field, Kind: SetMembership, Args: args}}
}

func rangePredicates(field string, toks []string) []Predicate {
	var preds []Predicate
	for _, tok := range toks {
		p, ok := parseRange(field, tok)
		if !ok {
			slog.Debug("search: dropping unparseable range", "field", field, "value", tok)
			continue
		}
		preds = append(preds, p)
	}
	return preds
}

// parseRange reads "N+" or "A-B".
func parseRange(field, tok string) (Predicate, bool) {
	if rest, ok := strings.CutSuffix(tok, "+"); ok {
		minimum, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
		if err != nil {
			return Predicate{}, false
		}
		return Predicate{Field: field, Kind: NumericLowerBound, Args: []any{minimum}}, true
	}

	lo, hi, ok := strings.Cut(tok, "-")
	if !ok {
		return Predicate{}, false
	}
	low, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return Predicate{}, false
	}
	high, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if err != nil {
		return Predicate{}, false
	}
	return Predicate{Field: field, Kind: NumericRange, Args: []any{low, high}}, true
}

func splitNames(s string) []string {
	return nameDelims.Split(s, -1)
}

// tokens splits a text value with split, or takes a list value as is, then
// trims every token and drops empty ones.
func tokens(raw RawValue, split func(string) []string) []string {
	parts := raw.List
	if !raw.IsList {
		parts = split(raw.Text)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
