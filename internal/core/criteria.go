package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RawValue is one caller-supplied search input: either a single string that
// may hold a delimited list, or an already split list.
type RawValue struct {
	Text   string
	List   []string
	IsList bool
}

// TextValue wraps a single, possibly delimited, string.
func TextValue(s string) RawValue {
	return RawValue{Text: s}
}

// ListValue wraps an already split list of values.
func ListValue(values ...string) RawValue {
	return RawValue{List: values, IsList: true}
}

// IsZero reports whether the value counts as not supplied. An empty string
// is not supplied; an empty list is supplied but yields no tokens.
func (v RawValue) IsZero() bool {
	return !v.IsList && v.Text == ""
}

// UnmarshalJSON accepts a string, a number, null, or an array of strings
// and numbers.
func (v *RawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*v = RawValue{}

	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		v.IsList = true
		v.List = make([]string, 0, len(items))
		for _, item := range items {
			s, err := scalarString(item)
			if err != nil {
				return err
			}
			v.List = append(v.List, s)
		}
		return nil
	}

	s, err := scalarString(b)
	if err != nil {
		return err
	}
	v.Text = s
	return nil
}

// MarshalJSON writes the value back in the shape it was supplied.
func (v RawValue) MarshalJSON() ([]byte, error) {
	if v.IsList {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Text)
}

func scalarString(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("search value must be a string, number or list of strings")
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		return n.String(), nil
	}
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		return strconv.FormatBool(flag), nil
	}
	return "", fmt.Errorf("unsupported search value %s", string(b))
}

// SearchCriteria maps field names to raw search inputs.
type SearchCriteria map[string]RawValue

// Supplied reports whether any entry holds a non-zero value.
func (c SearchCriteria) Supplied() bool {
	for _, v := range c {
		if !v.IsZero() {
			return true
		}
	}
	return false
}

// ExportCriteria builds criteria from the export endpoint's narrower filter
// set. Empty parameters are left out.
func ExportCriteria(organizationName, website string) SearchCriteria {
	c := SearchCriteria{}
	if organizationName != "" {
		c["organization_name"] = TextValue(organizationName)
	}
	if website != "" {
		c["website"] = TextValue(website)
	}
	return c
}
