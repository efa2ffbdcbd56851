package engine

import (
	"fmt"
	"strconv"
)

// Kind is the scalar type of a column.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindString
	KindCategory
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindCategory:
		return "category"
	}
	return "unknown"
}

// Numeric reports whether values of this kind can be aggregated.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// Value is a single typed cell. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
}

func Int(v int64) Value { return Value{kind: KindInt, num: float64(v)} }
func Float(v float64) Value { return Value{kind: KindFloat, num: v} }
func String(v string) Value { return Value{kind: KindString, str: v} }
func Category(v string) Value { return Value{kind: KindCategory, str: v} }
func Null() Value { return Value{} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == 0 }
func (v Value) Number() float64 { return v.num }

// Text is the canonical text of the value; categorical filters and group
// keys compare on it.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(int64(v.num), 10)
	case KindFloat:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString, KindCategory:
		return v.str
	}
	return ""
}

func (v Value) String() string {
	if v.IsNull() {
		return "<null>"
	}
	return v.Text()
}

// Column declares one named, typed field of a Dataset.
type Column struct {
	Name string
	Kind Kind
}

// Schema is the ordered column layout every row of a Dataset follows.
type Schema struct {
	columns []Column
	index   map[string]int
}

func NewSchema(columns ...Column) (*Schema, error) {
	s := &Schema{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("schema: column %d has no name", i)
		}
		if _, dup := s.index[c.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate column %q", c.Name)
		}
		if c.Kind < KindInt || c.Kind > KindCategory {
			return nil, fmt.Errorf("schema: column %q has invalid kind %d", c.Name, c.Kind)
		}
		s.columns[i] = c
		s.index[c.Name] = i
	}
	return s, nil
}

// MustSchema is NewSchema for package-level schema declarations.
func MustSchema(columns ...Column) *Schema {
	s, err := NewSchema(columns...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

func (s *Schema) Names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

// Lookup returns the position and declaration of a column, or a SchemaError.
func (s *Schema) Lookup(name string) (int, Column, error) {
	i, ok := s.index[name]
	if !ok {
		return -1, Column{}, &SchemaError{Column: name, Reason: "no such column"}
	}
	return i, s.columns[i], nil
}

func (s *Schema) numeric(name string) (int, error) {
	i, c, err := s.Lookup(name)
	if err != nil {
		return -1, err
	}
	if !c.Kind.Numeric() {
		return -1, &SchemaError{Column: name, Reason: fmt.Sprintf("%s column is not numeric", c.Kind)}
	}
	return i, nil
}

// Row holds one value per schema column, in schema order.
type Row []Value

// Dataset is an immutable, schema-checked table.
type Dataset struct {
	schema *Schema
	rows   []Row
}

// NewDataset validates every row against the schema. Each cell must be null
// or of its column's declared kind.
func NewDataset(schema *Schema, rows []Row) (*Dataset, error) {
	for r, row := range rows {
		if len(row) != len(schema.columns) {
			return nil, fmt.Errorf("row %d: has %d values, schema has %d columns", r, len(row), len(schema.columns))
		}
		for i, v := range row {
			c := schema.columns[i]
			if !v.IsNull() && v.kind != c.Kind {
				return nil, &SchemaError{
					Column: c.Name,
					Reason: fmt.Sprintf("row %d holds %s, want %s", r, v.kind, c.Kind),
				}
			}
		}
	}
	return &Dataset{schema: schema, rows: rows}, nil
}

func (ds *Dataset) Schema() *Schema { return ds.schema }
func (ds *Dataset) Len() int { return len(ds.rows) }

// Row returns the i-th row. Callers must not modify it.
func (ds *Dataset) Row(i int) Row { return ds.rows[i] }

// All is the unfiltered view over the dataset.
func (ds *Dataset) All() *View {
	idx := make([]int, len(ds.rows))
	for i := range idx {
		idx[i] = i
	}
	return &View{ds: ds, idx: idx}
}
