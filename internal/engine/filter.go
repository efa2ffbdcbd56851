package engine

import (
	"fmt"
	"slices"
	"sort"
)

// Predicate accepts a value either by membership in Values or by falling in
// the inclusive range [Min, Max]. A nil bound is unbounded. A predicate with
// no values and no bounds accepts everything.
type Predicate struct {
	Values []string
	Min    *float64
	Max    *float64
}

func OneOf(values ...string) Predicate {
	return Predicate{Values: values}
}

func Between(lo, hi float64) Predicate {
	return Predicate{Min: &lo, Max: &hi}
}

func AtLeast(lo float64) Predicate {
	return Predicate{Min: &lo}
}

func AtMost(hi float64) Predicate {
	return Predicate{Max: &hi}
}

func (p Predicate) isRange() bool { return p.Min != nil || p.Max != nil }

// Empty reports whether the predicate imposes no restriction.
func (p Predicate) Empty() bool { return len(p.Values) == 0 && !p.isRange() }

// FilterSpec maps a column name to the predicate its values must satisfy.
type FilterSpec map[string]Predicate

// Without returns a copy of the filter with the named columns dropped. A chart
// grouped by a column uses it so that column's own filter does not hide the
// groups being compared.
func (f FilterSpec) Without(columns ...string) FilterSpec {
	out := make(FilterSpec, len(f))
	for k, v := range f {
		if !slices.Contains(columns, k) {
			out[k] = v
		}
	}
	return out
}

type compiledPredicate struct {
	col    int
	set    map[string]struct{}
	ranged bool
	lo, hi float64
}

func (c compiledPredicate) match(row Row) bool {
	v := row[c.col]
	if v.IsNull() {
		return false
	}
	if c.set != nil {
		if _, ok := c.set[v.Text()]; !ok {
			return false
		}
	}
	if c.ranged && (v.num < c.lo || v.num > c.hi) {
		return false
	}
	return true
}

func compile(schema *Schema, spec FilterSpec) ([]compiledPredicate, error) {
	// deterministic error reporting across map iteration
	names := make([]string, 0, len(spec))
	for name := range spec {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []compiledPredicate
	for _, name := range names {
		p := spec[name]
		col, c, err := schema.Lookup(name)
		if err != nil {
			return nil, err
		}
		if p.Empty() {
			continue
		}
		cp := compiledPredicate{col: col}
		if len(p.Values) > 0 {
			cp.set = make(map[string]struct{}, len(p.Values))
			for _, v := range p.Values {
				cp.set[v] = struct{}{}
			}
		}
		if p.isRange() {
			if !c.Kind.Numeric() {
				return nil, &SchemaError{Column: name, Reason: fmt.Sprintf("range filter on %s column", c.Kind)}
			}
			cp.ranged = true
			cp.lo, cp.hi = -inf, inf
			if p.Min != nil {
				cp.lo = *p.Min
			}
			if p.Max != nil {
				cp.hi = *p.Max
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

// ApplyFilters returns the rows of ds satisfying every predicate in spec, in
// dataset order. The dataset is not modified.
func ApplyFilters(ds *Dataset, spec FilterSpec) (*View, error) {
	return ds.All().Filter(spec)
}

// Filter narrows the view to the rows satisfying every predicate in spec.
func (v *View) Filter(spec FilterSpec) (*View, error) {
	preds, err := compile(v.ds.schema, spec)
	if err != nil {
		return nil, err
	}
	idx := make([]int, 0, len(v.idx))
rows:
	for _, i := range v.idx {
		row := v.ds.rows[i]
		for _, p := range preds {
			if !p.match(row) {
				continue rows
			}
		}
		idx = append(idx, i)
	}
	return &View{ds: v.ds, idx: idx}, nil
}

// View is an order-preserving selection of dataset rows.
type View struct {
	ds  *Dataset
	idx []int
}

func (v *View) Dataset() *Dataset { return v.ds }
func (v *View) Len() int { return len(v.idx) }

// Index returns the dataset row index of the i-th row in the view.
func (v *View) Index(i int) int { return v.idx[i] }

func (v *View) Row(i int) Row { return v.ds.rows[v.idx[i]] }

// Rows returns the view's rows. The rows are shared with the dataset and must
// not be modified.
func (v *View) Rows() []Row {
	out := make([]Row, len(v.idx))
	for i, j := range v.idx {
		out[i] = v.ds.rows[j]
	}
	return out
}

// Project returns the named columns of every row, in the order requested.
// No columns means all columns.
func (v *View) Project(columns ...string) ([]string, [][]Value, error) {
	if len(columns) == 0 {
		columns = v.ds.schema.Names()
	}
	pos := make([]int, len(columns))
	for i, name := range columns {
		p, _, err := v.ds.schema.Lookup(name)
		if err != nil {
			return nil, nil, err
		}
		pos[i] = p
	}
	out := make([][]Value, len(v.idx))
	for i, j := range v.idx {
		row := v.ds.rows[j]
		cells := make([]Value, len(pos))
		for k, p := range pos {
			cells[k] = row[p]
		}
		out[i] = cells
	}
	return columns, out, nil
}

// Distinct lists the non-null values of a column in first-occurrence order.
func (v *View) Distinct(column string) ([]Value, error) {
	col, _, err := v.ds.schema.Lookup(column)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []Value
	for _, j := range v.idx {
		val := v.ds.rows[j][col]
		if val.IsNull() {
			continue
		}
		if _, ok := seen[val.Text()]; ok {
			continue
		}
		seen[val.Text()] = struct{}{}
		out = append(out, val)
	}
	return out, nil
}
