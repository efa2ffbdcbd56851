package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var inf = math.Inf(1)

// Op is an aggregation applied to the value column of each group.
type Op uint8

const (
	OpSum Op = iota + 1
	OpMean
	OpCount
	OpMin
	OpMax
	// OpCorrelation is the Pearson coefficient between Request.Value and
	// Request.With.
	OpCorrelation
)

var opNames = map[Op]string{
	OpSum:         "sum",
	OpMean:        "mean",
	OpCount:       "count",
	OpMin:         "min",
	OpMax:         "max",
	OpCorrelation: "correlation",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

func ParseOp(s string) (Op, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "avg" || s == "average" {
		return OpMean, nil
	}
	if s == "corr" {
		return OpCorrelation, nil
	}
	for op, name := range opNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown aggregation %q", s)
}

// Order selects how groups are arranged in a Result.
type Order uint8

const (
	// OrderInsertion keeps groups in order of first occurrence.
	OrderInsertion Order = iota
	// OrderKey sorts by key, numerically when both keys are numbers.
	OrderKey
	OrderValueAsc
	OrderValueDesc
	// OrderFixed follows Request.Keys; unlisted keys follow in insertion order.
	OrderFixed
)

func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "insertion":
		return OrderInsertion, nil
	case "key":
		return OrderKey, nil
	case "asc", "value-asc":
		return OrderValueAsc, nil
	case "desc", "value-desc":
		return OrderValueDesc, nil
	}
	return 0, fmt.Errorf("unknown order %q", s)
}

type Request struct {
	// GroupBy is the grouping column; empty aggregates the whole view as
	// one group.
	GroupBy string
	// Value is the aggregated column. It may be empty for OpCount, which
	// then counts rows.
	Value string
	Op    Op
	With  string

	Order Order
	Keys  []string
	// Descending reverses OrderKey and OrderFixed.
	Descending bool
}

// Group is one aggregated bucket.
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	// Count is the number of non-null values that went into Value.
	Count int `json:"count"`
	// Row is the dataset row holding the extreme for OpMin/OpMax, -1 otherwise.
	Row int `json:"-"`
}

type Result struct {
	GroupBy string
	Column  string
	Op      Op
	Groups  []Group
}

type accum struct {
	key    string
	n      int
	sum    float64
	lo, hi float64
	loRow  int
	hiRow  int
	xs, ys []float64
}

func (a *accum) add(x float64, row int) {
	if a.n == 0 || x < a.lo {
		a.lo, a.loRow = x, row
	}
	if a.n == 0 || x > a.hi {
		a.hi, a.hiRow = x, row
	}
	a.n++
	a.sum += x
}

// Aggregate groups the view by req.GroupBy and reduces req.Value in each
// group with req.Op.
func Aggregate(v *View, req Request) (*Result, error) {
	schema := v.ds.schema

	// 1. Resolve columns
	if _, ok := opNames[req.Op]; !ok {
		return nil, fmt.Errorf("aggregate: %s is not a valid operation", req.Op)
	}
	groupCol := -1
	if req.GroupBy != "" {
		i, _, err := schema.Lookup(req.GroupBy)
		if err != nil {
			return nil, err
		}
		groupCol = i
	}
	valueCol := -1
	if req.Value != "" || req.Op != OpCount {
		i, err := schema.numeric(req.Value)
		if err != nil {
			return nil, err
		}
		valueCol = i
	}
	withCol := -1
	if req.Op == OpCorrelation {
		i, err := schema.numeric(req.With)
		if err != nil {
			return nil, err
		}
		withCol = i
	}

	// 2. Accumulate per group, in first-occurrence order
	var groups []*accum
	byKey := map[string]*accum{}
	if groupCol < 0 {
		all := &accum{}
		groups = append(groups, all)
		byKey[""] = all
	}
	for _, j := range v.idx {
		row := v.ds.rows[j]
		key := ""
		if groupCol >= 0 {
			k := row[groupCol]
			if k.IsNull() {
				continue
			}
			key = k.Text()
		}
		a, ok := byKey[key]
		if !ok {
			a = &accum{key: key}
			byKey[key] = a
			groups = append(groups, a)
		}

		switch {
		case valueCol < 0:
			a.n++
		case withCol >= 0:
			x, y := row[valueCol], row[withCol]
			if x.IsNull() || y.IsNull() {
				continue
			}
			a.xs = append(a.xs, x.num)
			a.ys = append(a.ys, y.num)
			a.n++
		default:
			x := row[valueCol]
			if x.IsNull() {
				continue
			}
			a.add(x.num, j)
		}
	}

	if len(v.idx) == 0 && groupCol >= 0 {
		switch req.Op {
		case OpMean, OpMin, OpMax:
			return nil, &EmptyGroupError{Column: req.Value}
		case OpCorrelation:
			return nil, &InsufficientDataError{Column: req.Value, Reason: "no rows"}
		}
	}

	// 3. Reduce
	res := &Result{GroupBy: req.GroupBy, Column: req.Value, Op: req.Op, Groups: make([]Group, 0, len(groups))}
	for _, a := range groups {
		g := Group{Key: a.key, Count: a.n, Row: -1}
		switch req.Op {
		case OpSum:
			g.Value = a.sum
		case OpCount:
			g.Value = float64(a.n)
		case OpMean, OpMin, OpMax:
			if a.n == 0 {
				return nil, &EmptyGroupError{Column: req.Value, Group: a.key}
			}
			switch req.Op {
			case OpMean:
				g.Value = a.sum / float64(a.n)
			case OpMin:
				g.Value, g.Row = a.lo, a.loRow
			case OpMax:
				g.Value, g.Row = a.hi, a.hiRow
			}
		case OpCorrelation:
			r, err := pearson(a.xs, a.ys)
			if err != nil {
				err.Column = req.Value + "~" + req.With
				if a.key != "" {
					err.Reason = fmt.Sprintf("group %q: %s", a.key, err.Reason)
				}
				return nil, err
			}
			g.Value = r
		}
		res.Groups = append(res.Groups, g)
	}

	// 4. Arrange
	res.sort(req)
	return res, nil
}

// Correlation is the Pearson coefficient between two numeric columns over
// the whole view.
func Correlation(v *View, x, y string) (float64, error) {
	res, err := Aggregate(v, Request{Value: x, With: y, Op: OpCorrelation})
	if err != nil {
		return 0, err
	}
	return res.Groups[0].Value, nil
}

func pearson(xs, ys []float64) (float64, *InsufficientDataError) {
	n := len(xs)
	if n < 2 {
		return 0, &InsufficientDataError{Reason: fmt.Sprintf("need at least 2 paired values, have %d", n)}
	}
	// the float mean of a constant column need not equal its values, so
	// the deviations below would not come out as exactly zero
	if constant(xs) || constant(ys) {
		return 0, &InsufficientDataError{Reason: "zero variance"}
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, &InsufficientDataError{Reason: "zero variance"}
	}
	return sxy / math.Sqrt(sxx*syy), nil
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

func compareKeys(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(fa, fb)
	}
	return strings.Compare(a, b)
}

func (r *Result) sort(req Request) {
	switch req.Order {
	case OrderKey:
		slices.SortStableFunc(r.Groups, func(a, b Group) int {
			if req.Descending {
				return compareKeys(b.Key, a.Key)
			}
			return compareKeys(a.Key, b.Key)
		})
	case OrderValueAsc:
		slices.SortStableFunc(r.Groups, func(a, b Group) int { return cmp.Compare(a.Value, b.Value) })
	case OrderValueDesc:
		slices.SortStableFunc(r.Groups, func(a, b Group) int { return cmp.Compare(b.Value, a.Value) })
	case OrderFixed:
		rank := make(map[string]int, len(req.Keys))
		for i, k := range req.Keys {
			rank[k] = i
		}
		pos := func(k string) int {
			if i, ok := rank[k]; ok {
				return i
			}
			return len(req.Keys)
		}
		slices.SortStableFunc(r.Groups, func(a, b Group) int {
			pa, pb := pos(a.Key), pos(b.Key)
			if req.Descending && pa < len(req.Keys) && pb < len(req.Keys) {
				return cmp.Compare(pb, pa)
			}
			return cmp.Compare(pa, pb)
		})
	}
}

// Highest is the group with the largest value; ties go to the earliest group.
func (r *Result) Highest() (Group, error) {
	return r.extreme(func(a, b float64) bool { return a > b })
}

// Lowest is the group with the smallest value; ties go to the earliest group.
func (r *Result) Lowest() (Group, error) {
	return r.extreme(func(a, b float64) bool { return a < b })
}

func (r *Result) extreme(better func(a, b float64) bool) (Group, error) {
	if len(r.Groups) == 0 {
		return Group{}, &EmptyGroupError{Column: r.Column}
	}
	best := r.Groups[0]
	for _, g := range r.Groups[1:] {
		if better(g.Value, best.Value) {
			best = g
		}
	}
	return best, nil
}

// Total sums the group values.
func (r *Result) Total() float64 {
	var t float64
	for _, g := range r.Groups {
		t += g.Value
	}
	return t
}

// Mean is the average of the group values.
func (r *Result) Mean() (float64, error) {
	if len(r.Groups) == 0 {
		return 0, &EmptyGroupError{Column: r.Column}
	}
	return r.Total() / float64(len(r.Groups)), nil
}

func (r *Result) Lookup(key string) (Group, bool) {
	for _, g := range r.Groups {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

// Map indexes the groups by key.
func (r *Result) Map() map[string]Group {
	out := make(map[string]Group, len(r.Groups))
	for _, g := range r.Groups {
		out[g.Key] = g
	}
	return out
}

func (r *Result) Keys() []string {
	out := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		out[i] = g.Key
	}
	return out
}

func (r *Result) Values() []float64 {
	out := make([]float64, len(r.Groups))
	for i, g := range r.Groups {
		out[i] = g.Value
	}
	return out
}

// Top keeps at most the first n groups.
func (r *Result) Top(n int) *Result {
	out := *r
	if n >= 0 && n < len(r.Groups) {
		out.Groups = r.Groups[:n:n]
	}
	return &out
}
