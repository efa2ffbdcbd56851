package engine

import (
	"fmt"
	"math"
)

// Summary holds descriptive statistics of one numeric column over a view.
// MaxRow and MinRow are dataset row indices of the first row holding the
// extreme.
type Summary struct {
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
	Range  float64 `json:"range"`
	MaxRow int     `json:"-"`
	MinRow int     `json:"-"`
}

// Summarize computes total, mean, max, min and range of a column. Null cells
// are skipped; a view with no values fails with InsufficientDataError.
func Summarize(v *View, column string) (Summary, error) {
	col, err := v.ds.schema.numeric(column)
	if err != nil {
		return Summary{}, err
	}
	var a accum
	for _, j := range v.idx {
		x := v.ds.rows[j][col]
		if x.IsNull() {
			continue
		}
		a.add(x.num, j)
	}
	if a.n == 0 {
		return Summary{}, &InsufficientDataError{Column: column, Reason: "no values in view"}
	}
	mean := a.sum / float64(a.n)
	// float error can push the mean past the bounds when all values are equal
	mean = math.Min(math.Max(mean, a.lo), a.hi)
	return Summary{
		Count:  a.n,
		Total:  a.sum,
		Mean:   mean,
		Max:    a.hi,
		Min:    a.lo,
		Range:  a.hi - a.lo,
		MaxRow: a.hiRow,
		MinRow: a.loRow,
	}, nil
}

// Mode returns the most frequent non-null value of a column. Ties go to the
// smallest value, numerically when both are numbers.
func Mode(v *View, column string) (Value, error) {
	col, _, err := v.ds.schema.Lookup(column)
	if err != nil {
		return Value{}, err
	}
	counts := map[string]int{}
	first := map[string]Value{}
	for _, j := range v.idx {
		x := v.ds.rows[j][col]
		if x.IsNull() {
			continue
		}
		k := x.Text()
		if counts[k] == 0 {
			first[k] = x
		}
		counts[k]++
	}
	if len(counts) == 0 {
		return Value{}, &EmptyGroupError{Column: column}
	}
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && compareKeys(k, best) < 0) {
			best, bestN = k, n
		}
	}
	return first[best], nil
}

// Bin is one histogram bucket covering [Lo, Hi); the last bin is closed.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
	// Share is Count as a percentage of all values.
	Share float64 `json:"share"`
}

// Histogram splits the value range of a column into equal-width bins.
func Histogram(v *View, column string, bins int) ([]Bin, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("histogram %q: bins must be positive, got %d", column, bins)
	}
	s, err := Summarize(v, column)
	if err != nil {
		return nil, err
	}
	col, _ := v.ds.schema.numeric(column)

	width := s.Range / float64(bins)
	if width == 0 {
		bins, width = 1, 1
	}
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = s.Min + float64(i)*width
		out[i].Hi = s.Min + float64(i+1)*width
	}
	out[bins-1].Hi = math.Max(out[bins-1].Hi, s.Max)

	for _, j := range v.idx {
		x := v.ds.rows[j][col]
		if x.IsNull() {
			continue
		}
		i := int((x.num - s.Min) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Share = float64(out[i].Count) / float64(s.Count) * 100
	}
	return out, nil
}
