package dashboard

import (
	"fmt"
	"math"

	"dashboard/internal/engine"

	"github.com/dustin/go-humanize"
)

func money(v float64) string {
	return "US $ " + humanize.FormatFloat("#,###.##", v)
}

func number(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return humanize.Comma(int64(v))
	}
	return humanize.FormatFloat("#,###.##", v)
}

func percent(part, whole float64) string {
	if whole == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", part/whole*100)
}

// shortName keeps chart labels readable: names over 15 runes become their
// first 12 runes plus "...".
func shortName(name string) string {
	r := []rune(name)
	if len(r) <= 15 {
		return name
	}
	return string(r[:12]) + "..."
}

// shares describes each group's part of the result total.
func shares(res *engine.Result, noun string) []string {
	total := res.Total()
	lines := make([]string, 0, len(res.Groups))
	for _, g := range res.Groups {
		lines = append(lines, fmt.Sprintf("%s accounts for %s of %s (%s).", g.Key, percent(g.Value, total), noun, number(g.Value)))
	}
	return lines
}

// extremes reports the highest and lowest group of a result.
func extremes(res *engine.Result, what, unit string, format func(float64) string) ([]string, error) {
	hi, err := res.Highest()
	if err != nil {
		return nil, err
	}
	lo, err := res.Lowest()
	if err != nil {
		return nil, err
	}
	return []string{
		fmt.Sprintf("The %s with the highest %s is %s with %s.", unit, what, hi.Key, format(hi.Value)),
		fmt.Sprintf("The %s with the lowest %s is %s with %s.", unit, what, lo.Key, format(lo.Value)),
	}, nil
}

func describe(s engine.Summary, what string, format func(float64) string) []string {
	return []string{
		fmt.Sprintf("Total %s is %s.", what, format(s.Total)),
		fmt.Sprintf("Average %s is %s.", what, format(s.Mean)),
		fmt.Sprintf("Highest %s is %s.", what, format(s.Max)),
		fmt.Sprintf("Lowest %s is %s.", what, format(s.Min)),
		fmt.Sprintf("The %s range is %s.", what, format(s.Range)),
	}
}

// column extracts a numeric column for plotting; nulls plot as zero.
func column(v *engine.View, name string) ([]float64, error) {
	col, c, err := v.Dataset().Schema().Lookup(name)
	if err != nil {
		return nil, err
	}
	if !c.Kind.Numeric() {
		return nil, &engine.SchemaError{Column: name, Reason: "not numeric"}
	}
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.Row(i)[col].Number()
	}
	return out, nil
}

func labels(v *engine.View, name string) ([]string, error) {
	col, _, err := v.Dataset().Schema().Lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, v.Len())
	for i := range out {
		out[i] = shortName(v.Row(i)[col].Text())
	}
	return out, nil
}

// mark names the extremes of s held by a dataset row.
func mark(row int, s engine.Summary) string {
	switch {
	case row == s.MaxRow && row == s.MinRow:
		return "Max/Min"
	case row == s.MaxRow:
		return "Max"
	case row == s.MinRow:
		return "Min"
	}
	return ""
}

func minutes(v float64) string {
	return number(v) + " minutes"
}
