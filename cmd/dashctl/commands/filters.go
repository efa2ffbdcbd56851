package commands

import (
	"fmt"
	"strconv"
	"strings"

	"dashboard/internal/engine"
)

// parseFilters builds a filter from --filter col=v1,v2 and --range col=lo:hi
// arguments. Either range bound may be left out.
func parseFilters(sets, ranges []string) (engine.FilterSpec, error) {
	spec := engine.FilterSpec{}
	for _, arg := range sets {
		col, values, ok := strings.Cut(arg, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("--filter %q: want column=value[,value...]", arg)
		}
		var vals []string
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				vals = append(vals, v)
			}
		}
		spec[col] = engine.OneOf(vals...)
	}
	for _, arg := range ranges {
		col, bounds, ok := strings.Cut(arg, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("--range %q: want column=lo:hi", arg)
		}
		lo, hi, ok := strings.Cut(bounds, ":")
		if !ok {
			return nil, fmt.Errorf("--range %q: want column=lo:hi", arg)
		}
		var p engine.Predicate
		if lo != "" {
			v, err := strconv.ParseFloat(lo, 64)
			if err != nil {
				return nil, fmt.Errorf("--range %q: %w", arg, err)
			}
			p.Min = &v
		}
		if hi != "" {
			v, err := strconv.ParseFloat(hi, 64)
			if err != nil {
				return nil, fmt.Errorf("--range %q: %w", arg, err)
			}
			p.Max = &v
		}
		if _, dup := spec[col]; dup {
			return nil, fmt.Errorf("--range %q: column already filtered", arg)
		}
		spec[col] = p
	}
	return spec, nil
}
