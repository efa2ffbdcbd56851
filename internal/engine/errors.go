package engine

import "fmt"

// SchemaError reports a referenced column that is absent or of the wrong type.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: column %q: %s", e.Column, e.Reason)
}

// EmptyGroupError reports an aggregation requested over zero rows.
type EmptyGroupError struct {
	Column string
	Group  string
}

func (e *EmptyGroupError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("aggregate %q: no rows to aggregate", e.Column)
	}
	return fmt.Sprintf("aggregate %q: group %q has no rows", e.Column, e.Group)
}

// InsufficientDataError reports a statistic that is undefined for the input,
// e.g. a correlation over fewer than two points.
type InsufficientDataError struct {
	Column string
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %q: %s", e.Column, e.Reason)
}
