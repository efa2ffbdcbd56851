package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizeScenario(t *testing.T) {
	ds := budgetFixture(t)
	v, err := ApplyFilters(ds, FilterSpec{"Year": Between(2021, 2021)})
	require.NoError(t, err)

	s, err := Summarize(v, "Budget")
	require.NoError(t, err)
	require.Equal(t, 50.0, s.Total)
	require.Equal(t, 50.0, s.Mean)
	require.Equal(t, 50.0, s.Max)
	require.Equal(t, 50.0, s.Min)
	require.Equal(t, 0.0, s.Range)
}

func TestSummarizeInvariants(t *testing.T) {
	ds := salesFixture(t)
	for _, col := range []string{"Revenue", "Quantity", "Year"} {
		s, err := Summarize(ds.All(), col)
		require.NoError(t, err)
		require.Equal(t, s.Max-s.Min, s.Range)
		require.LessOrEqual(t, s.Min, s.Mean)
		require.LessOrEqual(t, s.Mean, s.Max)
	}

	s, err := Summarize(ds.All(), "Revenue")
	require.NoError(t, err)
	require.Equal(t, 3, s.Count)
	require.Equal(t, 350.0, s.Total)
	require.Equal(t, 1, s.MaxRow)
	require.Equal(t, 2, s.MinRow)
}

func TestSummarizeEmpty(t *testing.T) {
	ds := budgetFixture(t)
	v, err := ApplyFilters(ds, FilterSpec{"Year": AtLeast(3000)})
	require.NoError(t, err)

	_, err = Summarize(v, "Budget")
	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide), "got %v", err)

	_, err = Summarize(ds.All(), "Nope")
	var se *SchemaError
	require.True(t, errors.As(err, &se))
}

func TestMode(t *testing.T) {
	ds := salesFixture(t)
	m, err := Mode(ds.All(), "Month")
	require.NoError(t, err)
	require.Equal(t, "May", m.Text())

	// tie between Germany and France goes to the smaller
	m, err = Mode(ds.All(), "Country")
	require.NoError(t, err)
	require.Equal(t, "France", m.Text())

	empty, err := ApplyFilters(ds, FilterSpec{"Year": OneOf("1999")})
	require.NoError(t, err)
	_, err = Mode(empty, "Country")
	var eg *EmptyGroupError
	require.True(t, errors.As(err, &eg))
}

func TestHistogram(t *testing.T) {
	schema := MustSchema(Column{Name: "Gross", Kind: KindFloat})
	var rows []Row
	for _, x := range []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 10} {
		rows = append(rows, Row{Float(x)})
	}
	rows = append(rows, Row{Null()})
	ds, err := NewDataset(schema, rows)
	require.NoError(t, err)

	bins, err := Histogram(ds.All(), "Gross", 5)
	require.NoError(t, err)
	require.Len(t, bins, 5)

	counts := make([]int, len(bins))
	var share float64
	for i, b := range bins {
		counts[i] = b.Count
		share += b.Share
	}
	require.Equal(t, []int{2, 2, 2, 2, 2}, counts)
	require.InDelta(t, 100, share, 1e-9)
	require.Equal(t, 0.0, bins[0].Lo)
	require.Equal(t, 10.0, bins[4].Hi)

	_, err = Histogram(ds.All(), "Gross", 0)
	require.Error(t, err)
}

func TestHistogramSingleValue(t *testing.T) {
	ds := budgetFixture(t)
	v, err := ApplyFilters(ds, FilterSpec{"Year": OneOf("2021")})
	require.NoError(t, err)

	bins, err := Histogram(v, "Budget", 20)
	require.NoError(t, err)
	require.Len(t, bins, 1)
	require.Equal(t, 1, bins[0].Count)
	require.Equal(t, 100.0, bins[0].Share)
}
