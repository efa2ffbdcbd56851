package dashboard

import (
	"errors"
	"testing"

	"dashboard/internal/engine"
	"dashboard/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func movieData(t *testing.T) *engine.Dataset {
	t.Helper()
	row := func(name string, year int64, minutes float64, rating string, budget engine.Value, us, world float64) engine.Row {
		return engine.Row{
			engine.String(name), engine.Int(year), engine.Float(minutes), engine.Category(rating),
			budget, engine.Float(us), engine.Null(), engine.Null(), engine.Float(world),
			engine.Category("Color"), engine.Null(), engine.Category("2.39 : 1"),
		}
	}
	ds, err := engine.NewDataset(MovieSchema, []engine.Row{
		row("Dune: Part Two", 2024, 166, "PG-13", engine.Float(190), 282, 711),
		row("Oppenheimer", 2023, 180, "R", engine.Float(100), 330, 975),
		row("Wonka", 2023, 116, "PG", engine.Null(), 218, 632),
		row("Barbie", 2023, 114, "PG-13", engine.Float(145), 636, 1441),
	})
	require.NoError(t, err)
	return ds
}

func year(y int) *int { return &y }

func TestBuildMovies(t *testing.T) {
	out, err := BuildMovies(movieData(t), MovieFilter{})
	require.NoError(t, err)
	require.Equal(t, 4, out.Movies)
	require.Len(t, out.Panels, 9)

	perYear := panel(t, out.Panels, "budget_per_year")
	require.Equal(t, models.ChartLine, perYear.Chart.Kind)
	require.Equal(t, []string{"2023", "2024"}, perYear.Chart.Labels)
	require.Equal(t, []float64{245, 190}, perYear.Chart.Series[0].Values)
	require.Equal(t, []string{
		"Total budget across all years is US $ 435.00.",
		"Average budget per year is US $ 217.50.",
		"The year with the highest total budget is 2023 with US $ 245.00.",
		"The year with the lowest total budget is 2024 with US $ 190.00.",
	}, perYear.Analysis)

	ratings := panel(t, out.Panels, "rating_composition")
	require.Equal(t, []string{"PG-13", "R", "PG"}, ratings.Chart.Labels)
	require.Equal(t, []float64{2, 1, 1}, ratings.Chart.Series[0].Values)

	budgets := panel(t, out.Panels, "budget_distribution")
	require.Len(t, budgets.Chart.Labels, histogramBins)
	var share float64
	for _, v := range budgets.Chart.Series[0].Values {
		share += v
	}
	require.InDelta(t, 100, share, 1e-9)

	// Wonka has no budget and is not plotted
	rel := panel(t, out.Panels, "relationship")
	require.Len(t, rel.Chart.Points, 3)
	want := models.Point{Label: "Oppenheimer", X: 100, Y: 975, Size: 180}
	if diff := cmp.Diff(want, rel.Chart.Points[1]); diff != "" {
		t.Errorf("relationship point mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, rel.Analysis, 1)

	durations := panel(t, out.Panels, "duration_by_rating")
	require.Equal(t, models.ChartBar, durations.Chart.Kind)
	require.Equal(t, []string{"PG", "PG-13", "R"}, durations.Chart.Labels)
	require.Equal(t, []float64{116, 140, 180}, durations.Chart.Series[0].Values)
	require.Equal(t, []string{
		"Average duration across ratings is 145.33 minutes.",
		"The rating with the highest average duration is R with 180 minutes.",
		"The rating with the lowest average duration is PG with 116 minutes.",
	}, durations.Analysis)

	// Wonka has no budget; Dune holds the largest budget, Oppenheimer the smallest
	rb := panel(t, out.Panels, "rating_budget")
	require.Equal(t, []string{"PG-13", "R"}, rb.Chart.Labels)
	require.Equal(t, []models.Point{
		{Label: "Dune: Part Two", X: 190, Y: 0, Mark: "Max"},
		{Label: "Oppenheimer", X: 100, Y: 1, Mark: "Min"},
		{Label: "Barbie", X: 145, Y: 0},
	}, rb.Chart.Points)
	require.Equal(t, []string{
		"The movie with the highest budget is Dune: Part Two (PG-13) with US $ 190.00.",
		"The movie with the lowest budget is Oppenheimer (R) with US $ 100.00.",
	}, rb.Analysis)
}

func TestBuildMoviesYearRange(t *testing.T) {
	out, err := BuildMovies(movieData(t), MovieFilter{MinYear: year(2024)})
	require.NoError(t, err)
	require.Equal(t, 1, out.Movies)

	gross := panel(t, out.Panels, "gross_comparison")
	require.Equal(t, []string{"Dune: Part Two"}, gross.Chart.Labels)
	require.Equal(t, []float64{282}, gross.Chart.Series[0].Values)
	require.Equal(t, []float64{711}, gross.Chart.Series[1].Values)

	// a single point has no correlation
	rel := panel(t, out.Panels, "relationship")
	require.Contains(t, rel.Analysis[0], "undefined")

	dist := panel(t, out.Panels, "gross_world_distribution")
	require.Equal(t, []float64{100}, dist.Chart.Series[0].Values)

	// one movie holds both budget extremes
	rb := panel(t, out.Panels, "rating_budget")
	require.Equal(t, []models.Point{{Label: "Dune: Part Two", X: 190, Y: 0, Mark: "Max/Min"}}, rb.Chart.Points)
}

func TestBuildMoviesErrors(t *testing.T) {
	ds := movieData(t)

	// nothing selected
	_, err := BuildMovies(ds, MovieFilter{MinYear: year(3000)})
	var eg *engine.EmptyGroupError
	require.True(t, errors.As(err, &eg), "got %v", err)

	// the only PG movie has no budget to describe
	_, err = BuildMovies(ds, MovieFilter{Ratings: []string{"PG"}})
	var ide *engine.InsufficientDataError
	require.True(t, errors.As(err, &ide), "got %v", err)
}

func TestMovieOptions(t *testing.T) {
	opts, err := MovieOptions(movieData(t))
	require.NoError(t, err)
	require.Equal(t, models.FilterOptions{
		ColRating: {"PG-13", "R", "PG"},
		ColYear:   {"2023", "2024"},
	}, opts)
}

func TestMovieTable(t *testing.T) {
	ds := movieData(t)
	tbl, err := MovieTable(ds, MovieFilter{MaxYear: year(2023)}, []string{ColName, ColBudget}, 2, 1)
	require.NoError(t, err)
	require.Equal(t, models.Table{
		Columns: []string{ColName, ColBudget},
		Rows:    [][]any{{"Wonka", nil}, {"Barbie", 145.0}},
		Total:   3,
		Limit:   2,
		Offset:  1,
	}, tbl)

	tbl, err = MovieTable(ds, MovieFilter{}, nil, 10, 10)
	require.NoError(t, err)
	require.Len(t, tbl.Columns, len(MovieSchema.Columns()))
	require.Empty(t, tbl.Rows)

	_, err = MovieTable(ds, MovieFilter{}, []string{"Nope"}, 10, 0)
	var se *engine.SchemaError
	require.True(t, errors.As(err, &se))
}

func TestFormatting(t *testing.T) {
	require.Equal(t, "US $ 1,234.50", money(1234.5))
	require.Equal(t, "1,200", number(1200))
	require.Equal(t, "25.0%", percent(1, 4))
	require.Equal(t, "0%", percent(1, 0))
	require.Equal(t, "Barbie", shortName("Barbie"))
	require.Equal(t, "The Lord of ...", shortName("The Lord of the Rings"))
}
