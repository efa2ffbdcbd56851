package dashboard

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"dashboard/internal/engine"
	"dashboard/internal/models"
)

const histogramBins = 20

// MovieFilter holds the sidebar selections. Nil bounds and an empty rating
// list select everything.
type MovieFilter struct {
	MinYear *int
	MaxYear *int
	Ratings []string
}

func (f MovieFilter) Spec() engine.FilterSpec {
	var years engine.Predicate
	if f.MinYear != nil {
		lo := float64(*f.MinYear)
		years.Min = &lo
	}
	if f.MaxYear != nil {
		hi := float64(*f.MaxYear)
		years.Max = &hi
	}
	return engine.FilterSpec{
		ColYear:   years,
		ColRating: engine.OneOf(f.Ratings...),
	}
}

// MovieOptions lists the ratings and the year bounds of the dataset.
func MovieOptions(ds *engine.Dataset) (models.FilterOptions, error) {
	out, err := options(ds, ColRating)
	if err != nil {
		return nil, err
	}
	s, err := engine.Summarize(ds.All(), ColYear)
	if err != nil {
		return nil, err
	}
	out[ColYear] = []string{strconv.Itoa(int(s.Min)), strconv.Itoa(int(s.Max))}
	return out, nil
}

// BuildMovies computes the movie dashboard for one filter selection.
func BuildMovies(ds *engine.Dataset, f MovieFilter) (models.MovieDashboard, error) {
	var out models.MovieDashboard

	view, err := engine.ApplyFilters(ds, f.Spec())
	if err != nil {
		return out, err
	}
	out.Movies = view.Len()

	builders := []struct {
		name  string
		build func() (models.Panel, error)
	}{
		{"budget_per_year", func() (models.Panel, error) { return budgetPerYear(view) }},
		{"gross_comparison", func() (models.Panel, error) { return grossComparison(view) }},
		{"gross_world_distribution", func() (models.Panel, error) {
			return distribution(view, ColGrossWorld, "gross_world_distribution", "Gross World Distribution", "gross world")
		}},
		{"budget_distribution", func() (models.Panel, error) {
			return distribution(view, ColBudget, "budget_distribution", "Budget Distribution", "budget")
		}},
		{"gross_composition", func() (models.Panel, error) { return grossComposition(view) }},
		{"rating_composition", func() (models.Panel, error) { return ratingComposition(view) }},
		{"relationship", func() (models.Panel, error) { return relationship(view) }},
		{"duration_by_rating", func() (models.Panel, error) { return durationByRating(view) }},
		{"rating_budget", func() (models.Panel, error) { return ratingBudget(view) }},
	}
	for _, b := range builders {
		p, err := b.build()
		if err != nil {
			return out, fmt.Errorf("%s: %w", b.name, err)
		}
		out.Panels = append(out.Panels, p)
	}
	return out, nil
}

func budgetPerYear(view *engine.View) (models.Panel, error) {
	res, err := engine.Aggregate(view, engine.Request{GroupBy: ColYear, Value: ColBudget, Op: engine.OpSum, Order: engine.OrderKey})
	if err != nil {
		return models.Panel{}, err
	}
	chart := models.Chart{
		Name:   "budget_per_year",
		Kind:   models.ChartLine,
		Title:  "Total Budget per Year",
		XLabel: "Year",
		YLabel: "Budget",
		Labels: res.Keys(),
		Series: []models.Series{{Name: ColBudget, Values: res.Values()}},
	}
	avg, err := res.Mean()
	if err != nil {
		return models.Panel{}, err
	}
	analysis := []string{
		fmt.Sprintf("Total budget across all years is %s.", money(res.Total())),
		fmt.Sprintf("Average budget per year is %s.", money(avg)),
	}
	lines, err := extremes(res, "total budget", "year", money)
	if err != nil {
		return models.Panel{}, err
	}
	return models.Panel{Chart: chart, Analysis: append(analysis, lines...)}, nil
}

func grossComparison(view *engine.View) (models.Panel, error) {
	names, err := labels(view, ColName)
	if err != nil {
		return models.Panel{}, err
	}
	us, err := column(view, ColGrossUS)
	if err != nil {
		return models.Panel{}, err
	}
	world, err := column(view, ColGrossWorld)
	if err != nil {
		return models.Panel{}, err
	}
	chart := models.Chart{
		Name:   "gross_comparison",
		Kind:   models.ChartBar,
		Title:  "Gross US vs Gross World",
		XLabel: "Movie",
		YLabel: "Gross",
		Labels: names,
		Series: []models.Series{
			{Name: ColGrossUS, Values: us},
			{Name: ColGrossWorld, Values: world},
		},
	}

	var analysis []string
	for _, col := range []string{ColGrossUS, ColGrossWorld} {
		known, err := view.Filter(engine.FilterSpec{col: engine.AtLeast(math.Inf(-1))})
		if err != nil {
			return models.Panel{}, err
		}
		if known.Len() == 0 {
			analysis = append(analysis, fmt.Sprintf("No selected movie reports %s.", col))
			continue
		}
		res, err := engine.Aggregate(known, engine.Request{GroupBy: ColName, Value: col, Op: engine.OpSum})
		if err != nil {
			return models.Panel{}, err
		}
		lines, err := extremes(res, col, "movie", money)
		if err != nil {
			return models.Panel{}, err
		}
		analysis = append(analysis, lines...)
	}
	return models.Panel{Chart: chart, Analysis: analysis}, nil
}

func distribution(view *engine.View, col, name, title, what string) (models.Panel, error) {
	bins, err := engine.Histogram(view, col, histogramBins)
	if err != nil {
		return models.Panel{}, err
	}
	s, err := engine.Summarize(view, col)
	if err != nil {
		return models.Panel{}, err
	}
	chart := models.Chart{
		Name:   name,
		Kind:   models.ChartHistogram,
		Title:  title,
		XLabel: col,
		YLabel: "Percent",
		Labels: make([]string, len(bins)),
		Series: []models.Series{{Name: "Percent", Values: make([]float64, len(bins))}},
	}
	for i, b := range bins {
		chart.Labels[i] = fmt.Sprintf("%s - %s", number(b.Lo), number(b.Hi))
		chart.Series[0].Values[i] = b.Share
	}
	return models.Panel{Chart: chart, Analysis: describe(s, what, money)}, nil
}

func grossComposition(view *engine.View) (models.Panel, error) {
	names, err := labels(view, ColName)
	if err != nil {
		return models.Panel{}, err
	}
	world, err := column(view, ColGrossWorld)
	if err != nil {
		return models.Panel{}, err
	}
	us, err := column(view, ColGrossUS)
	if err != nil {
		return models.Panel{}, err
	}
	chart := models.Chart{
		Name:   "gross_composition",
		Kind:   models.ChartArea,
		Title:  "Gross World and Gross US per Movie",
		XLabel: "Movie",
		YLabel: "Gross",
		Labels: names,
		Series: []models.Series{
			{Name: ColGrossWorld, Values: world},
			{Name: ColGrossUS, Values: us},
		},
	}
	usTotal, worldTotal := sum(us), sum(world)
	analysis := []string{
		fmt.Sprintf("Gross US adds up to %s, %s of gross world (%s).", money(usTotal), percent(usTotal, worldTotal), money(worldTotal)),
	}
	return models.Panel{Chart: chart, Analysis: analysis}, nil
}

func ratingComposition(view *engine.View) (models.Panel, error) {
	res, err := engine.Aggregate(view, engine.Request{GroupBy: ColRating, Op: engine.OpCount, Order: engine.OrderValueDesc})
	if err != nil {
		return models.Panel{}, err
	}
	chart := models.Chart{
		Name:   "rating_composition",
		Kind:   models.ChartPie,
		Title:  "Movies by Rating",
		Labels: res.Keys(),
		Series: []models.Series{{Name: "Movies", Values: res.Values()}},
	}
	return models.Panel{Chart: chart, Analysis: shares(res, "movies")}, nil
}

func relationship(view *engine.View) (models.Panel, error) {
	names, err := labels(view, ColName)
	if err != nil {
		return models.Panel{}, err
	}
	budget, err := column(view, ColBudget)
	if err != nil {
		return models.Panel{}, err
	}
	gross, err := column(view, ColGrossWorld)
	if err != nil {
		return models.Panel{}, err
	}
	minutes, err := column(view, ColDuration)
	if err != nil {
		return models.Panel{}, err
	}

	budgetCol, _, _ := view.Dataset().Schema().Lookup(ColBudget)
	grossCol, _, _ := view.Dataset().Schema().Lookup(ColGrossWorld)
	points := make([]models.Point, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := view.Row(i)
		if row[budgetCol].IsNull() || row[grossCol].IsNull() {
			continue
		}
		points = append(points, models.Point{Label: names[i], X: budget[i], Y: gross[i], Size: minutes[i]})
	}
	chart := models.Chart{
		Name:   "relationship",
		Kind:   models.ChartScatter,
		Title:  "Budget vs Gross World",
		XLabel: "Budget",
		YLabel: "Gross World",
		Points: points,
	}

	var analysis []string
	r, err := engine.Correlation(view, ColBudget, ColGrossWorld)
	var ide *engine.InsufficientDataError
	switch {
	case errors.As(err, &ide):
		analysis = append(analysis, fmt.Sprintf("Correlation between budget and gross world is undefined: %s.", ide.Reason))
	case err != nil:
		return models.Panel{}, err
	default:
		analysis = append(analysis, fmt.Sprintf("Correlation between budget and gross world is %.2f (%s).", r, strength(r)))
	}
	return models.Panel{Chart: chart, Analysis: analysis}, nil
}

func durationByRating(view *engine.View) (models.Panel, error) {
	chart := models.Chart{
		Name:   "duration_by_rating",
		Kind:   models.ChartBar,
		Title:  "Average Duration per Rating",
		XLabel: "Rating",
		YLabel: "Minutes",
	}
	known, err := view.Filter(engine.FilterSpec{ColDuration: engine.AtLeast(math.Inf(-1))})
	if err != nil {
		return models.Panel{}, err
	}
	if known.Len() == 0 {
		return models.Panel{Chart: chart, Analysis: []string{"No selected movie reports a duration."}}, nil
	}
	res, err := engine.Aggregate(known, engine.Request{GroupBy: ColRating, Value: ColDuration, Op: engine.OpMean, Order: engine.OrderKey})
	if err != nil {
		return models.Panel{}, err
	}
	chart.Labels = res.Keys()
	chart.Series = []models.Series{{Name: ColDuration, Values: res.Values()}}

	avg, err := res.Mean()
	if err != nil {
		return models.Panel{}, err
	}
	analysis := []string{fmt.Sprintf("Average duration across ratings is %s.", minutes(avg))}
	lines, err := extremes(res, "average duration", "rating", minutes)
	if err != nil {
		return models.Panel{}, err
	}
	return models.Panel{Chart: chart, Analysis: append(analysis, lines...)}, nil
}

// ratingBudget plots each budget against its rating and marks the movies
// with the highest and lowest budget.
func ratingBudget(view *engine.View) (models.Panel, error) {
	chart := models.Chart{
		Name:   "rating_budget",
		Kind:   models.ChartScatter,
		Title:  "Rating vs Budget",
		XLabel: "Budget",
		YLabel: "Rating",
	}
	known, err := view.Filter(engine.FilterSpec{ColBudget: engine.AtLeast(math.Inf(-1))})
	if err != nil {
		return models.Panel{}, err
	}
	vals, err := known.Distinct(ColRating)
	if err != nil {
		return models.Panel{}, err
	}
	if len(vals) == 0 {
		return models.Panel{Chart: chart, Analysis: []string{"No selected movie reports both a rating and a budget."}}, nil
	}
	ratings := make([]string, len(vals))
	for i, v := range vals {
		ratings[i] = v.Text()
	}
	slices.Sort(ratings)
	// drop rows without a rating
	known, err = known.Filter(engine.FilterSpec{ColRating: engine.OneOf(ratings...)})
	if err != nil {
		return models.Panel{}, err
	}
	s, err := engine.Summarize(known, ColBudget)
	if err != nil {
		return models.Panel{}, err
	}

	schema := view.Dataset().Schema()
	nameCol, _, _ := schema.Lookup(ColName)
	ratingCol, _, _ := schema.Lookup(ColRating)
	budgetCol, _, _ := schema.Lookup(ColBudget)
	pos := make(map[string]int, len(ratings))
	for i, r := range ratings {
		pos[r] = i
	}
	chart.Labels = ratings
	chart.Points = make([]models.Point, known.Len())
	for i := range chart.Points {
		row := known.Row(i)
		chart.Points[i] = models.Point{
			Label: shortName(row[nameCol].Text()),
			X:     row[budgetCol].Number(),
			Y:     float64(pos[row[ratingCol].Text()]),
			Mark:  mark(known.Index(i), s),
		}
	}

	ds := view.Dataset()
	hi, lo := ds.Row(s.MaxRow), ds.Row(s.MinRow)
	analysis := []string{
		fmt.Sprintf("The movie with the highest budget is %s (%s) with %s.", hi[nameCol].Text(), hi[ratingCol].Text(), money(s.Max)),
		fmt.Sprintf("The movie with the lowest budget is %s (%s) with %s.", lo[nameCol].Text(), lo[ratingCol].Text(), money(s.Min)),
	}
	return models.Panel{Chart: chart, Analysis: analysis}, nil
}

func strength(r float64) string {
	switch a := math.Abs(r); {
	case a >= 0.7:
		return "strong"
	case a >= 0.3:
		return "moderate"
	}
	return "weak"
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}

// MovieTable pages through the filtered movies for the table view.
func MovieTable(ds *engine.Dataset, f MovieFilter, columns []string, limit, offset int) (models.Table, error) {
	view, err := engine.ApplyFilters(ds, f.Spec())
	if err != nil {
		return models.Table{}, err
	}
	return Table(view, columns, limit, offset)
}

// Table projects a page of a view. Nulls become JSON nulls.
func Table(view *engine.View, columns []string, limit, offset int) (models.Table, error) {
	names, rows, err := view.Project(columns...)
	if err != nil {
		return models.Table{}, err
	}
	out := models.Table{Columns: names, Rows: [][]any{}, Total: len(rows), Limit: limit, Offset: offset}
	if offset >= len(rows) {
		return out, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	for _, row := range rows[offset:end] {
		cells := make([]any, len(row))
		for i, v := range row {
			switch {
			case v.IsNull():
			case v.Kind().Numeric():
				cells[i] = v.Number()
			default:
				cells[i] = v.Text()
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}
