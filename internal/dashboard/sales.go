package dashboard

import (
	"errors"
	"fmt"
	"math"

	"dashboard/internal/engine"
	"dashboard/internal/models"
)

// SalesFilter holds the sidebar selections. An empty list selects everything.
type SalesFilter struct {
	Years      []string
	Countries  []string
	Genders    []string
	Categories []string
}

func (f SalesFilter) Spec() engine.FilterSpec {
	return engine.FilterSpec{
		ColYear:     engine.OneOf(f.Years...),
		ColCountry:  engine.OneOf(f.Countries...),
		ColGender:   engine.OneOf(f.Genders...),
		ColCategory: engine.OneOf(f.Categories...),
	}
}

// SalesOptions lists the values offered by each sales filter.
func SalesOptions(ds *engine.Dataset) (models.FilterOptions, error) {
	return options(ds, ColYear, ColCountry, ColGender, ColCategory)
}

func options(ds *engine.Dataset, columns ...string) (models.FilterOptions, error) {
	out := models.FilterOptions{}
	for _, c := range columns {
		vals, err := ds.All().Distinct(c)
		if err != nil {
			return nil, err
		}
		texts := make([]string, len(vals))
		for i, v := range vals {
			texts[i] = v.Text()
		}
		out[c] = texts
	}
	return out, nil
}

// BuildSales computes the sales dashboard for one filter selection. Charts
// grouped by a filtered column ignore that column's own filter.
func BuildSales(ds *engine.Dataset, f SalesFilter) (models.SalesDashboard, error) {
	var out models.SalesDashboard
	spec := f.Spec()

	view, err := engine.ApplyFilters(ds, spec)
	if err != nil {
		return out, err
	}

	// 1. KPIs
	kpi, err := engine.Summarize(view, ColSalesAmount)
	if err != nil {
		return out, fmt.Errorf("sales kpis: %w", err)
	}
	top, err := engine.Mode(view, ColCategory)
	if err != nil {
		return out, fmt.Errorf("top category: %w", err)
	}
	out.KPIs = models.SalesKPIs{
		Sales:         kpi.Count,
		TotalAmount:   kpi.Total,
		AverageAmount: kpi.Mean,
		TopCategory:   top.Text(),
	}

	// 2. Panels
	builders := []struct {
		name  string
		build func() (models.Panel, error)
	}{
		{"sales_by_country", func() (models.Panel, error) { return salesByCountry(ds, spec) }},
		{"quantity_by_month", func() (models.Panel, error) { return quantityByMonth(view) }},
		{"quantity_by_category", func() (models.Panel, error) { return quantityShare(ds, spec, ColCategory, "sales_by_category", "Sales by Category") }},
		{"quantity_by_gender", func() (models.Panel, error) { return quantityShare(ds, spec, ColGender, "sales_by_gender", "Sales by Gender") }},
		{"customers", func() (models.Panel, error) { return customerScatter(view) }},
		{"sales_quantity", func() (models.Panel, error) { return salesQuantity(view) }},
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

func salesByCountry(ds *engine.Dataset, spec engine.FilterSpec) (models.Panel, error) {
	view, err := engine.ApplyFilters(ds, spec.Without(ColCountry))
	if err != nil {
		return models.Panel{}, err
	}
	sales, err := engine.Aggregate(view, engine.Request{GroupBy: ColCountry, Value: ColSalesAmount, Op: engine.OpSum})
	if err != nil {
		return models.Panel{}, err
	}
	cost, err := engine.Aggregate(view, engine.Request{GroupBy: ColCountry, Value: ColTotalProductCost, Op: engine.OpSum})
	if err != nil {
		return models.Panel{}, err
	}

	costByCountry := cost.Map()
	costs := make([]float64, len(sales.Groups))
	for i, g := range sales.Groups {
		costs[i] = costByCountry[g.Key].Value
	}
	chart := models.Chart{
		Name:   "sales_by_country",
		Kind:   models.ChartBar,
		Title:  "Total Sales Amount vs Total Cost by Country",
		YLabel: "Amount",
		Labels: sales.Keys(),
		Series: []models.Series{
			{Name: ColSalesAmount, Values: sales.Values()},
			{Name: ColTotalProductCost, Values: costs},
		},
	}

	avgSales, err := sales.Mean()
	if err != nil {
		return models.Panel{}, err
	}
	avgCost, err := cost.Mean()
	if err != nil {
		return models.Panel{}, err
	}
	analysis := []string{
		fmt.Sprintf("Total sales amount is %s.", money(sales.Total())),
		fmt.Sprintf("Total product cost is %s.", money(cost.Total())),
		fmt.Sprintf("Average sales amount per country is %s.", money(avgSales)),
		fmt.Sprintf("Average product cost per country is %s.", money(avgCost)),
	}
	lines, err := extremes(sales, "sales amount", "country", money)
	if err != nil {
		return models.Panel{}, err
	}
	analysis = append(analysis, lines...)
	lines, err = extremes(cost, "product cost", "country", money)
	if err != nil {
		return models.Panel{}, err
	}
	analysis = append(analysis, lines...)

	return models.Panel{Chart: chart, Analysis: analysis}, nil
}

func quantityByMonth(view *engine.View) (models.Panel, error) {
	res, err := engine.Aggregate(view, engine.Request{
		GroupBy: ColMonth,
		Value:   ColOrderQuantity,
		Op:      engine.OpSum,
		Order:   engine.OrderFixed,
		Keys:    Months,
	})
	if err != nil {
		return models.Panel{}, err
	}
	chart := models.Chart{
		Name:   "quantity_by_month",
		Kind:   models.ChartBar,
		Title:  "Total of Sales by Month",
		XLabel: "Order Quantity",
		Labels: res.Keys(),
		Series: []models.Series{{Name: ColOrderQuantity, Values: res.Values()}},
	}
	analysis, err := extremes(res, "order quantity", "month", number)
	if err != nil {
		return models.Panel{}, err
	}
	return models.Panel{Chart: chart, Analysis: analysis}, nil
}

func quantityShare(ds *engine.Dataset, spec engine.FilterSpec, by, name, title string) (models.Panel, error) {
	view, err := engine.ApplyFilters(ds, spec.Without(by))
	if err != nil {
		return models.Panel{}, err
	}
	res, err := engine.Aggregate(view, engine.Request{GroupBy: by, Value: ColOrderQuantity, Op: engine.OpSum, Order: engine.OrderValueDesc})
	if err != nil {
		return models.Panel{}, err
	}
	chart := models.Chart{
		Name:   name,
		Kind:   models.ChartPie,
		Title:  title,
		Labels: res.Keys(),
		Series: []models.Series{{Name: ColOrderQuantity, Values: res.Values()}},
	}
	return models.Panel{Chart: chart, Analysis: shares(res, "order quantity")}, nil
}

func customerScatter(view *engine.View) (models.Panel, error) {
	// a null income never satisfies a range, so this keeps only customers
	// with a known income
	known, err := view.Filter(engine.FilterSpec{ColYearlyIncome: engine.AtLeast(math.Inf(-1))})
	if err != nil {
		return models.Panel{}, err
	}
	chart := models.Chart{
		Name:   "customers",
		Kind:   models.ChartScatter,
		Title:  "Sales Amount vs Yearly Income per Customer",
		XLabel: "Yearly Income",
		YLabel: "Sales Amount",
	}
	if known.Len() == 0 {
		return models.Panel{Chart: chart, Analysis: []string{"No selected customer has a known yearly income."}}, nil
	}

	sales, err := engine.Aggregate(known, engine.Request{GroupBy: ColCustomer, Value: ColSalesAmount, Op: engine.OpSum})
	if err != nil {
		return models.Panel{}, err
	}
	income, err := engine.Aggregate(known, engine.Request{GroupBy: ColCustomer, Value: ColYearlyIncome, Op: engine.OpMean})
	if err != nil {
		return models.Panel{}, err
	}

	incomes := income.Map()
	points := make([]models.Point, 0, len(sales.Groups))
	for _, g := range sales.Groups {
		in := incomes[g.Key]
		points = append(points, models.Point{Label: g.Key, X: in.Value, Y: g.Value, Size: g.Value})
	}
	chart.Points = points

	var analysis []string
	if len(sales.Groups) > 0 {
		lines, err := extremes(sales, "sales amount", "customer", money)
		if err != nil {
			return models.Panel{}, err
		}
		analysis = append(analysis, lines...)
	}
	r, err := correlateGroups(income, sales)
	var ide *engine.InsufficientDataError
	switch {
	case errors.As(err, &ide):
		analysis = append(analysis, fmt.Sprintf("Correlation between yearly income and sales amount is undefined: %s.", ide.Reason))
	case err != nil:
		return models.Panel{}, err
	default:
		analysis = append(analysis, fmt.Sprintf("Correlation between yearly income and sales amount is %.2f.", r))
	}
	return models.Panel{Chart: chart, Analysis: analysis}, nil
}

// salesQuantity plots every sale and marks those with the highest and
// lowest order quantity.
func salesQuantity(view *engine.View) (models.Panel, error) {
	chart := models.Chart{
		Name:   "sales_quantity",
		Kind:   models.ChartScatter,
		Title:  "Sales Amount vs Order Quantity",
		XLabel: "Sales Amount",
		YLabel: "Order Quantity",
	}
	known, err := view.Filter(engine.FilterSpec{
		ColSalesAmount:   engine.AtLeast(math.Inf(-1)),
		ColOrderQuantity: engine.AtLeast(math.Inf(-1)),
	})
	if err != nil {
		return models.Panel{}, err
	}
	if known.Len() == 0 {
		return models.Panel{Chart: chart, Analysis: []string{"No selected sale reports both an amount and a quantity."}}, nil
	}
	s, err := engine.Summarize(known, ColOrderQuantity)
	if err != nil {
		return models.Panel{}, err
	}

	schema := view.Dataset().Schema()
	orderCol, _, _ := schema.Lookup(ColOrderNumber)
	amountCol, _, _ := schema.Lookup(ColSalesAmount)
	qtyCol, _, _ := schema.Lookup(ColOrderQuantity)
	chart.Points = make([]models.Point, known.Len())
	for i := range chart.Points {
		row := known.Row(i)
		chart.Points[i] = models.Point{
			Label: row[orderCol].Text(),
			X:     row[amountCol].Number(),
			Y:     row[qtyCol].Number(),
			Mark:  mark(known.Index(i), s),
		}
	}

	ds := view.Dataset()
	hi, lo := ds.Row(s.MaxRow), ds.Row(s.MinRow)
	analysis := []string{
		fmt.Sprintf("The sale with the highest order quantity is %s with %s (%s).", hi[orderCol].Text(), number(s.Max), money(hi[amountCol].Number())),
		fmt.Sprintf("The sale with the lowest order quantity is %s with %s (%s).", lo[orderCol].Text(), number(s.Min), money(lo[amountCol].Number())),
	}
	r, err := engine.Correlation(known, ColSalesAmount, ColOrderQuantity)
	var ide *engine.InsufficientDataError
	switch {
	case errors.As(err, &ide):
		analysis = append(analysis, fmt.Sprintf("Correlation between sales amount and order quantity is undefined: %s.", ide.Reason))
	case err != nil:
		return models.Panel{}, err
	default:
		analysis = append(analysis, fmt.Sprintf("Correlation between sales amount and order quantity is %.2f (%s).", r, strength(r)))
	}
	return models.Panel{Chart: chart, Analysis: analysis}, nil
}

// correlateGroups correlates two per-group results over their shared keys.
func correlateGroups(x, y *engine.Result) (float64, error) {
	schema := engine.MustSchema(
		engine.Column{Name: "x", Kind: engine.KindFloat},
		engine.Column{Name: "y", Kind: engine.KindFloat},
	)
	ys := y.Map()
	rows := make([]engine.Row, 0, len(x.Groups))
	for _, g := range x.Groups {
		if h, ok := ys[g.Key]; ok {
			rows = append(rows, engine.Row{engine.Float(g.Value), engine.Float(h.Value)})
		}
	}
	ds, err := engine.NewDataset(schema, rows)
	if err != nil {
		return 0, err
	}
	return engine.Correlation(ds.All(), "x", "y")
}
