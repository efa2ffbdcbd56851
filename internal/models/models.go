package models

type ChartKind string

const (
	ChartBar       ChartKind = "bar"
	ChartHistogram ChartKind = "histogram"
	ChartPie       ChartKind = "pie"
	ChartScatter   ChartKind = "scatter"
	ChartArea      ChartKind = "area"
	ChartLine      ChartKind = "line"
)

// Chart is a renderer-agnostic chart: category charts use Labels + Series,
// scatter charts use Points. A scatter with Labels has a categorical Y axis
// where Y indexes Labels.
type Chart struct {
	Name   string    `json:"name"`
	Kind   ChartKind `json:"kind"`
	Title  string    `json:"title"`
	XLabel string    `json:"x_label,omitempty"`
	YLabel string    `json:"y_label,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	Series []Series  `json:"series,omitempty"`
	Points []Point   `json:"points,omitempty"`
}

type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

type Point struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size,omitempty"`
	// Mark annotates an extreme point ("Max", "Min").
	Mark string `json:"mark,omitempty"`
}

// Panel pairs a chart with its descriptive-statistics text.
type Panel struct {
	Chart    Chart    `json:"chart"`
	Analysis []string `json:"analysis,omitempty"`
}

type SalesKPIs struct {
	Sales         int     `json:"sales"`
	TotalAmount   float64 `json:"total_amount"`
	AverageAmount float64 `json:"average_amount"`
	TopCategory   string  `json:"top_category"`
}

type SalesDashboard struct {
	KPIs   SalesKPIs `json:"kpis"`
	Panels []Panel   `json:"panels"`
}

type MovieDashboard struct {
	Movies int     `json:"movies"`
	Panels []Panel `json:"panels"`
}

// FilterOptions lists the selectable values per filter column.
type FilterOptions map[string][]string

type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

type Pick struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}
