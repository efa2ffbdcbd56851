// Package dashboard turns loaded datasets and user filters into chart panels
// with descriptive-statistics text for the movie and sales dashboards.
package dashboard

import (
	"dashboard/internal/engine"
)

// Movie dataset columns.
const (
	ColName         = "Name"
	ColYear         = "Year"
	ColDuration     = "Duration"
	ColRating       = "Rating"
	ColBudget       = "Budget"
	ColGrossUS      = "GrossUS"
	ColOpeningWeek  = "OpeningWeek"
	ColOpenWeekDate = "OpenWeekDate"
	ColGrossWorld   = "GrossWorld"
	ColColor        = "Color"
	ColSoundMix     = "SoundMix"
	ColAspectRatio  = "AspectRatio"
)

var MovieSchema = engine.MustSchema(
	engine.Column{Name: ColName, Kind: engine.KindString},
	engine.Column{Name: ColYear, Kind: engine.KindInt},
	engine.Column{Name: ColDuration, Kind: engine.KindFloat},
	engine.Column{Name: ColRating, Kind: engine.KindCategory},
	engine.Column{Name: ColBudget, Kind: engine.KindFloat},
	engine.Column{Name: ColGrossUS, Kind: engine.KindFloat},
	engine.Column{Name: ColOpeningWeek, Kind: engine.KindFloat},
	engine.Column{Name: ColOpenWeekDate, Kind: engine.KindString},
	engine.Column{Name: ColGrossWorld, Kind: engine.KindFloat},
	engine.Column{Name: ColColor, Kind: engine.KindCategory},
	engine.Column{Name: ColSoundMix, Kind: engine.KindCategory},
	engine.Column{Name: ColAspectRatio, Kind: engine.KindCategory},
)

// headers of the scraped IMDB export
var movieHeaders = map[string]string{
	"Durasi(Menit)":  ColDuration,
	"Gross_US":       ColGrossUS,
	"Opening_Week":   ColOpeningWeek,
	"Open_Week_Date": ColOpenWeekDate,
	"Gross_World":    ColGrossWorld,
	"Sound_Mix":      ColSoundMix,
	"Aspect_Ratio":   ColAspectRatio,
}

// LoadMovies reads the IMDB CSV export.
func LoadMovies(path string) (*engine.Dataset, error) {
	opts := make([]engine.CSVOption, 0, len(movieHeaders))
	for header, col := range movieHeaders {
		opts = append(opts, engine.WithHeader(header, col))
	}
	return engine.LoadCSV(path, MovieSchema, opts...)
}

// Sales dataset columns.
const (
	ColOrderNumber      = "OrderNumber"
	ColMonth            = "Month"
	ColSalesAmount      = "SalesAmount"
	ColOrderQuantity    = "OrderQuantity"
	ColTotalProductCost = "TotalProductCost"
	ColCustomer         = "Customer"
	ColGender           = "Gender"
	ColYearlyIncome     = "YearlyIncome"
	ColCountry          = "Country"
	ColCategory         = "Category"
)

var SalesSchema = engine.MustSchema(
	engine.Column{Name: ColOrderNumber, Kind: engine.KindString},
	engine.Column{Name: ColYear, Kind: engine.KindInt},
	engine.Column{Name: ColMonth, Kind: engine.KindCategory},
	engine.Column{Name: ColSalesAmount, Kind: engine.KindFloat},
	engine.Column{Name: ColOrderQuantity, Kind: engine.KindFloat},
	engine.Column{Name: ColTotalProductCost, Kind: engine.KindFloat},
	engine.Column{Name: ColCustomer, Kind: engine.KindCategory},
	engine.Column{Name: ColGender, Kind: engine.KindCategory},
	engine.Column{Name: ColYearlyIncome, Kind: engine.KindFloat},
	engine.Column{Name: ColCountry, Kind: engine.KindCategory},
	engine.Column{Name: ColCategory, Kind: engine.KindCategory},
)

// LoadSalesCSV reads a sales export whose headers match SalesSchema.
func LoadSalesCSV(path string) (*engine.Dataset, error) {
	return engine.LoadCSV(path, SalesSchema)
}

var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}
