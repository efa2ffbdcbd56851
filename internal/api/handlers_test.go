package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"dashboard/internal/dashboard"
	"dashboard/internal/engine"
	"dashboard/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type fakePicks struct {
	picks []models.Pick
	err   error
	url   string
}

func (f *fakePicks) TopPicks(_ context.Context, pageURL string) ([]models.Pick, error) {
	f.url = pageURL
	return f.picks, f.err
}

func testData(t *testing.T) *Data {
	t.Helper()
	movie := func(name string, year int64, rating string, budget, us, world float64) engine.Row {
		return engine.Row{
			engine.String(name), engine.Int(year), engine.Float(120), engine.Category(rating),
			engine.Float(budget), engine.Float(us), engine.Null(), engine.Null(), engine.Float(world),
			engine.Null(), engine.Null(), engine.Null(),
		}
	}
	movies, err := engine.NewDataset(dashboard.MovieSchema, []engine.Row{
		movie("Dune: Part Two", 2024, "PG-13", 190, 282, 711),
		movie("Oppenheimer", 2023, "R", 100, 330, 975),
		movie("Barbie", 2023, "PG-13", 145, 636, 1441),
	})
	require.NoError(t, err)

	sale := func(order string, year int64, month string, amount float64, customer, country, category string) engine.Row {
		return engine.Row{
			engine.String(order), engine.Int(year), engine.Category(month),
			engine.Float(amount), engine.Float(1), engine.Float(amount / 2),
			engine.Category(customer), engine.Category("F"), engine.Float(amount * 100),
			engine.Category(country), engine.Category(category),
		}
	}
	sales, err := engine.NewDataset(dashboard.SalesSchema, []engine.Row{
		sale("SO1", 2013, "January", 100, "Alice", "France", "Bikes"),
		sale("SO2", 2014, "March", 300, "Bob", "Germany", "Bikes"),
		sale("SO3", 2014, "May", 50, "Carol", "Germany", "Clothing"),
	})
	require.NoError(t, err)
	return &Data{Movies: movies, Sales: sales}
}

func newServer(t *testing.T, data *Data, picks PickSource) *echo.Echo {
	t.Helper()
	e := echo.New()
	h := NewHandler(picks, "https://www.imdb.com/what-to-watch/top-picks/", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if data != nil {
		h.SetData(data)
	}
	h.RegisterRoutes(e)
	return e
}

func get(t *testing.T, e *echo.Echo, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoading(t *testing.T) {
	e := newServer(t, nil, &fakePicks{})

	for _, path := range []string{"/api/movies/dashboard", "/api/movies/table", "/api/sales/options", "/api/sales/charts/customers"} {
		rec := get(t, e, path)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}

	rec := get(t, e, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","movies":false,"sales":false}`, rec.Body.String())
}

func TestMovieDashboard(t *testing.T) {
	e := newServer(t, testData(t), &fakePicks{})

	rec := get(t, e, "/api/movies/dashboard?max_year=2023&rating=PG-13,R")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out models.MovieDashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 2, out.Movies)
	require.Len(t, out.Panels, 9)

	rec = get(t, e, "/api/movies/dashboard?min_year=abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// nothing selected: the yearly budget has no groups
	rec = get(t, e, "/api/movies/dashboard?min_year=3000")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMovieTable(t *testing.T) {
	e := newServer(t, testData(t), &fakePicks{})

	rec := get(t, e, "/api/movies/table?columns=Name,Year&limit=1&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var tbl models.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tbl))
	require.Equal(t, []string{"Name", "Year"}, tbl.Columns)
	require.Equal(t, 3, tbl.Total)
	require.Equal(t, [][]any{{"Oppenheimer", 2023.0}}, tbl.Rows)

	rec = get(t, e, "/api/movies/table?columns=Nope")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCharts(t *testing.T) {
	e := newServer(t, testData(t), &fakePicks{})

	for _, path := range []string{
		"/api/movies/charts/budget_per_year",
		"/api/movies/charts/rating_composition",
		"/api/movies/charts/rating_budget",
		"/api/movies/charts/duration_by_rating",
		"/api/movies/charts/gross_comparison",
		"/api/sales/charts/sales_quantity",
		"/api/sales/charts/sales_by_country?year=2014",
		"/api/sales/charts/customers",
	} {
		rec := get(t, e, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
		require.Equal(t, "\x89PNG", rec.Body.String()[:4])
	}

	rec := get(t, e, "/api/sales/charts/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSalesDashboard(t *testing.T) {
	e := newServer(t, testData(t), &fakePicks{})

	rec := get(t, e, "/api/sales/dashboard?country=Germany&year=2014")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out models.SalesDashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, models.SalesKPIs{Sales: 2, TotalAmount: 350, AverageAmount: 175, TopCategory: "Bikes"}, out.KPIs)

	rec = get(t, e, "/api/sales/dashboard?country=Atlantis")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = get(t, e, "/api/sales/options")
	require.Equal(t, http.StatusOK, rec.Code)
	var opts models.FilterOptions
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	require.Equal(t, []string{"France", "Germany"}, opts[dashboard.ColCountry])
}

func TestPicks(t *testing.T) {
	src := &fakePicks{picks: []models.Pick{{Title: "Dune: Part Two", Link: "https://www.imdb.com/title/tt15239678/"}}}
	e := newServer(t, nil, src)

	rec := get(t, e, "/api/picks")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"title":"Dune: Part Two","link":"https://www.imdb.com/title/tt15239678/"}]`, rec.Body.String())
	require.Equal(t, "https://www.imdb.com/what-to-watch/top-picks/", src.url)

	src.picks, src.err = nil, errors.New("403 Forbidden")
	rec = get(t, e, "/api/picks")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestListParam(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?rating=PG,%20R&rating=PG-13&rating=", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	require.Equal(t, []string{"PG", "R", "PG-13"}, listParam(c, "rating"))
	require.Nil(t, listParam(c, "year"))

	limit, offset := getPaginationParams(c, 50)
	require.Equal(t, 50, limit)
	require.Equal(t, 0, offset)
}
