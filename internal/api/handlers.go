package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"dashboard/internal/dashboard"
	"dashboard/internal/engine"
	"dashboard/internal/models"
	"dashboard/internal/render"

	"github.com/labstack/echo/v4"
)

const defaultTableLimit = 50

// Data is the set of loaded datasets. Sales is nil when no sales source is
// configured.
type Data struct {
	Movies *engine.Dataset
	Sales  *engine.Dataset
}

type PickSource interface {
	TopPicks(ctx context.Context, pageURL string) ([]models.Pick, error)
}

type Handler struct {
	data     atomic.Pointer[Data]
	picks    PickSource
	picksURL string
	logger   *slog.Logger
}

// NewHandler starts with no data; data endpoints answer 503 until SetData.
func NewHandler(picks PickSource, picksURL string, logger *slog.Logger) *Handler {
	return &Handler{
		picks:    picks,
		picksURL: picksURL,
		logger:   logger.With("component", "api"),
	}
}

func (h *Handler) SetData(d *Data) {
	h.data.Store(d)
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.GetHealth)
	api.GET("/movies/options", h.GetMovieOptions)
	api.GET("/movies/dashboard", h.GetMovieDashboard)
	api.GET("/movies/table", h.GetMovieTable)
	api.GET("/movies/charts/:name", h.GetMovieChart)
	api.GET("/sales/options", h.GetSalesOptions)
	api.GET("/sales/dashboard", h.GetSalesDashboard)
	api.GET("/sales/charts/:name", h.GetSalesChart)
	api.GET("/picks", h.GetPicks)
}

// --- PARAMS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// listParam accepts both ?a=x&a=y and ?a=x,y.
func listParam(c echo.Context, name string) []string {
	var out []string
	for _, v := range c.QueryParams()[name] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func intParam(c echo.Context, name string) (*int, error) {
	s := c.QueryParam(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return &v, nil
}

func movieFilter(c echo.Context) (dashboard.MovieFilter, error) {
	minYear, err := intParam(c, "min_year")
	if err != nil {
		return dashboard.MovieFilter{}, err
	}
	maxYear, err := intParam(c, "max_year")
	if err != nil {
		return dashboard.MovieFilter{}, err
	}
	return dashboard.MovieFilter{MinYear: minYear, MaxYear: maxYear, Ratings: listParam(c, "rating")}, nil
}

func salesFilter(c echo.Context) dashboard.SalesFilter {
	return dashboard.SalesFilter{
		Years:      listParam(c, "year"),
		Countries:  listParam(c, "country"),
		Genders:    listParam(c, "gender"),
		Categories: listParam(c, "category"),
	}
}

// --- ERRORS ---

// fail maps engine errors onto HTTP statuses.
func (h *Handler) fail(c echo.Context, err error) error {
	var (
		he  *echo.HTTPError
		se  *engine.SchemaError
		eg  *engine.EmptyGroupError
		ide *engine.InsufficientDataError
	)
	switch {
	case errors.As(err, &he):
		return he
	case errors.As(err, &se):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &eg), errors.As(err, &ide):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	h.logger.ErrorContext(c.Request().Context(), "request failed", "path", c.Path(), "err", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func (h *Handler) movies() (*engine.Dataset, error) {
	d := h.data.Load()
	if d == nil || d.Movies == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "movie data is loading")
	}
	return d.Movies, nil
}

func (h *Handler) sales() (*engine.Dataset, error) {
	d := h.data.Load()
	if d == nil || d.Sales == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "sales data is not available")
	}
	return d.Sales, nil
}

// --- HANDLERS ---
func (h *Handler) GetHealth(c echo.Context) error {
	d := h.data.Load()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"movies": d != nil && d.Movies != nil,
		"sales":  d != nil && d.Sales != nil,
	})
}

func (h *Handler) GetMovieOptions(c echo.Context) error {
	ds, err := h.movies()
	if err != nil {
		return err
	}
	opts, err := dashboard.MovieOptions(ds)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}

func (h *Handler) GetMovieDashboard(c echo.Context) error {
	ds, err := h.movies()
	if err != nil {
		return err
	}
	f, err := movieFilter(c)
	if err != nil {
		return err
	}
	out, err := dashboard.BuildMovies(ds, f)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetMovieTable(c echo.Context) error {
	ds, err := h.movies()
	if err != nil {
		return err
	}
	f, err := movieFilter(c)
	if err != nil {
		return err
	}
	limit, offset := getPaginationParams(c, defaultTableLimit)
	out, err := dashboard.MovieTable(ds, f, listParam(c, "columns"), limit, offset)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetMovieChart(c echo.Context) error {
	ds, err := h.movies()
	if err != nil {
		return err
	}
	f, err := movieFilter(c)
	if err != nil {
		return err
	}
	out, err := dashboard.BuildMovies(ds, f)
	if err != nil {
		return h.fail(c, err)
	}
	return h.chart(c, out.Panels)
}

func (h *Handler) GetSalesOptions(c echo.Context) error {
	ds, err := h.sales()
	if err != nil {
		return err
	}
	opts, err := dashboard.SalesOptions(ds)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}

func (h *Handler) GetSalesDashboard(c echo.Context) error {
	ds, err := h.sales()
	if err != nil {
		return err
	}
	out, err := dashboard.BuildSales(ds, salesFilter(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetSalesChart(c echo.Context) error {
	ds, err := h.sales()
	if err != nil {
		return err
	}
	out, err := dashboard.BuildSales(ds, salesFilter(c))
	if err != nil {
		return h.fail(c, err)
	}
	return h.chart(c, out.Panels)
}

// chart renders the panel named by the :name path parameter.
func (h *Handler) chart(c echo.Context, panels []models.Panel) error {
	name := c.Param("name")
	for _, p := range panels {
		if p.Chart.Name != name {
			continue
		}
		var buf bytes.Buffer
		if err := render.PNG(&buf, p.Chart); err != nil {
			if errors.Is(err, render.ErrEmpty) {
				return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
			}
			return h.fail(c, err)
		}
		return c.Blob(http.StatusOK, "image/png", buf.Bytes())
	}
	return echo.NewHTTPError(http.StatusNotFound, "no chart named "+strconv.Quote(name))
}

func (h *Handler) GetPicks(c echo.Context) error {
	picks, err := h.picks.TopPicks(c.Request().Context(), h.picksURL)
	if err != nil {
		h.logger.WarnContext(c.Request().Context(), "scraping top picks failed", "err", err)
		return echo.NewHTTPError(http.StatusBadGateway, "top picks are unavailable")
	}
	if picks == nil {
		picks = []models.Pick{}
	}
	return c.JSON(http.StatusOK, picks)
}
