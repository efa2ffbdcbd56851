package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashboard/internal/api"
	"dashboard/internal/config"
	"dashboard/internal/dashboard"
	"dashboard/internal/engine"
	"dashboard/internal/salesdb"
	"dashboard/internal/scraper"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lmittmann/tint"
)

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

func fatal(message string, err error) {
	slog.Error(message, "err", err)
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", "dashboard.json5", "config file, merged with its .local variant")
	verbose := flag.Bool("verbose", false, "log at debug level")
	flag.Parse()

	initSlog(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("load config", err)
	}
	timeout, err := cfg.Scraper.ParseTimeout()
	if err != nil {
		fatal("load config", err)
	}
	picks, err := scraper.New(timeout, cfg.Scraper.BaseURL)
	if err != nil {
		fatal("create scraper", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
			}
			slog.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	// 2. Handler starts without data and answers 503 until loaded
	h := api.NewHandler(picks, cfg.Scraper.URL, slog.Default())
	h.RegisterRoutes(e)

	// 3. Load datasets in the background
	go func() {
		t0 := time.Now()
		data, err := load(ctx, cfg)
		if err != nil {
			slog.Error("loading finished with errors", "err", err)
		}
		h.SetData(data)
		slog.Info("datasets ready", "took", time.Since(t0))
	}()

	// 4. Start server
	go func() {
		slog.Info("server listening, data loading in background", "addr", cfg.Listen)
		if err := e.Start(cfg.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("start server", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		fatal("shutdown", err)
	}
}

// load reads every configured dataset. A failed source is left nil and its
// endpoints keep answering 503.
func load(ctx context.Context, cfg config.Config) (*api.Data, error) {
	var data api.Data
	var errs []error

	movies, err := dashboard.LoadMovies(cfg.Movies.CSV)
	if err != nil {
		errs = append(errs, err)
	} else {
		data.Movies = movies
	}

	sales, err := loadSales(ctx, cfg.Sales)
	if err != nil {
		errs = append(errs, err)
	} else {
		data.Sales = sales
	}
	return &data, errors.Join(errs...)
}

func loadSales(ctx context.Context, cfg config.Sales) (*engine.Dataset, error) {
	if cfg.Database.Enabled() {
		db, err := salesdb.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return salesdb.Load(ctx, db)
	}
	if cfg.CSV != "" {
		return dashboard.LoadSalesCSV(cfg.CSV)
	}
	slog.Warn("no sales source configured")
	return nil, nil
}
