// Package salesdb loads AdventureWorks internet sales from a SQL database.
package salesdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dashboard/internal/config"
	"dashboard/internal/dashboard"
	"dashboard/internal/engine"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const pingTimeout = 5 * time.Second

// Schema creates the subset of the AdventureWorks warehouse that Load reads.
// It runs as one multi-statement Exec on sqlite and postgres.
const Schema = `
CREATE TABLE IF NOT EXISTS dimsalesterritory (
	SalesTerritoryKey INTEGER PRIMARY KEY,
	SalesTerritoryCountry VARCHAR(50)
);
CREATE TABLE IF NOT EXISTS dimcustomer (
	CustomerKey INTEGER PRIMARY KEY,
	FirstName VARCHAR(50),
	LastName VARCHAR(50),
	Gender VARCHAR(1),
	YearlyIncome DECIMAL(19, 4)
);
CREATE TABLE IF NOT EXISTS dimproductcategory (
	ProductCategoryKey INTEGER PRIMARY KEY,
	EnglishProductCategoryName VARCHAR(50)
);
CREATE TABLE IF NOT EXISTS dimproductsubcategory (
	ProductSubcategoryKey INTEGER PRIMARY KEY,
	ProductCategoryKey INTEGER
);
CREATE TABLE IF NOT EXISTS dimproduct (
	ProductKey INTEGER PRIMARY KEY,
	ProductSubcategoryKey INTEGER
);
CREATE TABLE IF NOT EXISTS factinternetsales (
	SalesOrderNumber VARCHAR(20) NOT NULL,
	SalesOrderLineNumber INTEGER NOT NULL,
	ProductKey INTEGER,
	CustomerKey INTEGER,
	SalesTerritoryKey INTEGER,
	OrderDate TIMESTAMP,
	OrderQuantity INTEGER,
	SalesAmount DECIMAL(19, 4),
	TotalProductCost DECIMAL(19, 4)
);
`

// Year, month and customer name are derived in Go so the query runs
// unchanged on every driver.
const salesQuery = `
SELECT
	fis.SalesOrderNumber,
	fis.OrderDate,
	fis.SalesAmount,
	fis.OrderQuantity,
	fis.TotalProductCost,
	dc.FirstName,
	dc.LastName,
	dc.Gender,
	dc.YearlyIncome,
	dst.SalesTerritoryCountry,
	dpc.EnglishProductCategoryName
FROM factinternetsales fis
LEFT JOIN dimsalesterritory dst
	ON fis.SalesTerritoryKey = dst.SalesTerritoryKey
LEFT JOIN dimcustomer dc
	ON fis.CustomerKey = dc.CustomerKey
LEFT JOIN dimproduct dp
	ON fis.ProductKey = dp.ProductKey
LEFT JOIN dimproductsubcategory dps
	ON dp.ProductSubcategoryKey = dps.ProductSubcategoryKey
LEFT JOIN dimproductcategory dpc
	ON dps.ProductCategoryKey = dpc.ProductCategoryKey
ORDER BY fis.SalesOrderNumber, fis.SalesOrderLineNumber`

// Open connects to the configured database and checks the connection.
func Open(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if cfg.Driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}
	slog.InfoContext(ctx, "database connected", "driver", cfg.Driver, "host", cfg.Host)
	return db, nil
}

// Load reads every internet sale as a dataset in dashboard.SalesSchema
// order. Missing dimension rows become null cells.
func Load(ctx context.Context, db *sql.DB) (*engine.Dataset, error) {
	t0 := time.Now()
	rows, err := db.QueryContext(ctx, salesQuery)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var out []engine.Row
	for rows.Next() {
		var (
			order                     string
			orderDate                 any
			amount, qty, cost, income sql.NullFloat64
			first, last, gender       sql.NullString
			country, productCategory  sql.NullString
		)
		if err := rows.Scan(&order, &orderDate, &amount, &qty, &cost, &first, &last, &gender, &income, &country, &productCategory); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}

		year, month := engine.Null(), engine.Null()
		if orderDate != nil {
			d, err := parseDate(orderDate)
			if err != nil {
				return nil, fmt.Errorf("sale %s: %w", order, err)
			}
			year, month = engine.Int(int64(d.Year())), engine.Category(d.Month().String())
		}

		out = append(out, engine.Row{
			engine.String(order),
			year,
			month,
			floatValue(amount),
			floatValue(qty),
			floatValue(cost),
			customer(first, last),
			categoryValue(gender),
			floatValue(income),
			categoryValue(country),
			categoryValue(productCategory),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read sales: %w", err)
	}

	ds, err := engine.NewDataset(dashboard.SalesSchema, out)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "sales loaded", "rows", ds.Len(), "took", time.Since(t0))
	return ds, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate accepts what the drivers return for a TIMESTAMP column.
func parseDate(v any) (time.Time, error) {
	var s string
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		s = d
	case []byte:
		s = string(d)
	default:
		return time.Time{}, fmt.Errorf("unsupported order date type %T", v)
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized order date %q", s)
}

func floatValue(v sql.NullFloat64) engine.Value {
	if !v.Valid {
		return engine.Null()
	}
	return engine.Float(v.Float64)
}

func categoryValue(v sql.NullString) engine.Value {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return engine.Null()
	}
	return engine.Category(strings.TrimSpace(v.String))
}

// customer joins first and last name; a sale without a customer row is null.
func customer(first, last sql.NullString) engine.Value {
	if !first.Valid && !last.Valid {
		return engine.Null()
	}
	return categoryValue(sql.NullString{String: strings.TrimSpace(first.String + " " + last.String), Valid: true})
}
