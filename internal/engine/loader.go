package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// cells read as null in every column
var nullCells = []string{"", "NA", "NaN"}

type csvConfig struct {
	delimiter rune
	// header name -> schema column
	rename map[string]string
}

type CSVOption func(*csvConfig)

func WithDelimiter(d rune) CSVOption {
	return func(c *csvConfig) { c.delimiter = d }
}

// WithHeader maps a CSV header to a schema column, for files whose headers
// are not valid identifiers (e.g. "Durasi(Menit)").
func WithHeader(header, column string) CSVOption {
	return func(c *csvConfig) { c.rename[header] = column }
}

// LoadCSV reads a dataset file against a schema.
func LoadCSV(path string, schema *Schema, opts ...CSVOption) (*Dataset, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f, schema, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	slog.Info("dataset loaded", "path", path, "rows", ds.Len(), "took", time.Since(start))
	return ds, nil
}

// ReadCSV parses CSV with a header row. Every schema column must have a
// header; extra headers are ignored. Empty and NA cells become nulls, and a
// numeric cell that does not parse fails with SchemaError. A file holding
// only the header row yields an empty dataset.
func ReadCSV(r io.Reader, schema *Schema, opts ...CSVOption) (*Dataset, error) {
	cfg := &csvConfig{delimiter: ',', rename: map[string]string{}}
	for _, opt := range opts {
		opt(cfg)
	}
	header := map[string]string{}
	for _, c := range schema.columns {
		header[c.Name] = c.Name
	}
	for h, c := range cfg.rename {
		header[c] = h
	}

	// 1. Read records
	cr := csv.NewReader(r)
	cr.Comma = cfg.delimiter
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, &SchemaError{Column: schema.columns[0].Name, Reason: "no header row"}
	}

	// 2. Check headers
	for _, c := range schema.columns {
		if !slices.Contains(records[0], header[c.Name]) {
			return nil, &SchemaError{Column: c.Name, Reason: fmt.Sprintf("missing header %q", header[c.Name])}
		}
	}
	if len(records) == 1 {
		return NewDataset(schema, nil)
	}

	// 3. Load every column as text; numbers are parsed below so a bad cell
	// is reported instead of becoming NA.
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("load records: %w", df.Err)
	}

	// 4. Convert column by column into rows
	n := df.Nrow()
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = make(Row, len(schema.columns))
	}
	for ci, c := range schema.columns {
		col := df.Col(header[c.Name])
		for i := 0; i < n; i++ {
			e := col.Elem(i)
			if e.IsNA() {
				continue
			}
			s := strings.TrimSpace(e.String())
			if slices.Contains(nullCells, s) {
				continue
			}
			v, err := parseCell(c.Kind, s)
			if err != nil {
				return nil, &SchemaError{Column: c.Name, Reason: fmt.Sprintf("row %d: %s", i+1, err)}
			}
			rows[i][ci] = v
		}
	}
	return NewDataset(schema, rows)
}

// parseCell converts one non-empty cell. Integers go through float so
// "2021.0" still loads as 2021.
func parseCell(kind Kind, s string) (Value, error) {
	switch kind {
	case KindInt, KindFloat:
		x, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return Value{}, fmt.Errorf("%q is not a number", s)
		}
		if kind == KindFloat {
			return Float(x), nil
		}
		if x != math.Trunc(x) {
			return Value{}, fmt.Errorf("%v is not an integer", x)
		}
		return Int(int64(x)), nil
	case KindCategory:
		return Category(s), nil
	}
	return String(s), nil
}
