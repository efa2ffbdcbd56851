// Package config loads the dashboard configuration from json5 files and the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

type Config struct {
	Listen  string  `json:"listen"`
	Movies  Movies  `json:"movies"`
	Sales   Sales   `json:"sales"`
	Scraper Scraper `json:"scraper"`
}

type Movies struct {
	CSV string `json:"csv"`
}

// Sales reads from Database when a driver is set, otherwise from CSV.
type Sales struct {
	CSV      string   `json:"csv"`
	Database Database `json:"database"`
}

type Scraper struct {
	URL     string `json:"url"`
	BaseURL string `json:"base_url"`
	Timeout string `json:"timeout"`
}

type Database struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"password"`
	// DSN is used as is when set.
	RawDSN string `json:"dsn"`
}

// ParseTimeout reads Timeout as a Go duration such as "30s". Empty means
// no timeout.
func (s Scraper) ParseTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("scraper timeout: %w", err)
	}
	return d, nil
}

func Default() Config {
	return Config{
		Listen: ":8080",
		Movies: Movies{CSV: "IMDB.csv"},
		Scraper: Scraper{
			URL:     "https://www.imdb.com/what-to-watch/top-picks/",
			BaseURL: "https://www.imdb.com",
			Timeout: "30s",
		},
	}
}

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	return strings.TrimSuffix(f, ext), strings.TrimPrefix(ext, ".")
}

// ReadConfig reads name and merges <name>.local.<ext> over it. Both missing
// is os.ErrNotExist.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	prefix, ext := splitExt(name)

	base, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(base) > 0 {
		if err := json5.Unmarshal(base, &out); err != nil {
			return out, fmt.Errorf("%s: %w", name, err)
		}
		found = true
	}

	localName := fmt.Sprintf("%s.local.%s", prefix, ext)
	local, err := os.ReadFile(localName)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(local) > 0 {
		var override T
		if err := json5.Unmarshal(local, &override); err != nil {
			return out, fmt.Errorf("%s: %w", localName, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localName)
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// Load reads the config file over the defaults, then applies the DB_*
// environment variables, optionally from a .env file. A missing config file
// is not an error.
func Load(name string) (Config, error) {
	cfg := Default()
	file, err := ReadConfig[Config](name)
	switch {
	case os.IsNotExist(err):
		slog.Debug("no config file, using defaults", "name", name)
	case err != nil:
		return cfg, err
	default:
		if err := mergo.Merge(&cfg, file, mergo.WithOverride); err != nil {
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.Sales.Database.fromEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (d *Database) fromEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("DB_DRIVER", &d.Driver)
	set("DB_HOST", &d.Host)
	set("DB_DATABASE", &d.Name)
	set("DB_USER", &d.User)
	set("DB_PASS", &d.Password)
	set("DB_DSN", &d.RawDSN)

	var port string
	set("DB_PORT", &port)
	if port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("DB_PORT: %w", err)
		}
		d.Port = p
	}
	// credentials without a driver default to MySQL
	if d.Driver == "" && d.Host != "" {
		d.Driver = "mysql"
	}
	return nil
}

// Enabled reports whether a database is configured.
func (d Database) Enabled() bool {
	return d.Driver != ""
}

// DriverName is the database/sql driver registered for Driver.
func (d Database) DriverName() string {
	switch d.Driver {
	case "postgres", "postgresql":
		return "postgres"
	}
	return d.Driver
}

// DSN builds the driver specific connection string.
func (d Database) DSN() (string, error) {
	if d.RawDSN != "" {
		return d.RawDSN, nil
	}
	switch d.Driver {
	case "mysql":
		port := d.Port
		if port == 0 {
			port = 3306
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", d.User, d.Password, d.Host, port, d.Name), nil
	case "postgres", "postgresql":
		port := d.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     fmt.Sprintf("%s:%d", d.Host, port),
			Path:     "/" + d.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case "sqlite":
		if d.Name == "" {
			return "", fmt.Errorf("sqlite: database file not set")
		}
		return d.Name, nil
	case "libsql":
		if d.Host == "" {
			return "", fmt.Errorf("libsql: host not set")
		}
		u := url.URL{Scheme: "libsql", Host: d.Host}
		if d.Password != "" {
			u.RawQuery = url.Values{"authToken": {d.Password}}.Encode()
		}
		return u.String(), nil
	case "":
		return "", fmt.Errorf("database driver not set")
	}
	return "", fmt.Errorf("unsupported database driver %q", d.Driver)
}
