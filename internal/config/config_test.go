package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// chdir changes the working directory for the test and restores it afterwards.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

// clearEnv unsets the DB_* variables; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_DATABASE", "DB_USER", "DB_PASS", "DB_DSN"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "dashboard.json5")

	_, err := ReadConfig[Config](name)
	require.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, name, `{
		// comments and trailing commas are fine
		listen: ":9000",
		movies: {csv: "movies.csv"},
		sales: {csv: "sales.csv"},
	}`)
	cfg, err := ReadConfig[Config](name)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Listen)
	require.Equal(t, "sales.csv", cfg.Sales.CSV)

	writeFile(t, filepath.Join(dir, "dashboard.local.json5"), `{sales: {csv: "local.csv"}}`)
	cfg, err = ReadConfig[Config](name)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Listen)
	require.Equal(t, "movies.csv", cfg.Movies.CSV)
	require.Equal(t, "local.csv", cfg.Sales.CSV)
}

func TestReadConfigInvalid(t *testing.T) {
	name := filepath.Join(t.TempDir(), "bad.json5")
	writeFile(t, name, `{listen: `)
	_, err := ReadConfig[Config](name)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, "dashboard.json5", `{scraper: {timeout: "5s"}, sales: {database: {host: "file-host", port: 3307}}}`)
	writeFile(t, ".env", "DB_HOST=db.internal\nDB_DATABASE=AdventureWorksDW2019\nDB_USER=report\nDB_PASS=secret\n")
	clearEnv(t)

	cfg, err := Load("dashboard.json5")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Listen)

	timeout, err := cfg.Scraper.ParseTimeout()
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, timeout)

	db := cfg.Sales.Database
	require.True(t, db.Enabled())
	require.Equal(t, "mysql", db.Driver)
	require.Equal(t, "db.internal", db.Host)
	require.Equal(t, 3307, db.Port)
	dsn, err := db.DSN()
	require.NoError(t, err)
	require.Equal(t, "report:secret@tcp(db.internal:3307)/AdventureWorksDW2019?parseTime=true", dsn)
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	clearEnv(t)
	cfg, err := Load("missing.json5")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.False(t, cfg.Sales.Database.Enabled())
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{"DB_DRIVER": "postgres", "DB_HOST": "pg", "DB_PORT": "nope"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	var d Database
	require.Error(t, d.fromEnv(lookup))

	env["DB_PORT"] = "6543"
	require.NoError(t, d.fromEnv(lookup))
	require.Equal(t, Database{Driver: "postgres", Host: "pg", Port: 6543}, d)
	require.Equal(t, "postgres", d.DriverName())
}

func TestDSN(t *testing.T) {
	tests := []struct {
		db      Database
		want    string
		wantErr bool
	}{
		{db: Database{Driver: "mysql", Host: "h", Name: "aw", User: "u", Password: "p"}, want: "u:p@tcp(h:3306)/aw?parseTime=true"},
		{db: Database{Driver: "postgres", Host: "h", Name: "aw", User: "u", Password: "p"}, want: "postgres://u:p@h:5432/aw?sslmode=disable"},
		{db: Database{Driver: "sqlite", Name: "sales.db"}, want: "sales.db"},
		{db: Database{Driver: "libsql", Host: "aw.turso.io", Password: "tok"}, want: "libsql://aw.turso.io?authToken=tok"},
		{db: Database{Driver: "oracle", RawDSN: "raw"}, want: "raw"},
		{db: Database{Driver: "sqlite"}, wantErr: true},
		{db: Database{Driver: "oracle"}, wantErr: true},
		{db: Database{}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := tt.db.DSN()
		if tt.wantErr {
			require.Error(t, err, "%+v", tt.db)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}
