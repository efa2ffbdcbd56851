package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dashboard/internal/engine"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const moviesCSV = `Name,Year,Durasi(Menit),Rating,Budget,Gross_US,Opening_Week,Open_Week_Date,Gross_World,Color,Sound_Mix,Aspect_Ratio
"Dune: Part Two",2024,166,PG-13,190000000,282144358,82505391,2024-03-03,711844358,Color,Dolby Atmos,2.39 : 1
Oppenheimer,2023,180,R,100000000,330078895,82455420,2023-07-23,975811333,Color,Dolby Atmos,2.20 : 1
Barbie,2023,114,PG-13,145000000,636238421,162022044,2023-07-23,1441820453,Color,Dolby Atmos,1.90 : 1
`

func run(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte(moviesCSV), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--config", filepath.Join(dir, "none.json5"), "--csv", path))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestAggregateCommand(t *testing.T) {
	out := run(t, "aggregate", "--group-by", "Year", "--value", "Budget", "--op", "sum", "--order", "key", "--filter", "Rating=PG-13,R")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// rounded table: top border, header, separator, two rows, bottom border
	require.Len(t, lines, 6, out)
	require.Contains(t, lines[3], "2023")
	require.Contains(t, lines[3], "245,000,000.00")
	require.Contains(t, lines[4], "2024")
}

func TestSummarizeCommand(t *testing.T) {
	out := run(t, "summarize", "--column", "Budget", "--range", "Year=:2023")
	require.Contains(t, out, "245,000,000.00")
	require.Contains(t, out, "122,500,000.00")
	require.Contains(t, out, "45,000,000.00")
}

func TestParseFilters(t *testing.T) {
	lo, hi := 2020.0, 2023.0
	spec, err := parseFilters([]string{"Rating=PG-13, R", "Color="}, []string{"Year=2020:2023", "Budget=:5e7"})
	require.NoError(t, err)
	top := 5e7
	want := engine.FilterSpec{
		"Rating": engine.OneOf("PG-13", "R"),
		"Color":  engine.OneOf(),
		"Year":   {Min: &lo, Max: &hi},
		"Budget": {Max: &top},
	}
	if diff := cmp.Diff(want, spec); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range [][2][]string{
		{{"Rating"}, nil},
		{nil, {"Year=2020"}},
		{nil, {"Year=a:b"}},
		{{"Year=2020"}, {"Year=2020:2021"}},
	} {
		_, err := parseFilters(bad[0], bad[1])
		require.Error(t, err, "%v", bad)
	}
}
