package commands

import (
	"dashboard/internal/engine"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var summarizeFlags struct {
	column  string
	filters []string
	ranges  []string
}

func init() {
	f := summarizeCmd.Flags()
	f.StringVar(&summarizeFlags.column, "column", "", "numeric column to summarize")
	f.StringArrayVar(&summarizeFlags.filters, "filter", nil, "keep rows whose column is one of the values: column=v1,v2")
	f.StringArrayVar(&summarizeFlags.ranges, "range", nil, "keep rows whose column is within bounds: column=lo:hi")
	summarizeCmd.MarkFlagRequired("column")
	rootCmd.AddCommand(summarizeCmd)
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize --column <name> [--filter col=v1,v2] [--range col=lo:hi]",
	Short: "Prints total, mean, max, min and range of a column.",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := parseFilters(summarizeFlags.filters, summarizeFlags.ranges)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		view, err := engine.ApplyFilters(ds, spec)
		if err != nil {
			return err
		}
		s, err := engine.Summarize(view, summarizeFlags.column)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.SetTitle(summarizeFlags.column)
		t.AppendHeader(table.Row{"Statistic", "Value"})
		t.AppendRows([]table.Row{
			{"Rows", humanize.Comma(int64(s.Count))},
			{"Total", humanize.FormatFloat("#,###.##", s.Total)},
			{"Mean", humanize.FormatFloat("#,###.##", s.Mean)},
			{"Max", humanize.FormatFloat("#,###.##", s.Max)},
			{"Min", humanize.FormatFloat("#,###.##", s.Min)},
			{"Range", humanize.FormatFloat("#,###.##", s.Range)},
		})
		t.Render()
		return nil
	},
}
