package commands

import (
	"dashboard/internal/engine"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var aggregateFlags struct {
	groupBy string
	value   string
	op      string
	with    string
	order   string
	top     int
	filters []string
	ranges  []string
}

func init() {
	f := aggregateCmd.Flags()
	f.StringVar(&aggregateFlags.groupBy, "group-by", "", "grouping column; empty aggregates all rows")
	f.StringVar(&aggregateFlags.value, "value", "", "aggregated column; optional for count")
	f.StringVar(&aggregateFlags.op, "op", "sum", "sum, mean, count, min, max or correlation")
	f.StringVar(&aggregateFlags.with, "with", "", "second column for correlation")
	f.StringVar(&aggregateFlags.order, "order", "", "insertion, key, asc or desc")
	f.IntVar(&aggregateFlags.top, "top", 0, "print only the first n groups")
	f.StringArrayVar(&aggregateFlags.filters, "filter", nil, "keep rows whose column is one of the values: column=v1,v2")
	f.StringArrayVar(&aggregateFlags.ranges, "range", nil, "keep rows whose column is within bounds: column=lo:hi")
	rootCmd.AddCommand(aggregateCmd)
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate --group-by <column> --value <column> [--op sum] [--order desc]",
	Short: "Groups the dataset and prints one aggregated value per group.",
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := engine.ParseOp(aggregateFlags.op)
		if err != nil {
			return err
		}
		order, err := engine.ParseOrder(aggregateFlags.order)
		if err != nil {
			return err
		}
		spec, err := parseFilters(aggregateFlags.filters, aggregateFlags.ranges)
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
		res, err := engine.Aggregate(view, engine.Request{
			GroupBy: aggregateFlags.groupBy,
			Value:   aggregateFlags.value,
			Op:      op,
			With:    aggregateFlags.with,
			Order:   order,
		})
		if err != nil {
			return err
		}
		if aggregateFlags.top > 0 {
			res = res.Top(aggregateFlags.top)
		}

		key := aggregateFlags.groupBy
		if key == "" {
			key = "All"
		}
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{key, op.String(), "Values"})
		for _, g := range res.Groups {
			t.AppendRow(table.Row{g.Key, humanize.FormatFloat("#,###.##", g.Value), g.Count})
		}
		t.Render()
		return nil
	},
}
