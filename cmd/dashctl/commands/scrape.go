package commands

import (
	"dashboard/internal/config"
	"dashboard/internal/scraper"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeURL string

func init() {
	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "page to scrape; defaults to the configured top picks page")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--url <page>]",
	Short: "Prints the titles and links of the IMDB top picks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		timeout, err := cfg.Scraper.ParseTimeout()
		if err != nil {
			return err
		}
		client, err := scraper.New(timeout, cfg.Scraper.BaseURL)
		if err != nil {
			return err
		}
		url := cfg.Scraper.URL
		if scrapeURL != "" {
			url = scrapeURL
		}
		picks, err := client.TopPicks(cmd.Context(), url)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"#", "Title", "Link"})
		for i, p := range picks {
			t.AppendRow(table.Row{i + 1, p.Title, p.Link})
		}
		t.Render()
		return nil
	},
}
