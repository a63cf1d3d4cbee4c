package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"favarchive/pkg/config"
	"favarchive/pkg/metadata"
	"favarchive/pkg/ui"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const topTagsPerCategory = 5

var ratingLabels = map[string]string{
	"s": "safe",
	"q": "questionable",
	"e": "explicit",
}

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print a report of an existing archive",
	Long: `Read every metadata record of an archive and print totals, ratings,
moderation flags and the most common tags per category.`,
	Example: `  favarchive analyze --directory ./favs`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := map[string]interface{}{}
		if archiveDir != "" {
			flags["directory"] = archiveDir
		}
		cfg, err := config.Load(configFile, flags)
		if err != nil {
			return err
		}
		return printReport(cfg.MetadataDirectory())
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&archiveDir, "directory", "d", "", "archive directory to analyze")
}

func printReport(metadataDir string) error {
	summary, err := metadata.Summarize(metadataDir, topTagsPerCategory)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	ui.Print(renderReport(summary))
	return nil
}

// renderReport formats a summary as a set of tables
func renderReport(s *metadata.Summary) string {
	var b strings.Builder

	b.WriteString(renderTable([]string{"Archive", ""}, [][]string{
		{"Posts", strconv.Itoa(s.Posts)},
		{"Total size", humanize.Bytes(uint64(s.TotalBytes))},
		{"Missing media", strconv.Itoa(s.MissingMedia)},
		{"Unreadable records", strconv.Itoa(s.Unreadable)},
		{"Pending", strconv.Itoa(s.Pending)},
		{"Flagged", strconv.Itoa(s.Flagged)},
		{"Deleted", strconv.Itoa(s.Deleted)},
	}, []columnAlignment{alignLeft, alignRight}))
	b.WriteString("\n")

	if len(s.Ratings) > 0 {
		ratings := make([]string, 0, len(s.Ratings))
		for rating := range s.Ratings {
			ratings = append(ratings, rating)
		}
		sort.Strings(ratings)

		rows := make([][]string, 0, len(ratings))
		for _, rating := range ratings {
			label := ratingLabels[rating]
			if label == "" {
				label = rating
			}
			rows = append(rows, []string{label, strconv.Itoa(s.Ratings[rating])})
		}
		b.WriteString(renderTable([]string{"Rating", "Posts"}, rows, []columnAlignment{alignLeft, alignRight}))
		b.WriteString("\n")
	}

	title := cases.Title(language.Und)
	for _, category := range []string{"artist", "character", "copyright", "species", "general", "lore", "meta", "invalid"} {
		top := s.TopTags[category]
		if len(top) == 0 {
			continue
		}
		rows := make([][]string, 0, len(top))
		for _, tc := range top {
			rows = append(rows, []string{tc.Tag, strconv.Itoa(tc.Count)})
		}
		b.WriteString(renderTable([]string{title.String(category), "Posts"}, rows, []columnAlignment{alignLeft, alignRight}))
		b.WriteString("\n")
	}

	return b.String()
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render() + "\n"
}
