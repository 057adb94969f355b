package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/search-template/internal/config"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List configured feeds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		printFeeds(os.Stdout, cfg.Feeds)
		return nil
	},
}

func printFeeds(out io.Writer, feeds map[string]config.FeedConfig) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FEED\tMODE\tTHRESHOLD_MI\tPAGE_SIZE\tOUTPUT\tINPUT")
	_, _ = fmt.Fprintln(w, "----\t----\t------------\t---------\t------\t-----")

	for _, name := range feedNames(feeds) {
		fc := feeds[name]
		threshold := "-"
		if fc.Mode != config.ModeFilter {
			threshold = fmt.Sprintf("%g", fc.ThresholdMiles)
		}
		pageSize := "-"
		if fc.PageSize > 0 {
			pageSize = fmt.Sprintf("%d", fc.PageSize)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", name, fc.Mode, threshold, pageSize, fc.OutputPrefix, fc.Input)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(feedsCmd)
}
