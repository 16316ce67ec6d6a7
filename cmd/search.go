package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/byht/internal/index"
)

var flagSearchK int

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Search the index by name and description",
	Long: `Search the package index. Every word of the query must appear in a
package's name or description; name matches are listed first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&flagSearchK, "k", "k", 0, "Maximum number of results (0 = all)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, fetcher, err := loadConfig()
	if err != nil {
		return err
	}
	records, err := fetcher.Get(cmd.Context(), index.DefaultGetOptions)
	if err != nil {
		return err
	}

	matches := index.Search(records, strings.Join(args, " "), flagSearchK)
	w := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(w, "no matches")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range matches {
		state := ""
		if _, err := os.Lstat(cfg.PackageDir(m.Record.Name)); err == nil {
			state = "[installed]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Record.Name, m.Record.Description, state)
	}
	return tw.Flush()
}
