package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamusis/byht/internal/index"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update local cache",
	Long: `Download the package index again and replace the local cache.
Installed packages are not touched.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	cfg, fetcher, err := loadConfig()
	if err != nil {
		return err
	}
	return withLock(cmd.Context(), cfg, func() error {
		records, err := fetcher.Get(cmd.Context(), index.GetOptions{NoCache: true, SaveCache: true})
		if err != nil {
			return err
		}
		printOK("", fmt.Sprintf("index updated: %d package(s) → %s", len(records), fetcher.CachePath))
		return nil
	})
}
