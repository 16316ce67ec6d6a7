package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamusis/byht/internal/index"
	"github.com/kamusis/byht/internal/manager"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available files",
	Long: `Print every package in the index as "name: description".

The cached index is used when present. --no-cache downloads it again and,
unless --no-save is also given, refreshes the cache with the result.
--installed lists the packages present in the cache directory instead.`,
	Args: cobra.NoArgs,
	RunE: runLs,
}

var (
	flagNoCache   bool
	flagNoSave    bool
	flagInstalled bool
)

func init() {
	lsCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Ignore the cached index and fetch it again")
	lsCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not write a fetched index to the cache")
	lsCmd.Flags().BoolVarP(&flagInstalled, "installed", "i", false, "List installed packages")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, _ []string) error {
	cfg, fetcher, err := loadConfig()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if flagInstalled {
		pkgs, err := manager.New(cfg, fetcher, nil).Installed()
		if err != nil {
			return err
		}
		for _, p := range pkgs {
			if p.Receipt != nil && p.Receipt.Repository != "" {
				fmt.Fprintf(w, "%s: %s\n", p.Name, p.Receipt.Repository)
			} else {
				fmt.Fprintln(w, p.Name)
			}
		}
		return nil
	}

	records, err := fetcher.Get(cmd.Context(), index.GetOptions{NoCache: flagNoCache, SaveCache: !flagNoSave})
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s: %s\n", r.Name, r.Description)
	}
	return nil
}
