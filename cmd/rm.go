package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Remove a byht",
	Long: `Unlink NAME's scripts from the bin directory and delete its directory
from the cache.

Only the links recorded when the package was installed are removed, and only
while they still point into the package.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, fetcher, err := loadConfig()
	if err != nil {
		return err
	}
	mgr := newManager(cfg, fetcher)

	return withLock(cmd.Context(), cfg, func() error {
		res, err := mgr.Remove(cmd.Context(), name)
		if err != nil {
			return err
		}
		for _, s := range res.Unlinked.Removed {
			printOK(name, fmt.Sprintf("unlinked %s", s))
		}
		for _, s := range res.Unlinked.Kept {
			printWarn(name, fmt.Sprintf("%s no longer points into the package, left in place", s))
		}
		for _, s := range res.Unlinked.Missing {
			printMiss(name, fmt.Sprintf("%s already gone", s))
		}
		printOK(name, fmt.Sprintf("removed %s", res.Dir))
		return nil
	})
}
