package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/byht/internal/config"
	"github.com/kamusis/byht/internal/index"
	"github.com/kamusis/byht/internal/manager"
)

var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Install a new byht",
	Long: `Look NAME up in the index, clone its repository into the cache, run the
install steps from its .byht manifest and link its scripts into the bin
directory.

A failed install is not rolled back. Fix the cause and re-run with --resume
to continue over the directory it left behind.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var flagResume bool

func init() {
	addCmd.Flags().BoolVar(&flagResume, "resume", false, "Continue an interrupted install over its existing directory")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, fetcher, err := loadConfig()
	if err != nil {
		return err
	}
	mgr := newManager(cfg, fetcher)

	return withLock(cmd.Context(), cfg, func() error {
		if err := checkGitForClone(cmd, cfg, fetcher, name); err != nil {
			return err
		}
		res, err := mgr.Install(cmd.Context(), name, manager.InstallOptions{Resume: flagResume})
		if err != nil {
			return err
		}
		switch {
		case res.Cloned:
			printOK(name, fmt.Sprintf("cloned %s → %s", res.Record.Repository, res.Dir))
		case res.Resumed:
			printInfo(name, fmt.Sprintf("resumed in %s", res.Dir))
		default:
			printSkip(name, "no repository in index, nothing cloned")
		}
		for _, l := range res.Links.Created {
			printOK(name, fmt.Sprintf("linked %s → %s", l.Name, l.Target))
		}
		for _, l := range res.Links.Skipped {
			printSkip(name, fmt.Sprintf("%s already exists in %s, skipped", l.Name, cfg.BinDir))
		}
		for _, w := range res.Links.Warnings {
			printWarn(name, w)
		}
		return nil
	})
}

// checkGitForClone requires git only when add is about to clone: the record
// has a repository and nothing is on disk yet.
func checkGitForClone(cmd *cobra.Command, cfg *config.Config, f *index.Fetcher, name string) error {
	rec, err := f.Find(cmd.Context(), name)
	if err != nil {
		return err
	}
	if rec.Repository == "" {
		return nil
	}
	if _, err := os.Lstat(cfg.PackageDir(name)); err == nil {
		return nil
	}
	return checkGitAvailable()
}
