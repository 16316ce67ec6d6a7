package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/byht/internal/config"
	"github.com/kamusis/byht/internal/index"
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Initialize byht",
	Long: `Create the byht directory layout (root, bin, cache, commands), write a
commented .env template and download the package index into the cache.`,
	Args: cobra.NoArgs,
	RunE: runMe,
}

func init() {
	rootCmd.AddCommand(meCmd)
}

func runMe(cmd *cobra.Command, _ []string) error {
	cfg, fetcher, err := loadConfig()
	if err != nil {
		return err
	}

	// ── 1. Directory layout ───────────────────────────────────────────────────
	for _, dir := range cfg.Layout() {
		if _, err := os.Stat(dir); err == nil {
			printSkip("", fmt.Sprintf("exists: %s", dir))
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", dir, err)
		}
		printOK("", fmt.Sprintf("created: %s", dir))
	}

	// ── 2. .env template ──────────────────────────────────────────────────────
	created, err := config.EnsureDotEnvTemplate(cfg.Dir)
	if err != nil {
		return err
	}
	if created {
		printOK("", fmt.Sprintf("wrote %s", config.DotEnvPath(cfg.Dir)))
	}

	// ── 3. Index ──────────────────────────────────────────────────────────────
	err = withLock(cmd.Context(), cfg, func() error {
		records, err := fetcher.Get(cmd.Context(), index.GetOptions{NoCache: true, SaveCache: true})
		if err != nil {
			return err
		}
		printOK("", fmt.Sprintf("index cached: %d package(s) from %s", len(records), fetcher.Source))
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nMake sure you update your .bash_profile.")
	fmt.Fprintf(out, "export PATH=$PATH:%s\n", cfg.BinDir)
	return nil
}
