package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/byht/internal/config"
	"github.com/kamusis/byht/internal/index"
	"github.com/kamusis/byht/internal/lock"
	"github.com/kamusis/byht/internal/logging"
	"github.com/kamusis/byht/internal/manager"
	"github.com/kamusis/byht/internal/runner"
)

var (
	flagVerbose     int
	flagLockTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "byht",
	Short:        "byht — a minimal personal package manager",
	SilenceUsage: true, // don't print usage on operational errors
	// Errors are printed by Execute so the exit code can be chosen there.
	SilenceErrors: true,
	Long: `byht installs small tools from a YAML index: it clones each package's
git repository into ~/.byht/cache, runs the install steps declared in the
package's .byht manifest and links its scripts into ~/.byht/bin.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logging.SetupLogger(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().DurationVar(&flagLockTimeout, "lock-timeout", 10*time.Second, "How long to wait for another byht command to finish")
}

// lookPath is exec.LookPath; tests swap it.
var lookPath = exec.LookPath

// checkGitAvailable returns a clear error if git is not found on PATH.
func checkGitAvailable() error {
	if _, err := lookPath("git"); err != nil {
		return fmt.Errorf("git is not installed or not on PATH\n" +
			"  byht requires git to clone packages.\n" +
			"  Install git from https://git-scm.com and try again.")
	}
	return nil
}

// newRunner returns the process runner used for install steps. Tests swap it.
var newRunner = func() runner.Runner {
	return runner.NewExec()
}

// loadConfig loads the configuration and the index fetcher built from it.
func loadConfig() (*config.Config, *index.Fetcher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load config: %w", err)
	}
	f, err := index.NewFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, f, nil
}

func newManager(cfg *config.Config, f *index.Fetcher) *manager.Manager {
	return manager.New(cfg, f, newRunner())
}

// withLock runs fn while holding the lock on cfg's root directory.
func withLock(ctx context.Context, cfg *config.Config, fn func() error) error {
	unlock, err := lock.Acquire(ctx, cfg.LockPath(), flagLockTimeout)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// exitCode maps an error returned by a command to the process exit status.
// A failing sh hook passes its own status through; everything else is 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *manager.StepError
	if errors.As(err, &se) {
		return se.ExitCode()
	}
	return 1
}

// Execute is called by main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
