// Package manager installs and removes packages: clone, manifest-driven
// install steps, script links and install receipts.
package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kamusis/byht/internal/config"
	"github.com/kamusis/byht/internal/index"
	"github.com/kamusis/byht/internal/linker"
	"github.com/kamusis/byht/internal/logging"
	"github.com/kamusis/byht/internal/manifest"
	"github.com/kamusis/byht/internal/runner"
)

var (
	ErrAlreadyInstalled = errors.New("Package already installed")
	ErrNotInstalled     = errors.New("Package not installed")
)

// Install step names, as reported in StepError.
const (
	StepClone      = "clone"
	StepVirtualenv = "virtualenv"
	StepPip        = "pip-requirements"
	StepShell      = "sh"
)

// StepError reports an install step whose process failed.
type StepError struct {
	Step    string
	Message string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s (%v)", e.Message, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ExitCode is the status byht exits with: the hook's own status for a
// failing sh step, 1 otherwise.
func (e *StepError) ExitCode() int {
	if e.Step == StepShell {
		if code := runner.ExitCode(e.Err); code > 0 {
			return code
		}
	}
	return 1
}

// Finder resolves a package name against the index.
type Finder interface {
	Find(ctx context.Context, name string) (index.Record, error)
}

// Manager carries out installs and removals against one configured layout.
type Manager struct {
	cfg    *config.Config
	finder Finder
	runner runner.Runner
	logger zerolog.Logger
	now    func() time.Time
}

// New returns a Manager. finder is usually an *index.Fetcher.
func New(cfg *config.Config, finder Finder, r runner.Runner) *Manager {
	return &Manager{
		cfg:    cfg,
		finder: finder,
		runner: r,
		logger: logging.GetLogger("manager"),
		now:    time.Now,
	}
}

// InstallOptions tunes Install.
type InstallOptions struct {
	// Resume accepts an existing package directory that has no receipt,
	// i.e. one left behind by an interrupted or failed install.
	Resume bool
}

// InstallResult describes a completed install.
type InstallResult struct {
	Record  index.Record
	Dir     string
	Cloned  bool
	Resumed bool
	Links   *linker.LinkResult
}

// Install clones the package, runs its install steps and links its scripts.
// A failed step leaves everything done so far in place.
func (m *Manager) Install(ctx context.Context, name string, opts InstallOptions) (*InstallResult, error) {
	defer logging.LogOperationStart(m.logger, "install "+name)()

	if err := checkName(name); err != nil {
		return nil, err
	}
	rec, err := m.finder.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	target := m.cfg.PackageDir(name)
	res := &InstallResult{Record: rec, Dir: target}

	if exists(target) {
		if !opts.Resume {
			return nil, ErrAlreadyInstalled
		}
		receipt, err := m.ReadReceipt(name)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return nil, ErrAlreadyInstalled
		}
		res.Resumed = true
		m.logger.Info().Str("package", name).Msg("resuming install over existing directory")
	} else if rec.Repository != "" {
		if err := os.MkdirAll(m.cfg.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create %s: %w", m.cfg.CacheDir, err)
		}
		clone := runner.Command{Name: "git", Args: []string{"clone", rec.Repository, target}}
		if err := m.runner.Run(ctx, clone); err != nil {
			return nil, &StepError{Step: StepClone, Message: "Clone returned non-zero code.", Err: err}
		}
		res.Cloned = true
	}

	man, err := manifest.Load(target)
	if err != nil {
		return nil, err
	}
	if err := m.runSteps(ctx, target, man.Install); err != nil {
		return nil, err
	}

	res.Links, err = linker.Create(m.cfg.BinDir, target, man.Scripts)
	if err != nil {
		return nil, fmt.Errorf("cannot link scripts: %w", err)
	}
	for _, w := range res.Links.Warnings {
		m.logger.Warn().Str("package", name).Msg(w)
	}

	if !exists(target) {
		// Nothing to clone and nothing on disk: no installed state to record.
		return res, nil
	}
	receipt := &Receipt{
		Name:        name,
		Repository:  rec.Repository,
		InstalledAt: m.now().UTC(),
		Links:       ownedLinks(res.Links),
	}
	if err := m.writeReceipt(receipt); err != nil {
		return nil, err
	}
	return res, nil
}

// ownedLinks is every link created now plus skipped entries that already
// point at this package, as happens when resuming.
func ownedLinks(r *linker.LinkResult) []linker.Link {
	owned := append([]linker.Link(nil), r.Created...)
	for _, l := range r.Skipped {
		if linker.InspectLink(l).PointsHere {
			owned = append(owned, l)
		}
	}
	return owned
}

func (m *Manager) runSteps(ctx context.Context, target string, in *manifest.Install) error {
	if in == nil {
		return nil
	}
	if in.PipRequirements != "" && in.Virtualenv == "" {
		return manifest.ErrPipWithoutVirtualenv
	}

	var venv string
	if in.Virtualenv != "" {
		venv = filepath.Join(target, in.Virtualenv)
		if exists(venv) {
			m.logger.Debug().Str("path", venv).Msg("virtualenv exists, skipping creation")
		} else {
			c := runner.Command{Name: "virtualenv", Args: []string{venv, "--python=python3"}, Dir: target}
			if err := m.runner.Run(ctx, c); err != nil {
				return &StepError{Step: StepVirtualenv, Message: "Virtual environment creation returned non-zero code.", Err: err}
			}
		}
	}

	if in.PipRequirements != "" {
		c := runner.Command{
			Name: filepath.Join(venv, "bin", "pip"),
			Args: []string{"install", "-r", filepath.Join(target, in.PipRequirements)},
			Dir:  target,
		}
		if err := m.runner.Run(ctx, c); err != nil {
			return &StepError{Step: StepPip, Message: "Pip install returned non-zero code.", Err: err}
		}
	}

	if in.Sh != "" {
		if err := m.runner.Run(ctx, runner.Shell(in.Sh, target)); err != nil {
			return &StepError{Step: StepShell, Message: "Installation returned non-zero code.", Err: err}
		}
	}
	return nil
}

// RemoveResult describes a completed removal.
type RemoveResult struct {
	Dir         string
	FromReceipt bool
	Unlinked    *linker.UnlinkResult
}

// Remove unlinks the package's scripts and deletes its directory.
func (m *Manager) Remove(ctx context.Context, name string) (*RemoveResult, error) {
	defer logging.LogOperationStart(m.logger, "remove "+name)()

	if err := checkName(name); err != nil {
		return nil, err
	}
	if _, err := m.finder.Find(ctx, name); err != nil {
		return nil, err
	}
	target := m.cfg.PackageDir(name)
	if !exists(target) {
		return nil, ErrNotInstalled
	}

	res := &RemoveResult{Dir: target}
	receipt, err := m.ReadReceipt(name)
	if err != nil {
		return nil, err
	}
	if receipt != nil {
		res.FromReceipt = true
		res.Unlinked, err = linker.RemoveOwned(receipt.Links, target)
	} else {
		names, lerr := manifest.LoadScriptNames(target)
		if lerr != nil {
			return nil, lerr
		}
		res.Unlinked, err = linker.RemoveNames(m.cfg.BinDir, names)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot unlink scripts: %w", err)
	}
	for _, kept := range res.Unlinked.Kept {
		m.logger.Warn().Str("package", name).Str("script", kept).Msg("left in place: no longer points into the package")
	}

	if err := os.RemoveAll(target); err != nil {
		return nil, fmt.Errorf("cannot remove %s: %w", target, err)
	}
	if err := m.deleteReceipt(name); err != nil {
		return nil, err
	}
	return res, nil
}

// checkName rejects names that are not a single plain path element.
func checkName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || filepath.Base(name) != name || !filepath.IsLocal(name) {
		return fmt.Errorf("invalid package name %q", name)
	}
	return nil
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}
