package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/byht/internal/config"
	"github.com/kamusis/byht/internal/index"
	"github.com/kamusis/byht/internal/linker"
	"github.com/kamusis/byht/internal/logging"
	"github.com/kamusis/byht/internal/manager"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that byht's external tools, directories, index cache and installed
packages are in order. Run this when something seems wrong.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("byht doctor")

	// ── Check 1: external tools ───────────────────────────────────────────────
	printGroup("tools")
	if v, err := exec.Command("git", "--version").Output(); err != nil {
		failD("git not found — please install Git: https://git-scm.com/downloads")
	} else {
		printOK("", strings.TrimSpace(string(v)))
	}
	for _, tool := range []string{"virtualenv", "python3"} {
		if p, err := exec.LookPath(tool); err != nil {
			printWarn("", fmt.Sprintf("%s not found — packages with a virtualenv install step will fail", tool))
		} else {
			printOK("", fmt.Sprintf("%s: %s", tool, p))
		}
	}

	// ── Check 2: configuration ────────────────────────────────────────────────
	printGroup("configuration")
	cfg, loadErr := config.Load()
	if loadErr != nil {
		failD("cannot load configuration: %v", loadErr)
		return doctorSummary(false)
	}
	printOK("", fmt.Sprintf("sources: %s", strings.Join(cfg.Sources, ", ")))
	printInfo("", fmt.Sprintf("index: %s", cfg.Repo))
	printInfo("", fmt.Sprintf("log file: %s", logging.LogFilePath()))

	// ── Check 3: directories ──────────────────────────────────────────────────
	printGroup("directories")
	for _, dir := range cfg.Layout() {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			failD("%s missing — run 'byht me'", dir)
		} else {
			printOK("", dir)
		}
	}
	if onPath(cfg.BinDir) {
		printOK("", fmt.Sprintf("%s is on PATH", cfg.BinDir))
	} else {
		printWarn("", fmt.Sprintf("%s is not on PATH — add: export PATH=$PATH:%s", cfg.BinDir, cfg.BinDir))
	}

	// ── Check 4: index cache ──────────────────────────────────────────────────
	printGroup("index cache")
	if data, err := os.ReadFile(cfg.LocalIndex); os.IsNotExist(err) {
		printMiss("", fmt.Sprintf("%s not found — run 'byht update'", cfg.LocalIndex))
	} else if err != nil {
		failD("cannot read %s: %v", cfg.LocalIndex, err)
	} else if records, err := index.Parse(data, cfg.LocalIndex); err != nil {
		failD("%v", err)
	} else {
		printOK("", fmt.Sprintf("%d package(s) in %s", len(records), cfg.LocalIndex))
	}

	// ── Check 5: installed packages ───────────────────────────────────────────
	printGroup("installed packages")
	pkgs, err := manager.New(cfg, nil, nil).Installed()
	if err != nil {
		failD("%v", err)
	}
	if len(pkgs) == 0 {
		printSkip("", "no packages installed")
	}
	for _, p := range pkgs {
		if !checkPackage(p) {
			allOK = false
		}
	}

	return doctorSummary(allOK)
}

// checkPackage reports the health of one installed package's links.
func checkPackage(p manager.Package) bool {
	if p.Receipt == nil {
		printInfo(p.Name, "no install receipt (interrupted install, or installed before receipts); links not checked")
		return true
	}
	healthy := true
	for _, l := range p.Receipt.Links {
		in := linker.InspectLink(l)
		if !linkHealthy(in) {
			printLinkState(in)
			healthy = false
		}
	}
	if healthy {
		printOK(p.Name, fmt.Sprintf("OK (%d link(s))", len(p.Receipt.Links)))
	}
	return healthy
}

func linkHealthy(in linker.Inspect) bool {
	return in.Exists && in.PointsHere && !in.Dangling && in.Executable
}

// onPath reports whether dir is one of the PATH entries.
func onPath(dir string) bool {
	want := filepath.Clean(dir)
	for _, p := range filepath.SplitList(os.Getenv("PATH")) {
		if p != "" && filepath.Clean(p) == want {
			return true
		}
	}
	return false
}

func doctorSummary(allOK bool) error {
	fmt.Fprintln(out, "\n===================")
	if allOK {
		fmt.Fprintln(out, "✓  All checks passed. byht is ready to use.")
		return nil
	}
	fmt.Fprintln(errOut, "✗  One or more checks failed. See details above.")
	return fmt.Errorf("doctor found issues")
}
