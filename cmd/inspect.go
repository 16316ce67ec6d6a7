package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/byht/internal/index"
	"github.com/kamusis/byht/internal/linker"
	"github.com/kamusis/byht/internal/manager"
	"github.com/kamusis/byht/internal/manifest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect NAME",
	Short: "Show index entry, manifest and links of a package",
	Long: `Display what byht knows about a package: its index entry, whether it is
installed, the install steps and scripts its .byht manifest declares, and the
state of every link recorded when it was installed.

Example:
  byht inspect foo`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, fetcher, err := loadConfig()
	if err != nil {
		return err
	}

	printSection(name)

	printGroup("index")
	rec, err := fetcher.Find(cmd.Context(), name)
	switch {
	case errors.Is(err, index.ErrPackageNotFound):
		printMiss("", "not in the index")
	case err != nil:
		return err
	default:
		printInfo("", fmt.Sprintf("description: %s", rec.Description))
		if rec.Repository != "" {
			printInfo("", fmt.Sprintf("repository:  %s", rec.Repository))
		} else {
			printInfo("", "repository:  (none)")
		}
	}

	printGroup("install")
	dir := cfg.PackageDir(name)
	if _, err := os.Lstat(dir); err != nil {
		printMiss("", "not installed")
		return nil
	}
	printOK("", fmt.Sprintf("installed in %s", dir))

	m, err := manifest.Load(dir)
	if err != nil {
		printErr("", err.Error())
	} else {
		printManifest(m)
	}

	printGroup("links")
	receipt, err := manager.New(cfg, fetcher, nil).ReadReceipt(name)
	if err != nil {
		return err
	}
	if receipt == nil {
		printSkip("", "no install receipt; run 'byht add --resume "+name+"' to finish the install")
		return nil
	}
	printInfo("", fmt.Sprintf("installed at %s", receipt.InstalledAt.Local().Format("2006-01-02 15:04:05")))
	if len(receipt.Links) == 0 {
		printSkip("", "no scripts linked")
	}
	for _, l := range receipt.Links {
		printLinkState(linker.InspectLink(l))
	}
	return nil
}

func printManifest(m *manifest.Manifest) {
	if m.Empty() {
		printSkip("", "no .byht manifest (or an empty one)")
		return
	}
	if in := m.Install; in != nil {
		if in.Virtualenv != "" {
			printInfo("", fmt.Sprintf("virtualenv:       %s", in.Virtualenv))
		}
		if in.PipRequirements != "" {
			printInfo("", fmt.Sprintf("pip-requirements: %s", in.PipRequirements))
		}
		if in.Sh != "" {
			printInfo("", fmt.Sprintf("sh:               %s", in.Sh))
		}
	}
	for _, s := range m.ScriptNames() {
		printInfo("", fmt.Sprintf("script %s → %s", s, m.Scripts[s]))
	}
}

func printLinkState(in linker.Inspect) {
	switch {
	case !in.Exists:
		printMiss(in.Name, "missing")
	case !in.PointsHere:
		printWarn(in.Name, fmt.Sprintf("%s no longer points into the package", in.Path))
	case in.Dangling:
		printErr(in.Name, fmt.Sprintf("dangling → %s", in.Target))
	case !in.Executable:
		printWarn(in.Name, fmt.Sprintf("%s is not executable", in.Target))
	default:
		printOK(in.Name, fmt.Sprintf("%s → %s", in.Path, in.Target))
	}
}
