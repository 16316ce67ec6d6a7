package cmd

import (
	"fmt"
	"io"
	"os"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// Every command reports through these so icons and indentation stay
// consistent across byht's output.
//
// Icon semantics:
//   ✓  success / healthy
//   ✗  error / failure          (written to errOut)
//   ⚠  warning
//   ○  skipped / not applicable
//   -  not found / missing
//   ~  neutral info / state change

// out and errOut are swapped by tests to capture output.
var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

// printLine writes "  <icon>  msg" or "  <icon>  [name] msg".
func printLine(w io.Writer, icon, name, msg string) {
	if name == "" {
		fmt.Fprintf(w, "  %s  %s\n", icon, msg)
	} else {
		fmt.Fprintf(w, "  %s  [%s] %s\n", icon, name, msg)
	}
}

// printSection prints a top-level section header, e.g. "=== byht doctor ===".
func printSection(title string) {
	fmt.Fprintf(out, "\n=== %s ===\n", title)
}

// printGroup prints a check group heading, e.g. "[ git ]".
func printGroup(title string) {
	fmt.Fprintf(out, "\n[ %s ]\n", title)
}

func printOK(name, msg string)   { printLine(out, "✓", name, msg) }
func printErr(name, msg string)  { printLine(errOut, "✗", name, msg) }
func printWarn(name, msg string) { printLine(out, "⚠", name, msg) }
func printSkip(name, msg string) { printLine(out, "○", name, msg) }
func printMiss(name, msg string) { printLine(out, "-", name, msg) }
func printInfo(name, msg string) { printLine(out, "~", name, msg) }
