// Package linker exposes package scripts on the command path as symlinks
// and removes them again.
package linker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Link is one command-path entry and the file it points to.
type Link struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Target string `yaml:"target"`
}

// LinkResult reports what Create did.
type LinkResult struct {
	Created []Link
	// Skipped entries already existed on the command path and were left alone.
	Skipped []Link
	// Warnings describe created links whose target is missing or not executable.
	Warnings []string
}

// Create links every script into binDir, pointing at pkgDir/<relpath>.
// Names already present in binDir (in any form, including dangling links)
// are skipped: the first package to claim a name keeps it.
func Create(binDir, pkgDir string, scripts map[string]string) (*LinkResult, error) {
	res := &LinkResult{}
	if len(scripts) == 0 {
		return res, nil
	}
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return res, fmt.Errorf("cannot create %s: %w", binDir, err)
	}

	for _, name := range sortedKeys(scripts) {
		l := Link{
			Name:   name,
			Path:   filepath.Join(binDir, name),
			Target: filepath.Join(pkgDir, scripts[name]),
		}
		_, err := os.Lstat(l.Path)
		if err == nil {
			res.Skipped = append(res.Skipped, l)
			continue
		}
		if !os.IsNotExist(err) {
			return res, fmt.Errorf("stat %s: %w", l.Path, err)
		}
		if err := os.Symlink(l.Target, l.Path); err != nil {
			return res, fmt.Errorf("symlink %s → %s: %w", l.Path, l.Target, err)
		}
		res.Created = append(res.Created, l)
		if w := checkTarget(l); w != "" {
			res.Warnings = append(res.Warnings, w)
		}
	}
	return res, nil
}

// checkTarget returns a warning when the link target is unusable as a command.
func checkTarget(l Link) string {
	info, err := os.Stat(l.Target)
	if err != nil {
		return fmt.Sprintf("%s: target %s does not exist", l.Name, l.Target)
	}
	if info.IsDir() {
		return fmt.Sprintf("%s: target %s is a directory", l.Name, l.Target)
	}
	if !executable(l.Target) {
		return fmt.Sprintf("%s: target %s is not executable", l.Name, l.Target)
	}
	return ""
}

// UnlinkResult reports what a removal did.
type UnlinkResult struct {
	Removed []string
	// Kept entries exist but no longer point into the package.
	Kept []string
	// Missing entries were already gone.
	Missing []string
}

// RemoveNames deletes binDir/<name> for every name that exists, whatever it
// points to.
func RemoveNames(binDir string, names []string) (*UnlinkResult, error) {
	res := &UnlinkResult{}
	for _, name := range names {
		p := filepath.Join(binDir, name)
		if _, err := os.Lstat(p); err != nil {
			if os.IsNotExist(err) {
				res.Missing = append(res.Missing, name)
				continue
			}
			return res, fmt.Errorf("stat %s: %w", p, err)
		}
		if err := os.Remove(p); err != nil {
			return res, fmt.Errorf("cannot remove %s: %w", p, err)
		}
		res.Removed = append(res.Removed, name)
	}
	return res, nil
}

// RemoveOwned deletes each recorded link only while it is still a symlink
// into pkgDir. Entries replaced by something else are kept.
func RemoveOwned(links []Link, pkgDir string) (*UnlinkResult, error) {
	res := &UnlinkResult{}
	for _, l := range links {
		info, err := os.Lstat(l.Path)
		if os.IsNotExist(err) {
			res.Missing = append(res.Missing, l.Name)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("stat %s: %w", l.Path, err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			res.Kept = append(res.Kept, l.Name)
			continue
		}
		current, err := os.Readlink(l.Path)
		if err != nil {
			return res, fmt.Errorf("readlink %s: %w", l.Path, err)
		}
		if current != l.Target && !within(current, pkgDir) {
			res.Kept = append(res.Kept, l.Name)
			continue
		}
		if err := os.Remove(l.Path); err != nil {
			return res, fmt.Errorf("cannot remove %s: %w", l.Path, err)
		}
		res.Removed = append(res.Removed, l.Name)
	}
	return res, nil
}

// Inspect describes an exposed script for health checks.
type Inspect struct {
	Link
	Exists     bool
	IsSymlink  bool
	PointsHere bool
	Dangling   bool
	Executable bool
}

// InspectLink reports the current state of l.
func InspectLink(l Link) Inspect {
	in := Inspect{Link: l}
	info, err := os.Lstat(l.Path)
	if err != nil {
		return in
	}
	in.Exists = true
	in.IsSymlink = info.Mode()&os.ModeSymlink != 0
	if in.IsSymlink {
		if current, err := os.Readlink(l.Path); err == nil {
			in.PointsHere = current == l.Target
		}
	}
	if _, err := os.Stat(l.Path); err != nil {
		in.Dangling = true
		return in
	}
	in.Executable = executable(l.Path)
	return in
}

func within(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
