package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kamusis/byht/internal/linker"
)

// Receipt records what an install actually did, so removal undoes exactly
// that even if the package's manifest changes afterwards.
type Receipt struct {
	Name        string        `yaml:"name"`
	Repository  string        `yaml:"repository,omitempty"`
	InstalledAt time.Time     `yaml:"installed_at"`
	Links       []linker.Link `yaml:"links,omitempty"`
}

func (m *Manager) receiptPath(name string) string {
	return filepath.Join(m.cfg.ReceiptsDir(), name+".yaml")
}

// ReadReceipt returns the receipt for name, or nil when none was written.
func (m *Manager) ReadReceipt(name string) (*Receipt, error) {
	p := m.receiptPath(name)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read receipt %s: %w", p, err)
	}
	var r Receipt
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid receipt %s: %w", p, err)
	}
	return &r, nil
}

func (m *Manager) writeReceipt(r *Receipt) error {
	dir := m.cfg.ReceiptsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("cannot encode receipt: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+r.Name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot write receipt: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write receipt: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot write receipt: %w", err)
	}
	return os.Rename(tmp.Name(), m.receiptPath(r.Name))
}

// deleteReceipt removes name's receipt, and the receipts directory once it
// holds nothing else.
func (m *Manager) deleteReceipt(name string) error {
	if err := os.Remove(m.receiptPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove receipt: %w", err)
	}
	dir := m.cfg.ReceiptsDir()
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return nil
	}
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove %s: %w", dir, err)
	}
	return nil
}

// Package is an installed package directory and its receipt, if any.
type Package struct {
	Name    string
	Dir     string
	Receipt *Receipt
}

// Installed lists the package directories under the cache directory.
// Hidden entries and plain files (such as the index cache) are ignored.
func (m *Manager) Installed() ([]Package, error) {
	entries, err := os.ReadDir(m.cfg.CacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", m.cfg.CacheDir, err)
	}
	var out []Package
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		r, err := m.ReadReceipt(e.Name())
		if err != nil {
			m.logger.Warn().Err(err).Str("package", e.Name()).Msg("ignoring unreadable receipt")
		}
		out = append(out, Package{Name: e.Name(), Dir: m.cfg.PackageDir(e.Name()), Receipt: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
