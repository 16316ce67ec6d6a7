// Package manifest loads the optional per-package manifest (.byht) that
// describes install steps and the scripts a package exposes.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// FileName is the manifest file looked up directly inside a package directory.
const FileName = ".byht"

// ErrPipWithoutVirtualenv is reported when pip-requirements is declared but
// no virtualenv is.
var ErrPipWithoutVirtualenv = errors.New("pip-requirements requires virtualenv")

// Install lists the install steps. Empty fields are absent steps.
type Install struct {
	Virtualenv      string `yaml:"virtualenv,omitempty"`
	PipRequirements string `yaml:"pip-requirements,omitempty"`
	Sh              string `yaml:"sh,omitempty"`
}

// Manifest is the decoded .byht file. The zero value is the empty manifest.
type Manifest struct {
	Install *Install          `yaml:"install,omitempty"`
	Scripts map[string]string `yaml:"scripts,omitempty"`
}

// ParseError reports a manifest that is not valid YAML.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid YAML in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads <dir>/.byht. A missing file yields the empty manifest.
func Load(dir string) (*Manifest, error) {
	p := filepath.Join(dir, FileName)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("cannot read manifest %s: %w", p, err)
	}
	return Parse(data, p)
}

// Parse decodes and validates manifest bytes. path is used in errors only.
func Parse(data []byte, path string) (*Manifest, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if raw == nil {
		return &Manifest{}, nil
	}

	res, err := validate(raw)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if !res.Valid {
		return nil, &ValidationError{Path: path, Issues: res.Issues}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := m.Check(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

// LoadScriptNames reads only the script names declared in <dir>/.byht,
// without schema validation or Check. Removal uses it so that a package
// whose manifest never passed validation can still be cleaned up. Only a
// YAML syntax error is fatal; names that are not a plain file name are
// dropped.
func LoadScriptNames(dir string) ([]string, error) {
	p := filepath.Join(dir, FileName)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read manifest %s: %w", p, err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		var te *yaml.TypeError
		if !errors.As(err, &te) {
			return nil, &ParseError{Path: p, Err: err}
		}
	}

	var names []string
	switch scripts := raw["scripts"].(type) {
	case map[string]interface{}:
		for n := range scripts {
			names = append(names, n)
		}
	case map[interface{}]interface{}:
		for n := range scripts {
			names = append(names, fmt.Sprint(n))
		}
	}
	kept := names[:0]
	for _, n := range names {
		if n != "" && n != "." && n != ".." && filepath.Base(n) == n {
			kept = append(kept, n)
		}
	}
	sort.Strings(kept)
	return kept, nil
}

// Check enforces the rules the installer relies on: pip needs a
// virtualenv, and every path stays inside the package directory.
func (m *Manifest) Check() error {
	if in := m.Install; in != nil {
		if in.PipRequirements != "" && in.Virtualenv == "" {
			return ErrPipWithoutVirtualenv
		}
		for key, p := range map[string]string{"virtualenv": in.Virtualenv, "pip-requirements": in.PipRequirements} {
			if p != "" && !filepath.IsLocal(p) {
				return fmt.Errorf("install.%s %q escapes the package directory", key, p)
			}
		}
	}
	for _, name := range m.ScriptNames() {
		if !filepath.IsLocal(m.Scripts[name]) {
			return fmt.Errorf("script %s: %q escapes the package directory", name, m.Scripts[name])
		}
		if filepath.Base(name) != name || name == "." || name == ".." {
			return fmt.Errorf("invalid script name %q", name)
		}
	}
	return nil
}

// ScriptNames returns the declared script names in sorted order.
func (m *Manifest) ScriptNames() []string {
	names := make([]string, 0, len(m.Scripts))
	for n := range m.Scripts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the manifest declares nothing.
func (m *Manifest) Empty() bool {
	return m.Install == nil && len(m.Scripts) == 0
}
