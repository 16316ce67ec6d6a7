// Package config builds the single Config value that every byht component
// receives. It is the only place that reads the process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable byht honours.
const EnvPrefix = "BYHT_"

// DefaultRepo is the index URL used when BYHT_REPO is not set.
const DefaultRepo = "http://by.ht/index.yaml"

// Config is the resolved filesystem layout and index location.
type Config struct {
	Dir         string `koanf:"dir"`
	BinDir      string `koanf:"dir_bin"`
	CacheDir    string `koanf:"dir_cache"`
	ConfigFile  string `koanf:"dir_config"`
	CommandsDir string `koanf:"dir_commands"`
	Repo        string `koanf:"repo"`
	LocalIndex  string `koanf:"local_index"`
	S3Region    string `koanf:"s3_region"`
	S3Endpoint  string `koanf:"s3_endpoint"`

	// Sources lists the configuration layers that contributed values, in
	// load order. Used for diagnostics only.
	Sources []string `koanf:"-"`
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultDir returns ~/.byht.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".byht"), nil
}

// envKey maps BYHT_DIR_BIN to dir_bin.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// Load resolves the configuration. Layers, lowest precedence first:
// built-in defaults, the YAML config file, <dir>/.env, process environment.
func Load() (*Config, error) {
	envK := koanf.New(".")
	if err := envK.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("cannot read environment: %w", err)
	}

	dir := envK.String("dir")
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	dir, err := ExpandPath(dir)
	if err != nil {
		return nil, err
	}

	dotK, err := LoadDotEnv(dir)
	if err != nil {
		return nil, err
	}

	cfgFile := envK.String("dir_config")
	if cfgFile == "" {
		cfgFile = dotK.String("dir_config")
	}
	if cfgFile == "" {
		cfgFile = filepath.Join(dir, "config.yaml")
	}
	cfgFile, err = ExpandPath(cfgFile)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	defaults := map[string]interface{}{
		"dir":        dir,
		"dir_config": cfgFile,
		"repo":       DefaultRepo,
		"s3_region":  "us-east-1",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("cannot load defaults: %w", err)
	}
	sources := []string{"defaults"}

	if _, statErr := os.Stat(cfgFile); statErr == nil {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", cfgFile, err)
		}
		sources = append(sources, cfgFile)
	}
	if len(dotK.Keys()) > 0 {
		if err := k.Merge(dotK); err != nil {
			return nil, fmt.Errorf("cannot merge %s: %w", DotEnvPath(dir), err)
		}
		sources = append(sources, DotEnvPath(dir))
	}
	if len(envK.Keys()) > 0 {
		if err := k.Merge(envK); err != nil {
			return nil, fmt.Errorf("cannot merge environment: %w", err)
		}
		sources = append(sources, "environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("cannot decode configuration: %w", err)
	}
	cfg.Sources = sources
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve fills paths derived from other paths and expands ~ everywhere.
func (c *Config) resolve() error {
	var err error
	expand := func(p *string) {
		if err != nil {
			return
		}
		*p, err = ExpandPath(*p)
	}
	expand(&c.Dir)
	if c.BinDir == "" {
		c.BinDir = filepath.Join(c.Dir, "bin")
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(c.Dir, "cache")
	}
	if c.CommandsDir == "" {
		c.CommandsDir = filepath.Join(c.Dir, "commands")
	}
	if c.ConfigFile == "" {
		c.ConfigFile = filepath.Join(c.Dir, "config.yaml")
	}
	expand(&c.BinDir)
	expand(&c.CacheDir)
	expand(&c.CommandsDir)
	expand(&c.ConfigFile)
	if c.LocalIndex == "" {
		c.LocalIndex = filepath.Join(c.CacheDir, "index.yaml")
	}
	expand(&c.LocalIndex)
	if c.Repo == "" {
		c.Repo = DefaultRepo
	}
	return err
}

// Layout returns the directories `byht me` creates, root first.
func (c *Config) Layout() []string {
	return []string{c.Dir, c.BinDir, c.CacheDir, c.CommandsDir}
}

// PackageDir returns <cache>/<name>.
func (c *Config) PackageDir(name string) string {
	return filepath.Join(c.CacheDir, name)
}

// ReceiptsDir returns the directory holding install receipts.
func (c *Config) ReceiptsDir() string {
	return filepath.Join(c.CacheDir, ".receipts")
}

// LockPath returns the path of the lock file guarding mutating commands.
func (c *Config) LockPath() string {
	return filepath.Join(c.Dir, ".lock")
}
