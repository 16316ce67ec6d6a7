package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)

	root := filepath.Join(home, ".byht")
	assert.Equal(t, root, cfg.Dir)
	assert.Equal(t, filepath.Join(root, "bin"), cfg.BinDir)
	assert.Equal(t, filepath.Join(root, "cache"), cfg.CacheDir)
	assert.Equal(t, filepath.Join(root, "commands"), cfg.CommandsDir)
	assert.Equal(t, filepath.Join(root, "config.yaml"), cfg.ConfigFile)
	assert.Equal(t, filepath.Join(root, "cache", "index.yaml"), cfg.LocalIndex)
	assert.Equal(t, DefaultRepo, cfg.Repo)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, []string{"defaults"}, cfg.Sources)
}

func TestLoad_DirOverrideMovesDerivedPaths(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := filepath.Join(t.TempDir(), "elsewhere")
	t.Setenv("BYHT_DIR", root)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Dir)
	assert.Equal(t, filepath.Join(root, "bin"), cfg.BinDir)
	assert.Equal(t, filepath.Join(root, "cache", "index.yaml"), cfg.LocalIndex)
	assert.Equal(t, []string{root, cfg.BinDir, cfg.CacheDir, cfg.CommandsDir}, cfg.Layout())
}

func TestLoad_EachPathOverridable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmp := t.TempDir()
	t.Setenv("BYHT_DIR_BIN", filepath.Join(tmp, "b"))
	t.Setenv("BYHT_DIR_CACHE", filepath.Join(tmp, "c"))
	t.Setenv("BYHT_DIR_COMMANDS", filepath.Join(tmp, "cmds"))
	t.Setenv("BYHT_LOCAL_INDEX", filepath.Join(tmp, "idx.yaml"))
	t.Setenv("BYHT_REPO", "https://example.com/index.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmp, "b"), cfg.BinDir)
	assert.Equal(t, filepath.Join(tmp, "c"), cfg.CacheDir)
	assert.Equal(t, filepath.Join(tmp, "cmds"), cfg.CommandsDir)
	assert.Equal(t, filepath.Join(tmp, "idx.yaml"), cfg.LocalIndex)
	assert.Equal(t, "https://example.com/index.yaml", cfg.Repo)
	assert.Equal(t, filepath.Join(tmp, "c", "foo"), cfg.PackageDir("foo"))
	assert.Contains(t, cfg.Sources, "environment")
}

func TestLoad_Precedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	root := filepath.Join(home, ".byht")
	require.NoError(t, os.MkdirAll(root, 0o755))

	yamlBody := "repo: https://from-file.example/index.yaml\ns3_region: eu-west-1\ndir_bin: ~/file-bin\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte(yamlBody), 0o644))
	require.NoError(t, os.WriteFile(DotEnvPath(root), []byte("BYHT_S3_REGION=ap-south-1\nBYHT_REPO=\nOTHER=ignored\n"), 0o600))
	t.Setenv("BYHT_S3_ENDPOINT", "http://127.0.0.1:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://from-file.example/index.yaml", cfg.Repo, "empty dotenv value must not override")
	assert.Equal(t, "ap-south-1", cfg.S3Region, ".env beats config file")
	assert.Equal(t, "http://127.0.0.1:9000", cfg.S3Endpoint)
	assert.Equal(t, filepath.Join(home, "file-bin"), cfg.BinDir)
	assert.Equal(t, []string{"defaults", filepath.Join(root, "config.yaml"), DotEnvPath(root), "environment"}, cfg.Sources)
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgFile := filepath.Join(home, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("repo: [unterminated\n"), 0o644))
	t.Setenv("BYHT_DIR_CONFIG", cfgFile)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/x/y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "y"), got)

	got, err = ExpandPath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}
