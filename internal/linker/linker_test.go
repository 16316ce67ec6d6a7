package linker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// setupPackage creates a package dir with an executable bin/<name>.sh per name.
func setupPackage(t testing.TB, root string, names ...string) string {
	t.Helper()
	pkg := filepath.Join(root, "cache", "pkg")
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, "bin"), 0o755))
	for _, n := range names {
		p := filepath.Join(pkg, "bin", n+".sh")
		require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\necho "+n+"\n"), 0o755))
	}
	return pkg
}

func TestCreate_LinksScripts(t *testing.T) {
	tmp := t.TempDir()
	pkg := setupPackage(t, tmp, "foo")
	bin := filepath.Join(tmp, "bin")

	res, err := Create(bin, pkg, map[string]string{"foo": "bin/foo.sh"})
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	assert.Empty(t, res.Skipped)
	assert.Empty(t, res.Warnings)

	target, err := os.Readlink(filepath.Join(bin, "foo"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(pkg, "bin", "foo.sh"), target)
}

func TestCreate_ExistingEntryIsLeftAlone(t *testing.T) {
	tmp := t.TempDir()
	pkg := setupPackage(t, tmp, "foo")
	bin := filepath.Join(tmp, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	existing := filepath.Join(bin, "foo")
	require.NoError(t, os.WriteFile(existing, []byte("mine"), 0o755))

	res, err := Create(bin, pkg, map[string]string{"foo": "bin/foo.sh"})
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	require.Len(t, res.Skipped, 1)

	b, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(b))
}

func TestCreate_DanglingLinkCountsAsPresent(t *testing.T) {
	tmp := t.TempDir()
	pkg := setupPackage(t, tmp, "foo")
	bin := filepath.Join(tmp, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.Symlink(filepath.Join(tmp, "gone"), filepath.Join(bin, "foo")))

	res, err := Create(bin, pkg, map[string]string{"foo": "bin/foo.sh"})
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Len(t, res.Skipped, 1)
}

func TestCreate_WarnsOnMissingTarget(t *testing.T) {
	tmp := t.TempDir()
	pkg := setupPackage(t, tmp)
	bin := filepath.Join(tmp, "bin")

	res, err := Create(bin, pkg, map[string]string{"ghost": "bin/ghost.sh"})
	require.NoError(t, err)
	assert.Len(t, res.Created, 1)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "does not exist")
}

func TestCreate_NoScriptsDoesNotTouchBin(t *testing.T) {
	tmp := t.TempDir()
	bin := filepath.Join(tmp, "bin")

	res, err := Create(bin, setupPackage(t, tmp), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	_, err = os.Stat(bin)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveNames(t *testing.T) {
	tmp := t.TempDir()
	pkg := setupPackage(t, tmp, "foo")
	bin := filepath.Join(tmp, "bin")
	_, err := Create(bin, pkg, map[string]string{"foo": "bin/foo.sh"})
	require.NoError(t, err)

	res, err := RemoveNames(bin, []string{"foo", "bar"})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, res.Removed)
	assert.Equal(t, []string{"bar"}, res.Missing)

	_, err = os.Lstat(filepath.Join(bin, "foo"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveOwned_KeepsReplacedEntries(t *testing.T) {
	tmp := t.TempDir()
	pkg := setupPackage(t, tmp, "foo", "bar", "baz")
	bin := filepath.Join(tmp, "bin")
	res, err := Create(bin, pkg, map[string]string{"foo": "bin/foo.sh", "bar": "bin/bar.sh", "baz": "bin/baz.sh"})
	require.NoError(t, err)
	require.Len(t, res.Created, 3)

	// bar now belongs to someone else; baz was deleted by hand.
	require.NoError(t, os.Remove(filepath.Join(bin, "bar")))
	require.NoError(t, os.Symlink(filepath.Join(tmp, "elsewhere"), filepath.Join(bin, "bar")))
	require.NoError(t, os.Remove(filepath.Join(bin, "baz")))

	un, err := RemoveOwned(res.Created, pkg)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, un.Removed)
	assert.Equal(t, []string{"bar"}, un.Kept)
	assert.Equal(t, []string{"baz"}, un.Missing)

	_, err = os.Lstat(filepath.Join(bin, "bar"))
	assert.NoError(t, err)
}

func TestRemoveOwned_KeepsRegularFile(t *testing.T) {
	tmp := t.TempDir()
	bin := filepath.Join(tmp, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	p := filepath.Join(bin, "foo")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o755))

	un, err := RemoveOwned([]Link{{Name: "foo", Path: p, Target: filepath.Join(tmp, "pkg", "foo")}}, filepath.Join(tmp, "pkg"))
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, un.Kept)
}

func TestInspectLink(t *testing.T) {
	tmp := t.TempDir()
	pkg := setupPackage(t, tmp, "foo")
	bin := filepath.Join(tmp, "bin")
	res, err := Create(bin, pkg, map[string]string{"foo": "bin/foo.sh", "ghost": "bin/ghost.sh"})
	require.NoError(t, err)
	require.Len(t, res.Created, 2)

	byName := map[string]Link{}
	for _, l := range res.Created {
		byName[l.Name] = l
	}

	in := InspectLink(byName["foo"])
	assert.True(t, in.Exists)
	assert.True(t, in.IsSymlink)
	assert.True(t, in.PointsHere)
	assert.False(t, in.Dangling)
	assert.True(t, in.Executable)

	in = InspectLink(byName["ghost"])
	assert.True(t, in.Exists)
	assert.True(t, in.Dangling)

	assert.False(t, InspectLink(Link{Name: "none", Path: filepath.Join(bin, "none")}).Exists)
}

// Every absent name gets exactly one link; every present name gets none.
func TestCreate_OneLinkPerAbsentName(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-h]{1,4}`), 0, 8, rapid.ID[string]).Draw(rt, "names")
		present := map[string]bool{}
		for _, n := range names {
			present[n] = rapid.Bool().Draw(rt, "present-"+n)
		}

		tmp, err := os.MkdirTemp("", "byht-linker-")
		if err != nil {
			rt.Fatalf("mkdtemp: %v", err)
		}
		defer os.RemoveAll(tmp)

		bin := filepath.Join(tmp, "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			rt.Fatalf("mkdir: %v", err)
		}
		scripts := map[string]string{}
		for _, n := range names {
			scripts[n] = "bin/" + n + ".sh"
			if present[n] {
				if err := os.WriteFile(filepath.Join(bin, n), []byte("pre"), 0o644); err != nil {
					rt.Fatalf("seed: %v", err)
				}
			}
		}

		res, err := Create(bin, filepath.Join(tmp, "pkg"), scripts)
		if err != nil {
			rt.Fatalf("Create: %v", err)
		}

		created := map[string]int{}
		for _, l := range res.Created {
			created[l.Name]++
		}
		for _, n := range names {
			want := 1
			if present[n] {
				want = 0
			}
			if created[n] != want {
				rt.Fatalf("%s: created %d links, want %d", n, created[n], want)
			}
			info, err := os.Lstat(filepath.Join(bin, n))
			if err != nil {
				rt.Fatalf("lstat %s: %v", n, err)
			}
			if isLink := info.Mode()&os.ModeSymlink != 0; isLink == present[n] {
				rt.Fatalf("%s: symlink=%v but present=%v", n, isLink, present[n])
			}
		}
		if len(res.Created)+len(res.Skipped) != len(names) {
			rt.Fatalf("created %d + skipped %d != %d", len(res.Created), len(res.Skipped), len(names))
		}
	})
}
