package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decadef20/knip/internal/manifest"
	"github.com/decadef20/knip/internal/workspace"
)

func TestResolveRelativeSpecifierHitsFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.ts"), []byte("export const a = 1;\n"), 0o644))

	r := newResolver(root, nil)
	res := r.resolve("./a", filepath.Join(root, "src"))
	require.Equal(t, ResolvedInternal, res.Kind)
	require.Equal(t, filepath.Join(root, "src", "a.ts"), res.AbsPath)
}

func TestResolveRelativeSpecifierMissingFileIsUnresolved(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	r := newResolver(root, nil)
	res := r.resolve("./missing", filepath.Join(root, "src"))
	require.Equal(t, Unresolved, res.Kind)
}

// A bare specifier naming a package that is neither declared by any
// workspace manifest nor present under node_modules must still resolve
// external, not Unresolved — an uninstalled or undeclared dependency is
// exactly what the classifier needs to see in order to report it.
func TestResolveBareSpecifierWithoutNodeModulesIsExternal(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	r := newResolver(root, nil)
	res := r.resolve("chalk", filepath.Join(root, "src"))
	require.Equal(t, ResolvedExternal, res.Kind)
	require.Equal(t, "chalk", res.Package)
}

func TestResolveBareSpecifierWithSubpathIsExternal(t *testing.T) {
	root := t.TempDir()

	r := newResolver(root, nil)
	res := r.resolve("lodash/debounce", root)
	require.Equal(t, ResolvedExternal, res.Kind)
	require.Equal(t, "lodash", res.Package)
	require.Equal(t, "debounce", res.Subpath)
}

func TestResolveScopedBareSpecifierIsExternal(t *testing.T) {
	root := t.TempDir()

	r := newResolver(root, nil)
	res := r.resolve("@scope/pkg/sub", root)
	require.Equal(t, ResolvedExternal, res.Kind)
	require.Equal(t, "@scope/pkg", res.Package)
	require.Equal(t, "sub", res.Subpath)
}

func TestResolveWorkspacePackageNameIsInternal(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg-a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg-a", "index.ts"), []byte("export const a = 1;\n"), 0o644))

	ws := &workspace.Workspace{
		Dir:      filepath.Join(root, "pkg-a"),
		Manifest: &manifest.Manifest{Name: "pkg-a", Main: "index.ts"},
	}
	r := newResolver(root, []*workspace.Workspace{ws})
	res := r.resolve("pkg-a", root)
	require.Equal(t, ResolvedInternal, res.Kind)
	require.Equal(t, filepath.Join(root, "pkg-a", "index.ts"), res.AbsPath)
}
