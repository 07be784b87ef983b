package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decadef20/knip/internal/config"
	"github.com/decadef20/knip/internal/diag"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestEnumerateIntegratedMonorepoModeReturnsSingleWorkspace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name": "root"}`)

	out, err := Enumerate(root, nil, diag.New())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, ".", out[0].RelDir(root))
}

func TestEnumerateDiscoversPackagesDeepestFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name": "root", "workspaces": ["packages/*"]}`)
	writeFile(t, root, "packages/pkg-a/package.json", `{"name": "pkg-a"}`)
	writeFile(t, root, "packages/pkg-b/package.json", `{"name": "pkg-b"}`)

	out, err := Enumerate(root, nil, diag.New())
	require.NoError(t, err)
	require.Len(t, out, 3)

	// Deepest-first: the root workspace (depth 0) must be last.
	require.Equal(t, ".", out[len(out)-1].RelDir(root))
	for _, w := range out[:len(out)-1] {
		require.Equal(t, out[len(out)-1], w.Parent)
	}
}

func TestEnumerateLayersPerWorkspaceConfigOverride(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name": "root", "workspaces": ["packages/*"]}`)
	writeFile(t, root, "packages/pkg-a/package.json", `{"name": "pkg-a"}`)

	rootCfg := &config.Normalized{
		Entry: []string{"src/index.ts"},
		Workspaces: map[string]*config.Normalized{
			"packages/pkg-a": {Entry: []string{"src/a-entry.ts"}},
		},
	}
	out, err := Enumerate(root, rootCfg, diag.New())
	require.NoError(t, err)

	var pkgA *Workspace
	for _, w := range out {
		if w.RelDir(root) == "packages/pkg-a" {
			pkgA = w
		}
	}
	require.NotNil(t, pkgA)
	require.Equal(t, []string{"src/a-entry.ts"}, pkgA.Config.Entry)
}

func TestAncestorsWalksParentChain(t *testing.T) {
	root := &Workspace{Dir: "/repo"}
	mid := &Workspace{Dir: "/repo/packages/mid", Parent: root}
	leaf := &Workspace{Dir: "/repo/packages/mid/leaf", Parent: mid}

	require.Equal(t, []*Workspace{mid, root}, leaf.Ancestors())
	require.Equal(t, 2, leaf.Depth())
	require.Equal(t, 0, root.Depth())
}

func TestOwnerPicksDeepestContainingWorkspace(t *testing.T) {
	root := &Workspace{Dir: "/repo"}
	pkgA := &Workspace{Dir: "/repo/packages/pkg-a", Parent: root}
	all := []*Workspace{root, pkgA}

	require.Equal(t, pkgA, Owner(all, "/repo/packages/pkg-a/src/index.ts"))
	require.Equal(t, root, Owner(all, "/repo/src/index.ts"))
}
