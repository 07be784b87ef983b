package libscan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decadef20/knip/internal/graph"
	"github.com/decadef20/knip/internal/workspace"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanFindsOwnTypesField(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/chalk/package.json", `{"name": "chalk", "types": "index.d.ts"}`)
	writeFile(t, root, "src/index.ts", "")

	ws := &workspace.Workspace{Dir: root}
	referrer := &graph.Module{AbsPath: filepath.Join(root, "src/index.ts"), Workspace: ws}

	out := Scan([]graph.ExternalRef{{Package: "chalk", Referrer: referrer}})
	require.Len(t, out, 1)
	require.True(t, out[0].HasTypes)
}

func TestScanFindsTypesSiblingPackage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/lodash/package.json", `{"name": "lodash"}`)
	writeFile(t, root, "node_modules/@types/lodash/package.json", `{"name": "@types/lodash", "types": "index.d.ts"}`)

	ws := &workspace.Workspace{Dir: root}
	referrer := &graph.Module{AbsPath: filepath.Join(root, "src/index.ts"), Workspace: ws}

	out := Scan([]graph.ExternalRef{{Package: "lodash", Referrer: referrer}})
	require.Len(t, out, 1)
	require.True(t, out[0].HasTypes)
}

func TestScanReportsNoTypesWhenNeitherPresent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/left-pad/package.json", `{"name": "left-pad"}`)

	ws := &workspace.Workspace{Dir: root}
	referrer := &graph.Module{AbsPath: filepath.Join(root, "src/index.ts"), Workspace: ws}

	out := Scan([]graph.ExternalRef{{Package: "left-pad", Referrer: referrer}})
	require.Len(t, out, 1)
	require.False(t, out[0].HasTypes)
}

func TestScanDeduplicatesByWorkspaceAndPackage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/chalk/package.json", `{"name": "chalk", "types": "index.d.ts"}`)

	ws := &workspace.Workspace{Dir: root}
	a := &graph.Module{AbsPath: filepath.Join(root, "src/a.ts"), Workspace: ws}
	b := &graph.Module{AbsPath: filepath.Join(root, "src/b.ts"), Workspace: ws}

	out := Scan([]graph.ExternalRef{
		{Package: "chalk", Referrer: a},
		{Package: "chalk", Referrer: b},
	})
	require.Len(t, out, 1)
}
