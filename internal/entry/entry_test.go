package entry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decadef20/knip/internal/manifest"
	"github.com/decadef20/knip/internal/plugin"
	"github.com/decadef20/knip/internal/project"
	"github.com/decadef20/knip/internal/workspace"
)

func TestSeedPromotesManifestMainBinAndExports(t *testing.T) {
	ws := &workspace.Workspace{
		Dir: "/repo",
		Manifest: &manifest.Manifest{
			Main: "lib/index.js",
			Bin:  map[string]string{"mycli": "bin/cli.js"},
		},
	}
	set := &project.Set{Workspace: ws, Files: make(map[string]*project.ProjectFile)}

	Seed(ws, set, plugin.Result{})

	require.True(t, set.Contains("/repo/lib/index.js"))
	require.Equal(t, project.OriginManifestEntry, set.Files["/repo/lib/index.js"].Origin)
	require.True(t, set.Contains("/repo/bin/cli.js"))
	require.Equal(t, project.OriginManifestEntry, set.Files["/repo/bin/cli.js"].Origin)
}

func TestSeedPromotesPluginEntriesAndProjectAdd(t *testing.T) {
	ws := &workspace.Workspace{Dir: "/repo", Manifest: &manifest.Manifest{}}
	set := &project.Set{Workspace: ws, Files: make(map[string]*project.ProjectFile)}

	Seed(ws, set, plugin.Result{
		Entries:    []string{"jest.setup.ts"},
		ProjectAdd: []string{"webpack.config.js"},
	})

	require.Equal(t, project.OriginPluginEntry, set.Files["/repo/jest.setup.ts"].Origin)
	require.Equal(t, project.OriginProject, set.Files["/repo/webpack.config.js"].Origin)
}

func TestFilesExcludesPlainProjectOrigin(t *testing.T) {
	ws := &workspace.Workspace{Dir: "/repo"}
	set := &project.Set{Workspace: ws, Files: make(map[string]*project.ProjectFile)}
	set.Promote("/repo/src/a.ts", "src/a.ts", project.OriginProject)
	set.Promote("/repo/src/index.ts", "src/index.ts", project.OriginEntry)

	out := Files(set)
	require.Len(t, out, 1)
	require.Equal(t, "src/index.ts", out[0].RelPath)
}
