package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decadef20/knip/internal/config"
	"github.com/decadef20/knip/internal/workspace"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollectAppliesProjectAndEntryGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.ts", "")
	writeFile(t, root, "src/b.ts", "")
	writeFile(t, root, "src/index.ts", "")

	ws := &workspace.Workspace{
		Dir: root,
		Config: &config.Normalized{
			Project: []string{"src/**/*.ts"},
			Entry:   []string{"src/index.ts"},
		},
	}
	set := Collect(ws, nil)

	a, ok := set.Files[filepath.Join(root, "src/a.ts")]
	require.True(t, ok)
	require.Equal(t, OriginProject, a.Origin)

	idx, ok := set.Files[filepath.Join(root, "src/index.ts")]
	require.True(t, ok)
	require.Equal(t, OriginEntry, idx.Origin)
}

// spec.md §4.2: an entry outside the positive project-glob match is
// promoted into the set regardless.
func TestCollectPromotesEntryOutsideProjectGlob(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bin/cli.ts", "")
	writeFile(t, root, "src/a.ts", "")

	ws := &workspace.Workspace{
		Dir: root,
		Config: &config.Normalized{
			Project: []string{"src/**/*.ts"},
			Entry:   []string{"bin/cli.ts"},
		},
	}
	set := Collect(ws, nil)

	cli, ok := set.Files[filepath.Join(root, "bin/cli.ts")]
	require.True(t, ok)
	require.Equal(t, OriginEntry, cli.Origin)
}

// A negated project pattern drops a file from the set unless it's also an
// entry.
func TestCollectNegatedProjectPatternExcludesFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.ts", "")
	writeFile(t, root, "src/a.test.ts", "")

	ws := &workspace.Workspace{
		Dir: root,
		Config: &config.Normalized{
			Project: []string{"src/**/*.ts", "!src/**/*.test.ts"},
		},
	}
	set := Collect(ws, nil)

	require.True(t, set.Contains(filepath.Join(root, "src/a.ts")))
	require.False(t, set.Contains(filepath.Join(root, "src/a.test.ts")))
}

// A config `ignore` pattern re-includes a path gitignore would otherwise
// drop.
func TestCollectIgnorePatternOverridesGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "dist/\n")
	writeFile(t, root, "dist/generated.ts", "")

	ws := &workspace.Workspace{
		Dir: root,
		Config: &config.Normalized{
			Project: []string{"dist/**/*.ts"},
			Ignore:  []string{"dist/**/*.ts"},
		},
	}
	gi := LoadGitignore(root, root)
	require.True(t, gi.Ignored("dist/generated.ts"))

	set := Collect(ws, gi)
	require.True(t, set.Contains(filepath.Join(root, "dist/generated.ts")))
}

func TestCollectExcludesGitignoredFilesByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "dist/\n")
	writeFile(t, root, "dist/generated.ts", "")
	writeFile(t, root, "src/a.ts", "")

	ws := &workspace.Workspace{
		Dir:    root,
		Config: &config.Normalized{Project: []string{"**/*.ts"}},
	}
	gi := LoadGitignore(root, root)
	set := Collect(ws, gi)

	require.True(t, set.Contains(filepath.Join(root, "src/a.ts")))
	require.False(t, set.Contains(filepath.Join(root, "dist/generated.ts")))
}

func TestSetPromoteUpgradesExistingProjectFileToEntry(t *testing.T) {
	set := &Set{Files: make(map[string]*ProjectFile)}
	set.Promote("/repo/src/a.ts", "src/a.ts", OriginProject)
	set.Promote("/repo/src/a.ts", "src/a.ts", OriginEntry)

	require.Equal(t, OriginEntry, set.Files["/repo/src/a.ts"].Origin)
}
