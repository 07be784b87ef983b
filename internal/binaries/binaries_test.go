package binaries

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decadef20/knip/internal/manifest"
	"github.com/decadef20/knip/internal/workspace"
)

// S5. Script "lint": "eslint ." with eslint absent from the installed
// bins set is unlisted; "fmt": "npx --yes prettier ." is intentionally
// unlisted regardless of whether prettier is installed.
func TestScanUnlistedAndIntentionallyUnlistedBinaries(t *testing.T) {
	ws := &workspace.Workspace{
		Dir: "/repo",
		Manifest: &manifest.Manifest{
			Scripts: map[string]string{
				"lint": "eslint .",
				"fmt":  "npx --yes prettier .",
			},
		},
	}

	out := Scan(ws, map[string]bool{})
	require.Len(t, out, 2)

	byScript := map[string]Invocation{}
	for _, inv := range out {
		byScript[inv.Script] = inv
	}

	require.Equal(t, "eslint", byScript["lint"].Name)
	require.Equal(t, ResolvedUnlisted, byScript["lint"].Resolution)

	require.Equal(t, "prettier", byScript["fmt"].Name)
	require.True(t, byScript["fmt"].IntentionallyUnlisted)
	require.Equal(t, ResolvedIgnored, byScript["fmt"].Resolution)
}

func TestScanResolvesInstalledBinary(t *testing.T) {
	ws := &workspace.Workspace{
		Dir:      "/repo",
		Manifest: &manifest.Manifest{Scripts: map[string]string{"lint": "eslint ."}},
	}
	out := Scan(ws, map[string]bool{"eslint": true})
	require.Len(t, out, 1)
	require.Equal(t, ResolvedInstalled, out[0].Resolution)
}

func TestScanIgnoresGlobalShellBuiltins(t *testing.T) {
	ws := &workspace.Workspace{
		Dir:      "/repo",
		Manifest: &manifest.Manifest{Scripts: map[string]string{"clean": "rm -rf dist && mkdir dist"}},
	}
	out := Scan(ws, map[string]bool{})
	require.Len(t, out, 2)
	for _, inv := range out {
		require.Equal(t, ResolvedIgnored, inv.Resolution)
	}
}

func TestScanUnwrapsPackageManagerExec(t *testing.T) {
	ws := &workspace.Workspace{
		Dir:      "/repo",
		Manifest: &manifest.Manifest{Scripts: map[string]string{"lint": "pnpm exec eslint ."}},
	}
	out := Scan(ws, map[string]bool{})
	require.Len(t, out, 1)
	require.Equal(t, "eslint", out[0].Name)
}
