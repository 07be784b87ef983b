// Package entry implements the Entry Seeder (spec.md §2 step 4, §4.4's
// input): forms the entry set E = user-declared entries ∪ manifest-
// declared entries (main, bin, exports) ∪ plugin-contributed entries, all
// constrained to P. User-declared entries are already folded into P by
// project.Collect (they're just `entry`-glob matches); this package adds
// the other two sources by promoting them into the same project.Set.
package entry

import (
	"path/filepath"

	"github.com/decadef20/knip/internal/plugin"
	"github.com/decadef20/knip/internal/project"
	"github.com/decadef20/knip/internal/workspace"
)

// Seed mutates set in place, promoting manifest-declared and plugin-
// contributed entries into it.
func Seed(ws *workspace.Workspace, set *project.Set, pluginResult plugin.Result) {
	addRel := func(rel string, origin project.Origin) {
		rel = filepath.ToSlash(filepath.Clean(rel))
		abs := filepath.Join(ws.Dir, rel)
		set.Promote(abs, rel, origin)
	}

	if ws.Manifest.Main != "" {
		addRel(ws.Manifest.Main, project.OriginManifestEntry)
	}
	for _, target := range ws.Manifest.Bin {
		addRel(target, project.OriginManifestEntry)
	}
	for _, rel := range ws.Manifest.ExportPaths() {
		addRel(rel, project.OriginManifestEntry)
	}
	for _, rel := range pluginResult.Entries {
		addRel(rel, project.OriginPluginEntry)
	}
	for _, rel := range pluginResult.ProjectAdd {
		addRel(rel, project.OriginProject)
	}
}

// Files returns every file in set whose origin marks it as an entry
// (user-, manifest-, or plugin-declared) — the set the graph builder
// seeds its traversal from.
func Files(set *project.Set) []*project.ProjectFile {
	var out []*project.ProjectFile
	for _, f := range set.Sorted() {
		if f.Origin != project.OriginProject {
			out = append(out, f)
		}
	}
	return out
}
