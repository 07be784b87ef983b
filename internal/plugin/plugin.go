// Package plugin implements the Plugin Host (spec.md §4.3): a compile-time
// table of plugin records (per the design note in spec.md §9 — "re-
// architect as a compile-time table... built once at program start") that,
// for each workspace, locates a third-party tool's config files, extracts
// additional entries/references/ignores from them, and merges the result
// into that workspace's effective entry set.
//
// The table itself directly adapts the teacher's phase registry
// (internal/runner/registry.go's SpecResolver / MapResolver /
// MergeRegistries): a Plugin record plays the role of a PhaseSpec, Resolve
// plays the role of Run, and the enabler predicate plays the role of the
// teacher's manifest-driven auto-enable checks.
package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/decadef20/knip/internal/config"
	"github.com/decadef20/knip/internal/diag"
	"github.com/decadef20/knip/internal/globs"
	"github.com/decadef20/knip/internal/manifest"
)

// Doc is the parsed-enough view of a plugin's config file handed to
// Resolve. Real tool configs are often JS, not JSON, so Raw is kept as
// text; a plugin's Resolve implementation is expected to pattern-match
// over it rather than assume a structured document.
type Doc struct {
	Path string
	Raw  []byte
}

// Contributions is what a plugin's Resolve call may add, per spec.md §4.3.
type Contributions struct {
	Entries    []string // workspace-relative paths
	References []string // external package names this tool implicitly needs
	Ignores    []string // extra ignore glob patterns
}

// Plugin is a declarative record teaching the host where one third-party
// tool keeps its config/entry/project files and how to read them.
type Plugin struct {
	Name string

	// Enabler auto-enables the plugin when it returns true for the
	// workspace's manifest (typically: "does any dependency kind declare
	// this package name").
	Enabler func(m *manifest.Manifest) bool

	ConfigGlobs  []string
	EntryGlobs   []string
	ProjectGlobs []string

	Resolve func(doc Doc) (Contributions, error)
}

// Registry is the compile-time, ordered plugin table. Order matters for
// the config-file-ownership conflict policy (spec.md §9): earlier entries
// win ties.
type Registry struct {
	plugins []Plugin
}

// NewRegistry builds a registry from an ordered plugin list.
func NewRegistry(plugins ...Plugin) *Registry {
	return &Registry{plugins: plugins}
}

// Names returns every registered plugin's name, in table order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p.Name)
	}
	return out
}

// Result is the merged contribution for one workspace, plus which config
// files each enabled plugin actually consumed (useful for tests/debugging
// and for the "known plugin references" list spec.md §4.3 calls for).
type Result struct {
	Entries    []string
	References []string
	Ignores    []string
	ProjectAdd []string // additional project-glob-equivalent files to include in P
	Enabled    []string // plugin names that ran
}

// Run enables and runs every applicable plugin for one workspace's
// directory + manifest, merging their contributions per the conflict
// policy: a config file already claimed by an earlier plugin is skipped
// (with a PluginWarning) rather than double-processed, and a duplicate
// entry/reference/ignore contributed by two plugins is deduplicated.
func (r *Registry) Run(dir string, m *manifest.Manifest, overrides map[string]config.PluginOverride, d *diag.Collector) Result {
	entries := map[string]bool{}
	refs := map[string]bool{}
	ignores := map[string]bool{}
	projectAdd := map[string]bool{}
	var enabled []string

	claimedConfigFiles := map[string]string{} // config path -> plugin name that claimed it

	for _, p := range r.plugins {
		ov := overrides[p.Name]
		if !isEnabled(p, m, ov) {
			continue
		}

		configGlobs := p.ConfigGlobs
		if len(ov.Config) > 0 {
			configGlobs = ov.Config
		}
		entryGlobs := p.EntryGlobs
		if len(ov.Entry) > 0 {
			entryGlobs = ov.Entry
		}
		projectGlobs := p.ProjectGlobs
		if len(ov.Project) > 0 {
			projectGlobs = ov.Project
		}

		configFiles, _ := globs.Expand(dir, globs.ParseAll(configGlobs))
		entryFiles, _ := globs.Expand(dir, globs.ParseAll(entryGlobs))
		projFiles, _ := globs.Expand(dir, globs.ParseAll(projectGlobs))

		ran := false
		for _, rel := range configFiles {
			if owner, taken := claimedConfigFiles[rel]; taken {
				d.Add(diag.PluginWarning, rel, fmt.Sprintf("config file already claimed by plugin %q, skipping %q", owner, p.Name))
				continue
			}
			claimedConfigFiles[rel] = p.Name

			data, err := os.ReadFile(filepath.Join(dir, rel))
			if err != nil {
				d.Add(diag.PluginWarning, rel, fmt.Sprintf("plugin %q: unreadable config: %v", p.Name, err))
				continue
			}
			contrib, err := p.Resolve(Doc{Path: rel, Raw: data})
			if err != nil {
				d.Add(diag.PluginWarning, rel, fmt.Sprintf("plugin %q: %v", p.Name, err))
				continue
			}
			ran = true
			for _, e := range contrib.Entries {
				entries[e] = true
			}
			for _, ref := range contrib.References {
				refs[ref] = true
			}
			for _, ig := range contrib.Ignores {
				ignores[ig] = true
			}
		}

		for _, e := range entryFiles {
			entries[e] = true
			ran = true
		}
		for _, pf := range projFiles {
			projectAdd[pf] = true
		}

		if ran {
			enabled = append(enabled, p.Name)
		}
	}

	return Result{
		Entries:    sortedKeys(entries),
		References: sortedKeys(refs),
		Ignores:    sortedKeys(ignores),
		ProjectAdd: sortedKeys(projectAdd),
		Enabled:    enabled,
	}
}

func isEnabled(p Plugin, m *manifest.Manifest, ov config.PluginOverride) bool {
	if ov.Enabled != nil {
		return *ov.Enabled
	}
	if p.Enabler == nil {
		return false
	}
	return p.Enabler(m)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EnablerForPackages returns an Enabler matching any of the given package
// names under any dependency kind.
func EnablerForPackages(names ...string) func(*manifest.Manifest) bool {
	return func(m *manifest.Manifest) bool {
		for _, n := range names {
			if m.Declares(n) {
				return true
			}
		}
		return false
	}
}
