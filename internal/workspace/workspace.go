// Package workspace implements the Workspace Enumerator (spec.md §4.1):
// discovers the workspace tree rooted at the run directory using the root
// manifest's workspace globs, loads each sub-manifest, and layers
// configuration from root down to each workspace.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/decadef20/knip/internal/config"
	"github.com/decadef20/knip/internal/diag"
	"github.com/decadef20/knip/internal/globs"
	"github.com/decadef20/knip/internal/manifest"
)

// Workspace is a directory with its own manifest participating in the
// monorepo, plus its effective (root-merged) configuration.
type Workspace struct {
	Dir      string // absolute
	Manifest *manifest.Manifest
	Config   *config.Normalized

	Parent   *Workspace
	Children []*Workspace
}

// RelDir returns dir relative to the enumeration root, "/"-separated, or
// "." for the root workspace itself.
func (w *Workspace) RelDir(root string) string {
	rel, err := filepath.Rel(root, w.Dir)
	if err != nil {
		return filepath.ToSlash(w.Dir)
	}
	rel = filepath.ToSlash(rel)
	if rel == "" {
		return "."
	}
	return rel
}

// Ancestors returns w's ancestor chain starting with its immediate parent,
// ending at the root workspace.
func (w *Workspace) Ancestors() []*Workspace {
	var out []*Workspace
	for p := w.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// Depth returns the number of ancestors (0 for the root workspace).
func (w *Workspace) Depth() int { return len(w.Ancestors()) }

// Enumerate discovers the workspace tree rooted at rootDir. rootConfig is
// the already-loaded root configuration document (nil is treated as
// empty); it is layered onto every workspace per spec.md §4.1.
//
// The returned list is ordered so that any workspace appears before its
// ancestors (spec.md §4.1's contract — "This ordering matters only for
// dependency attribution, closer workspaces bind first").
func Enumerate(rootDir string, rootConfig *config.Normalized, d *diag.Collector) ([]*Workspace, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}

	rootManifestPath := filepath.Join(absRoot, "package.json")
	rootData, err := os.ReadFile(rootManifestPath)
	if err != nil {
		return nil, fmt.Errorf("workspace: root manifest missing at %s: %w", rootManifestPath, err)
	}
	rootManifest, err := manifest.Parse(rootData)
	if err != nil {
		return nil, fmt.Errorf("workspace: root manifest: %w", err)
	}

	root := &Workspace{
		Dir:      absRoot,
		Manifest: rootManifest,
		Config:   configFor(rootConfig, "."),
	}

	// Integrated-monorepo mode: no workspace globs, a single workspace
	// whose project set spans the repo (spec.md §4.1).
	if len(rootManifest.Workspaces) == 0 {
		return []*Workspace{root}, nil
	}

	dirs, err := globs.Expand(absRoot, globs.ParseAll(withManifestSuffix(rootManifest.Workspaces)))
	if err != nil {
		return nil, fmt.Errorf("workspace: expanding workspace globs: %w", err)
	}

	all := []*Workspace{root}
	seen := map[string]bool{absRoot: true}

	sort.Strings(dirs)
	for _, relManifest := range dirs {
		dir := filepath.Dir(filepath.Join(absRoot, relManifest))
		if seen[dir] {
			continue
		}
		seen[dir] = true

		data, err := os.ReadFile(filepath.Join(dir, "package.json"))
		if err != nil {
			d.Add(diag.WorkspaceWarning, dir, fmt.Sprintf("manifest missing or unreadable: %v", err))
			continue
		}
		m, err := manifest.Parse(data)
		if err != nil {
			d.Add(diag.WorkspaceWarning, dir, fmt.Sprintf("manifest unreadable: %v", err))
			continue
		}

		parent := nearestAncestor(all, dir, absRoot)
		ws := &Workspace{
			Dir:      dir,
			Manifest: m,
			Config:   configFor(rootConfig, relPath(absRoot, dir)),
			Parent:   parent,
		}
		if parent != nil {
			parent.Children = append(parent.Children, ws)
		}
		all = append(all, ws)
	}

	return orderDeepestFirst(all), nil
}

// withManifestSuffix turns workspace-directory globs into manifest-file
// globs, so a single globs.Expand call can locate them the same way
// project/entry globs are expanded elsewhere.
func withManifestSuffix(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSuffix(p, "/")
		out = append(out, p+"/package.json")
	}
	return out
}

func relPath(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return dir
	}
	return filepath.ToSlash(rel)
}

// configFor extracts the per-workspace override (if any) from the root
// config's `workspaces` map and merges it onto the root-level config.
func configFor(rootConfig *config.Normalized, relDir string) *config.Normalized {
	if rootConfig == nil {
		return &config.Normalized{}
	}
	override, ok := rootConfig.Workspaces[relDir]
	if !ok {
		clone := *rootConfig
		clone.Workspaces = nil
		return &clone
	}
	return config.Merge(rootConfig, override)
}

// nearestAncestor finds the deepest already-registered workspace whose
// directory is an ancestor of dir.
func nearestAncestor(all []*Workspace, dir, root string) *Workspace {
	var best *Workspace
	bestLen := -1
	for _, w := range all {
		if w.Dir == dir {
			continue
		}
		if !isAncestorDir(w.Dir, dir) {
			continue
		}
		if len(w.Dir) > bestLen {
			best = w
			bestLen = len(w.Dir)
		}
	}
	if best == nil {
		return nil
	}
	return best
}

func isAncestorDir(ancestor, dir string) bool {
	rel, err := filepath.Rel(ancestor, dir)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

// orderDeepestFirst sorts workspaces so every workspace precedes its
// ancestors, breaking ties by directory for determinism.
func orderDeepestFirst(all []*Workspace) []*Workspace {
	out := append([]*Workspace(nil), all...)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Depth(), out[j].Depth()
		if di != dj {
			return di > dj
		}
		return out[i].Dir < out[j].Dir
	})
	return out
}

// Owner returns the deepest workspace among ws whose directory is an
// ancestor of (or equal to) absPath — i.e. the workspace that owns the
// file at absPath (spec.md §3's "deepest whose root is an ancestor"
// invariant).
func Owner(ws []*Workspace, absPath string) *Workspace {
	var best *Workspace
	bestLen := -1
	for _, w := range ws {
		if w.Dir == absPath || isAncestorDir(w.Dir, absPath) {
			if len(w.Dir) > bestLen {
				best = w
				bestLen = len(w.Dir)
			}
		}
	}
	return best
}
