// Package project implements the Project-File Collector (spec.md §4.2):
// expands a workspace's `project` globs minus negated patterns into the
// project set P, expands `entry` patterns the same way, and promotes any
// entry that fell outside P into it.
package project

import (
	"path/filepath"
	"sort"

	"github.com/decadef20/knip/internal/globs"
	"github.com/decadef20/knip/internal/workspace"
)

// Origin tags how a ProjectFile entered the project set.
type Origin int

const (
	OriginProject Origin = iota
	OriginEntry
	OriginPluginEntry
	OriginManifestEntry
)

// ProjectFile is a file eligible for analysis and reporting. Origin may be
// upgraded later (project -> entry) as plugins and the entry seeder run.
type ProjectFile struct {
	AbsPath   string
	RelPath   string // workspace-relative, "/"-separated
	Workspace *workspace.Workspace
	Origin    Origin
}

// Set is the project set for one workspace, keyed by absolute path for
// O(1) membership tests and upgrades.
type Set struct {
	Workspace *workspace.Workspace
	Files     map[string]*ProjectFile // key: AbsPath
}

// Contains reports whether absPath is in the project set.
func (s *Set) Contains(absPath string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Files[absPath]
	return ok
}

// Promote marks absPath as an entry, inserting it into the set if it
// wasn't already a member (spec.md §4.2: "entries must lie in P or they
// are silently promoted into it").
func (s *Set) Promote(absPath, relPath string, origin Origin) {
	if f, ok := s.Files[absPath]; ok {
		if f.Origin == OriginProject && origin != OriginProject {
			f.Origin = origin
		}
		return
	}
	s.Files[absPath] = &ProjectFile{
		AbsPath:   absPath,
		RelPath:   relPath,
		Workspace: s.Workspace,
		Origin:    origin,
	}
}

// Sorted returns the project set's files ordered by relative path, for
// deterministic downstream processing.
func (s *Set) Sorted() []*ProjectFile {
	out := make([]*ProjectFile, 0, len(s.Files))
	for _, f := range s.Files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out
}

// Collect expands ws's `project` and `entry` globs into a Set, applying the
// entry-wins-over-negated-project edge case from spec.md §4.2 and excluding
// gitignored paths unless the workspace config opts out via `ignore`
// (a path that matches a config `ignore` pattern is, by construction,
// something the user wants back in the project set — so "ignore" patterns
// are treated as gitignore overrides here, resolving the open question
// named in spec.md §9 the same way: more specific wins).
func Collect(ws *workspace.Workspace, gi *GitignoreMatcher) *Set {
	set := &Set{Workspace: ws, Files: make(map[string]*ProjectFile)}

	projectPats := globs.ParseAll(ws.Config.Project)
	entryPats := globs.ParseAll(ws.Config.Entry)

	var positives, negatives []globs.Pattern
	for _, p := range projectPats {
		if p.Negated {
			negatives = append(negatives, p)
		} else {
			positives = append(positives, p)
		}
	}

	entryMatched, _ := globs.Expand(ws.Dir, entryPats)
	entrySet := make(map[string]bool, len(entryMatched))
	for _, rel := range entryMatched {
		entrySet[rel] = true
	}

	projectMatched, _ := globs.Expand(ws.Dir, append(append([]globs.Pattern{}, positives...)))
	ignorePats := globs.ParseAll(ws.Config.Ignore)

	add := func(rel string, origin Origin) {
		abs := filepath.Join(ws.Dir, rel)
		set.Promote(abs, rel, origin)
	}

	for _, rel := range projectMatched {
		negated := globs.MatchAny(negatives, rel)
		isEntry := entrySet[rel]
		if negated && !isEntry {
			continue // dropped by negated project pattern, and entry doesn't override
		}
		if gi != nil && gi.Ignored(rel) && !globs.MatchAny(ignorePats, rel) {
			continue
		}
		if isEntry {
			add(rel, OriginEntry)
		} else {
			add(rel, OriginProject)
		}
	}

	// Entries outside the positive project-glob match are promoted in
	// regardless of the negated-project / gitignore exclusions above —
	// "entry wins" per spec.md §4.2.
	for rel := range entrySet {
		add(rel, OriginEntry)
	}

	return set
}
