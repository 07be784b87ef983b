// Package issue implements the Issue Classifier (spec.md §4.7): set
// arithmetic over the project set, the built module graph, and the
// dependency/binary attributions to produce the six reportable issue
// categories, plus the `--include`/`--exclude` report filter and exit-code
// computation described in spec.md §6.
package issue

import (
	"path/filepath"
	"regexp"
	"sort"

	"github.com/decadef20/knip/internal/analyzer"
	"github.com/decadef20/knip/internal/binaries"
	"github.com/decadef20/knip/internal/config"
	"github.com/decadef20/knip/internal/depattr"
	"github.com/decadef20/knip/internal/globs"
	"github.com/decadef20/knip/internal/graph"
	"github.com/decadef20/knip/internal/project"
	"github.com/decadef20/knip/internal/workspace"
)

// ExportIssue is one unused export, class member, or enum member.
type ExportIssue struct {
	Workspace *workspace.Workspace
	RelPath   string // module path, relative to its workspace
	Module    *graph.Module
	Export    *graph.ExportRecord
}

// DependencyIssue is one unused or unlisted dependency.
type DependencyIssue struct {
	Workspace *workspace.Workspace
	Package   string
}

// BinaryIssue is one unlisted binary invocation.
type BinaryIssue struct {
	Workspace *workspace.Workspace
	Script    string
	Name      string
}

// Report is the classifier's output: the six issue categories, with
// unused exports split into its value/type, class-member, and enum-member
// variants per spec.md §4.7's "analogous, opt-in for class members,
// opt-out for enum members".
type Report struct {
	UnusedFiles           []*project.ProjectFile
	UnusedExports         []ExportIssue
	UnusedClassMembers    []ExportIssue
	UnusedEnumMembers     []ExportIssue
	UnusedDependencies    []DependencyIssue
	UnlistedDependencies  []DependencyIssue
	UnlistedBinaries      []BinaryIssue
}

// Input is everything the classifier needs, already produced by the
// earlier pipeline stages.
type Input struct {
	Workspaces       []*workspace.Workspace
	ProjectFiles     []*project.ProjectFile // every ProjectFile across every workspace
	Graph            *graph.Graph
	Attributions     []depattr.Attribution
	Binaries         []binaries.Invocation
	PluginReferences map[*workspace.Workspace][]string // plugin-contributed "known reference" package names
}

// Classify runs the set differences spec.md §4.7 describes and returns
// every category, unfiltered; the CLI layer applies ActiveKinds
// before rendering or computing the exit code.
func Classify(in Input) Report {
	var r Report

	reached := map[string]bool{}
	for _, m := range in.Graph.Modules() {
		reached[m.AbsPath] = true
	}
	for _, f := range in.ProjectFiles {
		if reached[f.AbsPath] {
			continue
		}
		if f.Workspace != nil && globs.MatchAny(globs.ParseAll(f.Workspace.Config.Ignore), f.RelPath) {
			continue
		}
		r.UnusedFiles = append(r.UnusedFiles, f)
	}
	sort.Slice(r.UnusedFiles, func(i, j int) bool {
		wi, wj := workspaceDir(r.UnusedFiles[i].Workspace), workspaceDir(r.UnusedFiles[j].Workspace)
		if wi != wj {
			return wi < wj
		}
		return r.UnusedFiles[i].RelPath < r.UnusedFiles[j].RelPath
	})

	referenced := referencedDependencies(in)

	for _, ws := range in.Workspaces {
		for _, dep := range ws.Manifest.AllDeclared() {
			if referenced[ws][dep] {
				continue
			}
			if matchesAnyPattern(ws.Config.IgnoreDependencies, dep) {
				continue
			}
			r.UnusedDependencies = append(r.UnusedDependencies, DependencyIssue{Workspace: ws, Package: dep})
		}
	}
	sortDependencyIssues(r.UnusedDependencies)

	unlistedSeen := map[*workspace.Workspace]map[string]bool{}
	for _, a := range in.Attributions {
		if a.Status != depattr.Unlisted {
			continue
		}
		ws := a.Workspace
		if matchesAnyPattern(ws.Config.IgnoreDependencies, a.Package) {
			continue
		}
		if unlistedSeen[ws] == nil {
			unlistedSeen[ws] = map[string]bool{}
		}
		if unlistedSeen[ws][a.Package] {
			continue
		}
		unlistedSeen[ws][a.Package] = true
		r.UnlistedDependencies = append(r.UnlistedDependencies, DependencyIssue{Workspace: ws, Package: a.Package})
	}
	sortDependencyIssues(r.UnlistedDependencies)

	binSeen := map[*workspace.Workspace]map[string]bool{}
	for _, inv := range in.Binaries {
		if inv.Resolution != binaries.ResolvedUnlisted {
			continue
		}
		if matchesAnyPattern(inv.Workspace.Config.IgnoreBinaries, inv.Name) {
			continue
		}
		key := inv.Script + "\x00" + inv.Name
		if binSeen[inv.Workspace] == nil {
			binSeen[inv.Workspace] = map[string]bool{}
		}
		if binSeen[inv.Workspace][key] {
			continue
		}
		binSeen[inv.Workspace][key] = true
		r.UnlistedBinaries = append(r.UnlistedBinaries, BinaryIssue{Workspace: inv.Workspace, Script: inv.Script, Name: inv.Name})
	}
	sort.Slice(r.UnlistedBinaries, func(i, j int) bool {
		wi, wj := workspaceDir(r.UnlistedBinaries[i].Workspace), workspaceDir(r.UnlistedBinaries[j].Workspace)
		if wi != wj {
			return wi < wj
		}
		if r.UnlistedBinaries[i].Script != r.UnlistedBinaries[j].Script {
			return r.UnlistedBinaries[i].Script < r.UnlistedBinaries[j].Script
		}
		return r.UnlistedBinaries[i].Name < r.UnlistedBinaries[j].Name
	})

	for _, m := range in.Graph.SortedModules() {
		if m.ParseFailed {
			continue
		}
		includeEntryExports := false
		if m.Workspace != nil {
			includeEntryExports = m.Workspace.Config.IncludeEntryExports
		}
		var ignoreUsedInFile config.IgnoreExportsUsedInFile
		if m.Workspace != nil {
			ignoreUsedInFile = m.Workspace.Config.IgnoreExportsUsedInFile
		}

		for _, rec := range m.Exports {
			if rec.ReexportWildcard {
				continue
			}
			used := rec.RefCount > 0
			if used && ignoreUsedInFile.Enabled(rec.Kind.String()) && onlySelfReferenced(rec, m) {
				used = false
			}
			if used {
				continue
			}
			if m.IsEntry && !includeEntryExports {
				continue
			}
			if rec.HasTag("public") || rec.HasTag("internal") {
				continue
			}

			ei := ExportIssue{Workspace: m.Workspace, RelPath: relToWorkspace(m), Module: m, Export: rec}
			switch rec.Kind {
			case analyzer.EnumMember:
				r.UnusedEnumMembers = append(r.UnusedEnumMembers, ei)
			case analyzer.ClassMember:
				r.UnusedClassMembers = append(r.UnusedClassMembers, ei)
			default:
				r.UnusedExports = append(r.UnusedExports, ei)
			}
		}
	}
	sortExportIssues(r.UnusedExports)
	sortExportIssues(r.UnusedClassMembers)
	sortExportIssues(r.UnusedEnumMembers)

	return r
}

// referencedDependencies computes, per workspace, the set of package
// names that count as referenced: listed attributions owned by that
// workspace, plugin-contributed references, and `@types/X` auto-linked to
// a referenced `X` (spec.md §4.5).
func referencedDependencies(in Input) map[*workspace.Workspace]map[string]bool {
	referenced := map[*workspace.Workspace]map[string]bool{}
	mark := func(ws *workspace.Workspace, pkg string) {
		if ws == nil {
			return
		}
		if referenced[ws] == nil {
			referenced[ws] = map[string]bool{}
		}
		referenced[ws][pkg] = true
	}

	for _, a := range in.Attributions {
		if a.Status == depattr.Listed {
			mark(a.Workspace, a.Package)
		}
	}
	for ws, refs := range in.PluginReferences {
		for _, ref := range refs {
			mark(ws, ref)
		}
	}

	for _, ws := range in.Workspaces {
		for _, dep := range ws.Manifest.AllDeclared() {
			base, ok := depattr.TypesPackageBase(dep)
			if !ok {
				continue
			}
			if referenced[ws][base] {
				mark(ws, dep)
			}
		}
	}
	return referenced
}

// onlySelfReferenced reports whether every recorded referrer of rec is m
// itself — the "only consumers are in the same file" condition
// ignoreExportsUsedInFile tests for.
func onlySelfReferenced(rec *graph.ExportRecord, m *graph.Module) bool {
	if len(rec.Referrers) == 0 {
		return false
	}
	for _, ref := range rec.Referrers {
		if ref != m {
			return false
		}
	}
	return true
}

// matchesAnyPattern reports whether name matches any pattern in pats,
// either as an exact literal or as a regular expression (spec.md §6:
// "exact names or regular expressions").
func matchesAnyPattern(pats []string, name string) bool {
	for _, p := range pats {
		if p == name {
			return true
		}
		if re, err := regexp.Compile(p); err == nil && re.MatchString(name) {
			return true
		}
	}
	return false
}

func workspaceDir(ws *workspace.Workspace) string {
	if ws == nil {
		return ""
	}
	return ws.Dir
}

func relToWorkspace(m *graph.Module) string {
	if m.Workspace == nil {
		return m.AbsPath
	}
	rel, err := filepath.Rel(m.Workspace.Dir, m.AbsPath)
	if err != nil {
		return m.AbsPath
	}
	return filepath.ToSlash(rel)
}

func sortDependencyIssues(deps []DependencyIssue) {
	sort.Slice(deps, func(i, j int) bool {
		wi, wj := workspaceDir(deps[i].Workspace), workspaceDir(deps[j].Workspace)
		if wi != wj {
			return wi < wj
		}
		return deps[i].Package < deps[j].Package
	})
}

func sortExportIssues(issues []ExportIssue) {
	sort.Slice(issues, func(i, j int) bool {
		wi, wj := workspaceDir(issues[i].Workspace), workspaceDir(issues[j].Workspace)
		if wi != wj {
			return wi < wj
		}
		if issues[i].RelPath != issues[j].RelPath {
			return issues[i].RelPath < issues[j].RelPath
		}
		return issues[i].Export.ExternalName < issues[j].Export.ExternalName
	})
}
