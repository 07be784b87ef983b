// Package report renders a classified issue.Report. spec.md lists
// "terminal rendering, JSON/Markdown report formatters" as out-of-scope
// external collaborators (§1) — the pluggable reporter framework itself is
// not part of this core — so this package ships exactly the two simplest
// formats needed to drive the CLI end to end: a plain-text listing and a
// JSON dump, not a plugin system of report formatters.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/decadef20/knip/internal/issue"
	"github.com/decadef20/knip/internal/project"
	"github.com/decadef20/knip/internal/workspace"
)

// Render writes rep, restricted to active's kinds, to w in the requested
// format ("json" or anything else for plain text). rootDir is used to
// render workspace labels relative to the run directory.
func Render(w io.Writer, rootDir string, rep issue.Report, active map[issue.Kind]bool, format string) error {
	if format == "json" {
		return renderJSON(w, rootDir, rep, active)
	}
	return renderText(w, rootDir, rep, active)
}

func renderText(w io.Writer, rootDir string, rep issue.Report, active map[issue.Kind]bool) error {
	total := 0

	if active[issue.KindFiles] {
		total += writeFileSection(w, rootDir, "Unused files", rep.UnusedFiles)
	}
	if active[issue.KindExports] {
		total += writeExportSection(w, rootDir, "Unused exports", rep.UnusedExports)
	}
	if active[issue.KindClassMembers] {
		total += writeExportSection(w, rootDir, "Unused class members", rep.UnusedClassMembers)
	}
	if active[issue.KindEnumMembers] {
		total += writeExportSection(w, rootDir, "Unused enum members", rep.UnusedEnumMembers)
	}
	if active[issue.KindDependencies] {
		total += writeDependencySection(w, rootDir, "Unused dependencies", rep.UnusedDependencies)
	}
	if active[issue.KindUnlistedDependencies] {
		total += writeDependencySection(w, rootDir, "Unlisted dependencies", rep.UnlistedDependencies)
	}
	if active[issue.KindUnlistedBinaries] {
		total += writeBinarySection(w, rootDir, "Unlisted binaries", rep.UnlistedBinaries)
	}

	if total == 0 {
		fmt.Fprintln(w, "No issues found.")
	}
	return nil
}

func writeFileSection(w io.Writer, rootDir, title string, files []*project.ProjectFile) int {
	if len(files) == 0 {
		return 0
	}
	fmt.Fprintf(w, "%s (%d)\n", title, len(files))
	for _, f := range files {
		fmt.Fprintf(w, "  %s  %s\n", workspaceLabel(f.Workspace, rootDir), f.RelPath)
	}
	return len(files)
}

func writeDependencySection(w io.Writer, rootDir, title string, deps []issue.DependencyIssue) int {
	if len(deps) == 0 {
		return 0
	}
	fmt.Fprintf(w, "%s (%d)\n", title, len(deps))
	for _, d := range deps {
		fmt.Fprintf(w, "  %s  %s\n", workspaceLabel(d.Workspace, rootDir), d.Package)
	}
	return len(deps)
}

func writeBinarySection(w io.Writer, rootDir, title string, bins []issue.BinaryIssue) int {
	if len(bins) == 0 {
		return 0
	}
	fmt.Fprintf(w, "%s (%d)\n", title, len(bins))
	for _, b := range bins {
		fmt.Fprintf(w, "  %s  %s (script %q)\n", workspaceLabel(b.Workspace, rootDir), b.Name, b.Script)
	}
	return len(bins)
}

func writeExportSection(w io.Writer, rootDir, title string, exports []issue.ExportIssue) int {
	if len(exports) == 0 {
		return 0
	}
	fmt.Fprintf(w, "%s (%d)\n", title, len(exports))
	for _, e := range exports {
		fmt.Fprintf(w, "  %s  %s:%d  %s\n", workspaceLabel(e.Workspace, rootDir), e.RelPath, e.Export.Line, e.Export.ExternalName)
	}
	return len(exports)
}

func renderJSON(w io.Writer, rootDir string, rep issue.Report, active map[issue.Kind]bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSONReport(rootDir, rep, active))
}

type jsonExport struct {
	Workspace string `json:"workspace"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Name      string `json:"name"`
}

type jsonDependency struct {
	Workspace string `json:"workspace"`
	Package   string `json:"package"`
}

type jsonBinary struct {
	Workspace string `json:"workspace"`
	Script    string `json:"script"`
	Name      string `json:"name"`
}

type jsonReport struct {
	UnusedFiles          []string         `json:"unusedFiles,omitempty"`
	UnusedExports        []jsonExport     `json:"unusedExports,omitempty"`
	UnusedClassMembers   []jsonExport     `json:"unusedClassMembers,omitempty"`
	UnusedEnumMembers    []jsonExport     `json:"unusedEnumMembers,omitempty"`
	UnusedDependencies   []jsonDependency `json:"unusedDependencies,omitempty"`
	UnlistedDependencies []jsonDependency `json:"unlistedDependencies,omitempty"`
	UnlistedBinaries     []jsonBinary     `json:"unlistedBinaries,omitempty"`
}

func toJSONReport(rootDir string, rep issue.Report, active map[issue.Kind]bool) jsonReport {
	var out jsonReport
	if active[issue.KindFiles] {
		for _, f := range rep.UnusedFiles {
			out.UnusedFiles = append(out.UnusedFiles, f.RelPath)
		}
		sort.Strings(out.UnusedFiles)
	}
	if active[issue.KindExports] {
		out.UnusedExports = toJSONExports(rootDir, rep.UnusedExports)
	}
	if active[issue.KindClassMembers] {
		out.UnusedClassMembers = toJSONExports(rootDir, rep.UnusedClassMembers)
	}
	if active[issue.KindEnumMembers] {
		out.UnusedEnumMembers = toJSONExports(rootDir, rep.UnusedEnumMembers)
	}
	if active[issue.KindDependencies] {
		out.UnusedDependencies = toJSONDependencies(rootDir, rep.UnusedDependencies)
	}
	if active[issue.KindUnlistedDependencies] {
		out.UnlistedDependencies = toJSONDependencies(rootDir, rep.UnlistedDependencies)
	}
	if active[issue.KindUnlistedBinaries] {
		for _, b := range rep.UnlistedBinaries {
			out.UnlistedBinaries = append(out.UnlistedBinaries, jsonBinary{
				Workspace: workspaceLabel(b.Workspace, rootDir), Script: b.Script, Name: b.Name,
			})
		}
	}
	return out
}

func toJSONExports(rootDir string, exports []issue.ExportIssue) []jsonExport {
	out := make([]jsonExport, 0, len(exports))
	for _, e := range exports {
		out = append(out, jsonExport{
			Workspace: workspaceLabel(e.Workspace, rootDir), File: e.RelPath,
			Line: e.Export.Line, Name: e.Export.ExternalName,
		})
	}
	return out
}

func toJSONDependencies(rootDir string, deps []issue.DependencyIssue) []jsonDependency {
	out := make([]jsonDependency, 0, len(deps))
	for _, d := range deps {
		out = append(out, jsonDependency{Workspace: workspaceLabel(d.Workspace, rootDir), Package: d.Package})
	}
	return out
}

func workspaceLabel(ws *workspace.Workspace, rootDir string) string {
	if ws == nil {
		return "."
	}
	return ws.RelDir(rootDir)
}
