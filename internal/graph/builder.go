// Package graph implements the Module Graph Builder (spec.md §4.4): from
// the entry set E, it calls the external syntactic analyzer on each file,
// resolves each import specifier, and continues transitively, recording
// every export produced and every export actually consumed.
//
// The arena-allocated Module table with integer handles (spec.md §9's
// design note) replaces the teacher's usual pointer-graph style with a
// flat, append-only slice guarded by one mutex for insertion — "owner-
// wins" per spec.md §5 — matching the "single owner-wins insertion" the
// concurrency model calls for.
package graph

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/decadef20/knip/internal/analyzer"
	"github.com/decadef20/knip/internal/diag"
	"github.com/decadef20/knip/internal/pool"
	"github.com/decadef20/knip/internal/project"
	"github.com/decadef20/knip/internal/workspace"
)

// Handle is an arena index into the Module table.
type Handle int

// ExportRecord pairs an analyzer.Export with the mutable reference state
// the graph walk accumulates against it.
type ExportRecord struct {
	analyzer.Export
	RefCount  int
	Referrers []*Module // distinct modules that reference this export, used for ignoreExportsUsedInFile
}

// internalEdge is one resolved internal Import, kept so reference-counting
// can run as a deterministic fixpoint pass after every module's exports
// are known (spec.md §9: "reachability fixpoint is monotone").
type internalEdge struct {
	targetAbsPath string
	imp           analyzer.Import
}

// Module is one discovered source file.
type Module struct {
	Handle      Handle
	AbsPath     string
	Workspace   *workspace.Workspace
	IsEntry     bool
	ParseFailed bool
	NonStandard bool

	Exports []*ExportRecord
	Imports []analyzer.Import

	edges []internalEdge
}

// ExternalRef is one resolved reference to an external package, recorded
// for the Dependency Attributor (spec.md §4.5).
type ExternalRef struct {
	Package        string
	Subpath        string
	Names          []string
	Namespace      bool
	SideEffectOnly bool
	Line           int
	Referrer       *Module
}

// Graph is the built Module table plus the external references discovered
// while building it.
type Graph struct {
	modules  []*Module
	byPath   map[string]Handle
	external []ExternalRef

	mu sync.Mutex
}

// Modules returns every discovered module, in handle (discovery) order.
func (g *Graph) Modules() []*Module { return g.modules }

// ExternalRefs returns every resolved external reference.
func (g *Graph) ExternalRefs() []ExternalRef { return g.external }

// ModuleAt looks up a module by absolute path.
func (g *Graph) ModuleAt(absPath string) (*Module, bool) {
	h, ok := g.byPath[absPath]
	if !ok {
		return nil, false
	}
	return g.modules[h], true
}

// Options configures Build.
type Options struct {
	RootDir     string
	Workspaces  []*workspace.Workspace
	Entries     []*project.ProjectFile
	Analyzer    analyzer.Analyzer
	Compiler    Compiler // optional; nil means non-standard-extension files are opaque leaves
	Diag        *diag.Collector
	Concurrency int
}

// Build runs the graph builder's BFS to fixpoint: spec.md §4.4's algorithm
// plus the deterministic reference-counting fixpoint pass described in
// §9's design note.
func Build(ctx context.Context, opts Options) (*Graph, error) {
	g := &Graph{byPath: make(map[string]Handle)}
	res := newResolver(opts.RootDir, opts.Workspaces)
	p := pool.New(opts.Concurrency)

	for _, e := range opts.Entries {
		h, created := g.getOrCreate(e.AbsPath, e.Workspace)
		m := g.modules[h]
		m.IsEntry = true
		if created {
			p.Go(ctx, g.visit(m, res, opts, p))
		}
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	g.countReferences()
	return g, nil
}

// getOrCreate inserts absPath into the arena if absent, returning its
// handle and whether this call created it (the "owner-wins insertion").
func (g *Graph) getOrCreate(absPath string, ws *workspace.Workspace) (Handle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if h, ok := g.byPath[absPath]; ok {
		return h, false
	}
	h := Handle(len(g.modules))
	m := &Module{Handle: h, AbsPath: absPath, Workspace: ws}
	g.modules = append(g.modules, m)
	g.byPath[absPath] = h
	return h, true
}

// visit returns the pool job that analyzes one module and fans out to its
// resolved internal imports, submitting each newly discovered module back
// to the same pool.
func (g *Graph) visit(m *Module, res *resolver, opts Options, p *pool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		result, parseFailed, nonStandard, err := g.analyze(ctx, m, opts)
		if err != nil && !parseFailed {
			return err
		}
		m.ParseFailed = parseFailed
		m.NonStandard = nonStandard
		if parseFailed {
			opts.Diag.Add(diag.ParseWarning, m.AbsPath, errString(err))
			return nil
		}

		for _, exp := range result.Exports {
			m.Exports = append(m.Exports, &ExportRecord{Export: exp})
		}
		m.Imports = result.Imports

		fromDir := filepath.Dir(m.AbsPath)
		for _, imp := range result.Imports {
			resolution := res.resolve(imp.Specifier, fromDir)
			switch resolution.Kind {
			case ResolvedInternal:
				m.edges = append(m.edges, internalEdge{targetAbsPath: resolution.AbsPath, imp: imp})
				h, created := g.getOrCreate(resolution.AbsPath, g.ownerWorkspace(resolution.AbsPath, opts.Workspaces, m.Workspace))
				if created {
					target := g.modules[h]
					p.Go(ctx, g.visit(target, res, opts, p))
				}
			case ResolvedExternal:
				g.addExternal(ExternalRef{
					Package: resolution.Package, Subpath: resolution.Subpath,
					Names: imp.Names, Namespace: imp.Namespace, SideEffectOnly: imp.SideEffectOnly,
					Line: imp.Line, Referrer: m,
				})
			case Unresolved:
				opts.Diag.Add(diag.ResolutionWarning, m.AbsPath, "unresolved import: "+imp.Specifier)
			}
		}
		return nil
	}
}

func errString(err error) string {
	if err == nil {
		return "parse error"
	}
	return err.Error()
}

func (g *Graph) addExternal(ref ExternalRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.external = append(g.external, ref)
}

func (g *Graph) ownerWorkspace(absPath string, all []*workspace.Workspace, fallback *workspace.Workspace) *workspace.Workspace {
	if w := workspace.Owner(all, absPath); w != nil {
		return w
	}
	return fallback
}

// analyze dispatches to the Analyzer, or to Compiler for non-standard
// extensions when one is configured, or treats the file as an opaque leaf
// otherwise (spec.md §4.4).
func (g *Graph) analyze(ctx context.Context, m *Module, opts Options) (analyzer.Result, bool, bool, error) {
	ext := filepath.Ext(m.AbsPath)
	if nonStandardExtensions[ext] {
		if opts.Compiler == nil {
			return analyzer.Result{}, false, true, nil
		}
		src, ok, err := opts.Compiler.Compile(ctx, m.AbsPath)
		if err != nil {
			return analyzer.Result{}, true, true, err
		}
		if !ok {
			return analyzer.Result{}, false, true, nil
		}
		res, err := analyzer.ScanReader(ctx, bytes.NewReader(src))
		if err != nil {
			return analyzer.Result{}, true, true, err
		}
		return res, false, true, nil
	}

	res, err := opts.Analyzer.Analyze(ctx, m.AbsPath, analyzer.KindModule)
	if err != nil {
		return analyzer.Result{}, true, false, err
	}
	return res, false, false, nil
}

// countReferences runs the reference-counting fixpoint pass (spec.md §3:
// "the number of distinct (referrer module, imported-name) pairs pointing
// at it, counting namespace and wildcard re-exports transitively"). It
// runs single-threaded after the BFS pool has drained, so plain mutation
// is safe — no atomics needed, matching spec.md §9's "reachability
// fixpoint is monotone" design note.
func (g *Graph) countReferences() {
	for _, m := range g.modules {
		for _, e := range m.edges {
			target, ok := g.ModuleAt(e.targetAbsPath)
			if !ok {
				continue
			}
			switch {
			case e.imp.SideEffectOnly:
				// bumps nothing
			case e.imp.Namespace:
				g.bumpNamespace(target, m, make(map[*Module]bool))
			default:
				names := e.imp.Names
				if len(names) == 0 {
					names = []string{"default"}
				}
				for _, name := range names {
					g.bumpByName(target, name, m, make(map[*Module]bool))
				}
			}
		}
	}
}

// bumpByName increments the export named name on m, attributing the
// reference to referrer (the original importing module, held constant
// across re-export hops so ignoreExportsUsedInFile sees the true
// consumer). It follows a single-named re-export chain (or, failing
// that, any wildcard re-export on m) to the module that actually defines
// it. visited guards against re-export cycles.
func (g *Graph) bumpByName(m *Module, name string, referrer *Module, visited map[*Module]bool) bool {
	if m == nil || visited[m] {
		return false
	}
	visited[m] = true

	for _, rec := range m.Exports {
		if rec.ReexportWildcard {
			continue
		}
		if rec.ExternalName != name {
			continue
		}
		bump(rec, referrer)
		if rec.ReexportFrom != "" {
			if target, ok := g.resolveReexportTarget(m, rec.ReexportFrom); ok {
				g.bumpByName(target, rec.LocalName, referrer, visited)
			}
		}
		return true
	}

	for _, rec := range m.Exports {
		if !rec.ReexportWildcard {
			continue
		}
		if target, ok := g.resolveReexportTarget(m, rec.ReexportFrom); ok {
			if g.bumpByName(target, name, referrer, visited) {
				return true
			}
		}
	}
	return false
}

// bumpNamespace increments every export reachable from m (directly, or
// forwarded through a wildcard re-export), for `import * as ns` and
// `export * as ns` consumption.
func (g *Graph) bumpNamespace(m *Module, referrer *Module, visited map[*Module]bool) {
	if m == nil || visited[m] {
		return
	}
	visited[m] = true

	for _, rec := range m.Exports {
		if rec.ReexportWildcard {
			if target, ok := g.resolveReexportTarget(m, rec.ReexportFrom); ok {
				g.bumpNamespace(target, referrer, visited)
			}
			continue
		}
		bump(rec, referrer)
		if rec.ReexportFrom != "" {
			if target, ok := g.resolveReexportTarget(m, rec.ReexportFrom); ok {
				g.bumpByName(target, rec.LocalName, referrer, visited)
			}
		}
	}
}

// bump records one (referrer, export) consumption, deduplicating by
// referrer module so RefCount matches spec.md §3's "distinct (referrer
// module, imported-name) pairs" even when countReferences revisits the
// same edge through more than one re-export path.
func bump(rec *ExportRecord, referrer *Module) {
	for _, r := range rec.Referrers {
		if r == referrer {
			return
		}
	}
	rec.Referrers = append(rec.Referrers, referrer)
	rec.RefCount++
}

// resolveReexportTarget finds the module m's own edge for the re-export
// specifier resolved to, reusing the edge recorded during discovery rather
// than re-running resolution.
func (g *Graph) resolveReexportTarget(m *Module, specifier string) (*Module, bool) {
	for _, e := range m.edges {
		if e.imp.Specifier == specifier {
			return g.ModuleAt(e.targetAbsPath)
		}
	}
	return nil, false
}

// SortedModules returns modules ordered by absolute path, for deterministic
// downstream processing.
func (g *Graph) SortedModules() []*Module {
	out := append([]*Module(nil), g.modules...)
	sort.Slice(out, func(i, j int) bool { return out[i].AbsPath < out[j].AbsPath })
	return out
}
