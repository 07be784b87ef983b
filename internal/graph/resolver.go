package graph

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/decadef20/knip/internal/plugin"
	"github.com/decadef20/knip/internal/workspace"
)

// sourceExtensions are the known source extensions tried, in order, when a
// resolved path names a directory or an extension-less file (spec.md
// §4.4 step 1). The non-standard four route to a Compiler (spec.md §4.4,
// "Non-standard extensions").
var sourceExtensions = []string{
	".ts", ".tsx", ".mts", ".cts",
	".js", ".jsx", ".mjs", ".cjs",
	".astro", ".vue", ".svelte", ".mdx",
}

var nonStandardExtensions = map[string]bool{
	".astro": true, ".vue": true, ".svelte": true, ".mdx": true,
}

// ResolutionKind is the outcome of resolving one Import.specifier.
type ResolutionKind int

const (
	ResolvedInternal ResolutionKind = iota
	ResolvedExternal
	Unresolved
)

// Resolution is the result of the module-resolution algorithm (spec.md
// §4.4).
type Resolution struct {
	Kind    ResolutionKind
	AbsPath string // ResolvedInternal
	Package string // ResolvedExternal
	Subpath string // ResolvedExternal
}

// resolver holds the tables the resolution algorithm consults, shared
// read-only across the worker pool.
type resolver struct {
	rootDir       string
	wsByName      map[string]*workspace.Workspace
	compilerPaths sync.Map // dir string -> cachedPaths
}

type cachedPaths struct {
	paths plugin.CompilerPaths
	dir   string // directory the tsconfig/jsconfig lives in, for "paths"/baseUrl resolution
	ok    bool
}

func newResolver(rootDir string, workspaces []*workspace.Workspace) *resolver {
	r := &resolver{rootDir: rootDir, wsByName: make(map[string]*workspace.Workspace)}
	for _, ws := range workspaces {
		if ws.Manifest != nil && ws.Manifest.Name != "" {
			r.wsByName[ws.Manifest.Name] = ws
		}
	}
	return r
}

// resolve tries, first hit wins: a relative path (then unresolved if no
// file matches), a tsconfig path alias, a workspace package. Any other
// bare specifier is external; node_modules is not consulted, so a bare
// specifier never resolves as unresolved.
func (r *resolver) resolve(specifier, fromDir string) Resolution {
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		if abs, ok := resolveFileOrIndex(filepath.Join(fromDir, specifier)); ok {
			return Resolution{Kind: ResolvedInternal, AbsPath: abs}
		}
		return Resolution{Kind: Unresolved}
	}

	if cp, baseDir, ok := r.nearestCompilerPaths(fromDir); ok {
		if abs, ok := matchPathAlias(cp.Paths, cp.BaseURL, baseDir, specifier); ok {
			return Resolution{Kind: ResolvedInternal, AbsPath: abs}
		}
	}

	pkg, subpath := packageNameAndSubpath(specifier)
	if ws2, ok := r.wsByName[pkg]; ok {
		if rel, ok := ws2.Manifest.ResolveExport(subpath); ok {
			if abs, ok := resolveFileOrIndex(filepath.Join(ws2.Dir, rel)); ok {
				return Resolution{Kind: ResolvedInternal, AbsPath: abs}
			}
		}
	}

	// A bare specifier that isn't a workspace package is external whether
	// or not it's actually installed under node_modules — an uninstalled
	// or undeclared package is exactly what the dependency attributor
	// needs to see in order to report it as unlisted (spec.md §4.5, S4/S6).
	return Resolution{Kind: ResolvedExternal, Package: pkg, Subpath: subpath}
}

// resolveFileOrIndex tries base as an exact file, then base+ext for each
// known source extension, then base/index+ext.
func resolveFileOrIndex(base string) (string, bool) {
	if fi, err := os.Stat(base); err == nil && !fi.IsDir() {
		return base, true
	}
	for _, ext := range sourceExtensions {
		cand := base + ext
		if fi, err := os.Stat(cand); err == nil && !fi.IsDir() {
			return cand, true
		}
	}
	for _, ext := range sourceExtensions {
		cand := filepath.Join(base, "index"+ext)
		if fi, err := os.Stat(cand); err == nil && !fi.IsDir() {
			return cand, true
		}
	}
	return "", false
}

// nearestCompilerPaths walks up from dir looking for tsconfig.json or
// jsconfig.json, caching the result per directory it visits.
func (r *resolver) nearestCompilerPaths(dir string) (plugin.CompilerPaths, string, bool) {
	cur := dir
	for {
		if v, ok := r.compilerPaths.Load(cur); ok {
			cp := v.(cachedPaths)
			if cp.ok {
				return cp.paths, cp.dir, true
			}
		} else {
			for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
				data, err := os.ReadFile(filepath.Join(cur, name))
				if err != nil {
					continue
				}
				if parsed, err := plugin.ParseCompilerPaths(data); err == nil && (len(parsed.Paths) > 0 || parsed.BaseURL != "") {
					r.compilerPaths.Store(cur, cachedPaths{paths: parsed, dir: cur, ok: true})
					return parsed, cur, true
				}
			}
			r.compilerPaths.Store(cur, cachedPaths{})
		}

		parent := filepath.Dir(cur)
		if parent == cur || !isWithinRoot(r.rootDir, parent) {
			return plugin.CompilerPaths{}, "", false
		}
		cur = parent
	}
}

func isWithinRoot(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// matchPathAlias substitutes specifier against a tsconfig `paths` map and
// retries resolution relative to baseDir/baseURL.
func matchPathAlias(paths map[string][]string, baseURL, baseDir, specifier string) (string, bool) {
	if baseURL == "" {
		baseURL = "."
	}
	for pattern, targets := range paths {
		prefix, suffix, hasStar := splitStar(pattern)
		if hasStar {
			if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
				continue
			}
			star := strings.TrimSuffix(strings.TrimPrefix(specifier, prefix), suffix)
			for _, t := range targets {
				tPrefix, _, tHasStar := splitStar(t)
				resolved := tPrefix
				if tHasStar {
					resolved = strings.Replace(t, "*", star, 1)
				}
				if abs, ok := resolveFileOrIndex(filepath.Join(baseDir, baseURL, resolved)); ok {
					return abs, true
				}
			}
		} else if pattern == specifier {
			for _, t := range targets {
				if abs, ok := resolveFileOrIndex(filepath.Join(baseDir, baseURL, t)); ok {
					return abs, true
				}
			}
		}
	}
	return "", false
}

func splitStar(pattern string) (prefix, suffix string, hasStar bool) {
	idx := strings.Index(pattern, "*")
	if idx < 0 {
		return pattern, "", false
	}
	return pattern[:idx], pattern[idx+1:], true
}

// packageNameAndSubpath splits a bare import specifier into its package
// name (honoring scoped "@scope/name" packages) and remaining subpath.
func packageNameAndSubpath(specifier string) (pkg, subpath string) {
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) >= 2 {
			pkg = parts[0] + "/" + parts[1]
			if len(parts) == 3 {
				subpath = parts[2]
			}
			return
		}
	}
	parts := strings.SplitN(specifier, "/", 2)
	pkg = parts[0]
	if len(parts) == 2 {
		subpath = parts[1]
	}
	return
}
