// Package depattr implements the Dependency Attributor (spec.md §4.5):
// for each external reference the graph builder recorded, walks the
// importing file's workspace ancestry to find the nearest manifest that
// declares the package, classifying it listed or unlisted.
package depattr

import (
	"sort"
	"strings"

	"github.com/decadef20/knip/internal/graph"
	"github.com/decadef20/knip/internal/manifest"
	"github.com/decadef20/knip/internal/workspace"
)

// Status is the attribution outcome for one external reference.
type Status int

const (
	Listed Status = iota
	Unlisted
)

// Attribution is one external package reference, resolved to its owning
// workspace and listed/unlisted status.
type Attribution struct {
	Package   string
	Status    Status
	Workspace *workspace.Workspace // the declaring workspace if Listed, the importing workspace if Unlisted
	Kinds     []manifest.Kind
	Ref       graph.ExternalRef
}

// Attribute resolves every external reference against the workspace
// ancestry chain: the first workspace whose manifest lists the package
// under any kind is its owner and the ref is listed; otherwise it's
// unlisted against the importing workspace (spec.md §4.5). Dependency
// attribution is monotone per spec.md §3 — there is exactly one owner per
// reference, the nearest ancestor that declares it.
func Attribute(refs []graph.ExternalRef) []Attribution {
	out := make([]Attribution, 0, len(refs))
	for _, ref := range refs {
		importingWS := ref.Referrer.Workspace
		owner, listed := nearestDeclaring(ref.Package, importingWS)
		a := Attribution{Package: ref.Package, Ref: ref}
		if listed {
			a.Status = Listed
			a.Workspace = owner
			a.Kinds = owner.Manifest.KindsOf(ref.Package)
		} else {
			a.Status = Unlisted
			a.Workspace = importingWS
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].Ref.Referrer.AbsPath < out[j].Ref.Referrer.AbsPath
	})
	return out
}

func nearestDeclaring(pkg string, ws *workspace.Workspace) (*workspace.Workspace, bool) {
	if ws == nil {
		return nil, false
	}
	if ws.Manifest.Declares(pkg) {
		return ws, true
	}
	for _, anc := range ws.Ancestors() {
		if anc.Manifest.Declares(pkg) {
			return anc, true
		}
	}
	return nil, false
}

// TypesPackageBase returns the package name a `@types/X` dependency
// auto-links to — "using X counts @types/X as referenced" (spec.md §4.5)
// — handling the scoped-package encoding (`@types/scope__name` for
// `@scope/name`).
func TypesPackageBase(pkg string) (string, bool) {
	const prefix = "@types/"
	if !strings.HasPrefix(pkg, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(pkg, prefix)
	if idx := strings.Index(name, "__"); idx >= 0 {
		return "@" + name[:idx] + "/" + name[idx+2:], true
	}
	return name, true
}
