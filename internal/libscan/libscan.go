// Package libscan implements the opt-in external-library inspection pass
// spec.md §9 describes: "a second, opt-in traversal pass over the
// already-built internal graph's leaves" into node_modules declaration
// files, enabled only by --include-libs since it "can multiply memory
// use." It is deliberately separate from the Issue Classifier's six
// categories — it reports on the shape of what the graph already
// resolved as external, it does not add a new kind of unused/unlisted
// issue.
package libscan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/decadef20/knip/internal/graph"
	"github.com/decadef20/knip/internal/manifest"
	"github.com/decadef20/knip/internal/workspace"
)

// Finding is one externally-resolved package inspected for shipped type
// declarations.
type Finding struct {
	Workspace *workspace.Workspace
	Package   string
	HasTypes  bool
}

// Scan walks, for every distinct (workspace, package) pair the graph
// resolved externally, that package's installed directory looking for a
// TypeScript declaration entry point (a sibling `@types/<package>`, or
// the package's own manifest "types"/"typings" field).
func Scan(refs []graph.ExternalRef) []Finding {
	type key struct {
		ws  *workspace.Workspace
		pkg string
	}
	seen := map[key]bool{}
	var out []Finding
	for _, ref := range refs {
		if ref.Referrer == nil {
			continue
		}
		k := key{ws: ref.Referrer.Workspace, pkg: ref.Package}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, Finding{
			Workspace: k.ws,
			Package:   k.pkg,
			HasTypes:  hasTypes(k.ws, k.pkg),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Workspace != out[j].Workspace {
			return workspaceDir(out[i].Workspace) < workspaceDir(out[j].Workspace)
		}
		return out[i].Package < out[j].Package
	})
	return out
}

func workspaceDir(ws *workspace.Workspace) string {
	if ws == nil {
		return ""
	}
	return ws.Dir
}

// hasTypes walks from ws.Dir up through ancestor node_modules directories
// (the same hoisting model binaries.InstalledBinaries relies on) looking
// for pkg's own declared "types"/"typings" field, or a `@types/pkg`
// sibling package.
func hasTypes(ws *workspace.Workspace, pkg string) bool {
	if ws == nil {
		return false
	}
	cur := ws.Dir
	for {
		nm := filepath.Join(cur, "node_modules")
		if declares(filepath.Join(nm, pkg)) {
			return true
		}
		if declares(filepath.Join(nm, "@types", typesName(pkg))) {
			return true
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return false
		}
		cur = parent
	}
}

func typesName(pkg string) string {
	if len(pkg) > 0 && pkg[0] == '@' {
		return strings.Replace(pkg[1:], "/", "__", 1) // "@scope/name" -> "scope__name", as in "@types/scope__name"
	}
	return pkg
}

func declares(pkgDir string) bool {
	data, err := os.ReadFile(filepath.Join(pkgDir, "package.json"))
	if err != nil {
		return false
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return false
	}
	var fields struct {
		Types   string `json:"types"`
		Typings string `json:"typings"`
	}
	if err := json.Unmarshal(mustRemarshal(m.Raw), &fields); err != nil {
		return false
	}
	return fields.Types != "" || fields.Typings != ""
}

func mustRemarshal(raw map[string]json.RawMessage) []byte {
	b, err := json.Marshal(raw)
	if err != nil {
		return []byte("{}")
	}
	return b
}
