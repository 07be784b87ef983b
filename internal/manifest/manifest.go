// Package manifest models the package manifest (package.json-shaped) that
// every workspace carries: declared dependencies by kind, scripts, the
// exports/main/bin entry fields, and the workspace glob list for the root
// manifest.
package manifest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies which dependency bucket a package name was declared under.
type Kind int

const (
	Prod Kind = iota
	Dev
	Peer
	Optional
)

func (k Kind) String() string {
	switch k {
	case Prod:
		return "prod"
	case Dev:
		return "dev"
	case Peer:
		return "peer"
	case Optional:
		return "optional"
	default:
		return "unknown"
	}
}

// Manifest is the normalized view of a package manifest file.
type Manifest struct {
	Name    string
	Version string

	// Deps maps a declared package name to the kind(s) it was declared
	// under. A name may legitimately appear under more than one kind
	// (e.g. both peerDependencies and devDependencies).
	Deps map[string][]Kind

	Scripts    map[string]string
	Workspaces []string

	Main    string
	Bin     map[string]string // script-name -> path; single-string "bin" is normalized to {Name: path}
	Exports json.RawMessage

	// Raw is the full decoded document, kept around so plugins and the
	// config loader can pull an embedded "knip" sub-document or other
	// tool-specific keys out of it without a second parse.
	Raw map[string]json.RawMessage
}

// rawManifest mirrors the on-disk shape closely enough for decoding.
type rawManifest struct {
	Name                 string                     `json:"name"`
	Version              string                     `json:"version"`
	Dependencies         map[string]string          `json:"dependencies"`
	DevDependencies      map[string]string          `json:"devDependencies"`
	PeerDependencies     map[string]string          `json:"peerDependencies"`
	OptionalDependencies map[string]string          `json:"optionalDependencies"`
	Scripts              map[string]string          `json:"scripts"`
	Workspaces           json.RawMessage            `json:"workspaces"`
	Main                 string                     `json:"main"`
	Bin                  json.RawMessage            `json:"bin"`
	Exports              json.RawMessage            `json:"exports"`
}

// Parse decodes a manifest document (JSON, the only wire format a real
// package manifest ever uses).
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}

	var full map[string]json.RawMessage
	if err := json.Unmarshal(data, &full); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}

	m := &Manifest{
		Name:       raw.Name,
		Version:    raw.Version,
		Scripts:    raw.Scripts,
		Main:       raw.Main,
		Deps:       make(map[string][]Kind),
		Raw:        full,
	}

	addAll := func(deps map[string]string, kind Kind) {
		for name := range deps {
			m.Deps[name] = append(m.Deps[name], kind)
		}
	}
	addAll(raw.Dependencies, Prod)
	addAll(raw.DevDependencies, Dev)
	addAll(raw.PeerDependencies, Peer)
	addAll(raw.OptionalDependencies, Optional)

	if ws, err := decodeWorkspaces(raw.Workspaces); err == nil {
		m.Workspaces = ws
	}
	if bin, err := decodeBin(raw.Bin, raw.Name); err == nil {
		m.Bin = bin
	}
	m.Exports = raw.Exports

	return m, nil
}

// decodeWorkspaces accepts either a bare array of globs or the
// `{"packages": [...]}` object form.
func decodeWorkspaces(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj.Packages, nil
}

// decodeBin accepts a bare string (the package's own name maps to it) or a
// map of script-name -> path.
func decodeBin(raw json.RawMessage, pkgName string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if pkgName == "" {
			return nil, fmt.Errorf("manifest: string \"bin\" without a package name")
		}
		return map[string]string{pkgName: s}, nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Declares reports whether name is declared under any dependency kind.
func (m *Manifest) Declares(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Deps[name]
	return ok
}

// KindsOf returns the kinds name was declared under, sorted for determinism.
func (m *Manifest) KindsOf(name string) []Kind {
	if m == nil {
		return nil
	}
	kinds := append([]Kind(nil), m.Deps[name]...)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// AllDeclared returns every declared dependency name, sorted.
func (m *Manifest) AllDeclared() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.Deps))
	for name := range m.Deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExportPaths flattens the `exports` field (a bare string, a subpath map,
// or nested condition objects) into every relative path it references, for
// the Entry Seeder (spec.md §2 step 4: "manifest-declared entries (main,
// bin, exports)").
func (m *Manifest) ExportPaths() []string {
	if m == nil || len(m.Exports) == 0 {
		return nil
	}
	var paths []string
	var walk func(raw json.RawMessage)
	walk = func(raw json.RawMessage) {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") {
				paths = append(paths, s)
			}
			return
		}
		var obj map[string]json.RawMessage
		if json.Unmarshal(raw, &obj) == nil {
			for _, v := range obj {
				walk(v)
			}
			return
		}
		var arr []json.RawMessage
		if json.Unmarshal(raw, &arr) == nil {
			for _, v := range arr {
				walk(v)
			}
		}
	}
	walk(m.Exports)
	sort.Strings(paths)
	return paths
}

// ResolveExport resolves one subpath ("" for the package root) through the
// `exports` field, falling back to `main` for the root when `exports` is
// absent or silent on it (spec.md §4.4 resolution step 3).
func (m *Manifest) ResolveExport(subpath string) (string, bool) {
	if m == nil {
		return "", false
	}
	key := "."
	if subpath != "" {
		key = "./" + subpath
	}
	if len(m.Exports) > 0 {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(m.Exports, &obj); err == nil {
			if raw, ok := obj[key]; ok {
				if p, ok := firstStringLeaf(raw); ok {
					return p, true
				}
			}
		} else if subpath == "" {
			if p, ok := firstStringLeaf(m.Exports); ok {
				return p, true
			}
		}
	}
	if subpath == "" && m.Main != "" {
		return m.Main, true
	}
	return "", false
}

// firstStringLeaf descends a conditional-exports object (`import`,
// `require`, `default`, ... or any other key) to the first string value it
// finds.
func firstStringLeaf(raw json.RawMessage) (string, bool) {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s, true
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) == nil {
		for _, k := range []string{"import", "require", "default", "node", "browser"} {
			if v, ok := obj[k]; ok {
				if p, ok := firstStringLeaf(v); ok {
					return p, true
				}
			}
		}
		for _, v := range obj {
			if p, ok := firstStringLeaf(v); ok {
				return p, true
			}
		}
	}
	return "", false
}

// EmbeddedSection decodes the sub-document under key (e.g. "knip") from the
// raw manifest, if present.
func (m *Manifest) EmbeddedSection(key string, out interface{}) (bool, error) {
	if m == nil || m.Raw == nil {
		return false, nil
	}
	raw, ok := m.Raw[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("manifest: embedded section %q: %w", key, err)
	}
	return true, nil
}
