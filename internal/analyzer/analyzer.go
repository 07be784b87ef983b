// Package analyzer defines the syntactic-analyzer contract consumed by the
// Module Graph Builder (spec.md §1, §6): "analyze(path, kind) ->
// {exports[], imports[], scriptReferences[]}". spec.md treats the real
// analyzer as an external facility and only specifies this interface; this
// package also ships one concrete implementation, HeuristicAnalyzer, so the
// module is runnable end to end. It is explicitly a stand-in: a
// line/regexp scanner in the same spirit as the teacher's own
// import-inference code (internal/workers/codebase/code_imports.go,
// internal/scan/scan.go's regexp-based markdown-image stripping), not a
// real parser.
package analyzer

import "context"

// Kind distinguishes what Analyze is being asked to extract, mirroring the
// teacher's own `analyze(path, kind)` two-argument shape.
type Kind int

const (
	KindModule Kind = iota
)

// ExportKind is the export taxonomy from spec.md §3's Export entity.
type ExportKind int

const (
	Value ExportKind = iota
	Type
	EnumMember
	ClassMember
	Default
	NamespaceReexport
)

func (k ExportKind) String() string {
	switch k {
	case Value:
		return "value"
	case Type:
		return "type"
	case EnumMember:
		return "enum-member"
	case ClassMember:
		return "class-member"
	case Default:
		return "default"
	case NamespaceReexport:
		return "namespace-reexport"
	default:
		return "unknown"
	}
}

// Export is one export produced by a module.
type Export struct {
	LocalName    string
	ExternalName string
	Kind         ExportKind
	Line         int
	Tags         []string // JSDoc tags, e.g. "public", "internal"

	// Owner is non-empty for ClassMember/EnumMember exports: the name of
	// the enclosing class or enum.
	Owner string

	// ReexportFrom is non-empty when this export forwards from another
	// module's specifier (`export { x } from './y'` or `export * from
	// './y'`); ReexportWildcard distinguishes the latter.
	ReexportFrom    string
	ReexportWildcard bool
}

// HasTag reports whether tag (without the leading "@") is present.
func (e Export) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Import is one import consumed by a module.
type Import struct {
	Specifier      string
	Names          []string // named imports; empty when Namespace or SideEffectOnly
	Namespace      bool
	SideEffectOnly bool
	IsTypeOnly     bool
	IsDynamic      bool
	Line           int
}

// Result is everything Analyze extracts from one file.
type Result struct {
	Exports []Export
	Imports []Import

	// ScriptReferences are side-effectful string-literal references the
	// analyzer can see but can't resolve to a structured Import (e.g. a
	// non-standard-extension file's <script src="..."> equivalent, ahead
	// of any Compiler pass). The graph builder does not read them, and
	// HeuristicAnalyzer leaves them empty.
	ScriptReferences []string
}

// Analyzer is the consumed contract. Implementations must be safe for
// concurrent use: the graph builder calls Analyze from its worker pool.
type Analyzer interface {
	Analyze(ctx context.Context, path string, kind Kind) (Result, error)
}
