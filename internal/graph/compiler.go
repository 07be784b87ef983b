package graph

import "context"

// Compiler pre-transforms a non-standard-extension file (.astro, .mdx,
// .vue, .svelte) into synthetic source the Analyzer can read (spec.md
// §4.4). No concrete implementation ships with this module — none of the
// retrieved examples embed a framework template compiler — so the zero
// value (nil) is the supported configuration: such files are opaque
// leaves, per spec.md's explicit fallback ("If no compiler is configured,
// the file's imports are opaque and it is treated as a leaf").
type Compiler interface {
	Compile(ctx context.Context, path string) ([]byte, bool, error)
}
