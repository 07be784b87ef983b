package issue

// Kind names one reportable issue category, for the `--include`/
// `--exclude` report filter (spec.md §6).
type Kind string

const (
	KindFiles                Kind = "files"
	KindExports              Kind = "exports"
	KindClassMembers         Kind = "classMembers"
	KindEnumMembers          Kind = "enumMembers"
	KindDependencies         Kind = "dependencies"
	KindUnlistedDependencies Kind = "unlisted-dependencies"
	KindUnlistedBinaries     Kind = "unlisted-binaries"
)

// defaultKinds are active with no --include/--exclude given.
// classMembers is opt-in (spec.md §4.7: "opt-in for class members"), so it
// is absent here; enumMembers is opt-out, so it is present and only drops
// out via an explicit --exclude.
var defaultKinds = []Kind{
	KindFiles, KindExports, KindEnumMembers,
	KindDependencies, KindUnlistedDependencies, KindUnlistedBinaries,
}

// ActiveKinds resolves the set of categories the report should render,
// from CLI-repeatable --include/--exclude lists. --include, if non-empty,
// replaces the default set entirely; --exclude then removes from whatever
// set resulted.
func ActiveKinds(includes, excludes []Kind) map[Kind]bool {
	active := map[Kind]bool{}
	base := defaultKinds
	if len(includes) > 0 {
		base = includes
	}
	for _, k := range base {
		active[k] = true
	}
	for _, k := range excludes {
		delete(active, k)
	}
	return active
}

// ExitCode implements spec.md §6's "0 if no reportable issues remain
// after filtering; 1 otherwise" (internal errors, >1, are the caller's
// concern — this function only ever sees a successfully classified run).
func ExitCode(r Report, active map[Kind]bool) int {
	if active[KindFiles] && len(r.UnusedFiles) > 0 {
		return 1
	}
	if active[KindExports] && len(r.UnusedExports) > 0 {
		return 1
	}
	if active[KindClassMembers] && len(r.UnusedClassMembers) > 0 {
		return 1
	}
	if active[KindEnumMembers] && len(r.UnusedEnumMembers) > 0 {
		return 1
	}
	if active[KindDependencies] && len(r.UnusedDependencies) > 0 {
		return 1
	}
	if active[KindUnlistedDependencies] && len(r.UnlistedDependencies) > 0 {
		return 1
	}
	if active[KindUnlistedBinaries] && len(r.UnlistedBinaries) > 0 {
		return 1
	}
	return 0
}
