package analyzer

import (
	"bufio"
	"context"
	"io"
	"os"
	"regexp"
	"strings"
)

// HeuristicAnalyzer extracts imports/exports from JS/TS-family source with
// line-oriented regexp matching — no AST, no type information. It covers
// the constructs spec.md's scenarios and invariants actually exercise:
// named/default/namespace/side-effect imports, dynamic import(), named and
// wildcard re-exports, enum/class member declarations, and a JSDoc tag
// scan over the comment lines directly above a declaration.
type HeuristicAnalyzer struct{}

var (
	reImportFrom    = regexp.MustCompile(`^\s*import\s+(type\s+)?(.+?)\s+from\s+['"]([^'"]+)['"]`)
	reImportBare    = regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`)
	reImportDynamic = regexp.MustCompile(`\bimport\(\s*['"]([^'"]+)['"]\s*\)`)
	reRequire       = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)

	reExportFrom    = regexp.MustCompile(`^\s*export\s+(type\s+)?\{([^}]*)\}\s+from\s+['"]([^'"]+)['"]`)
	reExportStarAs  = regexp.MustCompile(`^\s*export\s+\*\s+as\s+(\w+)\s+from\s+['"]([^'"]+)['"]`)
	reExportStar    = regexp.MustCompile(`^\s*export\s+\*\s+from\s+['"]([^'"]+)['"]`)
	reExportNamed   = regexp.MustCompile(`^\s*export\s+\{([^}]*)\}\s*;?\s*$`)
	reExportDefault = regexp.MustCompile(`^\s*export\s+default\b`)
	reExportDecl    = regexp.MustCompile(`^\s*export\s+(declare\s+)?(const|let|var|function|class|interface|type|enum)\s+(\w+)`)

	reEnumMember  = regexp.MustCompile(`^\s*(\w+)\s*(=.*)?,?\s*$`)
	reClassMember = regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+|readonly\s+|static\s+)*(\w+)\s*[(:=]`)

	reJSDocTag = regexp.MustCompile(`@(public|internal)\b`)
)

func (HeuristicAnalyzer) Analyze(ctx context.Context, path string, kind Kind) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()
	return ScanReader(ctx, f)
}

// ScanReader runs the same line/regexp scan Analyze uses against an
// arbitrary reader. It exists so a Compiler's synthetic output (for
// non-standard extensions — spec.md §4.4) can be scanned without a
// round trip through the filesystem.
func ScanReader(ctx context.Context, r io.Reader) (Result, error) {
	var res Result
	var pendingTags []string
	var enumName string
	var enumDepth int
	var className string
	var classDepth int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if ctx != nil {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			default:
			}
		}
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if tags := reJSDocTag.FindAllStringSubmatch(trimmed, -1); len(tags) > 0 {
			for _, t := range tags {
				pendingTags = append(pendingTags, t[1])
			}
			continue
		}
		if strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "//") {
			continue
		}

		consumeTags := func() []string {
			t := pendingTags
			pendingTags = nil
			return t
		}

		switch {
		case reImportFrom.MatchString(line):
			m := reImportFrom.FindStringSubmatch(line)
			res.Imports = append(res.Imports, parseImportClause(m[2], m[3], m[1] != "", lineNo))
		case reImportBare.MatchString(line):
			m := reImportBare.FindStringSubmatch(line)
			res.Imports = append(res.Imports, Import{Specifier: m[1], SideEffectOnly: true, Line: lineNo})
		case reExportStarAs.MatchString(line):
			m := reExportStarAs.FindStringSubmatch(line)
			res.Exports = append(res.Exports, Export{
				LocalName: m[1], ExternalName: m[1], Kind: NamespaceReexport,
				ReexportFrom: m[2], Line: lineNo, Tags: consumeTags(),
			})
			res.Imports = append(res.Imports, Import{Specifier: m[2], Namespace: true, Line: lineNo})
		case reExportStar.MatchString(line):
			m := reExportStar.FindStringSubmatch(line)
			res.Exports = append(res.Exports, Export{
				Kind: NamespaceReexport, ReexportFrom: m[1], ReexportWildcard: true,
				Line: lineNo, Tags: consumeTags(),
			})
			res.Imports = append(res.Imports, Import{Specifier: m[1], Namespace: true, Line: lineNo})
		case reExportFrom.MatchString(line):
			m := reExportFrom.FindStringSubmatch(line)
			tags := consumeTags()
			for _, name := range splitClauseNames(m[2]) {
				local, external := aliasPair(name)
				res.Exports = append(res.Exports, Export{
					LocalName: local, ExternalName: external, Kind: exportValueOrType(m[1] != ""),
					ReexportFrom: m[3], Line: lineNo, Tags: tags,
				})
			}
			res.Imports = append(res.Imports, Import{Specifier: m[3], Names: splitClauseNames(m[2]), Line: lineNo})
		case reExportDefault.MatchString(line):
			res.Exports = append(res.Exports, Export{LocalName: "default", ExternalName: "default", Kind: Default, Line: lineNo, Tags: consumeTags()})
		case reExportDecl.MatchString(line):
			m := reExportDecl.FindStringSubmatch(line)
			name := m[3]
			kind := declKind(m[2])
			res.Exports = append(res.Exports, Export{LocalName: name, ExternalName: name, Kind: kind, Line: lineNo, Tags: consumeTags()})
			if m[2] == "enum" {
				enumName = name
				enumDepth = 1
			}
			if m[2] == "class" {
				className = name
				classDepth = 1
			}
		case reExportNamed.MatchString(line):
			m := reExportNamed.FindStringSubmatch(line)
			tags := consumeTags()
			for _, name := range splitClauseNames(m[1]) {
				local, external := aliasPair(name)
				res.Exports = append(res.Exports, Export{LocalName: local, ExternalName: external, Kind: Value, Line: lineNo, Tags: tags})
			}
		default:
			pendingTags = nil
		}

		if enumDepth > 0 {
			enumDepth += strings.Count(line, "{") - strings.Count(line, "}")
			if enumDepth <= 0 {
				enumName = ""
			} else if m := reEnumMember.FindStringSubmatch(trimmed); m != nil && !strings.Contains(trimmed, "enum") {
				res.Exports = append(res.Exports, Export{LocalName: m[1], ExternalName: m[1], Kind: EnumMember, Owner: enumName, Line: lineNo})
			}
		}
		if classDepth > 0 {
			classDepth += strings.Count(line, "{") - strings.Count(line, "}")
			if classDepth <= 0 {
				className = ""
			} else if m := reClassMember.FindStringSubmatch(trimmed); m != nil && isExported(trimmed) {
				res.Exports = append(res.Exports, Export{LocalName: m[1], ExternalName: m[1], Kind: ClassMember, Owner: className, Line: lineNo})
			}
		}

		for _, m := range reImportDynamic.FindAllStringSubmatch(line, -1) {
			res.Imports = append(res.Imports, Import{Specifier: m[1], IsDynamic: true, Line: lineNo})
		}
		for _, m := range reRequire.FindAllStringSubmatch(line, -1) {
			res.Imports = append(res.Imports, Import{Specifier: m[1], SideEffectOnly: true, Line: lineNo})
		}
	}
	if err := scanner.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func parseImportClause(clause, specifier string, isTypeOnly bool, line int) Import {
	clause = strings.TrimSpace(clause)
	imp := Import{Specifier: specifier, IsTypeOnly: isTypeOnly, Line: line}

	if idx := strings.Index(clause, "{"); idx >= 0 {
		end := strings.Index(clause, "}")
		if end > idx {
			named := clause[idx+1 : end]
			before := strings.TrimSpace(strings.TrimSuffix(clause[:idx], ","))
			if before != "" {
				imp.Names = append(imp.Names, "default")
			}
			for _, n := range splitClauseNames(named) {
				local, _ := aliasPair(n)
				imp.Names = append(imp.Names, local)
			}
			return imp
		}
	}
	if idx := strings.Index(clause, "* as "); idx >= 0 {
		imp.Namespace = true
		return imp
	}
	if clause != "" {
		imp.Names = []string{"default"}
	}
	return imp
}

func splitClauseNames(clause string) []string {
	parts := strings.Split(clause, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// aliasPair splits "local as external" into (local, external); both equal
// the bare name when there's no alias.
func aliasPair(name string) (local, external string) {
	name = strings.TrimSpace(strings.TrimPrefix(name, "type "))
	if idx := strings.Index(name, " as "); idx >= 0 {
		return strings.TrimSpace(name[:idx]), strings.TrimSpace(name[idx+4:])
	}
	return name, name
}

func exportValueOrType(isTypeOnly bool) ExportKind {
	if isTypeOnly {
		return Type
	}
	return Value
}

func declKind(keyword string) ExportKind {
	switch keyword {
	case "type", "interface":
		return Type
	default:
		return Value
	}
}

func isExported(trimmed string) bool {
	return !strings.HasPrefix(trimmed, "private ") && !strings.HasPrefix(trimmed, "#")
}
