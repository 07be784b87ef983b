package plugin

import "regexp"

// ESLint is the lint-config plugin: auto-enabled by `eslint`, scans
// `.eslintrc*` for `extends`/`plugins` entries, which name packages by a
// shorthand (`eslint-config-X`, `eslint-plugin-Y`) that the dependency
// attributor wouldn't otherwise connect to an import.
var ESLint = Plugin{
	Name:        "eslint",
	Enabler:     EnablerForPackages("eslint"),
	ConfigGlobs: []string{".eslintrc", ".eslintrc.json", ".eslintrc.js", ".eslintrc.yml", ".eslintrc.yaml", "eslint.config.js", "eslint.config.mjs"},
	Resolve:     resolveESLintConfig,
}

var (
	eslintExtendsRe = regexp.MustCompile(`['"]([a-zA-Z0-9@/_.-]+)['"]`)
	eslintKeyRe     = regexp.MustCompile(`(extends|plugins)\s*:?\s*\[?([^\]\n]*)\]?`)
)

func resolveESLintConfig(doc Doc) (Contributions, error) {
	text := string(doc.Raw)
	var refs []string
	for _, block := range eslintKeyRe.FindAllStringSubmatch(text, -1) {
		for _, name := range eslintExtendsRe.FindAllStringSubmatch(block[2], -1) {
			if ref := normalizeESLintRef(block[1], name[1]); ref != "" {
				refs = append(refs, ref)
			}
		}
	}
	return Contributions{References: refs}, nil
}

func normalizeESLintRef(key, name string) string {
	switch key {
	case "plugins":
		if name == "" || hasAnyPrefix(name, "eslint-plugin-", "@") {
			return withPrefixUnlessScoped(name, "eslint-plugin-")
		}
		return "eslint-plugin-" + name
	case "extends":
		if name == "eslint:recommended" || name == "eslint:all" {
			return ""
		}
		if hasAnyPrefix(name, "plugin:") {
			rest := name[len("plugin:"):]
			if idx := indexOf(rest, '/'); idx >= 0 {
				rest = rest[:idx]
			}
			return "eslint-plugin-" + rest
		}
		if hasAnyPrefix(name, "eslint-config-", "@") {
			return withPrefixUnlessScoped(name, "eslint-config-")
		}
		return "eslint-config-" + name
	default:
		return name
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(s) >= len(p) && s[:len(p)] == p {
			return true
		}
	}
	return false
}

func indexOf(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func withPrefixUnlessScoped(name, prefix string) string {
	if len(name) > 0 && name[0] == '@' {
		return name
	}
	if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
		return name
	}
	return prefix + name
}
