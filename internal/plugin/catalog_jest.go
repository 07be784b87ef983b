package plugin

import (
	"regexp"
)

// Jest is the test-runner plugin: auto-enabled by a `jest` dependency,
// pulls test files into the entry set (jest loads them directly, the
// build graph never imports a *.test.ts file on its own), and scans the
// config for `preset`/`transform` references — packages jest loads by
// name that would otherwise read as unused dependencies.
var Jest = Plugin{
	Name:         "jest",
	Enabler:      EnablerForPackages("jest"),
	ConfigGlobs:  []string{"jest.config.js", "jest.config.ts", "jest.config.mjs", "jest.config.cjs", "jest.config.json"},
	EntryGlobs:   []string{"**/*.test.ts", "**/*.test.tsx", "**/*.test.js", "**/*.spec.ts", "**/*.spec.js"},
	ProjectGlobs: nil,
	Resolve:      resolveJestConfig,
}

var (
	jestPresetRe    = regexp.MustCompile(`preset\s*:\s*['"]([^'"]+)['"]`)
	jestTransformRe = regexp.MustCompile(`['"]([a-zA-Z0-9@/_.-]+)['"]\s*,?\s*\]?\s*,?\s*//\s*transform|transform\s*:\s*\{[^}]*?['"][^'"]*['"]\s*:\s*\[?\s*['"]([a-zA-Z0-9@/_.-]+)['"]`)
)

func resolveJestConfig(doc Doc) (Contributions, error) {
	text := string(doc.Raw)
	var refs []string
	for _, m := range jestPresetRe.FindAllStringSubmatch(text, -1) {
		refs = append(refs, m[1])
	}
	for _, m := range jestTransformRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			refs = append(refs, m[1])
		}
		if m[2] != "" {
			refs = append(refs, m[2])
		}
	}
	return Contributions{References: refs}, nil
}
