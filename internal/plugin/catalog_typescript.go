package plugin

import "encoding/json"

// TypeScript is the compiler-config plugin: auto-enabled by `typescript`.
// Unlike the other catalog entries it contributes no entries/references —
// its job is to expose `compilerOptions.paths`/`baseUrl`, which the Module
// Graph Builder's resolution step 2 (spec.md §4.4) consumes as path-mapping
// aliases. ParseCompilerPaths is exported directly so callers that already
// located tsconfig.json (the graph builder's resolver) don't need to
// round-trip through the plugin host's generic Contributions shape for
// data that isn't entries/references/ignores.
var TypeScript = Plugin{
	Name:        "typescript",
	Enabler:     EnablerForPackages("typescript"),
	ConfigGlobs: []string{"tsconfig.json", "tsconfig.*.json", "jsconfig.json"},
	Resolve:     resolveTypeScriptConfig,
}

type tsconfigDoc struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
	Extends string `json:"extends"`
}

func resolveTypeScriptConfig(doc Doc) (Contributions, error) {
	// tsconfig.json commonly carries comments, which encoding/json can't
	// parse; best-effort only — a parse failure here is a PluginWarning
	// at the host level, not fatal, matching spec.md §7.
	var parsed tsconfigDoc
	if err := json.Unmarshal(stripJSONComments(doc.Raw), &parsed); err != nil {
		return Contributions{}, err
	}
	return Contributions{}, nil
}

// CompilerPaths is the {baseUrl, paths} pair the graph builder needs.
type CompilerPaths struct {
	BaseURL string
	Paths   map[string][]string
}

// ParseCompilerPaths decodes a tsconfig/jsconfig document's path-mapping
// configuration.
func ParseCompilerPaths(raw []byte) (CompilerPaths, error) {
	var parsed tsconfigDoc
	if err := json.Unmarshal(stripJSONComments(raw), &parsed); err != nil {
		return CompilerPaths{}, err
	}
	return CompilerPaths{BaseURL: parsed.CompilerOptions.BaseURL, Paths: parsed.CompilerOptions.Paths}, nil
}

// stripJSONComments removes `//` line comments, a minimal accommodation
// for tsconfig.json's common (if non-standard) comment usage.
func stripJSONComments(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if c == '/' && i+1 < len(raw) && raw[i+1] == '/' {
			for i < len(raw) && raw[i] != '\n' {
				i++
			}
			out = append(out, '\n')
			continue
		}
		out = append(out, c)
	}
	return out
}
