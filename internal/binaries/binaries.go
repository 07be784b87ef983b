// Package binaries implements the Binary Analyzer (spec.md §4.6): scans
// every script in every manifest, extracts the invoked binary name
// (handling npx/pnpm exec/shell operators/env-var assignments), and
// resolves it against the workspace's reachable node_modules tree or the
// fixed IGNORED_GLOBAL_BINARIES set.
package binaries

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/decadef20/knip/internal/manifest"
	"github.com/decadef20/knip/internal/workspace"
)

// IgnoredGlobalBinaries is the fixed set named in spec.md §4.6 — common
// shell/runtime tools that resolve without being declared anywhere.
var IgnoredGlobalBinaries = map[string]bool{
	"node": true, "npm": true, "npx": true, "yarn": true, "pnpm": true,
	"echo": true, "cd": true, "rm": true, "mkdir": true, "cp": true, "mv": true,
	"ls": true, "cat": true, "true": true, "false": true, "exit": true,
	"env": true, "export": true, "set": true, "test": true, "sh": true, "bash": true,
	"git": true, "touch": true, "mkdirp": true, "cross-env": true,
}

// Resolution is the outcome of resolving one invoked binary name.
type Resolution int

const (
	ResolvedInstalled Resolution = iota
	ResolvedIgnored
	ResolvedUnlisted
)

// Invocation is one binary invoked from a manifest script.
type Invocation struct {
	Name                  string
	Script                string
	Workspace             *workspace.Workspace
	Resolution            Resolution
	IntentionallyUnlisted bool // `npx --yes name`: unlisted by design, never an issue
}

var envAssignRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// Scan extracts every binary invocation from ws's manifest scripts,
// resolving each against installedBins (see InstalledBinaries).
func Scan(ws *workspace.Workspace, installedBins map[string]bool) []Invocation {
	var out []Invocation
	names := make([]string, 0, len(ws.Manifest.Scripts))
	for name := range ws.Manifest.Scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, scriptName := range names {
		body := ws.Manifest.Scripts[scriptName]
		for _, cmd := range splitShellCommands(body) {
			inv := parseCommand(cmd)
			if inv.Name == "" {
				continue
			}
			inv.Script = scriptName
			inv.Workspace = ws
			inv.Resolution = resolve(inv.Name, inv.IntentionallyUnlisted, installedBins)
			out = append(out, inv)
		}
	}
	return out
}

func resolve(name string, intentionallyUnlisted bool, installedBins map[string]bool) Resolution {
	if intentionallyUnlisted {
		return ResolvedIgnored
	}
	if IgnoredGlobalBinaries[name] {
		return ResolvedIgnored
	}
	if installedBins[name] {
		return ResolvedInstalled
	}
	return ResolvedUnlisted
}

// splitShellCommands breaks a script body on &&, ||, ;, and | at the top
// level — no subshell or quoting awareness, matching this module's
// heuristic-analysis posture elsewhere.
func splitShellCommands(script string) []string {
	repl := strings.NewReplacer("&&", "\x00", "||", "\x00", ";", "\x00", "|", "\x00")
	parts := strings.Split(repl.Replace(script), "\x00")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseCommand extracts the invoked binary name from a single command,
// unwrapping npx/pnpm exec/yarn exec/npm exec and leading environment
// variable assignments (spec.md §4.6).
func parseCommand(cmd string) Invocation {
	tokens := strings.Fields(cmd)
	i := 0
	for i < len(tokens) && envAssignRe.MatchString(tokens[i]) {
		i++
	}
	if i >= len(tokens) {
		return Invocation{}
	}

	switch tokens[i] {
	case "npx":
		i++
		intentional := false
		for i < len(tokens) && strings.HasPrefix(tokens[i], "-") {
			if tokens[i] == "--yes" || tokens[i] == "-y" {
				intentional = true
			}
			i++
		}
		if i >= len(tokens) {
			return Invocation{}
		}
		return Invocation{Name: tokens[i], IntentionallyUnlisted: intentional}
	case "pnpm", "yarn", "npm":
		if i+1 < len(tokens) && tokens[i+1] == "exec" {
			i += 2
			if i >= len(tokens) {
				return Invocation{}
			}
			return Invocation{Name: tokens[i]}
		}
		return Invocation{Name: tokens[i]}
	default:
		return Invocation{Name: tokens[i]}
	}
}

// InstalledBinaries walks ws's reachable node_modules tree — ws's
// directory up through every ancestor directory, mirroring the hoisting
// model node_modules resolution relies on — collecting every bin name any
// installed package declares.
func InstalledBinaries(ws *workspace.Workspace) map[string]bool {
	bins := map[string]bool{}
	cur := ws.Dir
	for {
		scanNodeModulesDir(filepath.Join(cur, "node_modules"), bins)
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return bins
}

func scanNodeModulesDir(dir string, bins map[string]bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "@") {
			scoped, err := os.ReadDir(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			for _, s := range scoped {
				addPackageBins(filepath.Join(dir, e.Name(), s.Name()), bins)
			}
			continue
		}
		addPackageBins(filepath.Join(dir, e.Name()), bins)
	}
}

func addPackageBins(pkgDir string, bins map[string]bool) {
	data, err := os.ReadFile(filepath.Join(pkgDir, "package.json"))
	if err != nil {
		return
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return
	}
	for name := range m.Bin {
		bins[name] = true
	}
}
