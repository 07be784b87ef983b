package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/decadef20/knip/internal/analyzer"
	"github.com/decadef20/knip/internal/binaries"
	"github.com/decadef20/knip/internal/cache"
	"github.com/decadef20/knip/internal/cache/remote"
	"github.com/decadef20/knip/internal/config"
	"github.com/decadef20/knip/internal/depattr"
	"github.com/decadef20/knip/internal/diag"
	"github.com/decadef20/knip/internal/entry"
	"github.com/decadef20/knip/internal/graph"
	"github.com/decadef20/knip/internal/issue"
	"github.com/decadef20/knip/internal/libscan"
	"github.com/decadef20/knip/internal/manifest"
	"github.com/decadef20/knip/internal/plugin"
	"github.com/decadef20/knip/internal/project"
	"github.com/decadef20/knip/internal/report"
	"github.com/decadef20/knip/internal/workspace"
)

func run(ctx context.Context, args []string) (int, error) {
	fs := flag.NewFlagSet("knip", flag.ContinueOnError)

	var includes, excludes stringSliceFlag
	fs.Var(&includes, "include", "issue kind to include in the report (repeatable)")
	fs.Var(&excludes, "exclude", "issue kind to exclude from the report (repeatable)")
	dependenciesShort := fs.Bool("dependencies", false, "shorthand for --include dependencies --include unlisted-dependencies")
	exportsShort := fs.Bool("exports", false, "shorthand for --include exports")
	filesShort := fs.Bool("files", false, "shorthand for --include files")
	includeLibs := fs.Bool("include-libs", false, "inspect external library type declarations")
	production := fs.Bool("production", false, "analyze only production entries")
	workspaceFlag := fs.String("W", "", "lint a single workspace subtree")
	reporter := fs.String("reporter", "", "report format: text or json")

	if err := fs.Parse(args); err != nil {
		return 2, err
	}

	dirArg := "."
	if fs.NArg() > 0 {
		dirArg = fs.Arg(0)
	}
	rootDir, err := filepath.Abs(dirArg)
	if err != nil {
		return 2, fmt.Errorf("resolving working directory: %w", err)
	}

	env := config.LoadEnvOverrides()
	registry := plugin.DefaultRegistry()

	rootConfig, err := loadRootConfig(rootDir)
	if err != nil {
		return 2, err
	}
	if rootConfig != nil {
		if err := rootConfig.ResolvePlugins(registry.Names()); err != nil {
			return 2, err
		}
	}

	d := diag.New()
	workspaces, err := workspace.Enumerate(rootDir, rootConfig, d)
	if err != nil {
		return 2, err
	}

	var scopeDir string
	if *workspaceFlag != "" {
		scopeDir, err = filepath.Abs(*workspaceFlag)
		if err != nil {
			return 2, fmt.Errorf("resolving -W path: %w", err)
		}
	}
	inScope := func(ws *workspace.Workspace) bool {
		if scopeDir == "" {
			return true
		}
		rel, err := filepath.Rel(scopeDir, ws.Dir)
		return err == nil && (rel == "." || !strings.HasPrefix(rel, ".."))
	}

	var (
		allProjectFiles []*project.ProjectFile
		allEntries      []*project.ProjectFile
		allBinaries     []binaries.Invocation
		scoped          []*workspace.Workspace
		pluginRefs      = map[*workspace.Workspace][]string{}
	)

	for _, ws := range workspaces {
		if !inScope(ws) {
			continue
		}
		scoped = append(scoped, ws)

		gi := project.LoadGitignore(rootDir, ws.Dir)
		set := project.Collect(ws, gi)

		pr := registry.Run(ws.Dir, ws.Manifest, ws.Config.Plugins, d)
		pluginRefs[ws] = pr.References
		entry.Seed(ws, set, pr)

		for _, f := range set.Sorted() {
			if *production && f.Origin == project.OriginPluginEntry {
				continue
			}
			allProjectFiles = append(allProjectFiles, f)
			if f.Origin != project.OriginProject {
				allEntries = append(allEntries, f)
			}
		}

		allBinaries = append(allBinaries, binaries.Scan(ws, binaries.InstalledBinaries(ws))...)
	}

	var baseAnalyzer analyzer.Analyzer = analyzer.HeuristicAnalyzer{}
	if store, err := buildCache(env); err != nil {
		log.Printf("knip: cache disabled: %v", err)
	} else if store != nil {
		baseAnalyzer = &cache.CachingAnalyzer{Inner: baseAnalyzer, Store: store}
	}

	g, err := graph.Build(ctx, graph.Options{
		RootDir:    rootDir,
		Workspaces: workspaces,
		Entries:    allEntries,
		Analyzer:   baseAnalyzer,
		Diag:       d,
	})
	if err != nil {
		return 2, err
	}
	if err := ctx.Err(); err != nil {
		return 2, err
	}

	attributions := depattr.Attribute(g.ExternalRefs())

	if *includeLibs {
		findings := libscan.Scan(g.ExternalRefs())
		missing := 0
		for _, f := range findings {
			if !f.HasTypes {
				missing++
			}
		}
		log.Printf("knip: --include-libs inspected %d external packages, %d without shipped type declarations", len(findings), missing)
	}

	rep := issue.Classify(issue.Input{
		Workspaces:       scoped,
		ProjectFiles:     allProjectFiles,
		Graph:            g,
		Attributions:     attributions,
		Binaries:         allBinaries,
		PluginReferences: pluginRefs,
	})

	kinds := resolveKinds(includes, *dependenciesShort, *exportsShort, *filesShort)
	active := issue.ActiveKinds(kinds, excludeKinds(excludes))

	format := *reporter
	if format == "" {
		format = env.Reporter
	}
	if err := report.Render(os.Stdout, rootDir, rep, active, format); err != nil {
		return 2, err
	}

	for _, e := range d.Entries() {
		log.Printf("%s: %s: %s", e.Kind, e.File, e.Message)
	}

	return issue.ExitCode(rep, active), nil
}

func resolveKinds(includes stringSliceFlag, dependencies, exports, files bool) []issue.Kind {
	var out []issue.Kind
	for _, k := range includes {
		out = append(out, issue.Kind(k))
	}
	if dependencies {
		out = append(out, issue.KindDependencies, issue.KindUnlistedDependencies)
	}
	if exports {
		out = append(out, issue.KindExports)
	}
	if files {
		out = append(out, issue.KindFiles)
	}
	return out
}

func excludeKinds(excludes stringSliceFlag) []issue.Kind {
	out := make([]issue.Kind, 0, len(excludes))
	for _, k := range excludes {
		out = append(out, issue.Kind(k))
	}
	return out
}

// loadRootConfig locates the configuration document per spec.md §6: one
// of the dedicated container formats at the run root, or else an embedded
// "knip" section in the root manifest.
func loadRootConfig(rootDir string) (*config.Normalized, error) {
	for _, name := range []string{"knip.json", "knip.jsonc", "knip.yaml", "knip.yml"} {
		path := filepath.Join(rootDir, name)
		if _, err := os.Stat(path); err == nil {
			return config.Load(path)
		}
	}

	data, err := os.ReadFile(filepath.Join(rootDir, "package.json"))
	if err != nil {
		return nil, nil
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, nil
	}
	raw, ok := m.Raw["knip"]
	if !ok {
		return nil, nil
	}
	return config.Parse(raw, config.FormatJSON)
}

// buildCache wires the advisory analysis cache's tiers from env overrides.
// The disk tier lives under the user cache directory; the remote tier is
// added only when enabled by env. Returns (nil, nil) when the user cache
// directory can't be determined — the graph builder then runs uncached,
// which is always correct, just slower.
func buildCache(env config.EnvOverrides) (*cache.Store, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, nil
	}
	cfg := cache.Config{DiskRoot: filepath.Join(cacheDir, "knip")}

	if env.CacheRemoteOn {
		remoteStore, err := remote.New(remote.Config{
			Endpoint:  env.CacheRemoteEndpoint,
			Bucket:    env.CacheRemoteBucket,
			AccessKey: env.CacheRemoteAccessKey,
			SecretKey: env.CacheRemoteSecretKey,
			UseSSL:    env.CacheRemoteUseSSL,
		})
		if err != nil {
			return nil, err
		}
		cfg.Remote = remoteStore
	}

	return cache.New(cfg)
}
