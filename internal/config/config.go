// Package config loads and normalizes the configuration document described
// in spec.md §6. The core only ever sees the Normalized tree; which
// on-disk syntax it came from (JSON, YAML, or an embedded manifest key)
// is resolved here and nowhere else.
//
// Loading follows the teacher's own config idiom
// (internal/gateway/config/config.go): godotenv.Load() first (silently
// ignored if absent), then typed env-var overrides layered on top of
// whatever the document itself said.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PluginOverride is the `{config, entry, project}` object form a
// per-plugin config key may take; a bare bool forces the plugin on/off
// instead (see UnmarshalJSON/UnmarshalYAML below).
type PluginOverride struct {
	Enabled *bool
	Config  []string
	Entry   []string
	Project []string
}

type pluginOverrideDoc struct {
	Config  []string `json:"config" yaml:"config"`
	Entry   []string `json:"entry" yaml:"entry"`
	Project []string `json:"project" yaml:"project"`
}

func (p *PluginOverride) fromBool(b bool) { p.Enabled = &b }

func (p *PluginOverride) fromDoc(d pluginOverrideDoc) {
	p.Config, p.Entry, p.Project = d.Config, d.Entry, d.Project
}

func (p *PluginOverride) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		p.fromBool(b)
		return nil
	}
	var d pluginOverrideDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	p.fromDoc(d)
	return nil
}

func (p *PluginOverride) UnmarshalYAML(node *yaml.Node) error {
	var b bool
	if err := node.Decode(&b); err == nil {
		p.fromBool(b)
		return nil
	}
	var d pluginOverrideDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	p.fromDoc(d)
	return nil
}

// IgnoreExportsUsedInFile is either a plain bool or a per-export-kind map,
// per spec.md §6.
type IgnoreExportsUsedInFile struct {
	All     *bool
	PerKind map[string]bool
}

func (i *IgnoreExportsUsedInFile) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		i.All = &b
		return nil
	}
	return json.Unmarshal(data, &i.PerKind)
}

func (i *IgnoreExportsUsedInFile) UnmarshalYAML(node *yaml.Node) error {
	var b bool
	if err := node.Decode(&b); err == nil {
		i.All = &b
		return nil
	}
	return node.Decode(&i.PerKind)
}

// Enabled reports whether ignoreExportsUsedInFile applies to exportKind.
func (i IgnoreExportsUsedInFile) Enabled(exportKind string) bool {
	if i.All != nil {
		return *i.All
	}
	if i.PerKind == nil {
		return false
	}
	return i.PerKind[exportKind]
}

// Normalized is the recognized-keys tree from spec.md §6.
type Normalized struct {
	Entry                   []string                  `json:"entry" yaml:"entry"`
	Project                 []string                  `json:"project" yaml:"project"`
	Ignore                  []string                  `json:"ignore" yaml:"ignore"`
	// Exclude is the deprecated alias for Ignore; Parse folds it in and
	// clears it so every other consumer only ever sees Ignore.
	Exclude                 []string                  `json:"exclude" yaml:"exclude"`
	IgnoreDependencies      []string                  `json:"ignoreDependencies" yaml:"ignoreDependencies"`
	IgnoreBinaries          []string                  `json:"ignoreBinaries" yaml:"ignoreBinaries"`
	IgnoreExportsUsedInFile IgnoreExportsUsedInFile    `json:"ignoreExportsUsedInFile" yaml:"ignoreExportsUsedInFile"`
	IncludeEntryExports     bool                       `json:"includeEntryExports" yaml:"includeEntryExports"`
	Plugins                map[string]PluginOverride  `json:"-" yaml:"-"`
	Paths                   map[string][]string       `json:"paths" yaml:"paths"`
	Workspaces              map[string]*Normalized    `json:"workspaces" yaml:"workspaces"`

	// Raw holds every top-level key verbatim, so `<plugin-name>` keys (not
	// statically known ahead of time) can be pulled out after the plugin
	// catalog is known. ConfigError is raised by the caller for keys that
	// are neither a recognized key nor a known plugin name.
	Raw map[string]json.RawMessage `json:"-" yaml:"-"`
}

var recognizedKeys = map[string]bool{
	"entry": true, "project": true, "ignore": true, "exclude": true,
	"ignoreDependencies": true, "ignoreBinaries": true,
	"ignoreExportsUsedInFile": true, "includeEntryExports": true,
	"paths": true, "workspaces": true,
}

// Load reads and normalizes the config document at path. Format is chosen
// by extension; ".yml"/".yaml" decode as YAML, everything else as JSON.
func Load(path string) (*Normalized, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, formatFor(path))
}

// Format selects the container syntax used to decode a config document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse normalizes a config document already read into memory.
func Parse(data []byte, format Format) (*Normalized, error) {
	n := &Normalized{}
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, n)
	default:
		err = json.Unmarshal(data, n)
	}
	if err != nil {
		return nil, fmt.Errorf("config: malformed document: %w", err)
	}

	raw := map[string]json.RawMessage{}
	if format == FormatYAML {
		// Re-marshal through YAML->JSON so Raw is format-agnostic for
		// plugin-key extraction regardless of source syntax.
		var generic map[string]interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("config: malformed document: %w", err)
		}
		for k, v := range generic {
			b, mErr := json.Marshal(v)
			if mErr != nil {
				continue
			}
			raw[k] = b
		}
	} else {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("config: malformed document: %w", err)
		}
	}
	n.Raw = raw
	foldExclude(n)
	return n, nil
}

// foldExclude merges the deprecated `exclude` key into `ignore` (spec.md §9's
// resolved Open Question: exclude is a pre-rename alias, not a distinct
// concern) at every level of the document, including per-workspace overrides.
func foldExclude(n *Normalized) {
	if n == nil {
		return
	}
	if len(n.Exclude) > 0 {
		n.Ignore = append(append([]string{}, n.Ignore...), n.Exclude...)
		n.Exclude = nil
	}
	for _, ws := range n.Workspaces {
		foldExclude(ws)
	}
}

// ResolvePlugins extracts `<plugin-name>` keys for every name in
// knownPlugins, returning a ConfigError for any top-level key that is
// neither a recognized core key nor a known plugin name.
func (n *Normalized) ResolvePlugins(knownPlugins []string) error {
	if n == nil || n.Raw == nil {
		return nil
	}
	known := make(map[string]bool, len(knownPlugins))
	for _, p := range knownPlugins {
		known[p] = true
	}
	n.Plugins = make(map[string]PluginOverride)
	for key, raw := range n.Raw {
		if recognizedKeys[key] {
			continue
		}
		if !known[key] {
			return &ConfigError{Key: key}
		}
		var ov PluginOverride
		if err := json.Unmarshal(raw, &ov); err != nil {
			return &ConfigError{Key: key, Err: err}
		}
		n.Plugins[key] = ov
	}
	return nil
}

// ConfigError is fatal: malformed configuration or an unknown top-level key.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: unknown or malformed key %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config: unknown top-level key %q", e.Key)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Merge layers override onto base: scalars replace, IncludeEntryExports
// is switched on by an override but never switched off, slices and
// maps replace wholesale when non-nil in override (spec.md describes
// "layers its own" without finer merge semantics, so whole-field
// replacement is the simplest interpretation that doesn't silently drop
// an override's intent to clear a base-level list).
func Merge(base, override *Normalized) *Normalized {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}
	out := *base
	if override.Entry != nil {
		out.Entry = override.Entry
	}
	if override.Project != nil {
		out.Project = override.Project
	}
	if override.Ignore != nil {
		out.Ignore = override.Ignore
	}
	if override.IgnoreDependencies != nil {
		out.IgnoreDependencies = override.IgnoreDependencies
	}
	if override.IgnoreBinaries != nil {
		out.IgnoreBinaries = override.IgnoreBinaries
	}
	if override.IgnoreExportsUsedInFile.All != nil || override.IgnoreExportsUsedInFile.PerKind != nil {
		out.IgnoreExportsUsedInFile = override.IgnoreExportsUsedInFile
	}
	if override.IncludeEntryExports {
		out.IncludeEntryExports = override.IncludeEntryExports
	}
	if override.Paths != nil {
		out.Paths = override.Paths
	}
	if override.Plugins != nil {
		merged := make(map[string]PluginOverride, len(out.Plugins)+len(override.Plugins))
		for k, v := range out.Plugins {
			merged[k] = v
		}
		for k, v := range override.Plugins {
			merged[k] = v
		}
		out.Plugins = merged
	}
	return &out
}

// EnvOverrides is the set of .env/os-env-sourced escapes layered on top of
// the document, mirroring config.go's ArtifactConfig env-default pattern.
type EnvOverrides struct {
	Reporter          string
	IncludeLibs       bool
	CacheRemoteOn     bool
	CacheRemoteEndpoint  string
	CacheRemoteBucket    string
	CacheRemoteAccessKey string
	CacheRemoteSecretKey string
	CacheRemoteUseSSL    bool
}

// LoadEnvOverrides calls godotenv.Load() (ignoring a missing .env file,
// exactly as the teacher does) and reads the handful of env vars the CLI
// surface recognizes.
func LoadEnvOverrides() EnvOverrides {
	_ = godotenv.Load()

	endpoint := strings.TrimSpace(os.Getenv("KNIP_CACHE_REMOTE_ENDPOINT"))
	return EnvOverrides{
		Reporter:             strings.TrimSpace(os.Getenv("KNIP_REPORTER")),
		IncludeLibs:          envBool("KNIP_INCLUDE_LIBS", false),
		CacheRemoteOn:        endpoint != "",
		CacheRemoteEndpoint:  endpoint,
		CacheRemoteBucket:    firstNonEmpty(os.Getenv("KNIP_CACHE_REMOTE_BUCKET"), "knip-analysis-cache"),
		CacheRemoteAccessKey: os.Getenv("KNIP_CACHE_REMOTE_ACCESS_KEY"),
		CacheRemoteSecretKey: os.Getenv("KNIP_CACHE_REMOTE_SECRET_KEY"),
		CacheRemoteUseSSL:    envBool("KNIP_CACHE_REMOTE_USE_SSL", true),
	}
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
