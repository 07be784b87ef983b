package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONPopulatesRawAndFields(t *testing.T) {
	doc := []byte(`{"entry": ["src/index.ts"], "ignoreDependencies": ["lodash"]}`)
	n, err := Parse(doc, FormatJSON)
	require.NoError(t, err)
	require.Equal(t, []string{"src/index.ts"}, n.Entry)
	require.Equal(t, []string{"lodash"}, n.IgnoreDependencies)
	require.Contains(t, n.Raw, "entry")
}

func TestParseYAMLRawIsFormatAgnostic(t *testing.T) {
	doc := []byte("entry:\n  - src/index.ts\ncustomPlugin:\n  enabled: true\n")
	n, err := Parse(doc, FormatYAML)
	require.NoError(t, err)
	require.Equal(t, []string{"src/index.ts"}, n.Entry)
	require.Contains(t, n.Raw, "customPlugin")
}

func TestParseFoldsDeprecatedExcludeIntoIgnore(t *testing.T) {
	n, err := Parse([]byte(`{"ignore": ["dist/**"], "exclude": ["build/**"]}`), FormatJSON)
	require.NoError(t, err)
	require.Equal(t, []string{"dist/**", "build/**"}, n.Ignore)
	require.Nil(t, n.Exclude)

	err = n.ResolvePlugins([]string{"jest"})
	require.NoError(t, err, "exclude must not be treated as an unknown plugin key")
}

func TestResolvePluginsRejectsUnknownKey(t *testing.T) {
	n, err := Parse([]byte(`{"entry": ["src/index.ts"], "bogus": true}`), FormatJSON)
	require.NoError(t, err)

	err = n.ResolvePlugins([]string{"jest"})
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "bogus", cfgErr.Key)
}

func TestResolvePluginsAcceptsBoolAndObjectForms(t *testing.T) {
	n, err := Parse([]byte(`{"jest": false, "webpack": {"config": ["webpack.config.js"]}}`), FormatJSON)
	require.NoError(t, err)

	require.NoError(t, n.ResolvePlugins([]string{"jest", "webpack"}))
	require.NotNil(t, n.Plugins["jest"].Enabled)
	require.False(t, *n.Plugins["jest"].Enabled)
	require.Equal(t, []string{"webpack.config.js"}, n.Plugins["webpack"].Config)
}

func TestIgnoreExportsUsedInFileEnabledAllVsPerKind(t *testing.T) {
	var all IgnoreExportsUsedInFile
	require.NoError(t, all.UnmarshalJSON([]byte(`true`)))
	require.True(t, all.Enabled("type"))
	require.True(t, all.Enabled("value"))

	var perKind IgnoreExportsUsedInFile
	require.NoError(t, perKind.UnmarshalJSON([]byte(`{"type": true}`)))
	require.True(t, perKind.Enabled("type"))
	require.False(t, perKind.Enabled("value"))
}

func TestMergeReplacesSlicesWholesaleWhenNonNil(t *testing.T) {
	base := &Normalized{Entry: []string{"src/a.ts"}, Ignore: []string{"dist/**"}}
	override := &Normalized{Entry: []string{"src/b.ts"}}

	merged := Merge(base, override)
	require.Equal(t, []string{"src/b.ts"}, merged.Entry)
	require.Equal(t, []string{"dist/**"}, merged.Ignore, "untouched base field survives the merge")
}

func TestMergeWithNilBaseOrOverride(t *testing.T) {
	n := &Normalized{Entry: []string{"src/a.ts"}}
	require.Same(t, n, Merge(nil, n))
	require.Same(t, n, Merge(n, nil))
}
