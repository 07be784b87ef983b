package plugin

import "regexp"

// Webpack is the bundler plugin: auto-enabled by a `webpack` dependency,
// scans the config for `loader:`/`plugins: [new X(...)]`-style references
// so loader/plugin packages the bundler loads by string name aren't
// reported unused.
var Webpack = Plugin{
	Name:        "webpack",
	Enabler:     EnablerForPackages("webpack", "webpack-cli"),
	ConfigGlobs: []string{"webpack.config.js", "webpack.config.ts", "webpack.config.mjs", "webpack.*.config.js"},
	Resolve:     resolveWebpackConfig,
}

var (
	webpackLoaderRe  = regexp.MustCompile(`loader\s*:\s*['"]([a-zA-Z0-9@/_.-]+)['"]`)
	webpackRequireRe = regexp.MustCompile(`require\(\s*['"]([a-zA-Z0-9@/_.-]+)['"]\s*\)`)
)

func resolveWebpackConfig(doc Doc) (Contributions, error) {
	text := string(doc.Raw)
	var refs []string
	for _, m := range webpackLoaderRe.FindAllStringSubmatch(text, -1) {
		refs = append(refs, m[1])
	}
	for _, m := range webpackRequireRe.FindAllStringSubmatch(text, -1) {
		refs = append(refs, m[1])
	}
	return Contributions{References: refs}, nil
}
