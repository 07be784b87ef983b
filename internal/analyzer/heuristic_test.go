package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, src string) Result {
	t.Helper()
	res, err := ScanReader(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	return res
}

func TestScanReaderNamedImport(t *testing.T) {
	res := scan(t, "import { a, b } from './x';\n")
	require.Len(t, res.Imports, 1)
	require.Equal(t, "./x", res.Imports[0].Specifier)
	require.Equal(t, []string{"a", "b"}, res.Imports[0].Names)
}

func TestScanReaderDefaultImport(t *testing.T) {
	res := scan(t, "import x from './y';\n")
	require.Len(t, res.Imports, 1)
	require.Equal(t, []string{"default"}, res.Imports[0].Names)
}

func TestScanReaderNamespaceImport(t *testing.T) {
	res := scan(t, "import * as ns from './z';\n")
	require.Len(t, res.Imports, 1)
	require.True(t, res.Imports[0].Namespace)
}

func TestScanReaderSideEffectImport(t *testing.T) {
	res := scan(t, "import './side-effect';\n")
	require.Len(t, res.Imports, 1)
	require.True(t, res.Imports[0].SideEffectOnly)
	require.Equal(t, "./side-effect", res.Imports[0].Specifier)
}

func TestScanReaderDynamicImportAndRequire(t *testing.T) {
	res := scan(t, "const a = await import('./z');\nconst b = require('./y');\n")
	require.Len(t, res.Imports, 2)
	require.True(t, res.Imports[0].IsDynamic)
	require.Equal(t, "./z", res.Imports[0].Specifier)
	require.True(t, res.Imports[1].SideEffectOnly)
	require.Equal(t, "./y", res.Imports[1].Specifier)
}

func TestScanReaderExportConstDeclaration(t *testing.T) {
	res := scan(t, "export const x = 1;\n")
	require.Len(t, res.Exports, 1)
	require.Equal(t, "x", res.Exports[0].ExternalName)
	require.Equal(t, Value, res.Exports[0].Kind)
}

func TestScanReaderNamedReexportFrom(t *testing.T) {
	res := scan(t, "export { x } from './a';\n")
	require.Len(t, res.Exports, 1)
	require.Equal(t, "x", res.Exports[0].ExternalName)
	require.Equal(t, "./a", res.Exports[0].ReexportFrom)
	require.False(t, res.Exports[0].ReexportWildcard)
}

func TestScanReaderWildcardReexport(t *testing.T) {
	res := scan(t, "export * from './a';\n")
	require.Len(t, res.Exports, 1)
	require.True(t, res.Exports[0].ReexportWildcard)
	require.Equal(t, "./a", res.Exports[0].ReexportFrom)
}

func TestScanReaderNamespaceReexport(t *testing.T) {
	res := scan(t, "export * as ns from './a';\n")
	require.Len(t, res.Exports, 1)
	require.Equal(t, "ns", res.Exports[0].ExternalName)
	require.Equal(t, NamespaceReexport, res.Exports[0].Kind)
}

func TestScanReaderLocalNamedExport(t *testing.T) {
	res := scan(t, "const y = 2;\nexport { y };\n")
	require.Len(t, res.Exports, 1)
	require.Equal(t, "y", res.Exports[0].ExternalName)
	require.Empty(t, res.Exports[0].ReexportFrom)
}

func TestScanReaderExportDefault(t *testing.T) {
	res := scan(t, "export default function foo() {}\n")
	require.Len(t, res.Exports, 1)
	require.Equal(t, Default, res.Exports[0].Kind)
	require.Equal(t, "default", res.Exports[0].ExternalName)
}

// A JSDoc @public tag immediately preceding a declaration attaches to it.
func TestScanReaderPublicTagAttachesToFollowingExport(t *testing.T) {
	res := scan(t, "/** @public */\nexport const unused = 1;\n")
	require.Len(t, res.Exports, 1)
	require.True(t, res.Exports[0].HasTag("public"))
}

func TestScanReaderEnumMembersGetOwner(t *testing.T) {
	res := scan(t, "export enum Color {\n  Red,\n  Green,\n}\n")
	var members []string
	for _, e := range res.Exports {
		if e.Kind == EnumMember {
			members = append(members, e.LocalName)
			require.Equal(t, "Color", e.Owner)
		}
	}
	require.Equal(t, []string{"Red", "Green"}, members)
}

// A private class member is excluded from the extracted exports.
func TestScanReaderClassMembersExcludePrivate(t *testing.T) {
	res := scan(t, "export class Foo {\n  bar() {}\n  private baz() {}\n}\n")
	var members []string
	for _, e := range res.Exports {
		if e.Kind == ClassMember {
			members = append(members, e.LocalName)
		}
	}
	require.Equal(t, []string{"bar"}, members)
}
