package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/decadef20/knip/internal/analyzer"
)

func TestStoreMemoryTierRoundTrip(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)

	key := Key{AbsPath: "/repo/src/a.ts", ModTime: time.Unix(1000, 0), Size: 42}
	_, ok := s.Get(context.Background(), key)
	require.False(t, ok)

	res := analyzer.Result{Imports: []analyzer.Import{{Specifier: "./b"}}}
	s.Set(context.Background(), key, res)

	got, ok := s.Get(context.Background(), key)
	require.True(t, ok)
	require.Equal(t, res, got)
}

func TestStoreDiskTierBackfillsMemory(t *testing.T) {
	diskRoot := t.TempDir()
	s, err := New(Config{DiskRoot: diskRoot})
	require.NoError(t, err)

	key := Key{AbsPath: "/repo/src/a.ts", ModTime: time.Unix(2000, 0), Size: 7}
	res := analyzer.Result{Exports: []analyzer.Export{{LocalName: "x", ExternalName: "x"}}}
	s.Set(context.Background(), key, res)

	// A fresh store over the same disk root must see the disk tier's entry
	// even though its own memory tier starts cold.
	s2, err := New(Config{DiskRoot: diskRoot})
	require.NoError(t, err)
	got, ok := s2.Get(context.Background(), key)
	require.True(t, ok)
	require.Equal(t, res, got)
}

type statOnlyAnalyzer struct {
	calls int
	res   analyzer.Result
}

func (a *statOnlyAnalyzer) Analyze(ctx context.Context, path string, kind analyzer.Kind) (analyzer.Result, error) {
	a.calls++
	return a.res, nil
}

func TestCachingAnalyzerSkipsInnerOnHit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const a = 1;\n"), 0o644))

	store, err := New(Config{})
	require.NoError(t, err)
	inner := &statOnlyAnalyzer{res: analyzer.Result{Exports: []analyzer.Export{{LocalName: "a", ExternalName: "a"}}}}
	ca := &CachingAnalyzer{Inner: inner, Store: store}

	res1, err := ca.Analyze(context.Background(), path, analyzer.KindModule)
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls)

	res2, err := ca.Analyze(context.Background(), path, analyzer.KindModule)
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls, "second call should hit the cache, not Inner")
	require.Equal(t, res1, res2)
}

func TestCachingAnalyzerFallsThroughOnStatFailure(t *testing.T) {
	store, err := New(Config{})
	require.NoError(t, err)
	inner := &statOnlyAnalyzer{res: analyzer.Result{}}
	ca := &CachingAnalyzer{Inner: inner, Store: store}

	_, err = ca.Analyze(context.Background(), "/does/not/exist.ts", analyzer.KindModule)
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls)
}

type erroringAnalyzer struct{}

func (erroringAnalyzer) Analyze(ctx context.Context, path string, kind analyzer.Kind) (analyzer.Result, error) {
	return analyzer.Result{}, errors.New("boom")
}

func TestCachingAnalyzerUsesDiskTierAcrossStores(t *testing.T) {
	diskRoot := t.TempDir()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const a = 1;\n"), 0o644))

	store1, err := New(Config{DiskRoot: diskRoot})
	require.NoError(t, err)
	inner1 := &statOnlyAnalyzer{res: analyzer.Result{Exports: []analyzer.Export{{LocalName: "a", ExternalName: "a"}}}}
	ca1 := &CachingAnalyzer{Inner: inner1, Store: store1}

	res1, err := ca1.Analyze(context.Background(), path, analyzer.KindModule)
	require.NoError(t, err)
	require.Equal(t, 1, inner1.calls)

	// A second CachingAnalyzer with a cold memory tier, but the same disk
	// root, must still see the first run's result via the disk tier and
	// never call its own Inner.
	store2, err := New(Config{DiskRoot: diskRoot})
	require.NoError(t, err)
	inner2 := &statOnlyAnalyzer{res: analyzer.Result{}}
	ca2 := &CachingAnalyzer{Inner: inner2, Store: store2}

	res2, err := ca2.Analyze(context.Background(), path, analyzer.KindModule)
	require.NoError(t, err)
	require.Equal(t, 0, inner2.calls, "disk tier hit must skip Inner entirely")
	require.Equal(t, res1, res2)
}

func TestCachingAnalyzerDoesNotCacheErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	store, err := New(Config{})
	require.NoError(t, err)
	ca := &CachingAnalyzer{Inner: erroringAnalyzer{}, Store: store}

	_, err = ca.Analyze(context.Background(), path, analyzer.KindModule)
	require.Error(t, err)
}
