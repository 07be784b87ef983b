package cache

import (
	"context"
	"os"

	"github.com/decadef20/knip/internal/analyzer"
)

// CachingAnalyzer wraps an analyzer.Analyzer with Store, stat-ing the
// target file to form the (path, mtime, size) key spec.md §6 calls for
// before delegating to Inner on a miss.
type CachingAnalyzer struct {
	Inner analyzer.Analyzer
	Store *Store
}

// Analyze satisfies analyzer.Analyzer. A stat failure falls through to
// Inner unchanged — a cache is advisory and never the reason a file fails
// to analyze.
func (c *CachingAnalyzer) Analyze(ctx context.Context, path string, kind analyzer.Kind) (analyzer.Result, error) {
	fi, statErr := os.Stat(path)
	if statErr != nil || c.Store == nil {
		return c.Inner.Analyze(ctx, path, kind)
	}

	key := Key{AbsPath: path, ModTime: fi.ModTime(), Size: fi.Size()}
	if res, ok := c.Store.Get(ctx, key); ok {
		return res, nil
	}

	res, err := c.Inner.Analyze(ctx, path, kind)
	if err != nil {
		return res, err
	}
	c.Store.Set(ctx, key, res)
	return res, nil
}
