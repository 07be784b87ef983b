// Package cache implements the advisory per-file analysis cache spec.md
// §6 names: "a run may optionally cache per-file analyses keyed by
// (absolute path, mtime, size); cache is advisory and can be discarded at
// any time." Three tiers, checked in order and back-filled on a lower-tier
// hit: an in-process hashicorp/golang-lru/v2 cache (grounded on the
// teacher's internal/gateway/repository/projectstore/store.go, which uses
// the same library the same way), an on-disk tier (internal/cache/disk,
// the teacher's own generic LRU/TTL byte store), and an optional remote
// tier (internal/cache/remote, adapted from the teacher's S3-backed
// artifact store). Any tier may be absent; a nil tier is skipped.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/decadef20/knip/internal/analyzer"
	"github.com/decadef20/knip/internal/cache/disk"
)

// Key identifies one cached analysis: the file's absolute path plus the
// (mtime, size) pair spec.md §6 names as the cache key.
type Key struct {
	AbsPath string
	ModTime time.Time
	Size    int64
}

func (k Key) hash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", k.AbsPath, k.ModTime.UnixNano(), k.Size)))
	return hex.EncodeToString(sum[:])
}

// RemoteStore is the interface the remote tier satisfies; *remote.Store
// implements it, and a nil RemoteStore disables the tier.
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store is the composed three-tier cache.
type Store struct {
	mem    *lru.Cache[string, analyzer.Result]
	disk   *disk.LRUTTLStore
	remote RemoteStore
}

// Config configures Store's tiers. DiskRoot == "" disables the disk tier;
// Remote == nil disables the remote tier.
type Config struct {
	MemEntries int
	DiskRoot   string
	DiskTTL    time.Duration
	DiskMaxMB  int64
	Remote     RemoteStore
}

// New builds a Store from cfg. The in-memory tier is always present (4096
// entries if unconfigured); the disk and remote tiers are
// each optional.
func New(cfg Config) (*Store, error) {
	if cfg.MemEntries <= 0 {
		cfg.MemEntries = 4096
	}
	mem, err := lru.New[string, analyzer.Result](cfg.MemEntries)
	if err != nil {
		return nil, fmt.Errorf("cache: init memory tier: %w", err)
	}

	s := &Store{mem: mem, remote: cfg.Remote}

	if cfg.DiskRoot != "" {
		ttl := cfg.DiskTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		d, err := disk.NewLRUTTLStore(disk.LRUTTLConfig{
			Root:       cfg.DiskRoot,
			MaxEntries: cfg.MemEntries * 4,
			MaxBytes:   cfg.DiskMaxMB * 1024 * 1024,
			TTL:        ttl,
		})
		if err != nil {
			return nil, fmt.Errorf("cache: init disk tier: %w", err)
		}
		s.disk = d
	}

	return s, nil
}

// Get checks the memory tier, then disk, then remote, back-filling each
// faster tier on a hit from a slower one.
func (s *Store) Get(ctx context.Context, key Key) (analyzer.Result, bool) {
	if s == nil {
		return analyzer.Result{}, false
	}
	h := key.hash()

	if res, ok := s.mem.Get(h); ok {
		return res, true
	}

	if s.disk != nil {
		if raw, ok, err := s.disk.Get(ctx, h); err == nil && ok {
			var res analyzer.Result
			if json.Unmarshal(raw, &res) == nil {
				s.mem.Add(h, res)
				return res, true
			}
		}
	}

	if s.remote != nil {
		if raw, ok, err := s.remote.Get(ctx, h); err == nil && ok {
			var res analyzer.Result
			if json.Unmarshal(raw, &res) == nil {
				s.mem.Add(h, res)
				if s.disk != nil {
					_ = s.disk.Set(ctx, h, raw, len(raw))
				}
				return res, true
			}
		}
	}

	return analyzer.Result{}, false
}

// Set populates every configured tier. Disk/remote write failures are
// advisory — the cache can always be discarded — so Set does not surface
// them; the memory tier write can't fail.
func (s *Store) Set(ctx context.Context, key Key, res analyzer.Result) {
	if s == nil {
		return
	}
	h := key.hash()
	s.mem.Add(h, res)

	if s.disk == nil && s.remote == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if s.disk != nil {
		_ = s.disk.Set(ctx, h, raw, len(raw))
	}
	if s.remote != nil {
		_ = s.remote.Set(ctx, h, raw)
	}
}
