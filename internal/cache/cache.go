// Package cache memoizes analysis results on disk. Entries are addressed by
// the hash of a Key, carry an optional TTL checked at read time, and are
// fronted by an in-memory LRU. Corrupted entries read as misses.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/scan-io-git/skims/internal/config"
)

// Stats counts cache traffic since the Cache was created.
type Stats struct {
	Hits    int64
	Misses  int64
	Writes  int64
	Corrupt int64
}

// Cache is the cache service shared by every component of a process.
type Cache struct {
	disk      *disk
	namespace string
	ttl       time.Duration
	disabled  bool
	mem       *lru.Cache[string, *entry]
	group     singleflight.Group
	async     *semaphore.Weighted
	now       func() time.Time
	logger    hclog.Logger

	hits    atomic.Int64
	misses  atomic.Int64
	writes  atomic.Int64
	corrupt atomic.Int64
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces the clock used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithAsyncLimit bounds the number of concurrent asynchronous computations.
func WithAsyncLimit(n int64) Option {
	return func(c *Cache) { c.async = semaphore.NewWeighted(n) }
}

// New creates a Cache rooted at cfg.Root on fs.
func New(fs afero.Fs, cfg config.Cache, logger hclog.Logger, opts ...Option) (*Cache, error) {
	if err := config.ValidateNamespace(cfg.Namespace); err != nil {
		return nil, err
	}
	if cfg.Root == "" {
		return nil, errors.New("cache root is not set")
	}

	size := config.SetThen(cfg.MemoryEntries, config.DefaultMemoryItems)
	mem, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	c := &Cache{
		disk:      &disk{fs: fs, root: cfg.Root},
		namespace: config.SetThen(cfg.Namespace, config.DefaultNamespace),
		ttl:       cfg.TTL,
		disabled:  cfg.Disabled,
		mem:       mem,
		async:     semaphore.NewWeighted(int64(size)),
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Namespace returns the namespace entries are stored under.
func (c *Cache) Namespace() string {
	return c.namespace
}

// TTL returns the configured TTL for results that may go stale.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Disabled reports whether lookups always miss.
func (c *Cache) Disabled() bool {
	return c.disabled
}

// Get returns the value stored for key when it exists and has not expired.
func (c *Cache) Get(key Key) ([]byte, bool) {
	if c.disabled {
		return nil, false
	}
	hash, err := c.hash(key)
	if err != nil {
		c.logger.Debug("cache key is not encodable", "function", key.Function, "error", err)
		return nil, false
	}
	e, ok := c.load(hash)
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// hash addresses key inside the namespace of c.
func (c *Cache) hash(key Key) (string, error) {
	key.Namespace = c.namespace
	return key.Hash()
}

func (c *Cache) load(hash string) (*entry, bool) {
	now := c.now()
	if e, ok := c.mem.Get(hash); ok {
		if !e.expired(now) {
			return e, true
		}
		c.mem.Remove(hash)
		return nil, false
	}

	data, err := c.disk.read(c.namespace, hash)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Debug("cache entry is not readable", "hash", hash, "error", err)
		}
		return nil, false
	}
	e, err := decodeEntry(data)
	if err != nil {
		c.corrupt.Inc()
		c.logger.Debug("cache entry is corrupted", "hash", hash, "error", err)
		return nil, false
	}
	if e.expired(now) {
		return nil, false
	}
	c.mem.Add(hash, e)
	return e, true
}

// Put stores value for key, replacing any previous entry.
func (c *Cache) Put(key Key, value []byte, ttl time.Duration) error {
	if c.disabled {
		return nil
	}
	hash, err := c.hash(key)
	if err != nil {
		return err
	}
	return c.store(hash, key, value, ttl)
}

func (c *Cache) store(hash string, key Key, value []byte, ttl time.Duration) error {
	e := &entry{
		Version:  entryVersion,
		Module:   key.Module,
		Function: key.Function,
		StoredAt: c.now().UnixNano(),
		TTL:      int64(ttl),
		Value:    value,
	}
	data, err := encodeEntry(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.disk.write(c.namespace, hash, data); err != nil {
		return err
	}
	c.mem.Add(hash, e)
	c.writes.Inc()
	return nil
}

// Stats returns the traffic counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Writes:  c.writes.Load(),
		Corrupt: c.corrupt.Load(),
	}
}

// DiskStats returns the entries stored per namespace.
func (c *Cache) DiskStats() ([]NamespaceStats, error) {
	return c.disk.stats()
}

// Clear removes the entries of namespace, or of every namespace when it is
// empty, and drops the memory layer.
func (c *Cache) Clear(namespace string) error {
	if namespace != "" {
		if err := config.ValidateNamespace(namespace); err != nil {
			return err
		}
	}
	c.mem.Purge()
	return c.disk.clear(namespace)
}

// Reset drops the memory layer and the traffic counters. Disk entries stay.
func (c *Cache) Reset() {
	c.mem.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
	c.writes.Store(0)
	c.corrupt.Store(0)
}

// Do returns the cached value of key, calling compute and storing its
// result on a miss. Concurrent calls for the same key compute once.
// Results that fail to encode or store are returned without caching.
func Do[T any](ctx context.Context, c *Cache, key Key, ttl time.Duration, codec Codec[T], compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if c.disabled {
		return compute(ctx)
	}

	hash, err := c.hash(key)
	if err != nil {
		return zero, err
	}

	if e, ok := c.load(hash); ok {
		value, err := codec.Decode(e.Value)
		if err == nil {
			c.hits.Inc()
			return value, nil
		}
		c.corrupt.Inc()
		c.logger.Debug("cached value is not decodable", "function", key.Function, "error", err)
	}
	c.misses.Inc()

	v, err, _ := c.group.Do(hash, func() (interface{}, error) {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		data, err := codec.Encode(value)
		if err != nil {
			c.logger.Warn("failed to encode cache value", "function", key.Function, "error", err)
			return value, nil
		}
		if err := c.store(hash, key, data, ttl); err != nil {
			c.logger.Warn("failed to store cache value", "function", key.Function, "error", err)
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	value, _ := v.(T)
	return value, nil
}
