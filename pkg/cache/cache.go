// Package cache memoizes warehouse results by query and normalized parameters.
// Entries never expire on their own; Clear is the only invalidation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/axelarscope/dashboard/pkg/catalog"
	"github.com/axelarscope/dashboard/pkg/warehouse"
)

const DefaultMaxEntries = 512

// Key identifies one cached result.
type Key struct {
	Query  string
	Digest string
}

// KeyFor derives the cache key from the query id and its normalized parameters, so parameters the query
// does not use never split the cache.
func KeyFor(spec *catalog.QuerySpec, p catalog.Params) Key {
	n := p.Normalize(spec.Uses)
	sum := sha256.Sum256([]byte(spec.ID + "|" + n.Fingerprint()))
	return Key{Query: spec.ID, Digest: hex.EncodeToString(sum[:])}
}

func (k Key) String() string {
	return k.Query + "/" + k.Digest[:min(12, len(k.Digest))]
}

// Entry is a stored result. Replaced, never updated.
type Entry struct {
	Key       Key
	Value     *warehouse.ResultTable
	CreatedAt time.Time
}

// ComputeFunc produces the result for a key on a miss.
type ComputeFunc func(ctx context.Context) (*warehouse.ResultTable, error)

// ComputeError is delivered to every caller waiting on a failed computation.
type ComputeError struct {
	Key Key
	Err error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("compute %s: %v", e.Key, e.Err)
}

func (e *ComputeError) Unwrap() error {
	return e.Err
}

type queryCounters struct {
	hits     *xsync.Counter
	misses   *xsync.Counter
	failures *xsync.Counter
}

// Cache is an LRU-bounded, single-flight result cache. Safe for concurrent use.
type Cache struct {
	logger     *zap.Logger
	maxEntries int

	mu      sync.Mutex
	entries *simplelru.LRU[string, *Entry]
	gen     uint64
	purging bool

	flights singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	computes  atomic.Uint64
	failures  atomic.Uint64
	evictions atomic.Uint64
	queries   *xsync.Map[string, *queryCounters]

	now func() time.Time
}

// New returns a cache holding at most maxEntries results.
func New(maxEntries int, logger *zap.Logger) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		logger:     logger,
		maxEntries: maxEntries,
		queries:    xsync.NewMap[string, *queryCounters](),
		now:        time.Now,
	}
	entries, err := simplelru.NewLRU[string, *Entry](maxEntries, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	c.entries = entries
	return c, nil
}

// onEvict runs under c.mu.
func (c *Cache) onEvict(_ string, e *Entry) {
	if c.purging {
		return
	}
	c.evictions.Add(1)
	c.logger.Debug("cache entry evicted", zap.Stringer("key", e.Key))
}

func (c *Cache) counters(query string) *queryCounters {
	if qc, ok := c.queries.Load(query); ok {
		return qc
	}
	qc, _ := c.queries.LoadOrStore(query, &queryCounters{
		hits:     xsync.NewCounter(),
		misses:   xsync.NewCounter(),
		failures: xsync.NewCounter(),
	})
	return qc
}

// GetOrCompute returns the stored result for key, or runs compute once for all concurrent callers of the
// same key and stores the value on success. Failures are not stored; every waiter receives the same
// *ComputeError. The computation is detached from any single caller: a caller whose ctx ends gets
// ctx.Err() while the computation continues for the others.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (*warehouse.ResultTable, error) {
	qc := c.counters(key.Query)

	c.mu.Lock()
	e, ok := c.entries.Get(key.Digest)
	gen := c.gen
	c.mu.Unlock()
	if ok {
		c.hits.Add(1)
		qc.hits.Inc()
		return e.Value, nil
	}
	c.misses.Add(1)
	qc.misses.Inc()

	// Flights are per generation so nobody joins a computation started before the last Clear.
	flightKey := strconv.FormatUint(gen, 10) + ":" + key.Digest
	ch := c.flights.DoChan(flightKey, func() (any, error) {
		c.mu.Lock()
		if e, ok := c.entries.Peek(key.Digest); ok && c.gen == gen {
			c.mu.Unlock()
			return e.Value, nil
		}
		c.mu.Unlock()

		c.computes.Add(1)
		start := c.now()
		value, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			c.failures.Add(1)
			qc.failures.Inc()
			c.logger.Warn("cache compute failed",
				zap.Stringer("key", key),
				zap.Duration("elapsed", c.now().Sub(start)),
				zap.Error(err))
			return nil, &ComputeError{Key: key, Err: err}
		}

		c.mu.Lock()
		stored := c.gen == gen
		if stored {
			c.entries.Add(key.Digest, &Entry{Key: key, Value: value, CreatedAt: c.now()})
		}
		c.mu.Unlock()

		c.logger.Debug("cache compute finished",
			zap.Stringer("key", key),
			zap.Duration("elapsed", c.now().Sub(start)),
			zap.Int("rows", value.Len()),
			zap.Bool("stored", stored))
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*warehouse.ResultTable), nil
	}
}

// Clear drops every entry. Computations already running finish for their waiters but are not stored.
func (c *Cache) Clear() int {
	c.mu.Lock()
	n := c.entries.Len()
	c.purging = true
	c.entries.Purge()
	c.purging = false
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.logger.Info("cache cleared", zap.Int("entries", n), zap.Uint64("generation", gen))
	return n
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// QueryStats are per-query counters.
type QueryStats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Failures int64 `json:"failures"`
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries    int                   `json:"entries"`
	MaxEntries int                   `json:"max_entries"`
	Generation uint64                `json:"generation"`
	Hits       uint64                `json:"hits"`
	Misses     uint64                `json:"misses"`
	Computes   uint64                `json:"computes"`
	Failures   uint64                `json:"failures"`
	Evictions  uint64                `json:"evictions"`
	Queries    map[string]QueryStats `json:"queries"`
}

// Stats snapshots the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	s := Stats{
		Entries:    c.entries.Len(),
		MaxEntries: c.maxEntries,
		Generation: c.gen,
	}
	c.mu.Unlock()

	s.Hits = c.hits.Load()
	s.Misses = c.misses.Load()
	s.Computes = c.computes.Load()
	s.Failures = c.failures.Load()
	s.Evictions = c.evictions.Load()
	s.Queries = make(map[string]QueryStats)
	c.queries.Range(func(query string, qc *queryCounters) bool {
		s.Queries[query] = QueryStats{
			Hits:     qc.hits.Value(),
			Misses:   qc.misses.Value(),
			Failures: qc.failures.Value(),
		}
		return true
	})
	return s
}
