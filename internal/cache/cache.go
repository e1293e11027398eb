// Package cache implements the TTL-bound read-through cache in front of
// table reads.
//
// An entry is valid while now - timestamp < ttl; expired entries are
// treated as absent. The cache is never a source of truth: any entry
// that fails to decode is discarded and the read falls through to the
// table store. Lifetime is explicit - the cache lives exactly as long as
// the Cache value, no hidden platform scoping.
package cache

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calverley/schoolcore/internal/query"
	"github.com/calverley/schoolcore/internal/record"
)

// Default freshness windows. Volatile collections expire after 5
// minutes; reference/static collections after 30.
const (
	DefaultTTL       = 5 * time.Minute
	DefaultStaticTTL = 30 * time.Minute
)

// Source is the read side of the table store.
type Source interface {
	Select(table string, pred query.Predicate) []record.Record
}

// entry is a cached query snapshot plus the binding needed to refetch it.
//
// The snapshot is kept as marshaled JSON, mirroring how the result is
// held at rest; a snapshot that no longer decodes is treated as a miss.
type entry struct {
	data      []byte
	timestamp time.Time
	expiresIn time.Duration

	// Refetch binding, so Invalidate can repopulate synchronously.
	table string
	pred  query.Predicate
}

// Cache is a read-through cache over a Source.
type Cache struct {
	src       Source
	entries   map[string]entry
	clock     Clock
	ttl       time.Duration
	staticTTL time.Duration
	log       *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the wall clock. Tests use a manual clock.
func WithClock(clock Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// WithTTLs overrides the volatile and static freshness windows.
func WithTTLs(ttl, staticTTL time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
		c.staticTTL = staticTTL
	}
}

// WithLogger sets the diagnostic logger. Defaults to zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// New creates an empty cache over src.
func New(src Source, opts ...Option) *Cache {
	c := &Cache{
		src:       src,
		entries:   map[string]entry{},
		clock:     SystemClock{},
		ttl:       DefaultTTL,
		staticTTL: DefaultStaticTTL,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the records for key, reading through to the source on a
// miss and caching the result with the volatile TTL.
func (c *Cache) Fetch(key, table string, pred query.Predicate) []record.Record {
	return c.FetchTTL(key, table, pred, c.ttl)
}

// FetchStatic is Fetch with the static (reference-data) TTL. Same
// mechanism, longer window.
func (c *Cache) FetchStatic(key, table string, pred query.Predicate) []record.Record {
	return c.FetchTTL(key, table, pred, c.staticTTL)
}

// FetchTTL returns the records for key, caching a fresh source read for
// ttl on a miss. A hit returns the cached snapshot without touching the
// source. An expired or undecodable entry is deleted and treated as a
// miss.
func (c *Cache) FetchTTL(key, table string, pred query.Predicate, ttl time.Duration) []record.Record {
	if e, ok := c.entries[key]; ok {
		if c.valid(e) {
			records, err := decodeSnapshot(e.data)
			if err == nil {
				return records
			}
			c.log.Warn("corrupt cache entry, refetching",
				zap.String("key", key),
				zap.Error(err))
		}
		delete(c.entries, key)
	}
	return c.refetch(key, table, pred, ttl)
}

// Invalidate deletes the entry for key and immediately refetches it from
// the source, so the caller observes fresh data synchronously after the
// call returns. A key that was never fetched is a no-op.
func (c *Cache) Invalidate(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	c.refetch(key, e.table, e.pred, e.expiresIn)
}

// InvalidateAll removes every entry the cache owns.
func (c *Cache) InvalidateAll() {
	c.entries = map[string]entry{}
}

// InvalidateByPattern removes every entry whose key contains substring.
// Used when one mutation should expire several related cache keys at
// once. No refetch happens; the next Fetch per key misses.
func (c *Cache) InvalidateByPattern(substring string) {
	for key := range c.entries {
		if strings.Contains(key, substring) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of live entries, expired or not.
func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) valid(e entry) bool {
	return c.clock.Now().Sub(e.timestamp) < e.expiresIn
}

func (c *Cache) refetch(key, table string, pred query.Predicate, ttl time.Duration) []record.Record {
	records := c.src.Select(table, pred)

	data, err := json.Marshal(records)
	if err != nil {
		// The result came straight from JSON storage, so this should not
		// happen; serve the read uncached rather than fail it.
		c.log.Warn("cache snapshot encode failed, serving uncached",
			zap.String("key", key),
			zap.Error(err))
		return records
	}

	c.entries[key] = entry{
		data:      data,
		timestamp: c.clock.Now(),
		expiresIn: ttl,
		table:     table,
		pred:      pred,
	}
	return records
}

func decodeSnapshot(data []byte) ([]record.Record, error) {
	var records []record.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []record.Record{}
	}
	return records, nil
}
