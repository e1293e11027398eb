package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calverley/schoolcore/internal/query"
	"github.com/calverley/schoolcore/internal/record"
	"github.com/calverley/schoolcore/internal/testutil"
)

// countingSource records how often the table store is actually hit.
type countingSource struct {
	calls   int
	records []record.Record
}

func (s *countingSource) Select(table string, pred query.Predicate) []record.Record {
	s.calls++
	out := []record.Record{}
	for _, rec := range s.records {
		if query.Matches(pred, rec) {
			out = append(out, rec)
		}
	}
	return out
}

func newTestCache(t *testing.T) (*Cache, *countingSource, *testutil.ManualClock) {
	t.Helper()
	src := &countingSource{records: []record.Record{
		{"id": "e1", "day": "Monday"},
		{"id": "e2", "day": "Tuesday"},
	}}
	clock := testutil.NewManualClock(time.Unix(1_700_000_000, 0))
	c := New(src, WithClock(clock))
	return c, src, clock
}

func TestFetch_HitWithinTTL(t *testing.T) {
	c, src, clock := newTestCache(t)

	first := c.FetchTTL("extras", "extracurriculars", nil, 5*time.Second)
	require.Len(t, first, 2)
	require.Equal(t, 1, src.calls)

	// t=4000ms: still fresh, no store call.
	clock.Advance(4 * time.Second)
	second := c.FetchTTL("extras", "extracurriculars", nil, 5*time.Second)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)
}

func TestFetch_MissAfterTTL(t *testing.T) {
	c, src, clock := newTestCache(t)

	c.FetchTTL("extras", "extracurriculars", nil, 5*time.Second)
	require.Equal(t, 1, src.calls)

	// t=6000ms: expired, a genuine store read happens.
	clock.Advance(6 * time.Second)
	c.FetchTTL("extras", "extracurriculars", nil, 5*time.Second)
	assert.Equal(t, 2, src.calls)
}

func TestFetch_ExpiryBoundaryIsExclusive(t *testing.T) {
	c, src, clock := newTestCache(t)

	c.FetchTTL("extras", "extracurriculars", nil, 5*time.Second)
	clock.Advance(5 * time.Second)

	// now - timestamp == ttl is no longer valid.
	c.FetchTTL("extras", "extracurriculars", nil, 5*time.Second)
	assert.Equal(t, 2, src.calls)
}

func TestFetch_PredicateSnapshot(t *testing.T) {
	c, src, _ := newTestCache(t)

	monday := c.Fetch("extras:monday", "extracurriculars", query.Eq{Field: "day", Value: "Monday"})
	require.Len(t, monday, 1)
	assert.Equal(t, "e1", monday[0].ID())
	assert.Equal(t, 1, src.calls)

	// Different key, separate entry.
	c.Fetch("extras:tuesday", "extracurriculars", query.Eq{Field: "day", Value: "Tuesday"})
	assert.Equal(t, 2, src.calls)
}

func TestFetchStatic_LongerWindow(t *testing.T) {
	c, src, clock := newTestCache(t)

	c.FetchStatic("years", "academic-years", nil)
	clock.Advance(20 * time.Minute)

	// Well past the volatile TTL but inside the static one.
	c.FetchStatic("years", "academic-years", nil)
	assert.Equal(t, 1, src.calls)

	clock.Advance(11 * time.Minute)
	c.FetchStatic("years", "academic-years", nil)
	assert.Equal(t, 2, src.calls)
}

func TestInvalidate_ForcesFreshRead(t *testing.T) {
	c, src, _ := newTestCache(t)

	c.Fetch("extras", "extracurriculars", nil)
	require.Equal(t, 1, src.calls)

	// Invalidate refetches synchronously.
	c.Invalidate("extras")
	assert.Equal(t, 2, src.calls)

	// The refetched entry is fresh, so the next fetch is a hit.
	c.Fetch("extras", "extracurriculars", nil)
	assert.Equal(t, 2, src.calls)
}

func TestInvalidate_ObservesMutation(t *testing.T) {
	c, src, _ := newTestCache(t)

	c.Fetch("extras", "extracurriculars", nil)
	src.records = append(src.records, record.Record{"id": "e3", "day": "Friday"})

	c.Invalidate("extras")
	got := c.Fetch("extras", "extracurriculars", nil)
	assert.Len(t, got, 3, "caller must observe fresh data synchronously after invalidate")
}

func TestInvalidate_UnknownKeyIsNoop(t *testing.T) {
	c, src, _ := newTestCache(t)

	c.Invalidate("never-fetched")
	assert.Equal(t, 0, src.calls)
}

func TestInvalidateAll(t *testing.T) {
	c, src, _ := newTestCache(t)

	c.Fetch("a", "extracurriculars", nil)
	c.Fetch("b", "journal-entries", nil)
	require.Equal(t, 2, c.Len())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())

	c.Fetch("a", "extracurriculars", nil)
	assert.Equal(t, 3, src.calls)
}

func TestInvalidateByPattern(t *testing.T) {
	c, src, _ := newTestCache(t)

	c.Fetch("journal:2026:week1", "journal-entries", nil)
	c.Fetch("journal:2026:week2", "journal-entries", nil)
	c.Fetch("extras", "extracurriculars", nil)
	require.Equal(t, 3, src.calls)

	c.InvalidateByPattern("journal:2026")
	assert.Equal(t, 1, c.Len())

	// Untouched key still hits.
	c.Fetch("extras", "extracurriculars", nil)
	assert.Equal(t, 3, src.calls)

	// Expired-by-pattern keys miss.
	c.Fetch("journal:2026:week1", "journal-entries", nil)
	assert.Equal(t, 4, src.calls)
}

func TestFetch_CorruptEntryIsAMiss(t *testing.T) {
	c, src, _ := newTestCache(t)

	c.Fetch("extras", "extracurriculars", nil)
	require.Equal(t, 1, src.calls)

	// Corrupt the stored snapshot under the entry's feet.
	e := c.entries["extras"]
	e.data = []byte("{broken")
	c.entries["extras"] = e

	got := c.Fetch("extras", "extracurriculars", nil)
	assert.Len(t, got, 2, "corrupt entry must fall through to the source")
	assert.Equal(t, 2, src.calls)
}
