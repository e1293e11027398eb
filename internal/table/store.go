// Package table implements the durable table store: named tables of
// uniquely-identified records, persisted whole under namespaced keys in
// a flat key-value store.
//
// Every mutating call is a whole-table read-modify-write: the table is
// read, changed in memory, and rewritten. Mutation cost is O(table size),
// an accepted trade-off over a small embedded dataset. There is no
// locking: two interleaved mutations to the same table from concurrent
// call sites race, and the later write wins. Callers live with
// last-writer-wins; this package does not layer a transaction protocol
// on top.
package table

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calverley/schoolcore/internal/query"
	"github.com/calverley/schoolcore/internal/record"
	"github.com/calverley/schoolcore/internal/schema"
	"github.com/calverley/schoolcore/internal/storage"
)

// Canonical table names. Other names are legal; these are the tables the
// application owns.
const (
	Settings         = "settings"
	JournalEntries   = "journal-entries"
	Extracurriculars = "extracurriculars"
	AcademicYears    = "academic-years"
	Users            = "users"
)

// KeyPrefix namespaces table keys inside the flat store. The migration
// engine whitelists this prefix so cleanup never touches live tables.
const KeyPrefix = "table:"

// Key returns the flat-store key a table is serialized under.
func Key(table string) string {
	return KeyPrefix + table
}

// Store provides CRUD and predicate queries over named tables.
type Store struct {
	kv      storage.KV
	schemas *schema.Registry
	log     *zap.Logger
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostic logger. Defaults to zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithIDFunc overrides id assignment for inserts without an id.
// Defaults to random UUIDs. Tests use this for stable ids.
func WithIDFunc(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// New creates a table store over the given KV. schemas may be nil to
// skip insert-boundary validation entirely.
func New(kv storage.KV, schemas *schema.Registry, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		schemas: schemas,
		log:     zap.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the records of a table matching pred, in insertion
// order. A nil pred returns every record.
//
// Select never fails: a storage or decode error is logged and an empty
// slice returned, so the presentation layer renders an empty state
// instead of crashing on a broken read. The result is a snapshot -
// records are deep copies the caller may mutate.
func (s *Store) Select(table string, pred query.Predicate) []record.Record {
	records, err := s.readTable(table)
	if err != nil {
		s.log.Warn("table read failed, returning empty result",
			zap.String("table", table),
			zap.Error(err))
		return []record.Record{}
	}

	out := []record.Record{}
	for _, rec := range records {
		if query.Matches(pred, rec) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Insert adds a record to a table and returns the stored copy.
//
// When the record carries no id, one is assigned (random UUID by
// default). A non-string id fails with InvalidIDError rather than being
// replaced. A caller-supplied id that already exists fails with
// DuplicateIDError. When a schema is defined for the table, the record
// (with its id assigned) must satisfy it.
func (s *Store) Insert(table string, rec record.Record) (record.Record, error) {
	records, err := s.readTable(table)
	if err != nil {
		return nil, fmt.Errorf("insert into %q: %w", table, err)
	}

	stored := rec.Clone()
	if stored == nil {
		stored = record.Record{}
	}
	if raw, present := stored[record.IDField]; present {
		if _, isString := raw.(string); !isString {
			return nil, &InvalidIDError{Table: table, Value: raw}
		}
	}
	if stored.ID() == "" {
		stored[record.IDField] = s.newID()
	}

	for _, existing := range records {
		if existing.ID() == stored.ID() {
			return nil, &DuplicateIDError{Table: table, ID: stored.ID()}
		}
	}

	if s.schemas != nil {
		if err := s.schemas.Validate(table, stored); err != nil {
			return nil, fmt.Errorf("insert into %q: %w", table, err)
		}
	}

	records = append(records, stored)
	if err := s.writeTable(table, records); err != nil {
		return nil, fmt.Errorf("insert into %q: %w", table, err)
	}
	return stored.Clone(), nil
}

// Update merges patch into the record with the given id and returns the
// updated record. The id field is immutable - an id in patch is ignored.
// Fails with NotFoundError when no record has the id.
func (s *Store) Update(table, id string, patch record.Record) (record.Record, error) {
	records, err := s.readTable(table)
	if err != nil {
		return nil, fmt.Errorf("update %q in %q: %w", id, table, err)
	}

	for i, rec := range records {
		if rec.ID() != id {
			continue
		}
		merged := rec.Merge(patch)
		records[i] = merged
		if err := s.writeTable(table, records); err != nil {
			return nil, fmt.Errorf("update %q in %q: %w", id, table, err)
		}
		return merged.Clone(), nil
	}
	return nil, &NotFoundError{Table: table, ID: id}
}

// Delete removes the record with the given id and reports whether a
// record was removed. Absence is not an error.
func (s *Store) Delete(table, id string) (bool, error) {
	records, err := s.readTable(table)
	if err != nil {
		return false, fmt.Errorf("delete %q from %q: %w", id, table, err)
	}

	for i, rec := range records {
		if rec.ID() != id {
			continue
		}
		records = append(records[:i], records[i+1:]...)
		if err := s.writeTable(table, records); err != nil {
			return false, fmt.Errorf("delete %q from %q: %w", id, table, err)
		}
		return true, nil
	}
	return false, nil
}

// Clear removes every record in a table.
func (s *Store) Clear(table string) error {
	if err := s.writeTable(table, []record.Record{}); err != nil {
		return fmt.Errorf("clear %q: %w", table, err)
	}
	return nil
}

// Count returns the number of records in a table, degrading to 0 on a
// failed read the same way Select does.
func (s *Store) Count(table string) int {
	return len(s.Select(table, nil))
}

// readTable loads and decodes a whole table. A missing key is an empty
// table, not an error.
func (s *Store) readTable(table string) ([]record.Record, error) {
	raw, ok, err := s.kv.Get(Key(table))
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []record.Record{}, nil
	}

	var records []record.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode table %q: %w", table, err)
	}
	if records == nil {
		records = []record.Record{}
	}
	return records, nil
}

// writeTable serializes and rewrites a whole table.
func (s *Store) writeTable(table string, records []record.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode table %q: %w", table, err)
	}
	return s.kv.Set(Key(table), string(data))
}
