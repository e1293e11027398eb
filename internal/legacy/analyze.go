// Package legacy reconciles the flat key-value namespace that predates
// the table store: it classifies every key as retain or remove, and
// performs best-effort deletion of the keys the caller confirms.
//
// Analysis is read-only and deterministic - the same storage contents
// always produce the same classification, in the same order.
package legacy

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/calverley/schoolcore/internal/storage"
	"github.com/calverley/schoolcore/internal/table"
)

// Classification reasons, one per rule.
const (
	ReasonMigrated     = "already migrated"
	ReasonStale        = "stale/unused"
	ReasonEmpty        = "empty"
	ReasonWhitelisted  = "whitelisted"
	ReasonUnrecognized = "unrecognized — keep"
)

// Key is a flat-store entry annotated by analysis.
type Key struct {
	Key          string `json:"key"`
	Description  string `json:"description"`
	SizeBytes    int    `json:"sizeBytes"`
	ShouldRemove bool   `json:"shouldRemove"`
	Reason       string `json:"reason"`
}

// deprecatedKeys hold data already migrated into the table store.
// Backups of the migrated tables fall under the backup: prefix rule in
// classify; these are the flat keys named individually.
var deprecatedKeys = map[string]string{
	"legacy_backup": "pre-migration full backup",
	"journal_draft": "journal draft, superseded by journal-entries table",
}

// obsoleteKeys are old backups and migration bookkeeping with no reader
// left in the application.
var obsoleteKeys = map[string]string{
	"migration-completed": "migration flag",
	"storage_version":     "flat-store version marker",
	"old_theme":           "theme preference, pre-rename",
}

// DefaultWhitelist protects the keys the application still reads from
// flat storage, the live table namespace, and platform-injected keys.
func DefaultWhitelist() Whitelist {
	return NewWhitelist(
		[]string{"session", "theme", "pdf-format", "language"},
		[]string{table.KeyPrefix, "a11y-cache:"},
	)
}

// Engine analyzes and cleans the flat namespace.
type Engine struct {
	kv        storage.KV
	whitelist Whitelist
	log       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWhitelist replaces the default whitelist.
func WithWhitelist(w Whitelist) Option {
	return func(e *Engine) { e.whitelist = w }
}

// WithLogger sets the diagnostic logger. Defaults to zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine over the given KV.
func New(kv storage.KV, opts ...Option) *Engine {
	e := &Engine{
		kv:        kv,
		whitelist: DefaultWhitelist(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze enumerates every key in the flat store, computes each value's
// byte size, and classifies it.
//
// Rule priority: whitelist membership retains unconditionally; then an
// explicit deprecated-key entry removes with "already migrated"; then an
// explicit obsolete-key entry removes with "stale/unused"; then an empty
// value ("", "[]", "{}") removes with "empty"; anything else is retained
// as unrecognized.
//
// Output ordering: remove-candidates first, then retained entries, each
// group sorted by descending size (key name breaks ties). Analyze never
// writes.
func (e *Engine) Analyze() ([]Key, error) {
	names, err := e.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	keys := make([]Key, 0, len(names))
	for _, name := range names {
		value, ok, err := e.kv.Get(name)
		if err != nil {
			return nil, fmt.Errorf("analyze %q: %w", name, err)
		}
		if !ok {
			continue
		}
		keys = append(keys, e.classify(name, value))
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].ShouldRemove != keys[j].ShouldRemove {
			return keys[i].ShouldRemove
		}
		if keys[i].SizeBytes != keys[j].SizeBytes {
			return keys[i].SizeBytes > keys[j].SizeBytes
		}
		return keys[i].Key < keys[j].Key
	})
	return keys, nil
}

func (e *Engine) classify(name, value string) Key {
	k := Key{Key: name, SizeBytes: len(value)}

	// Whitelist wins over every removal rule.
	if e.whitelist.Contains(name) {
		k.Description = "protected key"
		k.Reason = ReasonWhitelisted
		return k
	}

	if desc, ok := deprecatedKeys[name]; ok {
		k.Description = desc
		k.ShouldRemove = true
		k.Reason = ReasonMigrated
		return k
	}
	if isTableBackup(name) {
		k.Description = "per-table backup of migrated data"
		k.ShouldRemove = true
		k.Reason = ReasonMigrated
		return k
	}

	if desc, ok := obsoleteKeys[name]; ok {
		k.Description = desc
		k.ShouldRemove = true
		k.Reason = ReasonStale
		return k
	}

	if value == "" || value == "[]" || value == "{}" {
		k.Description = "empty value"
		k.ShouldRemove = true
		k.Reason = ReasonEmpty
		return k
	}

	k.Description = "unknown key"
	k.Reason = ReasonUnrecognized
	return k
}

// isTableBackup matches the backup:<table> keys written by the old
// migration for each table it moved.
func isTableBackup(name string) bool {
	const prefix = "backup:"
	return len(name) > len(prefix) && name[:len(prefix)] == prefix
}
