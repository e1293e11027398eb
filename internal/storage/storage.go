// Package storage provides the flat key-value primitive everything else
// is built on: the table store serializes whole tables under namespaced
// keys, the session store keeps its single session record here, and the
// migration engine scans and prunes the same namespace.
//
// The KV interface is an injected capability - callers construct stores
// against it, tests substitute Memory, production uses SQLite.
package storage

import "fmt"

// KV is a flat string-keyed, string-valued store.
//
// Implementations must be safe for use from a single logical thread of
// control; no locking is promised across concurrent callers. Values are
// JSON text by convention, but KV itself treats them as opaque.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set writes the value for key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes key and reports whether a value was removed.
	// Deleting an absent key is not an error.
	Delete(key string) (bool, error)

	// Keys returns every key in the store in lexicographic order.
	Keys() ([]string, error)
}

// Error is a storage-level failure: a platform error on read or write,
// or a broken underlying medium. Op names the failing operation, Key the
// affected key ("" for store-wide operations).
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
