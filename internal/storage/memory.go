package storage

import "sort"

// Memory is an in-memory KV for tests and non-durable callers.
//
// The fault hooks let tests inject platform-style storage errors for a
// specific key without wrapping the whole store.
type Memory struct {
	data map[string]string

	// FailGet, FailSet, FailDelete, when non-nil, are consulted per key;
	// returning a non-nil error makes the operation fail with it.
	FailGet    func(key string) error
	FailSet    func(key string) error
	FailDelete func(key string) error
}

// NewMemory creates an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (string, bool, error) {
	if m.FailGet != nil {
		if err := m.FailGet(key); err != nil {
			return "", false, &Error{Op: "get", Key: key, Err: err}
		}
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set writes value under key.
func (m *Memory) Set(key, value string) error {
	if m.FailSet != nil {
		if err := m.FailSet(key); err != nil {
			return &Error{Op: "set", Key: key, Err: err}
		}
	}
	m.data[key] = value
	return nil
}

// Delete removes key and reports whether a value was removed.
func (m *Memory) Delete(key string) (bool, error) {
	if m.FailDelete != nil {
		if err := m.FailDelete(key); err != nil {
			return false, &Error{Op: "delete", Key: key, Err: err}
		}
	}
	_, ok := m.data[key]
	delete(m.data, key)
	return ok, nil
}

// Keys returns every key in lexicographic order.
func (m *Memory) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys. Test helper.
func (m *Memory) Len() int {
	return len(m.data)
}
