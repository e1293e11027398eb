package storage

import (
	"errors"
	"testing"
)

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()

	if err := m.Set("k", "v"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	got, ok, err := m.Get("k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !ok || got != "v" {
		t.Errorf("Get() = (%q, %v), want (%q, true)", got, ok, "v")
	}

	removed, err := m.Delete("k")
	if err != nil || !removed {
		t.Errorf("Delete() = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = m.Delete("k")
	if err != nil || removed {
		t.Errorf("second Delete() = (%v, %v), want (false, nil)", removed, err)
	}
}

func TestMemory_FaultInjection(t *testing.T) {
	boom := errors.New("platform storage error")
	m := NewMemory()
	m.FailGet = func(key string) error {
		if key == "broken" {
			return boom
		}
		return nil
	}

	if err := m.Set("broken", "v"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	_, _, err := m.Get("broken")
	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("Get() error = %v, want *storage.Error", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Get() error does not wrap the injected cause: %v", err)
	}

	// Other keys are unaffected.
	if err := m.Set("fine", "v"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, _, err := m.Get("fine"); err != nil {
		t.Errorf("Get() of unaffected key failed: %v", err)
	}
}
