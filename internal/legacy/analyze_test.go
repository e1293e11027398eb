package legacy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calverley/schoolcore/internal/storage"
)

func seededKV(t *testing.T) *storage.Memory {
	t.Helper()
	kv := storage.NewMemory()
	seed := map[string]string{
		"legacy_backup":           `{"journal":[1,2,3]}`,
		"backup:journal-entries":  `[{"id":"j1"}]`,
		"migration-completed":     "true",
		"old_theme":               "dark",
		"empty_list":              "[]",
		"empty_obj":               "{}",
		"blank":                   "",
		"theme":                   `"light"`,
		"session":                 "",
		"table:users":             `[{"id":"admin"}]`,
		"a11y-cache:font-metrics": "[]",
		"mystery":                 "42",
	}
	for k, v := range seed {
		require.NoError(t, kv.Set(k, v))
	}
	return kv
}

func classificationOf(t *testing.T, keys []Key, name string) Key {
	t.Helper()
	for _, k := range keys {
		if k.Key == name {
			return k
		}
	}
	t.Fatalf("key %q missing from analysis", name)
	return Key{}
}

func TestAnalyze_Classification(t *testing.T) {
	engine := New(seededKV(t))

	keys, err := engine.Analyze()
	require.NoError(t, err)
	require.Len(t, keys, 12)

	tests := []struct {
		key          string
		shouldRemove bool
		reason       string
	}{
		{"legacy_backup", true, ReasonMigrated},
		{"backup:journal-entries", true, ReasonMigrated},
		{"migration-completed", true, ReasonStale},
		{"old_theme", true, ReasonStale},
		{"empty_list", true, ReasonEmpty},
		{"empty_obj", true, ReasonEmpty},
		{"blank", true, ReasonEmpty},
		{"theme", false, ReasonWhitelisted},
		{"session", false, ReasonWhitelisted},
		{"table:users", false, ReasonWhitelisted},
		{"a11y-cache:font-metrics", false, ReasonWhitelisted},
		{"mystery", false, ReasonUnrecognized},
	}
	for _, tt := range tests {
		k := classificationOf(t, keys, tt.key)
		assert.Equal(t, tt.shouldRemove, k.ShouldRemove, "key %s", tt.key)
		assert.Equal(t, tt.reason, k.Reason, "key %s", tt.key)
	}
}

func TestAnalyze_WhitelistPrecedence(t *testing.T) {
	// "session" is empty-valued and would match the empty rule; the
	// whitelist must override it. Same for a whitelisted prefix over an
	// empty value.
	engine := New(seededKV(t))

	keys, err := engine.Analyze()
	require.NoError(t, err)

	session := classificationOf(t, keys, "session")
	assert.False(t, session.ShouldRemove)
	assert.Equal(t, ReasonWhitelisted, session.Reason)

	a11y := classificationOf(t, keys, "a11y-cache:font-metrics")
	assert.False(t, a11y.ShouldRemove)
	assert.Equal(t, ReasonWhitelisted, a11y.Reason)
}

func TestAnalyze_LegacyBackupAlwaysMigrated(t *testing.T) {
	// Rule (a) fires on the key name regardless of content.
	for _, value := range []string{"", "[]", `{"any":"thing"}`} {
		kv := storage.NewMemory()
		require.NoError(t, kv.Set("legacy_backup", value))

		keys, err := New(kv).Analyze()
		require.NoError(t, err)

		k := classificationOf(t, keys, "legacy_backup")
		assert.True(t, k.ShouldRemove, "value %q", value)
		assert.Equal(t, ReasonMigrated, k.Reason, "value %q", value)
	}
}

func TestAnalyze_Ordering(t *testing.T) {
	engine := New(seededKV(t))

	keys, err := engine.Analyze()
	require.NoError(t, err)

	// Remove-candidates first, then retained.
	sawRetained := false
	for _, k := range keys {
		if !k.ShouldRemove {
			sawRetained = true
		} else {
			assert.False(t, sawRetained, "removal candidate %q after a retained key", k.Key)
		}
	}

	// Descending size within each group.
	var prev *Key
	for i := range keys {
		k := keys[i]
		if prev != nil && prev.ShouldRemove == k.ShouldRemove {
			assert.GreaterOrEqual(t, prev.SizeBytes, k.SizeBytes,
				"size order violated at %q", k.Key)
		}
		prev = &k
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	engine := New(seededKV(t))

	first, err := engine.Analyze()
	require.NoError(t, err)
	second, err := engine.Analyze()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyze_DoesNotWrite(t *testing.T) {
	kv := seededKV(t)
	before := kv.Len()

	_, err := New(kv).Analyze()
	require.NoError(t, err)
	assert.Equal(t, before, kv.Len())
}

func TestCleanup_RemovesAndCounts(t *testing.T) {
	kv := seededKV(t)
	engine := New(kv)

	keys, err := engine.Analyze()
	require.NoError(t, err)
	candidates := RemoveCandidates(keys)
	require.Len(t, candidates, 7)

	removed := engine.Cleanup(candidates)
	assert.Equal(t, 7, removed)

	// Idempotence: the second pass finds nothing to remove and does not
	// error.
	removed = engine.Cleanup(candidates)
	assert.Equal(t, 0, removed)
}

func TestCleanup_FailureDoesNotAbortBatch(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set("a", "1"))
	require.NoError(t, kv.Set("b", "2"))
	require.NoError(t, kv.Set("c", "3"))
	kv.FailDelete = func(key string) error {
		if key == "b" {
			return errors.New("platform storage error")
		}
		return nil
	}

	removed := New(kv).Cleanup([]string{"a", "b", "c"})
	assert.Equal(t, 2, removed)

	// a and c are gone, b survived its failed delete.
	_, ok, _ := kv.Get("b")
	assert.True(t, ok)
	_, ok, _ = kv.Get("a")
	assert.False(t, ok)
	_, ok, _ = kv.Get("c")
	assert.False(t, ok)
}

func TestWhitelist_Extend(t *testing.T) {
	base := DefaultWhitelist()
	extended := base.Extend([]string{"custom"}, []string{"plugin:"})

	assert.True(t, extended.Contains("custom"))
	assert.True(t, extended.Contains("plugin:settings"))
	assert.True(t, extended.Contains("session"), "extension keeps the base entries")

	// The base whitelist is unchanged.
	assert.False(t, base.Contains("custom"))
	assert.False(t, base.Contains("plugin:settings"))
}
