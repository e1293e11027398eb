package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calverley/schoolcore/internal/record"
)

func TestRegistry_ValidUser(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	err = reg.Validate("users", record.Record{
		"id":          "u1",
		"email":       "pat@school.local",
		"displayName": "Pat",
		"role":        "member",
	})
	assert.NoError(t, err)
}

func TestRegistry_InvalidRole(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	err = reg.Validate("users", record.Record{
		"id":          "u1",
		"email":       "pat@school.local",
		"displayName": "Pat",
		"role":        "headmaster",
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "error = %v, want *ValidationError", err)
	assert.Equal(t, "users", verr.Table)
}

func TestRegistry_MissingRequiredField(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	err = reg.Validate("users", record.Record{
		"id":   "u1",
		"role": "member",
	})
	assert.Error(t, err, "email and displayName are required")
}

func TestRegistry_OpenStructAllowsExtraFields(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	err = reg.Validate("users", record.Record{
		"id":          "u1",
		"email":       "pat@school.local",
		"displayName": "Pat",
		"role":        "member",
		"phone":       "555-0100",
	})
	assert.NoError(t, err)
}

func TestRegistry_UnschematizedTablePasses(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	assert.False(t, reg.Has("scratch"))
	assert.NoError(t, reg.Validate("scratch", record.Record{"anything": true}))
}

func TestRegistry_HyphenatedTableName(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	require.True(t, reg.Has("academic-years"))
	err = reg.Validate("academic-years", record.Record{
		"id":    "y1",
		"name":  "2026/2027",
		"start": "2026-08-10",
		"end":   "2027-06-05",
	})
	assert.NoError(t, err)

	err = reg.Validate("academic-years", record.Record{
		"id":   "y1",
		"name": 7, // wrong type
	})
	assert.Error(t, err)
}
