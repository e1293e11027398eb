package table

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a lookup by id found no record.
type NotFoundError struct {
	Table string
	ID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %q not found in table %q", e.ID, e.Table)
}

// DuplicateIDError indicates an insert supplied an id that already
// exists in the table.
type DuplicateIDError struct {
	Table string
	ID    string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("record %q already exists in table %q", e.ID, e.Table)
}

// InvalidIDError indicates an insert supplied an id that is not a
// string. Ids are never coerced or replaced; a malformed id is an
// error, not a request for a generated one.
type InvalidIDError struct {
	Table string
	Value any
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("id %v (%T) in table %q is not a string", e.Value, e.Value, e.Table)
}

// IsNotFound reports whether err is a NotFoundError.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDuplicateID reports whether err is a DuplicateIDError.
// Uses errors.As to handle wrapped errors.
func IsDuplicateID(err error) bool {
	var dup *DuplicateIDError
	return errors.As(err, &dup)
}

// IsInvalidID reports whether err is an InvalidIDError.
// Uses errors.As to handle wrapped errors.
func IsInvalidID(err error) bool {
	var inv *InvalidIDError
	return errors.As(err, &inv)
}
