package query

import (
	"strings"

	"github.com/calverley/schoolcore/internal/record"
)

// Predicate is a filter over a single record.
//
// Sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Eq matches records whose field equals a literal value.
//
// Equality follows JSON semantics (record.EqualValues): numbers compare
// numerically, objects and arrays compare structurally. A missing field
// only matches Value == nil when the field is explicitly null; absent
// fields match nothing.
type Eq struct {
	Field string
	Value any
}

func (Eq) predicateNode() {}

// Neq matches records whose field is present and not equal to Value.
// Absent fields do not match - Neq filters known values, it is not a
// general complement (use Not{Eq{...}} for that).
type Neq struct {
	Field string
	Value any
}

func (Neq) predicateNode() {}

// Contains matches records whose field is a string containing Substring.
// Non-string and absent fields do not match.
type Contains struct {
	Field     string
	Substring string
}

func (Contains) predicateNode() {}

// In matches records whose field equals any of Values.
// Empty Values matches nothing.
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

// And matches when every child predicate matches.
// An empty Predicates slice is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or matches when at least one child predicate matches.
// An empty Predicates slice is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not matches when the child predicate does not.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Matches evaluates pred against rec. A nil predicate matches every
// record. Callers should Validate a predicate built from external input
// before evaluating it; Matches itself treats malformed leaves (empty
// field names) as non-matching.
func Matches(pred Predicate, rec record.Record) bool {
	if pred == nil {
		return true
	}
	switch p := pred.(type) {
	case Eq:
		v, ok := rec[p.Field]
		return ok && record.EqualValues(v, p.Value)
	case Neq:
		v, ok := rec[p.Field]
		return ok && !record.EqualValues(v, p.Value)
	case Contains:
		v, ok := rec[p.Field].(string)
		return ok && strings.Contains(v, p.Substring)
	case In:
		v, ok := rec[p.Field]
		if !ok {
			return false
		}
		for _, candidate := range p.Values {
			if record.EqualValues(v, candidate) {
				return true
			}
		}
		return false
	case And:
		for _, child := range p.Predicates {
			if !Matches(child, rec) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range p.Predicates {
			if Matches(child, rec) {
				return true
			}
		}
		return false
	case Not:
		return !Matches(p.Predicate, rec)
	default:
		// Unreachable while the interface stays sealed.
		return false
	}
}
