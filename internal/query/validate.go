package query

import "fmt"

// Validate checks that a predicate tree is well-formed: no empty field
// names on leaves, no nil branches inside composites, no empty In sets.
//
// A nil root is valid (it means "match everything"). Validate is a pure
// function with no side effects; evaluation order never depends on it,
// but presentation code should surface validation errors instead of
// silently filtering nothing.
func Validate(pred Predicate) error {
	if pred == nil {
		return nil
	}
	switch p := pred.(type) {
	case Eq:
		if p.Field == "" {
			return fmt.Errorf("eq: empty field name")
		}
	case Neq:
		if p.Field == "" {
			return fmt.Errorf("neq: empty field name")
		}
	case Contains:
		if p.Field == "" {
			return fmt.Errorf("contains: empty field name")
		}
	case In:
		if p.Field == "" {
			return fmt.Errorf("in: empty field name")
		}
		if len(p.Values) == 0 {
			return fmt.Errorf("in: field %q has no candidate values", p.Field)
		}
	case And:
		for i, child := range p.Predicates {
			if child == nil {
				return fmt.Errorf("and: nil predicate at index %d", i)
			}
			if err := Validate(child); err != nil {
				return fmt.Errorf("and[%d]: %w", i, err)
			}
		}
	case Or:
		for i, child := range p.Predicates {
			if child == nil {
				return fmt.Errorf("or: nil predicate at index %d", i)
			}
			if err := Validate(child); err != nil {
				return fmt.Errorf("or[%d]: %w", i, err)
			}
		}
	case Not:
		if p.Predicate == nil {
			return fmt.Errorf("not: nil predicate")
		}
		if err := Validate(p.Predicate); err != nil {
			return fmt.Errorf("not: %w", err)
		}
	}
	return nil
}
