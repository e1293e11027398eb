// Package query defines the predicate expression tree used to filter
// table records.
//
// Predicates are declarative data, not caller-supplied closures: the store
// evaluates the tree itself, so filters can be logged, compared in tests,
// and constructed without executing foreign code inside the store.
//
// The Predicate interface is sealed - only types in this package implement
// it. The marker method pattern prevents external implementations and keeps
// type switches in the evaluator exhaustive.
//
// Leaf predicates:
//   - Eq: field equals a literal value
//   - Neq: field does not equal a literal value
//   - Contains: string field contains a substring
//   - In: field equals one of a set of literal values
//
// Composite predicates:
//   - And: every child is true (empty = always true)
//   - Or: at least one child is true (empty = always false)
//   - Not: child is false
//
// A nil Predicate means "match everything"; the store treats it as the
// absence of a filter.
package query
