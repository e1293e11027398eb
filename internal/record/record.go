// Package record defines the Record type stored in tables.
//
// A Record is a mapping from field name to JSON-representable value
// (string, float64, bool, nil, []any, map[string]any - the shapes
// encoding/json produces). Exactly one field, "id", acts as the unique
// identifier within the record's table. No further shape is imposed here;
// per-table shape is enforced at the insert boundary by package schema.
package record

import "encoding/json"

// IDField is the reserved field holding a record's unique identifier.
const IDField = "id"

// Record is a single table row: field name → JSON value.
type Record map[string]any

// ID returns the record's identifier, or "" when the id field is absent
// or not a string. The table store rejects non-string ids at the insert
// boundary, so stored records always answer with their real id.
func (r Record) ID() string {
	id, _ := r[IDField].(string)
	return id
}

// Clone returns a deep copy of the record. The copy shares nothing with
// the original, so callers may mutate it freely.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge returns a copy of r with every field of patch applied on top.
// The id field in patch is ignored - ids are immutable after insert.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	for k, v := range patch {
		if k == IDField {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// Equal reports whether two records hold the same fields and values.
// Comparison is by JSON semantics: 1 and 1.0 are equal, field order is
// irrelevant.
func Equal(a, b Record) bool {
	return EqualValues(map[string]any(a), map[string]any(b))
}

// EqualValues compares two JSON values structurally. Numbers compare as
// float64 regardless of how they were constructed.
func EqualValues(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !EqualValues(v, bvv) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !EqualValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		an, aIsNum := toFloat(a)
		bn, bIsNum := toFloat(b)
		if aIsNum || bIsNum {
			return aIsNum && bIsNum && an == bn
		}
		return a == b
	}
}

// toFloat normalizes the numeric types that reach records (direct
// construction uses int freely, decoding produces float64 or json.Number).
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, inner := range tv {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, inner := range tv {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}
