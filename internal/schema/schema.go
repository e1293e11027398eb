// Package schema validates table records against per-table CUE schemas.
//
// Schemas live in the embedded schemas.cue file. Validation happens once,
// at the insert boundary - the store never re-validates on read, and
// tables without a schema accept any record.
package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/calverley/schoolcore/internal/record"
)

//go:embed schemas.cue
var schemasCUE string

// ValidationError reports a record that does not satisfy its table schema.
type ValidationError struct {
	Table string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record does not satisfy %q schema: %v", e.Table, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Registry holds the compiled table schemas.
//
// Uses CUE SDK's Go API directly (not CLI subprocess). A Registry is
// immutable after construction and safe to share.
type Registry struct {
	ctx    *cue.Context
	tables cue.Value
}

// NewRegistry compiles the embedded schemas.
func NewRegistry() (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemasCUE, cue.Filename("schemas.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schemas: %s", cueerrors.Details(err, nil))
	}

	tables := v.LookupPath(cue.MakePath(cue.Str("tables")))
	if err := tables.Err(); err != nil {
		return nil, fmt.Errorf("lookup tables: %s", cueerrors.Details(err, nil))
	}

	return &Registry{ctx: ctx, tables: tables}, nil
}

// Validate checks rec against the schema for table. Tables without a
// schema in schemas.cue pass unconditionally.
func (r *Registry) Validate(table string, rec record.Record) error {
	def := r.tables.LookupPath(cue.MakePath(cue.Str(table)))
	if !def.Exists() {
		return nil
	}

	val := r.ctx.Encode(map[string]any(rec))
	if err := val.Err(); err != nil {
		return &ValidationError{Table: table, Err: err}
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Table: table, Err: fmt.Errorf("%s", cueerrors.Details(err, nil))}
	}
	return nil
}

// Has reports whether a schema is defined for table.
func (r *Registry) Has(table string) bool {
	return r.tables.LookupPath(cue.MakePath(cue.Str(table))).Exists()
}
