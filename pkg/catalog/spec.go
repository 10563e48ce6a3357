package catalog

import (
	"fmt"
	"strings"

	"github.com/axelarscope/dashboard/pkg/warehouse"
)

// Uses is the set of parameters a query depends on.
type Uses uint8

const (
	UsesDates Uses = 1 << iota
	UsesBucket
	UsesFilters
)

// Has reports whether every flag in f is set.
func (u Uses) Has(f Uses) bool {
	return u&f == f
}

func (u Uses) String() string {
	var parts []string
	if u.Has(UsesDates) {
		parts = append(parts, "dates")
	}
	if u.Has(UsesBucket) {
		parts = append(parts, "bucket")
	}
	if u.Has(UsesFilters) {
		parts = append(parts, "filters")
	}
	return strings.Join(parts, ",")
}

func (u Uses) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// QuerySpec describes one catalog query. Immutable once the catalog is built.
type QuerySpec struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Uses    Uses               `json:"uses"`
	Columns []warehouse.Column `json:"columns"`

	template string
}

// CheckSchema verifies that t has exactly the declared columns, in order, with matching base types.
func (s *QuerySpec) CheckSchema(t *warehouse.ResultTable) error {
	if t == nil {
		return fmt.Errorf("%w: %s: no result", warehouse.ErrSchema, s.ID)
	}
	if len(t.Columns) != len(s.Columns) {
		return fmt.Errorf("%w: %s: expected %d columns, got %d (%s)",
			warehouse.ErrSchema, s.ID, len(s.Columns), len(t.Columns), columnNames(t.Columns))
	}
	for i, want := range s.Columns {
		got := t.Columns[i]
		if !strings.EqualFold(got.Name, want.Name) {
			return fmt.Errorf("%w: %s: column %d is %q, expected %q", warehouse.ErrSchema, s.ID, i, got.Name, want.Name)
		}
		if got.BaseType() != want.BaseType() {
			return fmt.Errorf("%w: %s: column %q has type %s, expected %s",
				warehouse.ErrSchema, s.ID, want.Name, got.Type, want.Type)
		}
	}
	for r, row := range t.Rows {
		if len(row) != len(s.Columns) {
			return fmt.Errorf("%w: %s: row %d has %d cells, expected %d", warehouse.ErrSchema, s.ID, r, len(row), len(s.Columns))
		}
	}
	return nil
}

func columnNames(cols []warehouse.Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
