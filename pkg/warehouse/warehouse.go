// Package warehouse defines the narrow contract the dashboard needs from an analytical store:
// run one textual query under a deadline and hand back an ordered, typed table.
package warehouse

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrConnection means the query never reached the warehouse (dial, pool, network).
	ErrConnection = errors.New("warehouse connection error")
	// ErrQuery means the warehouse rejected or failed the query.
	ErrQuery = errors.New("warehouse query error")
	// ErrTimeout means the call exceeded its deadline.
	ErrTimeout = errors.New("warehouse timeout")
	// ErrSchema means the returned columns do not match what the query declares.
	ErrSchema = errors.New("result schema mismatch")
)

// Client executes a query and returns its full result.
type Client interface {
	Execute(ctx context.Context, query string, timeout time.Duration) (*ResultTable, error)
	Ping(ctx context.Context) error
}

// Column is a named, typed result column. Type is the warehouse type name, e.g. "Nullable(Float64)".
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// BaseType strips Nullable(...) and LowCardinality(...) wrappers and any DateTime precision/timezone.
func (c Column) BaseType() string {
	t := strings.TrimSpace(c.Type)
	for {
		switch {
		case strings.HasPrefix(t, "Nullable(") && strings.HasSuffix(t, ")"):
			t = t[len("Nullable(") : len(t)-1]
		case strings.HasPrefix(t, "LowCardinality(") && strings.HasSuffix(t, ")"):
			t = t[len("LowCardinality(") : len(t)-1]
		default:
			if i := strings.IndexByte(t, '('); i > 0 && strings.HasPrefix(t, "DateTime") {
				t = t[:i]
			}
			if t == "DateTime64" {
				t = "DateTime"
			}
			return t
		}
	}
}

// ResultTable is an ordered list of columns and fixed-arity rows aligned to them.
// Cells may be nil for NULL. A ResultTable handed out by the cache is shared and must not be mutated.
type ResultTable struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ColumnIndex returns the position of the named column or -1. Names match case-insensitively,
// as they do when a result is checked against its declared columns.
func (t *ResultTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// Len returns the row count.
func (t *ResultTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Clone copies the column list and every row slice so the copy can be extended without touching t.
func (t *ResultTable) Clone() *ResultTable {
	out := &ResultTable{
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}
