// Package transform derives chart-ready tables from warehouse results. Inputs are never mutated.
package transform

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/axelarscope/dashboard/pkg/warehouse"
)

// ErrUnknownColumn is returned when a transform names a column the table does not have.
var ErrUnknownColumn = errors.New("unknown column")

func columnIndex(t *warehouse.ResultTable, name string) (int, error) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return -1, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return i, nil
}

// Float coerces a cell to float64. NULL and non-numeric cells are 0.
func Float(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case decimal.Decimal:
		return x.InexactFloat64()
	case *decimal.Decimal:
		if x == nil {
			return 0
		}
		return x.InexactFloat64()
	case big.Int:
		f, _ := new(big.Float).SetInt(&x).Float64()
		return f
	case *big.Int:
		if x == nil {
			return 0
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			return 0
		}
		return d.InexactFloat64()
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return 0
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// TopN returns the n rows with the largest metric, descending. Ties keep their input order.
func TopN(t *warehouse.ResultTable, metric string, n int) (*warehouse.ResultTable, error) {
	idx, err := columnIndex(t, metric)
	if err != nil {
		return nil, err
	}
	out := t.Clone()
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return Float(out.Rows[i][idx]) > Float(out.Rows[j][idx])
	})
	if n >= 0 && len(out.Rows) > n {
		out.Rows = out.Rows[:n]
	}
	return out, nil
}

// ShareWithinGroup appends a Float64 column holding metric / sum(metric over rows with the same group) * 100.
// A group whose sum is 0 gets 0 for every row.
func ShareWithinGroup(t *warehouse.ResultTable, group, metric, as string) (*warehouse.ResultTable, error) {
	gi, err := columnIndex(t, group)
	if err != nil {
		return nil, err
	}
	mi, err := columnIndex(t, metric)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	for _, row := range t.Rows {
		sums[groupKey(row[gi])] += Float(row[mi])
	}

	out := t.Clone()
	out.Columns = append(out.Columns, warehouse.Column{Name: as, Type: "Float64"})
	for i, row := range out.Rows {
		share := 0.0
		if sum := sums[groupKey(row[gi])]; sum != 0 {
			share = Float(row[mi]) / sum * 100
		}
		out.Rows[i] = append(row, share)
	}
	return out, nil
}

func groupKey(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x00null"
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
