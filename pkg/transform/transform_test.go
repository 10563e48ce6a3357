package transform

import (
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axelarscope/dashboard/pkg/warehouse"
)

func rows(cols []string, data ...[]any) *warehouse.ResultTable {
	t := &warehouse.ResultTable{Rows: data}
	for _, c := range cols {
		t.Columns = append(t.Columns, warehouse.Column{Name: c})
	}
	return t
}

func TestTopNStableTies(t *testing.T) {
	in := rows([]string{"k", "v"},
		[]any{"A", uint64(5)},
		[]any{"B", uint64(9)},
		[]any{"C", uint64(9)},
		[]any{"D", uint64(1)},
	)
	out, err := TopN(in, "v", 2)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"B", uint64(9)}, {"C", uint64(9)}}, out.Rows)

	out, err = TopN(in, "v", 4)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"B", uint64(9)}, {"C", uint64(9)}, {"A", uint64(5)}, {"D", uint64(1)}}, out.Rows)

	// input order preserved
	assert.Equal(t, "A", in.Rows[0][0])
	assert.Equal(t, "D", in.Rows[3][0])
}

func TestTopNColumnNameIgnoresCase(t *testing.T) {
	in := rows([]string{"Source_Chain", "Volume_USD"}, []any{"ethereum", 1.0}, []any{"osmosis", 2.0})
	out, err := TopN(in, "volume_usd", 1)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"osmosis", 2.0}}, out.Rows)
}

func TestTopNFewerRowsThanN(t *testing.T) {
	in := rows([]string{"k", "v"}, []any{"A", 1.0}, []any{"B", 3.0})
	out, err := TopN(in, "v", 20)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"B", 3.0}, {"A", 1.0}}, out.Rows)
}

func TestTopNNullsSortLast(t *testing.T) {
	in := rows([]string{"k", "v"}, []any{"A", nil}, []any{"B", 2.0})
	out, err := TopN(in, "v", 1)
	require.NoError(t, err)
	assert.Equal(t, "B", out.Rows[0][0])
}

func TestTopNUnknownColumn(t *testing.T) {
	_, err := TopN(rows([]string{"k"}), "v", 1)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestShareWithinGroup(t *testing.T) {
	in := rows([]string{"chain", "symbol", "transfers"},
		[]any{"X", "USDC", uint64(1)},
		[]any{"X", "ETH", uint64(3)},
		[]any{"Y", "AXL", uint64(0)},
	)
	out, err := ShareWithinGroup(in, "chain", "transfers", "transfers_pct")
	require.NoError(t, err)

	require.Len(t, out.Columns, 4)
	assert.Equal(t, warehouse.Column{Name: "transfers_pct", Type: "Float64"}, out.Columns[3])
	assert.Equal(t, 25.0, out.Rows[0][3])
	assert.Equal(t, 75.0, out.Rows[1][3])
	assert.Equal(t, 0.0, out.Rows[2][3], "zero group sum yields 0")

	assert.Len(t, in.Columns, 3)
	assert.Len(t, in.Rows[0], 3)
}

func TestShareWithinGroupAllZero(t *testing.T) {
	in := rows([]string{"chain", "transfers"},
		[]any{"g", uint64(0)},
		[]any{"g", uint64(0)},
	)
	out, err := ShareWithinGroup(in, "chain", "transfers", "pct")
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Rows[0][2])
	assert.Equal(t, 0.0, out.Rows[1][2])
}

func TestShareWithinGroupSumsTo100(t *testing.T) {
	in := rows([]string{"chain", "volume"},
		[]any{"X", 1.0}, []any{"X", 2.0}, []any{"X", 4.0}, []any{"Z", 10.0},
	)
	out, err := ShareWithinGroup(in, "chain", "volume", "pct")
	require.NoError(t, err)
	sum := 0.0
	for _, r := range out.Rows[:3] {
		sum += r[2].(float64)
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
	assert.Equal(t, 100.0, out.Rows[3][2])
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"uint64", uint64(7), 7},
		{"int32", int32(-2), -2},
		{"float32", float32(1.5), 1.5},
		{"decimal", decimal.RequireFromString("12.25"), 12.25},
		{"big", big.NewInt(1 << 40), float64(1 << 40)},
		{"numeric string", "3.5", 3.5},
		{"text", "eth", 0},
		{"nan", math.NaN(), 0},
		{"struct", struct{}{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Float(tt.in))
		})
	}
}
