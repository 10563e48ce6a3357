package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnBaseType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"UInt64", "UInt64"},
		{"Nullable(Float64)", "Float64"},
		{"LowCardinality(Nullable(String))", "String"},
		{"DateTime('UTC')", "DateTime"},
		{"Nullable(DateTime64(6, 'UTC'))", "DateTime"},
		{"Decimal(38, 2)", "Decimal(38, 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Column{Type: tt.in}.BaseType())
		})
	}
}

func TestResultTableCloneIsIndependent(t *testing.T) {
	orig := &ResultTable{
		Columns: []Column{{Name: "chain", Type: "String"}},
		Rows:    [][]any{{"ethereum"}, {"osmosis"}},
	}
	cp := orig.Clone()
	cp.Columns = append(cp.Columns, Column{Name: "share", Type: "Float64"})
	cp.Rows[0] = append(cp.Rows[0], 50.0)
	cp.Rows[1][0] = "changed"

	assert.Len(t, orig.Columns, 1)
	assert.Len(t, orig.Rows[0], 1)
	assert.Equal(t, "osmosis", orig.Rows[1][0])
	assert.Equal(t, 0, orig.ColumnIndex("chain"))
	assert.Equal(t, -1, orig.ColumnIndex("share"))
	assert.Equal(t, 2, orig.Len())
}

func TestColumnIndexIgnoresCase(t *testing.T) {
	tbl := &ResultTable{Columns: []Column{{Name: "Source_Chain", Type: "String"}, {Name: "VOLUME_USD", Type: "Float64"}}}

	assert.Equal(t, 0, tbl.ColumnIndex("source_chain"))
	assert.Equal(t, 1, tbl.ColumnIndex("volume_usd"))
	assert.Equal(t, 1, tbl.ColumnIndex("Volume_Usd"))
	assert.Equal(t, -1, tbl.ColumnIndex("volume"))
}
