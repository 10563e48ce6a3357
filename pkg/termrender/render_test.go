package termrender

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axelarscope/dashboard/pkg/catalog"
	"github.com/axelarscope/dashboard/pkg/pages"
	"github.com/axelarscope/dashboard/pkg/warehouse"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		f      float64
		format string
		want   string
	}{
		{1234567, pages.FormatCount, "1,234,567"},
		{999, pages.FormatCount, "999"},
		{-1234.4, pages.FormatCount, "-1,234"},
		{98765.4, pages.FormatUSD, "$98,765"},
		{25, pages.FormatPercent, "25.00%"},
		{5.871, pages.FormatDecimal, "5.87"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.f, tt.format))
	}
}

func TestRender(t *testing.T) {
	color.NoColor = true

	kpiTable := &warehouse.ResultTable{
		Columns: []warehouse.Column{{Name: "transfers", Type: "UInt64"}, {Name: "volume_usd", Type: "Float64"}},
		Rows:    [][]any{{uint64(1200), 98765.0}},
	}
	res := &pages.PageResult{
		Page:   "squid",
		Title:  "Squid",
		Params: pages.ViewOf(catalog.Params{Start: catalog.Date(2024, 1, 1), End: catalog.Date(2025, 7, 31), Bucket: catalog.BucketMonth}),
		Panels: []pages.Panel{
			{ID: "volume", Title: "Volume of Transfers", Kind: pages.KPICard, Table: kpiTable,
				Options: pages.ChartOptions{Value: "volume_usd", Format: pages.FormatUSD}},
			{ID: "transfers", Title: "Number of Transfers", Kind: pages.KPICard, Table: kpiTable,
				Options: pages.ChartOptions{Value: "transfers", Format: pages.FormatCount, Unit: "Txns"}},
			{ID: "source_by_volume", Title: "Top 20 Source Chains by Volume (USD)", Kind: pages.RankedHorizontalBar,
				Table: &warehouse.ResultTable{
					Columns: []warehouse.Column{{Name: "source_chain", Type: "String"}, {Name: "volume_usd", Type: "Float64"}},
					Rows:    [][]any{{"ethereum", 5000.0}, {"arbitrum", 300.0}, {"osmosis", nil}},
				}},
			{ID: "users_over_time", Title: "Squid Bridge Users Over Time", Kind: pages.TimeSeriesBarLine,
				Error: "warehouse timeout", ErrorKind: "timeout"},
		},
		Failed: 1,
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res, Options{MaxRows: 2}))
	out := buf.String()

	assert.Contains(t, out, "2024-01-01 → 2025-07-31")
	assert.Contains(t, out, "$98,765")
	assert.Contains(t, out, "1,200 Txns")
	assert.Contains(t, out, "ethereum")
	assert.Contains(t, out, "$5,000")
	assert.NotContains(t, out, "osmosis")
	assert.Contains(t, out, "1 more rows")
	assert.Contains(t, out, "error (timeout): warehouse timeout")
	assert.Contains(t, out, "1 of 4 panels failed")
}

func TestKPIValueMissingTable(t *testing.T) {
	assert.Equal(t, "n/a", KPIValue(pages.Panel{Options: pages.ChartOptions{Value: "x"}}))
}
