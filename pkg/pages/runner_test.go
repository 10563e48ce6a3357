package pages

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/axelarscope/dashboard/pkg/cache"
	"github.com/axelarscope/dashboard/pkg/catalog"
	"github.com/axelarscope/dashboard/pkg/warehouse"
)

// fakeWarehouse answers rendered catalog queries by id.
type fakeWarehouse struct {
	mu      sync.Mutex
	ids     map[string]string
	answers map[string]func() (*warehouse.ResultTable, error)
	calls   map[string]int
}

// newFakeWarehouse recognizes the SQL of the given queries rendered with p.
func newFakeWarehouse(t *testing.T, cat *catalog.Catalog, p catalog.Params, queries []string) *fakeWarehouse {
	t.Helper()
	f := &fakeWarehouse{
		ids:     make(map[string]string),
		answers: make(map[string]func() (*warehouse.ResultTable, error)),
		calls:   make(map[string]int),
	}
	for _, id := range queries {
		sql, err := cat.Render(id, p)
		require.NoError(t, err)
		f.ids[sql] = id
	}
	return f
}

func (f *fakeWarehouse) answer(id string, fn func() (*warehouse.ResultTable, error)) {
	f.answers[id] = fn
}

func (f *fakeWarehouse) Execute(_ context.Context, query string, _ time.Duration) (*warehouse.ResultTable, error) {
	f.mu.Lock()
	id, ok := f.ids[query]
	f.calls[id]++
	fn := f.answers[id]
	f.mu.Unlock()
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: unexpected query", warehouse.ErrQuery)
	}
	return fn()
}

func (f *fakeWarehouse) Ping(context.Context) error { return nil }

func (f *fakeWarehouse) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func fixed(t *warehouse.ResultTable) func() (*warehouse.ResultTable, error) {
	return func() (*warehouse.ResultTable, error) { return t, nil }
}

func failing(err error) func() (*warehouse.ResultTable, error) {
	return func() (*warehouse.ResultTable, error) { return nil, err }
}

func chainTable(label string, n int) *warehouse.ResultTable {
	t := &warehouse.ResultTable{Columns: []warehouse.Column{
		{Name: label, Type: "String"},
		{Name: "transfers", Type: "UInt64"},
		{Name: "users", Type: "UInt64"},
		{Name: "volume_usd", Type: "Nullable(Float64)"},
	}}
	for i := 0; i < n; i++ {
		t.Rows = append(t.Rows, []any{fmt.Sprintf("chain-%02d", i), uint64(i), uint64(n - i), float64(i * 10)})
	}
	return t
}

func squidAnswers(f *fakeWarehouse) {
	f.answer(catalog.QuerySquidKPI, fixed(&warehouse.ResultTable{
		Columns: []warehouse.Column{{Name: "transfers", Type: "UInt64"}, {Name: "users", Type: "UInt64"}, {Name: "volume_usd", Type: "Float64"}},
		Rows:    [][]any{{uint64(120), uint64(40), 98765.0}},
	}))
	f.answer(catalog.QuerySquidTimeSeries, fixed(&warehouse.ResultTable{
		Columns: []warehouse.Column{{Name: "period", Type: "DateTime('UTC')"}, {Name: "transfers", Type: "UInt64"}, {Name: "users", Type: "UInt64"}, {Name: "volume_usd", Type: "Float64"}},
		Rows: [][]any{
			{catalog.Date(2024, 1, 1), uint64(60), uint64(20), 50000.0},
			{catalog.Date(2024, 2, 1), uint64(60), uint64(25), 48765.0},
		},
	}))
	f.answer(catalog.QuerySquidSources, fixed(chainTable("source_chain", 25)))
	f.answer(catalog.QuerySquidDestinations, fixed(chainTable("destination_chain", 3)))
	f.answer(catalog.QuerySquidSymbols, fixed(&warehouse.ResultTable{
		Columns: []warehouse.Column{{Name: "source_chain", Type: "String"}, {Name: "symbol", Type: "String"}, {Name: "volume_usd", Type: "Float64"}, {Name: "transfers", Type: "UInt64"}},
		Rows: [][]any{
			{"ethereum", "USDC", 30.0, uint64(1)},
			{"ethereum", "ETH", 10.0, uint64(3)},
			{"osmosis", "OSMO", 0.0, uint64(0)},
		},
	}))
}

type fixture struct {
	runner *Runner
	wh     *fakeWarehouse
	params catalog.Params
}

func newFixture(t *testing.T, page string) *fixture {
	t.Helper()
	cat := catalog.MustNew()
	reg := Builtin()
	pg, err := reg.Get(page)
	require.NoError(t, err)
	params := pg.WithDefaults(catalog.Params{})

	wh := newFakeWarehouse(t, cat, params, pg.Queries())
	c, err := cache.New(64, zaptest.NewLogger(t))
	require.NoError(t, err)
	r, err := NewRunner(Config{
		Logger:    zaptest.NewLogger(t),
		Catalog:   cat,
		Cache:     c,
		Warehouse: wh,
		Registry:  reg,
		Workers:   4,
		Timeout:   time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return &fixture{runner: r, wh: wh, params: params}
}

func panelByID(t *testing.T, res *PageResult, id string) Panel {
	t.Helper()
	for _, p := range res.Panels {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("panel %s not found", id)
	return Panel{}
}

func TestRunSquidPage(t *testing.T) {
	f := newFixture(t, "squid")
	squidAnswers(f.wh)

	res, err := f.runner.Run(context.Background(), "squid", catalog.Params{})
	require.NoError(t, err)

	assert.Equal(t, "squid", res.Page)
	assert.Equal(t, "2024-01-01", res.Params.Start)
	assert.Equal(t, "2025-07-31", res.Params.End)
	assert.Equal(t, catalog.BucketMonth, res.Params.Bucket)
	assert.Len(t, res.Params.Filters, 5)
	require.Len(t, res.Panels, 14)
	assert.Zero(t, res.Failed)
	assert.Equal(t, "volume", res.Panels[0].ID)
	assert.Equal(t, KPICard, res.Panels[0].Kind)

	// five distinct queries back fourteen panels
	assert.Equal(t, 5, f.wh.total())

	byVolume := panelByID(t, res, "source_by_volume")
	require.Len(t, byVolume.Table.Rows, TopN)
	assert.Equal(t, "chain-24", byVolume.Table.Rows[0][0])

	byUsers := panelByID(t, res, "source_by_users")
	assert.Equal(t, "chain-00", byUsers.Table.Rows[0][0])

	dest := panelByID(t, res, "destination_by_transfers")
	assert.Len(t, dest.Table.Rows, 3)

	share := panelByID(t, res, "symbols_by_transfers")
	assert.Equal(t, NormalizedStackedBar, share.Kind)
	require.Len(t, share.Table.Columns, 5)
	assert.Equal(t, 25.0, share.Table.Rows[0][4])
	assert.Equal(t, 75.0, share.Table.Rows[1][4])
	assert.Equal(t, 0.0, share.Table.Rows[2][4])

	volShare := panelByID(t, res, "symbols_by_volume")
	assert.Equal(t, 75.0, volShare.Table.Rows[0][4])
}

func TestRunUsesCache(t *testing.T) {
	f := newFixture(t, "squid")
	squidAnswers(f.wh)

	_, err := f.runner.Run(context.Background(), "squid", catalog.Params{})
	require.NoError(t, err)
	_, err = f.runner.Run(context.Background(), "squid", f.params)
	require.NoError(t, err)
	assert.Equal(t, 5, f.wh.total())
}

func TestRunInvalidParametersSendNothing(t *testing.T) {
	f := newFixture(t, "squid")
	squidAnswers(f.wh)

	p := f.params
	p.Start, p.End = catalog.Date(2025, 2, 1), catalog.Date(2025, 1, 1)
	_, err := f.runner.Run(context.Background(), "squid", p)
	assert.ErrorIs(t, err, catalog.ErrInvalidParameter)
	assert.Zero(t, f.wh.total())
}

func TestValidate(t *testing.T) {
	f := newFixture(t, "squid")

	require.NoError(t, f.runner.Validate("squid", catalog.Params{}))

	p := catalog.Params{Start: catalog.Date(2025, 1, 1), End: catalog.Date(2024, 1, 1)}
	assert.ErrorIs(t, f.runner.Validate("squid", p), catalog.ErrInvalidParameter)
	assert.ErrorIs(t, f.runner.Validate("nope", catalog.Params{}), ErrUnknownPage)
	assert.Zero(t, f.wh.total())
}

func TestRunWarehouseFailureMarksPanels(t *testing.T) {
	f := newFixture(t, "squid")
	squidAnswers(f.wh)
	f.wh.answer(catalog.QuerySquidTimeSeries, failing(fmt.Errorf("%w: deadline", warehouse.ErrTimeout)))

	res, err := f.runner.Run(context.Background(), "squid", catalog.Params{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Failed)

	for _, id := range []string{"volume_over_time", "transfers_over_time", "users_over_time"} {
		p := panelByID(t, res, id)
		assert.Nil(t, p.Table, id)
		assert.Equal(t, "timeout", p.ErrorKind, id)
		assert.NotEmpty(t, p.Error, id)
	}
	assert.NotNil(t, panelByID(t, res, "volume").Table)

	// failures are not cached
	squidAnswers(f.wh)
	res, err = f.runner.Run(context.Background(), "squid", catalog.Params{})
	require.NoError(t, err)
	assert.Zero(t, res.Failed)
}

func TestRunSchemaMismatchIsFatal(t *testing.T) {
	f := newFixture(t, "squid")
	squidAnswers(f.wh)
	f.wh.answer(catalog.QuerySquidKPI, fixed(&warehouse.ResultTable{
		Columns: []warehouse.Column{{Name: "Number_of_Transfers", Type: "UInt64"}},
		Rows:    [][]any{{uint64(1)}},
	}))

	_, err := f.runner.Run(context.Background(), "squid", catalog.Params{})
	assert.ErrorIs(t, err, warehouse.ErrSchema)
}

func TestRunMetricsPage(t *testing.T) {
	f := newFixture(t, "metrics")
	f.wh.answer(catalog.QueryChainStats, fixed(&warehouse.ResultTable{
		Columns: []warehouse.Column{
			{Name: "transactions", Type: "UInt64"},
			{Name: "unique_addresses", Type: "UInt64"},
			{Name: "total_fees", Type: "Float64"},
			{Name: "avg_block_time", Type: "Float64"},
		},
		Rows: [][]any{{uint64(1000), uint64(200), 5432.0, 5.87}},
	}))

	res, err := f.runner.Run(context.Background(), "metrics", catalog.Params{})
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", res.Params.Start)
	assert.Empty(t, res.Params.Filters)
	require.Len(t, res.Panels, 4)
	for _, p := range res.Panels {
		assert.Equal(t, KPICard, p.Kind)
		assert.NotNil(t, p.Table)
	}
	assert.Equal(t, 1, f.wh.total())
}

func TestRunUnknownPage(t *testing.T) {
	f := newFixture(t, "metrics")
	_, err := f.runner.Run(context.Background(), "validators", catalog.Params{})
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestStreamEmitsEveryPanel(t *testing.T) {
	f := newFixture(t, "squid")
	squidAnswers(f.wh)
	f.wh.answer(catalog.QuerySquidDestinations, failing(warehouse.ErrConnection))

	var got []Panel
	p, err := f.runner.Stream(context.Background(), "squid", catalog.Params{}, func(p Panel) error {
		got = append(got, p)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.BucketMonth, p.Bucket)
	assert.Len(t, got, 14)

	failed := 0
	for _, p := range got {
		if p.Error != "" {
			failed++
			assert.Equal(t, "connection", p.ErrorKind)
		}
	}
	assert.Equal(t, 3, failed)
}

func TestRegistry(t *testing.T) {
	reg := Builtin()
	ids := []string{}
	for _, p := range reg.List() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"metrics", "squid"}, ids)
	assert.NoError(t, reg.Check(catalog.MustNew()))

	_, err := NewRegistry(Metrics(), Metrics())
	assert.Error(t, err)

	sq, err := reg.Get("squid")
	require.NoError(t, err)
	assert.Equal(t, []string{
		catalog.QuerySquidKPI, catalog.QuerySquidTimeSeries, catalog.QuerySquidSources,
		catalog.QuerySquidDestinations, catalog.QuerySquidSymbols,
	}, sq.Queries())
}
