// Package pages defines the dashboard pages and runs their queries into presentation panels.
package pages

import (
	"errors"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/axelarscope/dashboard/pkg/catalog"
	"github.com/axelarscope/dashboard/pkg/transform"
	"github.com/axelarscope/dashboard/pkg/warehouse"
)

// ErrUnknownPage is returned for page ids that are not registered.
var ErrUnknownPage = errors.New("unknown page")

// ChartKind tells the presentation layer how to draw a panel.
type ChartKind string

const (
	KPICard              ChartKind = "kpi_card"
	TimeSeriesBarLine    ChartKind = "time_series_bar_line"
	GroupedBar           ChartKind = "grouped_bar"
	StackedBar           ChartKind = "stacked_bar"
	Scatter              ChartKind = "scatter"
	RankedHorizontalBar  ChartKind = "ranked_horizontal_bar"
	NormalizedStackedBar ChartKind = "normalized_stacked_bar"
)

// Value formats for KPI cards and axes.
const (
	FormatCount   = "count"
	FormatUSD     = "usd"
	FormatDecimal = "decimal"
	FormatPercent = "percent"
)

// ChartOptions are presentation hints. Column names refer to the panel's table.
type ChartOptions struct {
	X           string `json:"x,omitempty"`
	Y           string `json:"y,omitempty"`
	Color       string `json:"color,omitempty"`
	Value       string `json:"value,omitempty"`
	Format      string `json:"format,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Orientation string `json:"orientation,omitempty"`
	BarMode     string `json:"barmode,omitempty"`
	XTitle      string `json:"x_title,omitempty"`
	YTitle      string `json:"y_title,omitempty"`
}

// DeriveFunc turns a cached result into the panel's table. It must not mutate its input.
type DeriveFunc func(*warehouse.ResultTable) (*warehouse.ResultTable, error)

// PanelDef is one chart on a page.
type PanelDef struct {
	ID      string
	Title   string
	Query   string
	Kind    ChartKind
	Options ChartOptions
	Derive  DeriveFunc
}

// Defaults are applied to parameters the caller leaves empty.
type Defaults struct {
	Start   time.Time
	End     time.Time
	Bucket  catalog.Bucket
	Filters []string
}

// Page is a fixed set of panels over catalog queries.
type Page struct {
	ID       string
	Title    string
	Defaults Defaults
	Panels   []PanelDef
}

// WithDefaults fills unset fields of p from the page defaults.
func (pg *Page) WithDefaults(p catalog.Params) catalog.Params {
	if p.Start.IsZero() {
		p.Start = pg.Defaults.Start
	}
	if p.End.IsZero() {
		p.End = pg.Defaults.End
	}
	if p.Bucket == "" {
		p.Bucket = pg.Defaults.Bucket
	}
	if len(p.Filters) == 0 && len(pg.Defaults.Filters) > 0 {
		p.Filters = append([]string(nil), pg.Defaults.Filters...)
	}
	return p
}

// Queries returns the distinct catalog queries of the page in first-use order.
func (pg *Page) Queries() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(pg.Panels))
	for _, p := range pg.Panels {
		if _, ok := seen[p.Query]; ok {
			continue
		}
		seen[p.Query] = struct{}{}
		out = append(out, p.Query)
	}
	return out
}

// TopN is the ranked-bar derivation shared by the chain panels.
const TopN = 20

func topBy(metric string) DeriveFunc {
	return func(t *warehouse.ResultTable) (*warehouse.ResultTable, error) {
		return transform.TopN(t, metric, TopN)
	}
}

func shareOf(group, metric, as string) DeriveFunc {
	return func(t *warehouse.ResultTable) (*warehouse.ResultTable, error) {
		return transform.ShareWithinGroup(t, group, metric, as)
	}
}

func kpi(id, title, query, column, format, unit string) PanelDef {
	return PanelDef{
		ID:      id,
		Title:   title,
		Query:   query,
		Kind:    KPICard,
		Options: ChartOptions{Value: column, Format: format, Unit: unit},
	}
}

// Metrics is the Axelar network overview page.
func Metrics() *Page {
	return &Page{
		ID:    "metrics",
		Title: "Axelar: network metrics",
		Defaults: Defaults{
			Start:  catalog.Date(2023, 1, 1),
			End:    catalog.Date(2025, 7, 31),
			Bucket: catalog.BucketMonth,
		},
		Panels: []PanelDef{
			kpi("transactions", "Number of Transactions", catalog.QueryChainStats, "transactions", FormatCount, "Txns"),
			kpi("unique_addresses", "Number of Unique addresses", catalog.QueryChainStats, "unique_addresses", FormatCount, "Wallets"),
			kpi("total_fees", "Total Fees", catalog.QueryChainStats, "total_fees", FormatCount, "AXL"),
			kpi("avg_block_time", "Average Block Time", catalog.QueryChainStats, "avg_block_time", FormatDecimal, "Sec"),
		},
	}
}

// Squid is the Squid router bridge page.
func Squid() *Page {
	series := func(id, title, column, yTitle string) PanelDef {
		return PanelDef{
			ID:      id,
			Title:   title,
			Query:   catalog.QuerySquidTimeSeries,
			Kind:    TimeSeriesBarLine,
			Options: ChartOptions{X: "period", Y: column, YTitle: yTitle},
		}
	}
	ranked := func(id, title, query, label, metric string) PanelDef {
		return PanelDef{
			ID:      id,
			Title:   title,
			Query:   query,
			Kind:    RankedHorizontalBar,
			Options: ChartOptions{X: metric, Y: label, Orientation: "h"},
			Derive:  topBy(metric),
		}
	}
	normalized := func(id, title, metric, as string) PanelDef {
		return PanelDef{
			ID:    id,
			Title: title,
			Query: catalog.QuerySquidSymbols,
			Kind:  NormalizedStackedBar,
			Options: ChartOptions{
				X: as, Y: "source_chain", Color: "symbol",
				Orientation: "h", BarMode: "stack", Format: FormatPercent,
			},
			Derive: shareOf("source_chain", metric, as),
		}
	}

	return &Page{
		ID:    "squid",
		Title: "Squid",
		Defaults: Defaults{
			Start:   catalog.Date(2024, 1, 1),
			End:     catalog.Date(2025, 7, 31),
			Bucket:  catalog.BucketMonth,
			Filters: catalog.SquidContracts,
		},
		Panels: []PanelDef{
			kpi("volume", "Volume of Transfers", catalog.QuerySquidKPI, "volume_usd", FormatUSD, ""),
			kpi("transfers", "Number of Transfers", catalog.QuerySquidKPI, "transfers", FormatCount, "Txns"),
			kpi("users", "Number of Users", catalog.QuerySquidKPI, "users", FormatCount, "Addresses"),

			series("volume_over_time", "Squid Bridge Volume Over Time (USD)", "volume_usd", "USD"),
			series("transfers_over_time", "Squid Bridge Transactions Over Time", "transfers", "Txns"),
			series("users_over_time", "Squid Bridge Users Over Time", "users", "Addresses"),

			ranked("source_by_volume", "Top 20 Source Chains by Volume (USD)", catalog.QuerySquidSources, "source_chain", "volume_usd"),
			ranked("source_by_transfers", "Top 20 Source Chains by Transfers", catalog.QuerySquidSources, "source_chain", "transfers"),
			ranked("source_by_users", "Top 20 Source Chains by Users", catalog.QuerySquidSources, "source_chain", "users"),

			ranked("destination_by_volume", "Top 20 Destination Chains by Volume (USD)", catalog.QuerySquidDestinations, "destination_chain", "volume_usd"),
			ranked("destination_by_transfers", "Top 20 Destination Chains by Transfers", catalog.QuerySquidDestinations, "destination_chain", "transfers"),
			ranked("destination_by_users", "Top 20 Destination Chains by Users", catalog.QuerySquidDestinations, "destination_chain", "users"),

			normalized("symbols_by_transfers", "Normalized Number of Transfers by Symbol per Source Chain", "transfers", "transfers_pct"),
			normalized("symbols_by_volume", "Normalized Volume of Transfers (USD) by Symbol per Source Chain", "volume_usd", "volume_pct"),
		},
	}
}

// Registry holds pages by id in registration order.
type Registry struct {
	order []string
	pages *xsync.Map[string, *Page]
}

// NewRegistry registers pages; ids must be unique.
func NewRegistry(pages ...*Page) (*Registry, error) {
	r := &Registry{pages: xsync.NewMap[string, *Page]()}
	for _, p := range pages {
		if _, loaded := r.pages.LoadOrStore(p.ID, p); loaded {
			return nil, fmt.Errorf("page %s registered twice", p.ID)
		}
		r.order = append(r.order, p.ID)
	}
	return r, nil
}

// Builtin returns a registry with every dashboard page.
func Builtin() *Registry {
	r, err := NewRegistry(Metrics(), Squid())
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the page with the given id.
func (r *Registry) Get(id string) (*Page, error) {
	p, ok := r.pages.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, id)
	}
	return p, nil
}

// List returns pages in registration order.
func (r *Registry) List() []*Page {
	out := make([]*Page, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.pages.Load(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// PageFor returns the first page that runs query, whose defaults apply to direct query requests.
func (r *Registry) PageFor(query string) (*Page, bool) {
	for _, p := range r.List() {
		for _, panel := range p.Panels {
			if panel.Query == query {
				return p, true
			}
		}
	}
	return nil, false
}

// Check verifies that every panel references a catalog query.
func (r *Registry) Check(cat *catalog.Catalog) error {
	for _, p := range r.List() {
		for _, panel := range p.Panels {
			if _, err := cat.Spec(panel.Query); err != nil {
				return fmt.Errorf("page %s panel %s: %w", p.ID, panel.ID, err)
			}
		}
	}
	return nil
}
