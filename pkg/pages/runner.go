package pages

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/axelarscope/dashboard/pkg/cache"
	"github.com/axelarscope/dashboard/pkg/catalog"
	"github.com/axelarscope/dashboard/pkg/warehouse"
)

const (
	DefaultWorkers = 6
	DefaultTimeout = 2 * time.Minute
)

// Panel is one presentation tuple: a table, a chart kind and its options.
// A panel whose query failed carries Error and no Table.
type Panel struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Query     string                 `json:"query"`
	Kind      ChartKind              `json:"chart_kind"`
	Options   ChartOptions           `json:"chart_options"`
	Table     *warehouse.ResultTable `json:"table,omitempty"`
	Error     string                 `json:"error,omitempty"`
	ErrorKind string                 `json:"error_kind,omitempty"`
}

// ParamsView is the JSON form of the parameters a page ran with.
type ParamsView struct {
	Start   string         `json:"start"`
	End     string         `json:"end"`
	Bucket  catalog.Bucket `json:"bucket"`
	Filters []string       `json:"filters,omitempty"`
}

// ViewOf renders p for responses.
func ViewOf(p catalog.Params) ParamsView {
	return ParamsView{
		Start:   p.Start.Format(catalog.DateLayout),
		End:     p.End.Format(catalog.DateLayout),
		Bucket:  p.Bucket,
		Filters: p.Filters,
	}
}

// PageResult is a fully assembled page, panels in page order.
type PageResult struct {
	Page    string     `json:"page"`
	Title   string     `json:"title"`
	Params  ParamsView `json:"params"`
	Panels  []Panel    `json:"panels"`
	Failed  int        `json:"failed"`
	Elapsed string     `json:"elapsed"`
}

// Config wires a Runner.
type Config struct {
	Logger    *zap.Logger
	Catalog   *catalog.Catalog
	Cache     *cache.Cache
	Warehouse warehouse.Client
	Registry  *Registry
	Workers   int
	Timeout   time.Duration
}

// Runner binds parameters for a page, runs its queries through the cache, and builds panels.
type Runner struct {
	logger    *zap.Logger
	catalog   *catalog.Catalog
	cache     *cache.Cache
	warehouse warehouse.Client
	registry  *Registry
	pool      pond.Pool
	timeout   time.Duration
}

// NewRunner validates the page registry against the catalog and starts the query pool.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Catalog == nil || cfg.Cache == nil || cfg.Warehouse == nil {
		return nil, errors.New("runner requires a catalog, a cache and a warehouse client")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Registry == nil {
		cfg.Registry = Builtin()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if err := cfg.Registry.Check(cfg.Catalog); err != nil {
		return nil, err
	}
	return &Runner{
		logger:    cfg.Logger,
		catalog:   cfg.Catalog,
		cache:     cfg.Cache,
		warehouse: cfg.Warehouse,
		registry:  cfg.Registry,
		pool:      pond.NewPool(cfg.Workers),
		timeout:   cfg.Timeout,
	}, nil
}

// Registry exposes the page set.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Close stops the query pool after in-flight queries finish.
func (r *Runner) Close() {
	r.pool.StopAndWait()
}

// Query runs a single catalog query through the cache.
func (r *Runner) Query(ctx context.Context, id string, p catalog.Params) (*catalog.Bound, *warehouse.ResultTable, error) {
	bound, err := r.catalog.Bind(id, p)
	if err != nil {
		return nil, nil, err
	}
	table, err := r.fetch(ctx, bound)
	if err != nil {
		return bound, nil, err
	}
	return bound, table, nil
}

func (r *Runner) fetch(ctx context.Context, b *catalog.Bound) (*warehouse.ResultTable, error) {
	key := cache.KeyFor(b.Spec, b.Params)
	return r.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*warehouse.ResultTable, error) {
		table, err := r.warehouse.Execute(ctx, b.SQL, r.timeout)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", b.Spec.ID, err)
		}
		if err := b.Spec.CheckSchema(table); err != nil {
			r.logger.Error("warehouse result does not match declared columns",
				zap.String("query", b.Spec.ID),
				zap.Error(err))
			return nil, err
		}
		return table, nil
	})
}

type outcome struct {
	table *warehouse.ResultTable
	err   error
}

// bind resolves the page and binds every query before anything is sent.
func (r *Runner) bind(pageID string, p catalog.Params) (*Page, catalog.Params, []*catalog.Bound, error) {
	page, err := r.registry.Get(pageID)
	if err != nil {
		return nil, p, nil, err
	}
	p = page.WithDefaults(p)
	queries := page.Queries()
	bound := make([]*catalog.Bound, len(queries))
	for i, id := range queries {
		if bound[i], err = r.catalog.Bind(id, p); err != nil {
			return nil, p, nil, err
		}
	}
	return page, p, bound, nil
}

// Validate resolves the page and binds its queries against p without running anything.
func (r *Runner) Validate(pageID string, p catalog.Params) error {
	_, _, _, err := r.bind(pageID, p)
	return err
}

// execute runs the bound queries concurrently and calls done as each finishes.
func (r *Runner) execute(ctx context.Context, bound []*catalog.Bound, done func(b *catalog.Bound, o outcome)) {
	group := r.pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for _, b := range bound {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				done(b, outcome{err: err})
				return
			}
			table, err := r.fetch(groupCtx, b)
			done(b, outcome{table: table, err: err})
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		r.logger.Warn("page query group encountered error", zap.Error(err))
	}
}

// Run executes every query of a page and returns its panels in page order. Parameter errors abort before
// any query is sent. Warehouse failures mark the affected panels; a schema mismatch fails the page.
func (r *Runner) Run(ctx context.Context, pageID string, p catalog.Params) (*PageResult, error) {
	start := time.Now()
	page, p, bound, err := r.bind(pageID, p)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	outcomes := make(map[string]outcome, len(bound))
	r.execute(ctx, bound, func(b *catalog.Bound, o outcome) {
		mu.Lock()
		outcomes[b.Spec.ID] = o
		mu.Unlock()
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		if errors.Is(o.err, warehouse.ErrSchema) {
			return nil, o.err
		}
	}

	res := &PageResult{
		Page:   page.ID,
		Title:  page.Title,
		Params: ViewOf(p),
		Panels: make([]Panel, 0, len(page.Panels)),
	}
	for _, def := range page.Panels {
		panel := r.panel(def, outcomes[def.Query])
		if panel.Error != "" {
			res.Failed++
		}
		res.Panels = append(res.Panels, panel)
	}
	res.Elapsed = time.Since(start).Round(time.Millisecond).String()

	r.logger.Info("page rendered",
		zap.String("page", page.ID),
		zap.String("start", res.Params.Start),
		zap.String("end", res.Params.End),
		zap.String("bucket", string(p.Bucket)),
		zap.Int("panels", len(res.Panels)),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// Stream is Run delivering each panel as soon as its query completes. emit is never called concurrently.
// It returns the first schema error, if any, after all queries finish.
func (r *Runner) Stream(ctx context.Context, pageID string, p catalog.Params, emit func(Panel) error) (catalog.Params, error) {
	page, p, bound, err := r.bind(pageID, p)
	if err != nil {
		return p, err
	}

	var (
		mu       sync.Mutex
		fatal    error
		emitErr  error
		byQuery  = make(map[string][]PanelDef)
		emitOnce = func(panel Panel) {
			if emitErr != nil {
				return
			}
			emitErr = emit(panel)
		}
	)
	for _, def := range page.Panels {
		byQuery[def.Query] = append(byQuery[def.Query], def)
	}

	r.execute(ctx, bound, func(b *catalog.Bound, o outcome) {
		mu.Lock()
		defer mu.Unlock()
		if errors.Is(o.err, warehouse.ErrSchema) && fatal == nil {
			fatal = o.err
		}
		for _, def := range byQuery[b.Spec.ID] {
			emitOnce(r.panel(def, o))
		}
	})

	switch {
	case fatal != nil:
		return p, fatal
	case emitErr != nil:
		return p, emitErr
	}
	return p, ctx.Err()
}

func (r *Runner) panel(def PanelDef, o outcome) Panel {
	panel := Panel{
		ID:      def.ID,
		Title:   def.Title,
		Query:   def.Query,
		Kind:    def.Kind,
		Options: def.Options,
	}
	if o.err == nil && o.table == nil {
		o.err = errors.New("query did not run")
	}
	if o.err != nil {
		panel.Error = o.err.Error()
		panel.ErrorKind = ErrorKind(o.err)
		return panel
	}

	table := o.table
	if def.Derive != nil {
		derived, err := def.Derive(table)
		if err != nil {
			r.logger.Error("panel derivation failed", zap.String("panel", def.ID), zap.Error(err))
			panel.Error = err.Error()
			panel.ErrorKind = "derive"
			return panel
		}
		table = derived
	}
	panel.Table = table
	return panel
}

// ErrorKind names the failure class of err for the presentation layer.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, catalog.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrUnknownPage), errors.Is(err, catalog.ErrUnknownQuery):
		return "not_found"
	case errors.Is(err, warehouse.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, warehouse.ErrConnection):
		return "connection"
	case errors.Is(err, warehouse.ErrSchema):
		return "schema"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "query"
	}
}
