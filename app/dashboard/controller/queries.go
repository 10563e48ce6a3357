package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/axelarscope/dashboard/pkg/pages"
	"github.com/axelarscope/dashboard/pkg/warehouse"
)

type queryResponse struct {
	Query  string                 `json:"query"`
	Params pages.ParamsView       `json:"params"`
	Table  *warehouse.ResultTable `json:"table"`
}

// HandleListQueries returns the catalog.
func (c *Controller) HandleListQueries(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, c.App.Catalog.Specs())
}

// HandleQuery runs one catalog query through the cache. Unset parameters take the defaults of the
// first page that shows the query.
func (c *Controller) HandleQuery(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["query"]
	if _, err := c.App.Catalog.Spec(id); err != nil {
		c.writeFailure(w, r, err)
		return
	}

	params, err := parseParams(r)
	if err != nil {
		c.writeFailure(w, r, err)
		return
	}
	if page, ok := c.App.Runner.Registry().PageFor(id); ok {
		params = page.WithDefaults(params)
	}

	bound, table, err := c.App.Runner.Query(r.Context(), id, params)
	if err != nil {
		c.writeFailure(w, r, err)
		return
	}
	c.writeJSON(w, http.StatusOK, queryResponse{
		Query:  id,
		Params: pages.ViewOf(bound.Params),
		Table:  table,
	})
}
