package controller

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/axelarscope/dashboard/pkg/catalog"
	"github.com/axelarscope/dashboard/pkg/pages"
)

type panelSummary struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Query   string             `json:"query"`
	Kind    pages.ChartKind    `json:"chart_kind"`
	Options pages.ChartOptions `json:"chart_options"`
}

type pageSummary struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Defaults pages.ParamsView `json:"defaults"`
	Buckets  []catalog.Bucket `json:"buckets"`
	Panels   []panelSummary   `json:"panels"`
}

// HandleListPages returns every page with its default parameters and panel layout.
func (c *Controller) HandleListPages(w http.ResponseWriter, r *http.Request) {
	list := c.App.Runner.Registry().List()
	out := make([]pageSummary, 0, len(list))
	for _, p := range list {
		s := pageSummary{
			ID:       p.ID,
			Title:    p.Title,
			Defaults: pages.ViewOf(p.WithDefaults(catalog.Params{})),
			Buckets:  catalog.Buckets,
			Panels:   make([]panelSummary, 0, len(p.Panels)),
		}
		for _, panel := range p.Panels {
			s.Panels = append(s.Panels, panelSummary{
				ID: panel.ID, Title: panel.Title, Query: panel.Query, Kind: panel.Kind, Options: panel.Options,
			})
		}
		out = append(out, s)
	}
	c.writeJSON(w, http.StatusOK, out)
}

// HandlePage runs a page and returns all of its panels.
func (c *Controller) HandlePage(w http.ResponseWriter, r *http.Request) {
	pageID := mux.Vars(r)["page"]
	params, err := parseParams(r)
	if err != nil {
		c.writeFailure(w, r, err)
		return
	}

	res, err := c.App.Runner.Run(r.Context(), pageID, params)
	if err != nil {
		c.writeFailure(w, r, err)
		return
	}
	c.writeJSON(w, http.StatusOK, res)
}
