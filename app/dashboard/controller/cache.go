package controller

import (
	"net/http"

	"go.uber.org/zap"
)

// HandleCacheStats returns hit, miss and eviction counters, overall and per query.
func (c *Controller) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, c.App.Cache.Stats())
}

// HandleCacheClear drops every cached result so the next page load recomputes from the warehouse.
func (c *Controller) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	user := c.currentUser(r)
	n := c.App.ClearCache(r.Context(), user)

	c.App.Logger.Info("Result cache cleared",
		zap.String("user", user),
		zap.Int("entries", n))

	c.writeJSON(w, http.StatusOK, map[string]any{
		"cleared": n,
		"by":      user,
	})
}
