package controller

import (
	"context"
	"net/http"
	"time"
)

func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := c.App.Warehouse.Ping(ctx); err != nil {
		c.writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "errored", "error": "warehouse connection error"})
		return
	}

	status := map[string]string{"status": "ok"}
	if c.App.RedisClient != nil {
		status["redis"] = "ok"
		if err := c.App.RedisClient.Health(ctx); err != nil {
			// cache clears stay local while Redis is down
			status["redis"] = "degraded"
		}
	}
	c.writeJSON(w, http.StatusOK, status)
}
