package controller

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"

	"github.com/axelarscope/dashboard/pkg/catalog"
	"github.com/axelarscope/dashboard/pkg/pages"
	"github.com/axelarscope/dashboard/pkg/warehouse"
)

// writeJSON writes a JSON response. The body is encoded before the status goes out so an
// unencodable value becomes a 500 instead of an empty 200.
func (c *Controller) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		c.App.Logger.Error("Unable to encode response", zap.Int("status", statusCode), zap.Error(err))
		buf.Reset()
		buf.WriteString(`{"error":"response encoding failed","kind":"internal"}` + "\n")
		statusCode = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// writeError writes an error response
func (c *Controller) writeError(w http.ResponseWriter, statusCode int, message string) {
	c.writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeFailure maps err to a status and writes it. Server-side failures are logged.
func (c *Controller) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		c.App.Logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  pages.ErrorKind(err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, pages.ErrUnknownPage), errors.Is(err, catalog.ErrUnknownQuery):
		return http.StatusNotFound
	case errors.Is(err, warehouse.ErrSchema):
		return http.StatusInternalServerError
	case errors.Is(err, warehouse.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, warehouse.ErrConnection), errors.Is(err, warehouse.ErrQuery):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
