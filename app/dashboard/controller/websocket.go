package controller

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/axelarscope/dashboard/pkg/pages"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"`    // "panel", "done", "error"
	Payload interface{} `json:"payload"` // Event-specific data
}

type streamDone struct {
	Page    string           `json:"page"`
	Params  pages.ParamsView `json:"params"`
	Elapsed string           `json:"elapsed"`
}

type streamError struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// HandlePageStream upgrades to a WebSocket and sends each panel of a page as soon as its query completes.
//
// Server sends:
// - {"type": "panel", "payload": {...}}   one per panel, in completion order
// - {"type": "done", "payload": {"page": "squid", "params": {...}, "elapsed": "1.2s"}}
// - {"type": "error", "payload": {"message": "...", "kind": "schema"}}
//
// Parameter and page errors are answered with a plain HTTP error before the upgrade.
func (c *Controller) HandlePageStream(w http.ResponseWriter, r *http.Request) {
	pageID := mux.Vars(r)["page"]
	if _, err := c.App.Runner.Registry().Get(pageID); err != nil {
		c.writeFailure(w, r, err)
		return
	}
	params, err := parseParams(r)
	if err != nil {
		c.writeFailure(w, r, err)
		return
	}
	if err := c.App.Runner.Validate(pageID, params); err != nil {
		c.writeFailure(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := make(chan ServerMessage, 64)

	var (
		writerWG sync.WaitGroup
		wg       sync.WaitGroup
	)
	guard := func(name string) {
		if rec := recover(); rec != nil {
			c.App.Logger.Error("Panic in "+name+" goroutine",
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())),
				zap.String("remote_addr", r.RemoteAddr))
			cancel()
		}
	}

	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		defer guard("message writer")
		c.writeMessages(conn, send, cancel)
	}()

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer guard("ping ticker")
		c.sendPings(ctx, conn)
	}()
	go func() {
		defer wg.Done()
		defer guard("reader")
		c.readClientMessages(ctx, conn, cancel)
	}()

	start := time.Now()
	bound, err := c.App.Runner.Stream(ctx, pageID, params, func(panel pages.Panel) error {
		select {
		case send <- ServerMessage{Type: "panel", Payload: panel}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	final := ServerMessage{Type: "done", Payload: streamDone{
		Page:    pageID,
		Params:  pages.ViewOf(bound),
		Elapsed: time.Since(start).Round(time.Millisecond).String(),
	}}
	if err != nil {
		final = ServerMessage{Type: "error", Payload: streamError{Message: err.Error(), Kind: pages.ErrorKind(err)}}
		if !errors.Is(err, context.Canceled) {
			c.App.Logger.Warn("Page stream failed", zap.String("page", pageID), zap.Error(err))
		}
	}
	select {
	case send <- final:
	case <-ctx.Done():
	}
	close(send)
	writerWG.Wait()

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	cancel()
	if err := conn.Close(); err != nil {
		c.App.Logger.Debug("Failed to close WebSocket connection", zap.Error(err))
	}
	wg.Wait()
}

// sendPings sends periodic WebSocket ping frames to keep the connection alive.
func (c *Controller) sendPings(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout)); err != nil {
				c.App.Logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// writeMessages writes messages from the send channel to the WebSocket connection until it closes.
func (c *Controller) writeMessages(conn *websocket.Conn, send <-chan ServerMessage, cancel context.CancelFunc) {
	for msg := range send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			c.App.Logger.Error("Failed to write WebSocket message", zap.Error(err))
			cancel()
			// drain so the producer never blocks
			for range send {
			}
			return
		}
	}
}

// readClientMessages discards client frames and cancels the stream once the connection closes.
func (c *Controller) readClientMessages(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		c.App.Logger.Error("Failed to set read deadline", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for ctx.Err() == nil {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) && ctx.Err() == nil {
				c.App.Logger.Error("WebSocket read error", zap.Error(err))
			}
			cancel()
			return
		}
	}
}
