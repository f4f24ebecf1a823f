package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leelsey/recvd/pkg/httputil"
)

const (
	// streamKeepalive is how often an idle SSE stream emits a comment
	// line so dead connections surface.
	streamKeepalive = 15 * time.Second

	// wsWriteWait bounds a single websocket write.
	wsWriteWait = 10 * time.Second

	// wsPingInterval is how often an idle websocket tail is pinged.
	wsPingInterval = 30 * time.Second
)

// handleStreamEntries handles GET /entries/stream, a Server-Sent Events
// feed of new capture entries. Entries recorded before the subscription
// are not replayed; use GET /entries for history.
func (a *AdminAPI) handleStreamEntries(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteInternalError(w, "sse_error", "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if allowOrigin := a.corsConfig.getAllowOriginValue(r.Header.Get("Origin")); allowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
	}

	// Subscribe before announcing the stream so no entry slips between
	// the client seeing the preamble and the feed starting.
	sub, unsubscribe := a.store.Subscribe()
	defer unsubscribe()

	_, _ = fmt.Fprintf(w, "event: connected\ndata: {\"message\": \"Connected to entry stream\"}\n\n")
	flusher.Flush()

	ctx := r.Context()
	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, open := <-sub:
			if !open {
				return
			}
			data, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "event: entry\ndata: %s\n\n", data)
			flusher.Flush()
		case <-keepalive.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// handleWatchEntries handles GET /entries/ws, the WebSocket variant of
// the entry stream. Each new entry is sent as one JSON text message.
func (a *AdminAPI) handleWatchEntries(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the handshake completes so entries recorded right
	// after the client connects are not missed.
	sub, unsubscribe := a.store.Subscribe()
	defer unsubscribe()

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		a.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Drain client frames to notice the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := r.Context()
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case entry, open := <-sub:
			if !open {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
