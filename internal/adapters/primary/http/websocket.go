package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fredcamaral/deckforge/internal/adapters/secondary/deckfile"
	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum deck document size accepted from a peer
	maxMessageSize = 4 << 20
)

// createUpgrader creates a WebSocket upgrader with origin validation
func (s *Server) createUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.isValidOrigin,
	}
}

// streamClient is one /ws/compile peer. Each text message it sends is a deck
// document; progress and the final result of that compile are sent back to
// it alone, while compiles started over the REST API are broadcast to all.
type streamClient struct {
	server *Server
	ws     *websocket.Conn
	conn   *Connection
	ctx    context.Context
	cancel context.CancelFunc
	busy   atomic.Bool
	logger *slog.Logger
}

// handleCompileStream upgrades the request and serves compile requests
func (s *Server) handleCompileStream(w http.ResponseWriter, r *http.Request) {
	upgrader := s.createUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	// the request context ends when this handler returns
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	client := &streamClient{
		server: s,
		ws:     ws,
		conn:   NewConnection(id, 256),
		ctx:    ctx,
		cancel: cancel,
		logger: s.logger.With(slog.String("client", id)),
	}
	s.connMgr.RegisterConnection(client.conn)
	if s.api.Metrics != nil {
		s.api.Metrics.ObserveStream()
	}

	go client.writePump()
	go client.readPump()

	client.conn.offer(ports.StreamEvent{Type: ports.EventTypeConnected, Timestamp: time.Now()})
}

// readPump reads deck documents until the peer goes away
func (c *streamClient) readPump() {
	defer func() {
		c.cancel()
		c.server.connMgr.Unregister(c.conn.ID)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}

		if !c.busy.CompareAndSwap(false, true) {
			c.deliver(errorEvent("a compile is already running on this connection"))
			continue
		}
		go c.compile(message)
	}
}

// compile runs one deck and streams its progress back to the peer. Closing
// the connection cancels the compile.
func (c *streamClient) compile(message []byte) {
	defer c.busy.Store(false)

	spec, err := deckfile.DecodeDeck(message, c.server.opts.BaseDir)
	if err != nil {
		c.deliver(errorEvent(err.Error()))
		return
	}
	spec.Output.Directory = c.server.opts.OutputDir

	result, err := c.server.api.Compiler.Compile(c.ctx, spec, func(e entities.ProgressEvent) {
		c.deliver(progressEvent(e))
	})
	c.server.observeCompile(result, err)
	event := resultEvent(result)
	if err != nil {
		event.Error = err.Error()
	}
	c.deliver(event)
}

// deliver queues an event for this peer, waiting while the queue is full
func (c *streamClient) deliver(event ports.StreamEvent) {
	select {
	case c.conn.Send <- event:
	case <-c.conn.Done():
	case <-c.ctx.Done():
	}
}

// writePump pumps queued events to the peer
func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case event := <-c.conn.Send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(event); err != nil {
				return
			}

		case <-c.conn.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorEvent(msg string) ports.StreamEvent {
	return ports.StreamEvent{Type: ports.EventTypeError, Timestamp: time.Now(), Error: msg}
}

// isValidOrigin accepts same-origin requests, loopback hosts and the
// configured CORS origins (including *.domain wildcards)
func (s *Server) isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		s.logger.Warn("websocket origin rejected", slog.String("origin", origin), slog.String("error", err.Error()))
		return false
	}

	switch originURL.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}

	for _, allowed := range s.config.GetCORSOrigins() {
		if originURL.String() == allowed {
			return true
		}
		if strings.HasPrefix(allowed, "*.") && strings.HasSuffix(originURL.Hostname(), allowed[1:]) {
			return true
		}
	}

	s.logger.Warn("websocket origin rejected", slog.String("origin", origin))
	return false
}
