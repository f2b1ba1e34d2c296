package http

import (
	"context"
	"sync"

	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// Connection is one websocket subscriber. Send is never closed; Done is
// closed once the connection is dropped.
type Connection struct {
	ID   string
	Send chan ports.StreamEvent
	done chan struct{}
	once sync.Once
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(id string, buffer int) *Connection {
	return &Connection{
		ID:   id,
		Send: make(chan ports.StreamEvent, buffer),
		done: make(chan struct{}),
	}
}

// Done is closed when the connection has been dropped
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) close() {
	c.once.Do(func() { close(c.done) })
}

// offer queues an event without blocking; a full queue drops the event
func (c *Connection) offer(event ports.StreamEvent) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- event:
		return true
	default:
		return false
	}
}

// ConnectionManager fans compile events out to websocket subscribers
type ConnectionManager struct {
	connections map[string]*Connection
	broadcast   chan ports.StreamEvent
	register    chan *Connection
	unregister  chan string
	mu          sync.RWMutex
	done        chan struct{}
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		broadcast:   make(chan ports.StreamEvent, 256),
		register:    make(chan *Connection),
		unregister:  make(chan string),
		done:        make(chan struct{}),
	}
}

// Run starts the connection manager main loop
func (cm *ConnectionManager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(cm.done)
			cm.CloseAll()
			return

		case conn := <-cm.register:
			cm.mu.Lock()
			cm.connections[conn.ID] = conn
			cm.mu.Unlock()

		case id := <-cm.unregister:
			cm.drop(id)

		case event := <-cm.broadcast:
			cm.mu.RLock()
			var slow []string
			for id, conn := range cm.connections {
				if !conn.offer(event) {
					slow = append(slow, id)
				}
			}
			cm.mu.RUnlock()
			for _, id := range slow {
				cm.drop(id)
			}
		}
	}
}

func (cm *ConnectionManager) drop(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if conn, ok := cm.connections[id]; ok {
		delete(cm.connections, id)
		conn.close()
	}
}

// RegisterConnection adds a new connection
func (cm *ConnectionManager) RegisterConnection(conn *Connection) {
	select {
	case cm.register <- conn:
	case <-cm.done:
		conn.close()
	}
}

// Unregister removes a connection
func (cm *ConnectionManager) Unregister(connID string) {
	select {
	case cm.unregister <- connID:
	case <-cm.done:
	}
}

// Broadcast queues an event for every connection; events are dropped while
// the queue is full
func (cm *ConnectionManager) Broadcast(event ports.StreamEvent) {
	select {
	case cm.broadcast <- event:
	case <-cm.done:
	default:
	}
}

// Count returns the number of registered connections
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll drops every connection
func (cm *ConnectionManager) CloseAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for id, conn := range cm.connections {
		conn.close()
		delete(cm.connections, id)
	}
}
