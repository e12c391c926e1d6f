package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pondside/pondside/internal/model"
)

// transport abstracts the websocket so coordinator tests can drive a
// connection without a network. Implementations must allow concurrent
// WriteMessage calls.
type transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// conn is one live client connection. The identity fields are empty
// until the join or restore handshake succeeds.
type conn struct {
	id        string
	transport transport

	mu     sync.Mutex
	name   model.PlayerName
	area   model.AreaID
	bound  bool
	closed bool
}

func newConn(t transport) *conn {
	return &conn{
		id:        uuid.NewString(),
		transport: t,
	}
}

// identity returns the bound player and their current area.
func (c *conn) identity() (model.PlayerName, model.AreaID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name, c.area, c.bound
}

func (c *conn) bind(name model.PlayerName, area model.AreaID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
	c.area = area
	c.bound = true
}

// unbind clears the identity, returning the connection to its
// pre-handshake state.
func (c *conn) unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = ""
	c.area = ""
	c.bound = false
}

func (c *conn) setArea(area model.AreaID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.area = area
}

// send marshals and writes one envelope. Write errors are returned so
// the caller may drop the connection; the transport serializes writers.
func (c *conn) send(kind string, payload any) error {
	data, err := encodeMessage(kind, payload)
	if err != nil {
		return err
	}
	return c.transport.WriteMessage(data)
}

func (c *conn) sendError(kind, code, message string) {
	_ = c.send(kind, ErrorPayload{Code: code, Message: message})
}

// close shuts the transport down once; later calls are no-ops.
func (c *conn) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	_ = c.transport.Close()
}
