package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Websocket keepalive and framing limits.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsTransport adapts a gorilla websocket to the transport interface.
// Writes are serialized by a mutex, which the ping loop shares.
type wsTransport struct {
	ws *websocket.Conn

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func newWSTransport(ws *websocket.Conn) *wsTransport {
	t := &wsTransport{ws: ws, done: make(chan struct{})}
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go t.pingLoop()
	return t
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.ws.ReadMessage()
	return data, err
}

func (t *wsTransport) WriteMessage(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return t.ws.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	t.once.Do(func() { close(t.done) })
	return t.ws.Close()
}

func (t *wsTransport) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.writeMu.Lock()
			_ = t.ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := t.ws.WriteMessage(websocket.PingMessage, nil)
			t.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
