package ws

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

var (
	errObserverClosed = errors.New("observer connection closed")
	errObserverSlow   = errors.New("observer send buffer full")
)

// observer adapts one websocket connection to the login.Observer
// interface. Writes go through a buffered channel drained by a single
// write pump, so fan-out never blocks on a slow client and the connection
// only ever sees one writer.
type observer struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
	dead   atomic.Bool
}

func newObserver(conn *websocket.Conn) *observer {
	o := &observer{
		conn: conn,
		send: make(chan []byte, 16),
	}
	go o.writePump()
	return o
}

func (o *observer) writePump() {
	defer o.conn.Close()
	for msg := range o.send {
		if err := o.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			o.dead.Store(true)
			return
		}
	}
}

func (o *observer) Alive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.closed && !o.dead.Load()
}

func (o *observer) Send(payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.dead.Load() {
		return errObserverClosed
	}
	select {
	case o.send <- payload:
		return nil
	default:
		return errObserverSlow
	}
}

func (o *observer) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.send)
	}
	return nil
}

// markDead flags the connection as gone without closing the send channel.
// Called by the read pump when the client disconnects.
func (o *observer) markDead() {
	o.dead.Store(true)
}
