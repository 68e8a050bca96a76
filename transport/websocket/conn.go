package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds each frame write so a stalled peer fails the
	// write instead of wedging the pump.
	writeWait = 10 * time.Second

	// sendBufferSize absorbs broadcast bursts; a peer that cannot drain
	// the buffer loses messages rather than slowing anyone else down.
	sendBufferSize = 256
)

// Conn adapts one gorilla socket to the usecase.Connection contract.
// gorilla permits a single concurrent writer, so all frames go out
// through one write pump; Send only queues and never blocks the caller.
type Conn struct {
	socket *websocket.Conn

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newConn(socket *websocket.Conn) *Conn {
	conn := &Conn{
		socket: socket,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}

	go conn.writePump()

	return conn
}

// Send queues one message for the write pump. Messages to a closed peer
// or into a full buffer are dropped, never awaited.
func (that *Conn) Send(payload []byte) {
	select {
	case <-that.done:
	case that.send <- payload:
	default:
	}
}

func (that *Conn) Close() {
	that.once.Do(func() {
		close(that.done)
		_ = that.socket.Close()
	})
}

func (that *Conn) IsOpen() bool {
	select {
	case <-that.done:
		return false
	default:
		return true
	}
}

func (that *Conn) RemoteAddr() string {
	return that.socket.RemoteAddr().String()
}

// writePump is the only writer on the socket. A failed or expired write
// closes the connection; the read loop notices and reports the closure.
func (that *Conn) writePump() {
	for {
		select {
		case <-that.done:
			return
		case payload := <-that.send:
			_ = that.socket.SetWriteDeadline(time.Now().Add(writeWait))

			if err := that.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				that.Close()
				return
			}
		}
	}
}
