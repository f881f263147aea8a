package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WebSocket adapts a gorilla connection to Port. Messages are text frames.
type WebSocket struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
	onSend  func()
	onRecv  func()
}

// NewWebSocket wraps conn. The port owns conn from here on.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

// WithHooks registers callbacks fired after each sent and received frame
func (w *WebSocket) WithHooks(onSend, onRecv func()) *WebSocket {
	w.onSend = onSend
	w.onRecv = onRecv
	return w
}

func (w *WebSocket) Send(ctx context.Context, msg []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return mapWSError(err)
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return mapWSError(err)
	}
	if w.onSend != nil {
		w.onSend()
	}
	return nil
}

// Recv blocks until the next frame. Cancelling ctx does not interrupt a
// pending read; Close does.
func (w *WebSocket) Recv(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kind, data, err := w.conn.ReadMessage()
		if err != nil {
			return nil, mapWSError(err)
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		if w.onRecv != nil {
			w.onRecv()
		}
		return data, nil
	}
}

func (w *WebSocket) Close() error {
	var err error
	w.once.Do(func() {
		w.writeMu.Lock()
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		w.writeMu.Unlock()
		err = w.conn.Close()
	})
	return err
}

func mapWSError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
		errors.Is(err, websocket.ErrCloseSent) {
		return ErrClosed
	}
	return err
}
