// Package transport carries encoded protocol messages between the two
// contexts. Every Port delivers messages in send order per direction and
// never shares memory with its peer: payloads are copied on send.
//
// Implementations:
//   - Pipe: in-process pair backed by unbounded queues
//   - WebSocket: one gorilla/websocket connection
//   - Redis: two Redis lists, one per direction, for separate processes
package transport

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned once a port or its peer has been closed and no
// buffered messages remain.
var ErrClosed = errors.New("transport: port closed")

// Port is one end of a bidirectional, ordered message channel
type Port interface {
	Send(ctx context.Context, msg []byte) error
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// queue is an unbounded FIFO of byte messages with a close flag
type queue struct {
	mu      sync.Mutex
	items   [][]byte
	closed  bool
	changed chan struct{}
}

func newQueue() *queue {
	return &queue{changed: make(chan struct{})}
}

func (q *queue) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

func (q *queue) push(msg []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, append([]byte(nil), msg...))
	q.notifyLocked()
	return nil
}

func (q *queue) pop(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return msg, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClosed
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notifyLocked()
}

type pipeEnd struct {
	out *queue
	in  *queue
}

// Pipe returns two connected in-memory ports. Closing either end closes
// both directions; messages already queued are still delivered.
func Pipe() (Port, Port) {
	ab, ba := newQueue(), newQueue()
	return &pipeEnd{out: ab, in: ba}, &pipeEnd{out: ba, in: ab}
}

func (p *pipeEnd) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.out.push(msg)
}

func (p *pipeEnd) Recv(ctx context.Context) ([]byte, error) {
	return p.in.pop(ctx)
}

func (p *pipeEnd) Close() error {
	p.out.close()
	p.in.close()
	return nil
}
