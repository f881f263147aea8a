// Package foreground is the rendering side of the link. A Client tracks the
// handshake, keeps the most recent snapshot and reports clicks; renderers
// turn that snapshot into HTML, styled terminal text or an interactive TUI.
package foreground

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/workerview/internal/domain/snapshot"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/workerview/internal/protocol"
	"github.com/GriffinCanCode/workerview/internal/transport"
)

// Client is the foreground end of one root
type Client struct {
	port transport.Port
	log  *logging.Logger

	mu       sync.RWMutex
	linked   bool
	latest   *snapshot.Payload
	raw      []byte
	received int

	changed chan struct{}
}

// NewClient creates a client reading from port
func NewClient(port transport.Port, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		port:    port,
		log:     log.Component("foreground"),
		changed: make(chan struct{}, 1),
	}
}

// Run consumes downstream messages until ctx is done or the port closes.
// Undecodable messages are logged and skipped.
func (c *Client) Run(ctx context.Context) error {
	for {
		data, err := c.port.Recv(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}

		msg, err := protocol.DecodeDownstream(data)
		if err != nil {
			c.log.Error("undecodable message", zap.Error(err))
			continue
		}
		c.apply(msg, data)
	}
}

func (c *Client) apply(msg protocol.Downstream, data []byte) {
	c.mu.Lock()
	c.received++
	if msg.Handshake {
		c.linked = true
		c.mu.Unlock()
		c.log.Info("worker handshake")
		c.notify()
		return
	}
	c.latest = msg.Snapshot
	c.raw = data
	c.mu.Unlock()
	c.notify()
}

func (c *Client) notify() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

// Click reports an activation of button id to the background
func (c *Client) Click(ctx context.Context, id int) error {
	data, err := protocol.EncodeClick(id)
	if err != nil {
		return err
	}
	if err := c.port.Send(ctx, data); err != nil {
		return fmt.Errorf("send click: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot
func (c *Client) Latest() (snapshot.Payload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return snapshot.Payload{}, false
	}
	return *c.latest, true
}

// LatestJSON returns the most recent snapshot indented for display
func (c *Client) LatestJSON() ([]byte, error) {
	c.mu.RLock()
	raw := c.raw
	c.mu.RUnlock()
	if raw == nil {
		return nil, nil
	}
	var v any
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return sonic.ConfigStd.MarshalIndent(v, "", "  ")
}

// Linked reports whether the handshake has arrived
func (c *Client) Linked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.linked
}

// Received returns how many downstream messages were applied
func (c *Client) Received() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.received
}

// Changed fires after the handshake or a new snapshot. Notifications
// coalesce: readers should always look at Latest.
func (c *Client) Changed() <-chan struct{} {
	return c.changed
}

// Close closes the port
func (c *Client) Close() error {
	return c.port.Close()
}
