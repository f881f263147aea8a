// Package worker is the background context: it owns one root, renders it on
// a private event loop, ships a snapshot after every commit and routes click
// requests back to button handlers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/workerview/internal/domain/adapter"
	"github.com/GriffinCanCode/workerview/internal/domain/host"
	"github.com/GriffinCanCode/workerview/internal/domain/reconcile"
	"github.com/GriffinCanCode/workerview/internal/domain/snapshot"
	"github.com/GriffinCanCode/workerview/internal/eventloop"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/workerview/internal/protocol"
	"github.com/GriffinCanCode/workerview/internal/shared/id"
	"github.com/GriffinCanCode/workerview/internal/transport"
)

// Options configures a worker. Zero values get sensible defaults.
type Options struct {
	ID      string
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
}

// Worker runs one root against one port
type Worker struct {
	id        string
	port      transport.Port
	loop      *eventloop.Loop
	container *host.Container
	engine    *reconcile.Engine[*host.Container, host.Instance, *host.Context]
	log       *logging.Logger
	metrics   *monitoring.Metrics

	sendCtx context.Context
	fail    chan error
	closing atomic.Bool

	mu        sync.RWMutex
	last      []byte
	commits   int
	malformed int
	started   time.Time
}

// New creates a worker that will talk over port. The worker owns port and
// closes it when Run returns.
func New(port transport.Port, opts Options) *Worker {
	if opts.ID == "" {
		opts.ID = id.NewRootID().String()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}

	w := &Worker{
		id:      opts.ID,
		port:    port,
		loop:    eventloop.New(),
		log:     opts.Logger.ForRoot(opts.ID).Component("worker"),
		metrics: opts.Metrics,
		fail:    make(chan error, 1),
		sendCtx: context.Background(),
	}
	w.container = host.NewContainer(host.NewContext(w.onCommit))
	w.engine = adapter.NewEngine(w.container, w.loop)
	return w
}

// ID returns the root identifier
func (w *Worker) ID() string {
	return w.id
}

// Run sends the handshake, renders root and serves click requests until ctx
// is cancelled or the port closes. Both of those are a clean shutdown and
// return nil.
func (w *Worker) Run(ctx context.Context, root reconcile.Node) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.sendCtx = runCtx

	w.mu.Lock()
	w.started = time.Now()
	w.mu.Unlock()

	if err := w.port.Send(runCtx, protocol.Handshake()); err != nil {
		_ = w.port.Close()
		return fmt.Errorf("send handshake: %w", err)
	}
	w.log.Info("handshake sent")

	w.engine.Render(root)

	loopDone := make(chan struct{})
	go func() {
		_ = w.loop.Run(runCtx)
		close(loopDone)
	}()
	go w.receive(runCtx)

	var err error
	select {
	case <-ctx.Done():
	case err = <-w.fail:
	}
	cancel()
	<-loopDone

	w.teardown()

	if errors.Is(err, transport.ErrClosed) || errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		w.log.Error("worker stopped", zap.Error(err))
		return err
	}
	w.log.Info("worker stopped", zap.Int("commits", w.Commits()))
	return nil
}

func (w *Worker) stop(err error) {
	select {
	case w.fail <- err:
	default:
	}
}

// receive forwards inbound messages to the loop in arrival order
func (w *Worker) receive(ctx context.Context) {
	for {
		msg, err := w.port.Recv(ctx)
		if err != nil {
			w.stop(err)
			return
		}
		w.metrics.RecordWSMessage(monitoring.DirectionUp)
		w.loop.Post(func() { w.handle(msg) })
	}
}

// handle processes one inbound message on the loop
func (w *Worker) handle(msg []byte) {
	click, err := protocol.DecodeClick(msg)
	if err != nil {
		w.mu.Lock()
		w.malformed++
		w.mu.Unlock()
		w.metrics.RecordMalformed()
		w.log.Error("malformed inbound message", zap.Error(err), zap.ByteString("message", msg))
		return
	}

	btn, ok := click.ID()
	hit := ok && w.container.Dispatch(btn)
	w.metrics.RecordDispatch(hit)
	if !hit {
		w.log.Debug("click on unknown button", zap.Float64("id", click.Value))
	}
}

// onCommit runs on the loop after every reconciliation pass
func (w *Worker) onCommit(c *host.Container) {
	if w.closing.Load() {
		return
	}
	start := time.Now()
	payload := snapshot.Prepare(c)
	data, err := protocol.EncodeSnapshot(payload)
	if err != nil {
		w.log.Error("encode snapshot", zap.Error(err))
		w.stop(err)
		return
	}

	w.mu.Lock()
	w.last = data
	w.commits++
	n := w.commits
	w.mu.Unlock()
	w.metrics.RecordCommit(len(data), time.Since(start))

	w.log.Debug("commit",
		zap.Int("commit", n),
		zap.Int("elements", len(payload.Elements)),
		zap.Int("bytes", len(data)))

	if err := w.port.Send(w.sendCtx, data); err != nil {
		w.stop(err)
		return
	}
	w.metrics.RecordWSMessage(monitoring.DirectionDown)
}

// teardown unmounts the root so effects release their timers, then closes
// the loop and the port. No snapshot is sent for the unmount pass.
func (w *Worker) teardown() {
	w.closing.Store(true)
	w.engine.Unmount()
	w.loop.RunPending()
	w.loop.Close()
	if err := w.port.Close(); err != nil {
		w.log.Warn("close port", zap.Error(err))
	}
}

// Snapshot returns the last encoded snapshot, or nil before the first commit
func (w *Worker) Snapshot() []byte {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.last == nil {
		return nil
	}
	return append([]byte(nil), w.last...)
}

// Commits returns the number of commits shipped so far
func (w *Worker) Commits() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.commits
}

// Stats is a point-in-time view of a worker
type Stats struct {
	ID        string    `json:"id"`
	Commits   int       `json:"commits"`
	Malformed int       `json:"malformed"`
	Bytes     int       `json:"snapshot_bytes"`
	Started   time.Time `json:"started_at"`
}

// Stats returns counters for listings
func (w *Worker) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Stats{
		ID:        w.id,
		Commits:   w.commits,
		Malformed: w.malformed,
		Bytes:     len(w.last),
		Started:   w.started,
	}
}
