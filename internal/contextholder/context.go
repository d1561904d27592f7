// Package contextholder bundles one participant's discovery-plane state:
// its identity, the transport it publishes and listens on, the graph
// cache that state feeds, and the background worker that applies
// incoming updates. It is the Go-idiom replacement for the base
// rmw_dds_common::Context struct, trading its guard-condition-driven
// listener thread for a goroutine, and its graph guard condition for a
// channel. See spec §6.
package contextholder

import (
	"context"
	"sync"
	"time"

	"github.com/Postrantor/rmw-dds-common-go/internal/discovery"
	"github.com/Postrantor/rmw-dds-common-go/internal/graphcache"
	"github.com/Postrantor/rmw-dds-common-go/internal/listener"
	"github.com/Postrantor/rmw-dds-common-go/internal/model"
	"go.uber.org/zap"
)

// Context maps one participant to the nodes it owns, and wires together
// the graph cache, discovery transport, and listener worker that keep
// that participant's view of the discovery graph current.
type Context struct {
	Gid   model.Gid
	Cache *graphcache.GraphCache

	transport discovery.Transport
	worker    *listener.Worker
	logger    *zap.Logger

	// nodeUpdateMu serializes PublishLocalChange calls, so two concurrent
	// publishes on this participant go out one at a time. The cache
	// mutation that produced each message is not made under it.
	nodeUpdateMu sync.Mutex

	graphChanged chan struct{}

	stopOnce sync.Once
	stopped  chan struct{}
}

// New creates a Context for the participant identified by gid, with a
// listener worker for applying transport updates, and wires its graph
// cache's change notifications to a graphChanged channel (the Go-idiom
// replacement for the guard condition the original triggers when the
// graph changes).
func New(gid model.Gid, transport discovery.Transport, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Context{
		Gid:          gid,
		Cache:        graphcache.New(logger),
		transport:    transport,
		logger:       logger,
		graphChanged: make(chan struct{}, 1),
		stopped:      make(chan struct{}),
		worker: listener.New(listener.Config{
			Name:   "graph-listener-" + gid.ShortString(),
			Logger: logger,
		}),
	}

	c.Cache.SetChangeCallback(c.notifyGraphChanged)
	return c
}

// notifyGraphChanged is the GraphCache change callback: it pings
// GraphChanged() without blocking, coalescing bursts of updates into a
// single wakeup the way a guard condition does.
func (c *Context) notifyGraphChanged() {
	select {
	case c.graphChanged <- struct{}{}:
	default:
	}
}

// GraphChanged returns the channel that receives a value every time the
// graph cache's state changes. Readers should drain it in a select loop;
// a full channel means a change is already pending delivery.
func (c *Context) GraphChanged() <-chan struct{} {
	return c.graphChanged
}

// Start launches the background goroutine that applies every update the
// transport observes to the graph cache, via the listener worker so
// updates apply strictly in the order the transport delivered them.
func (c *Context) Start(ctx context.Context) {
	go c.listen(ctx)
}

func (c *Context) listen(ctx context.Context) {
	updates := c.transport.Updates()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopped:
			return
		case msg, ok := <-updates:
			if !ok {
				return
			}
			m := msg
			if err := c.worker.Submit(listener.Task{
				ID:      "apply-" + m.Gid.ShortString(),
				Context: ctx,
				Fn: func(ctx context.Context) error {
					c.Cache.UpdateParticipantEntities(m)
					return nil
				},
			}); err != nil {
				c.logger.Warn("contextholder: dropped discovery update", zap.Error(err))
			}
		}
	}
}

// PublishLocalChange publishes msg over the transport under
// nodeUpdateMu, serializing it against any concurrent PublishLocalChange
// call. Unlike the original's node_update_mutex, the lock does not cover
// the graph cache update that produced msg.
func (c *Context) PublishLocalChange(ctx context.Context, msg model.ParticipantEntitiesInfo) error {
	c.nodeUpdateMu.Lock()
	defer c.nodeUpdateMu.Unlock()
	return c.transport.Publish(ctx, msg)
}

// Close stops the listener worker and background goroutine, and closes
// the transport.
func (c *Context) Close() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stopped)
		err = c.worker.Stop(5 * time.Second)
		if teardownErr := c.Cache.TeardownParticipant(c.Gid, nil); teardownErr != nil && err == nil {
			err = teardownErr
		}
		if closeErr := c.transport.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	})
	return err
}
