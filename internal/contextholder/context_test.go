package contextholder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-memory discovery.Transport: Publish delivers
// straight onto its own Updates channel, standing in for a gossip mesh
// of exactly one member.
type fakeTransport struct {
	mu        sync.Mutex
	published []model.ParticipantEntitiesInfo
	updates   chan model.ParticipantEntitiesInfo
	closed    bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{updates: make(chan model.ParticipantEntitiesInfo, 16)}
}

func (f *fakeTransport) Publish(ctx context.Context, msg model.ParticipantEntitiesInfo) error {
	f.mu.Lock()
	f.published = append(f.published, msg)
	f.mu.Unlock()

	select {
	case f.updates <- msg:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (f *fakeTransport) Updates() <-chan model.ParticipantEntitiesInfo { return f.updates }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.updates)
	}
	return nil
}

func testGid(b byte) model.Gid {
	var g model.Gid
	g[len(g)-1] = b
	return g
}

func TestPublishLocalChangeAppliesToOwnCacheThroughTheListener(t *testing.T) {
	gid := testGid(1)
	transport := newFakeTransport()
	c := New(gid, transport, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Close()

	err := c.PublishLocalChange(ctx, model.ParticipantEntitiesInfo{
		Gid: gid,
		NodeEntitiesInfoSeq: []model.NodeEntitiesInfo{
			{NodeName: "talker", NodeNamespace: "/"},
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return c.Cache.GetNumberOfNodes() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestGraphChangedFiresOnCacheMutation(t *testing.T) {
	gid := testGid(1)
	transport := newFakeTransport()
	c := New(gid, transport, nil)

	c.Cache.AddParticipant(gid, "/enclave")

	select {
	case <-c.GraphChanged():
	case <-time.After(time.Second):
		t.Fatal("expected a graph-changed notification after AddParticipant")
	}
}

func TestCloseIsIdempotentAndTearsDownTheParticipant(t *testing.T) {
	gid := testGid(1)
	transport := newFakeTransport()
	c := New(gid, transport, nil)
	c.Cache.AddParticipant(gid, "/enclave")

	require.NoError(t, c.Close())
	assert.NoError(t, c.Close(), "closing twice must not error")

	assert.Equal(t, 0, c.Cache.GetNumberOfParticipants())
}
