package discovery

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
	"github.com/hashicorp/memberlist"
	"go.uber.org/zap"
)

// MemberlistConfig configures the gossip mesh a MemberlistTransport
// joins. Grounded on storage-node/internal/service/gossip_service.go's
// GossipConfig.
type MemberlistConfig struct {
	NodeName       string
	BindAddr       string
	BindPort       int
	SeedNodes      []string
	GossipInterval time.Duration
	ProbeTimeout   time.Duration
	ProbeInterval  time.Duration
}

// MemberlistTransport broadcasts ParticipantEntitiesInfo updates over a
// hashicorp/memberlist gossip mesh. Every Publish enqueues the message on
// memberlist's broadcast queue; GetBroadcasts/NotifyMsg implement
// memberlist.Delegate the way gossip_service.go's GossipService does,
// adapted from health-status gossip to discovery-graph gossip.
type MemberlistTransport struct {
	ml      *memberlist.Memberlist
	queue   *memberlist.TransmitLimitedQueue
	logger  *zap.Logger
	updates chan model.ParticipantEntitiesInfo

	mu    sync.Mutex
	local model.ParticipantEntitiesInfo
}

// NewMemberlistTransport creates and joins a gossip mesh for discovery
// updates. Seed nodes are joined before this returns; updates that
// arrive meanwhile wait on the Updates channel (capacity 256) until the
// caller starts draining it.
func NewMemberlistTransport(cfg MemberlistConfig, logger *zap.Logger) (*MemberlistTransport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &MemberlistTransport{
		logger:  logger,
		updates: make(chan model.ParticipantEntitiesInfo, 256),
	}

	mlConfig := memberlist.DefaultLocalConfig()
	mlConfig.Name = cfg.NodeName
	if cfg.BindAddr != "" {
		mlConfig.BindAddr = cfg.BindAddr
	}
	if cfg.BindPort != 0 {
		mlConfig.BindPort = cfg.BindPort
	}
	if cfg.GossipInterval != 0 {
		mlConfig.GossipInterval = cfg.GossipInterval
	}
	if cfg.ProbeTimeout != 0 {
		mlConfig.ProbeTimeout = cfg.ProbeTimeout
	}
	if cfg.ProbeInterval != 0 {
		mlConfig.ProbeInterval = cfg.ProbeInterval
	}
	mlConfig.Delegate = t

	ml, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to create memberlist: %w", err)
	}
	t.ml = ml
	t.queue = &memberlist.TransmitLimitedQueue{
		NumNodes:       func() int { return ml.NumMembers() },
		RetransmitMult: memberlist.DefaultLocalConfig().RetransmitMult,
	}

	if len(cfg.SeedNodes) > 0 {
		if _, err := ml.Join(cfg.SeedNodes); err != nil {
			logger.Warn("discovery: failed to join some seed nodes", zap.Error(err))
		}
	}

	return t, nil
}

// Publish broadcasts msg to every peer in the mesh and delivers it
// locally on Updates, so the caller observes the same ordering whether
// the update originated locally or remotely.
func (t *MemberlistTransport) Publish(ctx context.Context, msg model.ParticipantEntitiesInfo) error {
	payload, err := encodeParticipantEntitiesInfo(msg)
	if err != nil {
		return fmt.Errorf("discovery: failed to encode update: %w", err)
	}

	t.mu.Lock()
	t.local = msg.Clone()
	t.mu.Unlock()

	t.queue.QueueBroadcast(&gossipBroadcast{payload: payload})

	select {
	case t.updates <- msg.Clone():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Updates returns the channel of every ParticipantEntitiesInfo observed,
// local or remote.
func (t *MemberlistTransport) Updates() <-chan model.ParticipantEntitiesInfo {
	return t.updates
}

// Close leaves the mesh and releases its resources.
func (t *MemberlistTransport) Close() error {
	close(t.updates)
	return t.ml.Shutdown()
}

// NodeMeta implements memberlist.Delegate. The mesh doesn't need
// per-node metadata beyond membership itself, so this stays empty.
func (t *MemberlistTransport) NodeMeta(limit int) []byte {
	return nil
}

// NotifyMsg implements memberlist.Delegate: every direct or
// gossip-relayed ParticipantEntitiesInfo update lands here.
func (t *MemberlistTransport) NotifyMsg(data []byte) {
	msg, err := decodeParticipantEntitiesInfo(data)
	if err != nil {
		t.logger.Warn("discovery: failed to decode gossip message", zap.Error(err))
		return
	}
	t.updates <- msg
}

// GetBroadcasts implements memberlist.Delegate, draining queued updates
// for the next gossip round.
func (t *MemberlistTransport) GetBroadcasts(overhead, limit int) [][]byte {
	return t.queue.GetBroadcasts(overhead, limit)
}

// LocalState implements memberlist.Delegate, handing a freshly-joining
// peer this node's last-published update.
func (t *MemberlistTransport) LocalState(join bool) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.local.Gid.IsZero() {
		return nil
	}
	payload, err := encodeParticipantEntitiesInfo(t.local)
	if err != nil {
		t.logger.Warn("discovery: failed to encode local state", zap.Error(err))
		return nil
	}
	return payload
}

// MergeRemoteState implements memberlist.Delegate, folding a peer's
// pushed state into this node's Updates stream on join.
func (t *MemberlistTransport) MergeRemoteState(buf []byte, join bool) {
	if len(buf) == 0 {
		return
	}
	msg, err := decodeParticipantEntitiesInfo(buf)
	if err != nil {
		t.logger.Warn("discovery: failed to decode remote state", zap.Error(err))
		return
	}
	t.updates <- msg
}

// gossipBroadcast implements memberlist.Broadcast for a single
// already-encoded ParticipantEntitiesInfo update.
type gossipBroadcast struct {
	payload []byte
}

func (b *gossipBroadcast) Invalidates(other memberlist.Broadcast) bool {
	return false
}

func (b *gossipBroadcast) Message() []byte {
	return b.payload
}

func (b *gossipBroadcast) Finished() {}

func encodeParticipantEntitiesInfo(msg model.ParticipantEntitiesInfo) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeParticipantEntitiesInfo(data []byte) (model.ParticipantEntitiesInfo, error) {
	var msg model.ParticipantEntitiesInfo
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&msg); err != nil {
		return model.ParticipantEntitiesInfo{}, err
	}
	return msg, nil
}
