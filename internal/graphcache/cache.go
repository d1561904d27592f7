// Package graphcache implements the Graph Cache: a concurrent in-memory
// projection of the distributed discovery graph. See spec §4.1.
package graphcache

import (
	"sync"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ChangeCallback is invoked synchronously, while the cache's lock is still
// held, on every state-changing operation. Implementations must not call
// back into the cache (it would deadlock) and must return quickly (it
// serializes unrelated operations). See spec §4.1/§5.
type ChangeCallback func()

// GraphCache is the concurrent store of data writers, data readers, and
// participants. The entire state is protected by a single mutex: every
// public operation, mutation or query, acquires it for the duration of
// the call. See spec §5 for the rationale.
//
// Grounded on storage-node/internal/service/cache_service.go's
// mutex-guarded-map shape, tightened to a single exclusive Mutex (the
// teacher uses RWMutex; this cache's queries routinely do cross-map
// reverse lookups that a read lock alone would not make safe to reason
// about alongside concurrent mutation).
type GraphCache struct {
	mu sync.Mutex

	dataWriters  map[model.Gid]model.EntityInfo
	dataReaders  map[model.Gid]model.EntityInfo
	participants map[model.Gid]model.ParticipantInfo

	onChange ChangeCallback
	logger   *zap.Logger
}

// New creates an empty GraphCache. A nil logger is replaced with a no-op
// logger so callers never need a nil check before logging.
func New(logger *zap.Logger) *GraphCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphCache{
		dataWriters:  make(map[model.Gid]model.EntityInfo),
		dataReaders:  make(map[model.Gid]model.EntityInfo),
		participants: make(map[model.Gid]model.ParticipantInfo),
		logger:       logger,
	}
}

// SetChangeCallback installs cb as the cache's single change-notification
// callback, replacing any previously installed one.
func (c *GraphCache) SetChangeCallback(cb ChangeCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = cb
}

// ClearChangeCallback removes any installed change-notification callback.
func (c *GraphCache) ClearChangeCallback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = nil
}

// notifyLocked invokes the change callback, if any. Must be called with
// c.mu held, and only after a state change actually took effect.
func (c *GraphCache) notifyLocked() {
	if c.onChange != nil {
		c.onChange()
	}
}

// entityMap returns the writer or reader map according to isReader, for
// the combined add_entity/remove_entity dispatch forms.
func (c *GraphCache) entityMap(isReader bool) map[model.Gid]model.EntityInfo {
	if isReader {
		return c.dataReaders
	}
	return c.dataWriters
}

// AddWriter inserts a data writer discovered on the DDS discovery plane.
// Idempotent: returns false and does nothing if gid is already present.
func (c *GraphCache) AddWriter(gid model.Gid, topic, typeName string, typeHash model.TypeHash, participantGid model.Gid, qos model.QoSProfile) bool {
	return c.addEntity(gid, topic, typeName, typeHash, participantGid, qos, false)
}

// AddReader inserts a data reader discovered on the DDS discovery plane.
// Idempotent: returns false and does nothing if gid is already present.
func (c *GraphCache) AddReader(gid model.Gid, topic, typeName string, typeHash model.TypeHash, participantGid model.Gid, qos model.QoSProfile) bool {
	return c.addEntity(gid, topic, typeName, typeHash, participantGid, qos, true)
}

// AddEntity dispatches to AddWriter or AddReader according to isReader.
func (c *GraphCache) AddEntity(gid model.Gid, topic, typeName string, typeHash model.TypeHash, participantGid model.Gid, qos model.QoSProfile, isReader bool) bool {
	return c.addEntity(gid, topic, typeName, typeHash, participantGid, qos, isReader)
}

func (c *GraphCache) addEntity(gid model.Gid, topic, typeName string, typeHash model.TypeHash, participantGid model.Gid, qos model.QoSProfile, isReader bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.entityMap(isReader)
	if _, exists := m[gid]; exists {
		return false
	}
	m[gid] = model.EntityInfo{
		TopicName:      topic,
		TopicType:      typeName,
		TopicTypeHash:  typeHash,
		ParticipantGid: participantGid,
		QoS:            qos,
	}
	c.notifyLocked()
	return true
}

// RemoveWriter erases a data writer by gid. Returns whether a record was
// removed.
func (c *GraphCache) RemoveWriter(gid model.Gid) bool {
	return c.removeEntity(gid, false)
}

// RemoveReader erases a data reader by gid. Returns whether a record was
// removed.
func (c *GraphCache) RemoveReader(gid model.Gid) bool {
	return c.removeEntity(gid, true)
}

// RemoveEntity dispatches to RemoveWriter or RemoveReader according to
// isReader.
func (c *GraphCache) RemoveEntity(gid model.Gid, isReader bool) bool {
	return c.removeEntity(gid, isReader)
}

func (c *GraphCache) removeEntity(gid model.Gid, isReader bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.entityMap(isReader)
	if _, exists := m[gid]; !exists {
		return false
	}
	delete(m, gid)
	c.notifyLocked()
	return true
}

// AddParticipant inserts or updates the enclave field of a participant,
// preserving any existing node-entities sequence. Fires the change
// callback only when the participant is new or its enclave actually
// changes; re-announcing an already-known participant with the same
// enclave is a no-op.
func (c *GraphCache) AddParticipant(gid model.Gid, enclave string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, exists := c.participants[gid]
	if exists && info.Enclave == enclave {
		return
	}
	info.Enclave = enclave
	c.participants[gid] = info
	c.notifyLocked()
}

// RemoveParticipant erases the participant entry if present. Endpoint
// records owned by that participant are not removed here; they are torn
// down via their own discovery-remove events. Returns whether a record
// was removed.
func (c *GraphCache) RemoveParticipant(gid model.Gid) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.participants[gid]; !exists {
		return false
	}
	delete(c.participants, gid)
	c.notifyLocked()
	return true
}

// UpdateParticipantEntities applies a peer-reported ParticipantEntitiesInfo
// message: creates the participant entry if absent (with an empty
// enclave) and replaces its node-entities sequence wholesale, preserving
// any existing enclave. This is the authoritative path by which
// peer-owned nodes and their endpoint associations are learned. Fires the
// change callback only if the incoming sequence differs from what is
// already stored; a duplicate or retried gossip message is a no-op. See
// spec §4.1 and Open Question (b) in DESIGN.md.
func (c *GraphCache) UpdateParticipantEntities(msg model.ParticipantEntitiesInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := c.participants[msg.Gid]
	next := cloneNodeSeq(msg.NodeEntitiesInfoSeq)
	if nodeSeqEqual(info.NodeEntitiesInfoSeq, next) {
		return
	}
	info.NodeEntitiesInfoSeq = next
	c.participants[msg.Gid] = info
	c.notifyLocked()
}

func cloneNodeSeq(seq []model.NodeEntitiesInfo) []model.NodeEntitiesInfo {
	if seq == nil {
		return nil
	}
	out := make([]model.NodeEntitiesInfo, len(seq))
	for i, n := range seq {
		out[i] = n.Clone()
	}
	return out
}

// nodeSeqEqual reports whether two node-entities sequences carry the same
// nodes in the same order, each with the same claimed reader/writer gids.
func nodeSeqEqual(a, b []model.NodeEntitiesInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].NodeName != b[i].NodeName || a[i].NodeNamespace != b[i].NodeNamespace {
			return false
		}
		if !gidSliceEqual(a[i].WriterGidSeq, b[i].WriterGidSeq) {
			return false
		}
		if !gidSliceEqual(a[i].ReaderGidSeq, b[i].ReaderGidSeq) {
			return false
		}
	}
	return true
}

func gidSliceEqual(a, b []model.Gid) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// buildMessageLocked constructs the ParticipantEntitiesInfo to return to
// the caller after a local mutation, cloning so the returned message
// never aliases cache-internal slices. Must be called with c.mu held.
func (c *GraphCache) buildMessageLocked(gid model.Gid) model.ParticipantEntitiesInfo {
	info := c.participants[gid]
	return model.ParticipantEntitiesInfo{
		Gid:                 gid,
		NodeEntitiesInfoSeq: cloneNodeSeq(info.NodeEntitiesInfoSeq),
	}
}

// AddNode appends a fresh node with empty writer/reader lists to
// participantGid's node-entities sequence, creating the participant entry
// if it does not already exist. Returns the full post-mutation message for
// the caller to broadcast.
func (c *GraphCache) AddNode(participantGid model.Gid, name, namespace string) model.ParticipantEntitiesInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := c.participants[participantGid]
	info.NodeEntitiesInfoSeq = append(info.NodeEntitiesInfoSeq, model.NodeEntitiesInfo{
		NodeName:      name,
		NodeNamespace: namespace,
	})
	c.participants[participantGid] = info
	c.notifyLocked()
	return c.buildMessageLocked(participantGid)
}

// RemoveNode erases the node identified by (name, namespace) from
// participantGid's node-entities sequence. Returns the full post-mutation
// message for the caller to broadcast; if no such node exists, the
// message reflects the unchanged state and no callback fires.
func (c *GraphCache) RemoveNode(participantGid model.Gid, name, namespace string) model.ParticipantEntitiesInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.participants[participantGid]
	if !ok {
		return c.buildMessageLocked(participantGid)
	}
	idx := findNodeIndex(info.NodeEntitiesInfoSeq, name, namespace)
	if idx < 0 {
		return c.buildMessageLocked(participantGid)
	}
	info.NodeEntitiesInfoSeq = append(info.NodeEntitiesInfoSeq[:idx], info.NodeEntitiesInfoSeq[idx+1:]...)
	c.participants[participantGid] = info
	c.notifyLocked()
	return c.buildMessageLocked(participantGid)
}

func findNodeIndex(seq []model.NodeEntitiesInfo, name, namespace string) int {
	for i, n := range seq {
		if n.Matches(name, namespace) {
			return i
		}
	}
	return -1
}

// modifyNodeLocked locates the node (name, namespace) under
// participantGid and applies fn to its slot in place. Must be called with
// c.mu held. Returns false if the participant or node does not exist.
func (c *GraphCache) modifyNodeLocked(participantGid model.Gid, name, namespace string, fn func(*model.NodeEntitiesInfo)) bool {
	info, ok := c.participants[participantGid]
	if !ok {
		return false
	}
	idx := findNodeIndex(info.NodeEntitiesInfoSeq, name, namespace)
	if idx < 0 {
		return false
	}
	fn(&info.NodeEntitiesInfoSeq[idx])
	c.participants[participantGid] = info
	return true
}

// AssociateWriter appends writerGid to the writer list of the node
// identified by (nodeName, nodeNamespace) under participantGid. Returns
// the full post-mutation message for the caller to broadcast.
func (c *GraphCache) AssociateWriter(writerGid, participantGid model.Gid, nodeName, nodeNamespace string) model.ParticipantEntitiesInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.modifyNodeLocked(participantGid, nodeName, nodeNamespace, func(n *model.NodeEntitiesInfo) {
		n.WriterGidSeq = append(n.WriterGidSeq, writerGid)
	}) {
		c.notifyLocked()
	}
	return c.buildMessageLocked(participantGid)
}

// DissociateWriter removes writerGid from the writer list of the node
// identified by (nodeName, nodeNamespace) under participantGid, if
// present. Returns the full post-mutation message for the caller to
// broadcast.
func (c *GraphCache) DissociateWriter(writerGid, participantGid model.Gid, nodeName, nodeNamespace string) model.ParticipantEntitiesInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false
	c.modifyNodeLocked(participantGid, nodeName, nodeNamespace, func(n *model.NodeEntitiesInfo) {
		if idx := gidIndex(n.WriterGidSeq, writerGid); idx >= 0 {
			n.WriterGidSeq = append(n.WriterGidSeq[:idx], n.WriterGidSeq[idx+1:]...)
			changed = true
		}
	})
	if changed {
		c.notifyLocked()
	}
	return c.buildMessageLocked(participantGid)
}

// AssociateReader appends readerGid to the reader list of the node
// identified by (nodeName, nodeNamespace) under participantGid. Returns
// the full post-mutation message for the caller to broadcast.
func (c *GraphCache) AssociateReader(readerGid, participantGid model.Gid, nodeName, nodeNamespace string) model.ParticipantEntitiesInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.modifyNodeLocked(participantGid, nodeName, nodeNamespace, func(n *model.NodeEntitiesInfo) {
		n.ReaderGidSeq = append(n.ReaderGidSeq, readerGid)
	}) {
		c.notifyLocked()
	}
	return c.buildMessageLocked(participantGid)
}

// DissociateReader removes readerGid from the reader list of the node
// identified by (nodeName, nodeNamespace) under participantGid, if
// present. Returns the full post-mutation message for the caller to
// broadcast.
func (c *GraphCache) DissociateReader(readerGid, participantGid model.Gid, nodeName, nodeNamespace string) model.ParticipantEntitiesInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false
	c.modifyNodeLocked(participantGid, nodeName, nodeNamespace, func(n *model.NodeEntitiesInfo) {
		if idx := gidIndex(n.ReaderGidSeq, readerGid); idx >= 0 {
			n.ReaderGidSeq = append(n.ReaderGidSeq[:idx], n.ReaderGidSeq[idx+1:]...)
			changed = true
		}
	})
	if changed {
		c.notifyLocked()
	}
	return c.buildMessageLocked(participantGid)
}

// EntityCleanupFunc is run once for every writer or reader record
// TeardownParticipant removes, after it has already been deleted from
// the cache. It exists so callers can release resources tied to an
// endpoint (unregister it from a discovery transport, release a socket)
// in the same sweep that removes it from the graph.
type EntityCleanupFunc func(gid model.Gid, isReader bool) error

// TeardownParticipant removes participantGid's participant record along
// with every data writer and reader it owns, running cleanup against
// each removed endpoint. Unlike RemoveParticipant, which leaves orphaned
// endpoint records for their own discovery-remove events to clean up,
// this is the bulk path used when a whole process disappears at once and
// no further per-endpoint events will ever arrive for it. cleanup errors
// are aggregated with multierr so one failing endpoint doesn't stop the
// rest of the teardown from running.
func (c *GraphCache) TeardownParticipant(participantGid model.Gid, cleanup EntityCleanupFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	changed := false

	for gid, e := range c.dataWriters {
		if e.ParticipantGid == participantGid {
			delete(c.dataWriters, gid)
			changed = true
			if cleanup != nil {
				err = multierr.Append(err, cleanup(gid, false))
			}
		}
	}
	for gid, e := range c.dataReaders {
		if e.ParticipantGid == participantGid {
			delete(c.dataReaders, gid)
			changed = true
			if cleanup != nil {
				err = multierr.Append(err, cleanup(gid, true))
			}
		}
	}
	if _, exists := c.participants[participantGid]; exists {
		delete(c.participants, participantGid)
		changed = true
	}

	if changed {
		c.notifyLocked()
	}
	return err
}

func gidIndex(seq []model.Gid, gid model.Gid) int {
	for i, g := range seq {
		if g == gid {
			return i
		}
	}
	return -1
}
