package graphcache

import (
	"sort"

	"github.com/Postrantor/rmw-dds-common-go/internal/errors"
	"github.com/Postrantor/rmw-dds-common-go/internal/model"
)

// Demangler converts a vendor-encoded topic or type name (as stored in
// the cache) to the name the caller's middleware implementation wants
// to see. A nil Demangler is the identity function. An empty return
// value means the entry should be omitted entirely, matching the
// demangle_type/demangle_topic contract of get_names_and_types,
// get_names_and_types_by_node, and get_writers_info_by_topic.
type Demangler func(string) string

func demangle(d Demangler, name string) string {
	if d == nil {
		return name
	}
	return d(name)
}

// GetWriterCount returns the number of data writers currently published on
// topic.
func (c *GraphCache) GetWriterCount(topic string) int {
	return c.entityCountByTopic(topic, false)
}

// GetReaderCount returns the number of data readers currently subscribed
// to topic.
func (c *GraphCache) GetReaderCount(topic string) int {
	return c.entityCountByTopic(topic, true)
}

func (c *GraphCache) entityCountByTopic(topic string, isReader bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, e := range c.entityMap(isReader) {
		if e.TopicName == topic {
			count++
		}
	}
	return count
}

// EndpointKind distinguishes a data writer from a data reader in an
// EndpointInfo record.
type EndpointKind int

const (
	EndpointKindWriter EndpointKind = iota
	EndpointKindReader
)

// String renders k the way log lines and test failures expect.
func (k EndpointKind) String() string {
	if k == EndpointKindReader {
		return "reader"
	}
	return "writer"
}

// EndpointInfo describes a single endpoint matched by
// GetWritersInfoByTopic or GetReadersInfoByTopic: its owning node
// identity (resolved via the same reverse lookup LocateWriterNode and
// LocateReaderNode use), its type, type hash, QoS, and gid.
type EndpointInfo struct {
	NodeName      string
	NodeNamespace string
	TopicType     string
	TopicTypeHash model.TypeHash
	Kind          EndpointKind
	Gid           model.Gid
	QoS           model.QoSProfile
}

// GetWritersInfoByTopic returns one EndpointInfo per data writer
// currently published on topic, with each writer's type name passed
// through demangleType. A writer whose demangled type name comes back
// empty is omitted.
func (c *GraphCache) GetWritersInfoByTopic(topic string, demangleType Demangler) []EndpointInfo {
	return c.entityInfoByTopic(topic, false, demangleType)
}

// GetReadersInfoByTopic returns one EndpointInfo per data reader
// currently subscribed to topic, with each reader's type name passed
// through demangleType. A reader whose demangled type name comes back
// empty is omitted.
func (c *GraphCache) GetReadersInfoByTopic(topic string, demangleType Demangler) []EndpointInfo {
	return c.entityInfoByTopic(topic, true, demangleType)
}

func (c *GraphCache) entityInfoByTopic(topic string, isReader bool, demangleType Demangler) []EndpointInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	kind := EndpointKindWriter
	if isReader {
		kind = EndpointKindReader
	}

	var out []EndpointInfo
	for gid, e := range c.entityMap(isReader) {
		if e.TopicName != topic {
			continue
		}
		typeName := demangle(demangleType, e.TopicType)
		if typeName == "" {
			continue
		}
		node, _, _ := c.locateEntityNodeLocked(gid, isReader)
		out = append(out, EndpointInfo{
			NodeName:      node.Name,
			NodeNamespace: node.Namespace,
			TopicType:     typeName,
			TopicTypeHash: e.TopicTypeHash,
			Kind:          kind,
			Gid:           gid,
			QoS:           e.QoS,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gid.Less(out[j].Gid) })
	return out
}

// TopicNamesAndTypes maps a topic name to the set of distinct type names
// published or subscribed to under it.
type TopicNamesAndTypes map[string][]string

// GetNamesAndTypes returns every topic known to the cache (from writers
// and readers alike) together with its distinct set of type names,
// sorted for determinism. Topic and type names are passed through
// demangleTopic/demangleType; an entity whose demangled topic or type
// name comes back empty is omitted.
func (c *GraphCache) GetNamesAndTypes(demangleTopic, demangleType Demangler) TopicNamesAndTypes {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(TopicNamesAndTypes)
	collectNamesAndTypes(result, c.dataWriters, demangleTopic, demangleType)
	collectNamesAndTypes(result, c.dataReaders, demangleTopic, demangleType)
	sortTypeSets(result)
	return result
}

// GetWriterNamesAndTypesByNode returns the topics and types written by
// endpoints the named node has claimed as its own writers, with topic
// and type names passed through demangleTopic/demangleType. It returns
// a CodeNodeNameNonExistent error (see internal/errors) when no
// participant reports a node by that name and namespace.
func (c *GraphCache) GetWriterNamesAndTypesByNode(nodeName, nodeNamespace string, demangleTopic, demangleType Demangler) (TopicNamesAndTypes, error) {
	return c.namesAndTypesByNode(nodeName, nodeNamespace, false, demangleTopic, demangleType)
}

// GetReaderNamesAndTypesByNode returns the topics and types read by
// endpoints the named node has claimed as its own readers, with topic
// and type names passed through demangleTopic/demangleType. It returns
// a CodeNodeNameNonExistent error (see internal/errors) when no
// participant reports a node by that name and namespace.
func (c *GraphCache) GetReaderNamesAndTypesByNode(nodeName, nodeNamespace string, demangleTopic, demangleType Demangler) (TopicNamesAndTypes, error) {
	return c.namesAndTypesByNode(nodeName, nodeNamespace, true, demangleTopic, demangleType)
}

func (c *GraphCache) namesAndTypesByNode(nodeName, nodeNamespace string, isReader bool, demangleTopic, demangleType Demangler) (TopicNamesAndTypes, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, found := c.findNodeAnyParticipantLocked(nodeName, nodeNamespace)
	if !found {
		return nil, errors.NodeNameNonExistent(nodeName, nodeNamespace)
	}

	gids := node.WriterGidSeq
	m := c.dataWriters
	if isReader {
		gids = node.ReaderGidSeq
		m = c.dataReaders
	}

	result := make(TopicNamesAndTypes)
	for _, gid := range gids {
		e, ok := m[gid]
		if !ok {
			continue
		}
		topic := demangle(demangleTopic, e.TopicName)
		if topic == "" {
			continue
		}
		typeName := demangle(demangleType, e.TopicType)
		if typeName == "" {
			continue
		}
		addNameAndType(result, topic, typeName)
	}
	sortTypeSets(result)
	return result, nil
}

func (c *GraphCache) findNodeAnyParticipantLocked(nodeName, nodeNamespace string) (model.NodeEntitiesInfo, bool) {
	for _, p := range c.participants {
		if idx := findNodeIndex(p.NodeEntitiesInfoSeq, nodeName, nodeNamespace); idx >= 0 {
			return p.NodeEntitiesInfoSeq[idx], true
		}
	}
	return model.NodeEntitiesInfo{}, false
}

func collectNamesAndTypes(dst TopicNamesAndTypes, entities map[model.Gid]model.EntityInfo, demangleTopic, demangleType Demangler) {
	for _, e := range entities {
		topic := demangle(demangleTopic, e.TopicName)
		if topic == "" {
			continue
		}
		typeName := demangle(demangleType, e.TopicType)
		if typeName == "" {
			continue
		}
		addNameAndType(dst, topic, typeName)
	}
}

func addNameAndType(dst TopicNamesAndTypes, topic, typeName string) {
	for _, t := range dst[topic] {
		if t == typeName {
			return
		}
	}
	dst[topic] = append(dst[topic], typeName)
}

func sortTypeSets(m TopicNamesAndTypes) {
	for _, types := range m {
		sort.Strings(types)
	}
}

// NodeIdentity is a fully-qualified node name, namespace and the enclave
// of the participant that owns it.
type NodeIdentity struct {
	Name      string
	Namespace string
	Enclave   string
}

// GetNumberOfParticipants returns the count of participants currently
// known to the cache.
func (c *GraphCache) GetNumberOfParticipants() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.participants)
}

// GetNumberOfNodes returns the total count of distinct nodes reported
// across every known participant.
func (c *GraphCache) GetNumberOfNodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, p := range c.participants {
		n += len(p.NodeEntitiesInfoSeq)
	}
	return n
}

// GetNodeNames returns every node known to the cache, across every
// participant. Participants are visited in gid order so repeated calls
// against an unchanged cache produce the same order (Go's map iteration
// order is unspecified, unlike the std::map the original cache used for
// its participant table); within a participant, nodes are returned in
// the order its last ParticipantEntitiesInfo update reported them,
// unsorted.
func (c *GraphCache) GetNodeNames() []NodeIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()

	participantGids := make([]model.Gid, 0, len(c.participants))
	for gid := range c.participants {
		participantGids = append(participantGids, gid)
	}
	sort.Slice(participantGids, func(i, j int) bool {
		return participantGids[i].Less(participantGids[j])
	})

	var out []NodeIdentity
	for _, gid := range participantGids {
		p := c.participants[gid]
		for _, n := range p.NodeEntitiesInfoSeq {
			out = append(out, NodeIdentity{Name: n.NodeName, Namespace: n.NodeNamespace, Enclave: p.Enclave})
		}
	}
	return out
}
