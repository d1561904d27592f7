package model

// NodeEntitiesInfo is the wire-level description of one framework node's
// endpoint membership, as carried inside a ParticipantEntitiesInfo
// discovery message. See spec §6.
type NodeEntitiesInfo struct {
	NodeNamespace string
	NodeName      string
	ReaderGidSeq  []Gid
	WriterGidSeq  []Gid
}

// Clone returns a deep copy of n.
func (n NodeEntitiesInfo) Clone() NodeEntitiesInfo {
	out := NodeEntitiesInfo{NodeNamespace: n.NodeNamespace, NodeName: n.NodeName}
	if n.ReaderGidSeq != nil {
		out.ReaderGidSeq = append([]Gid(nil), n.ReaderGidSeq...)
	}
	if n.WriterGidSeq != nil {
		out.WriterGidSeq = append([]Gid(nil), n.WriterGidSeq...)
	}
	return out
}

// Matches reports whether n is the node identified by (name, namespace).
func (n NodeEntitiesInfo) Matches(name, namespace string) bool {
	return n.NodeName == name && n.NodeNamespace == namespace
}

// ParticipantEntitiesInfo is the authoritative, wholesale description of a
// single participant's node-level structure, exchanged on the discovery
// topic. It is both the peer-received message GraphCache.UpdateParticipantEntities
// consumes and the message every local mutation operation returns for the
// caller to publish. See spec §4.1, §6.
type ParticipantEntitiesInfo struct {
	Gid                 Gid
	NodeEntitiesInfoSeq []NodeEntitiesInfo
}

// Clone returns a deep copy of msg, so a returned broadcast message never
// aliases the cache's internal state.
func (msg ParticipantEntitiesInfo) Clone() ParticipantEntitiesInfo {
	out := ParticipantEntitiesInfo{Gid: msg.Gid}
	if msg.NodeEntitiesInfoSeq != nil {
		out.NodeEntitiesInfoSeq = make([]NodeEntitiesInfo, len(msg.NodeEntitiesInfoSeq))
		for i, n := range msg.NodeEntitiesInfoSeq {
			out.NodeEntitiesInfoSeq[i] = n.Clone()
		}
	}
	return out
}
