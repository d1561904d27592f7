package graphcache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
)

// Dump renders the cache's full state as a human-readable multi-line
// string, in deterministic gid order. It is meant for logs and debug
// tooling, the Go-idiom replacement for the original cache's
// operator<<(std::ostream&, const GraphCache&) overload.
func (c *GraphCache) Dump() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.WriteString("GraphCache{\n")

	b.WriteString("  participants:\n")
	for _, gid := range sortedGids(c.participants) {
		p := c.participants[gid]
		fmt.Fprintf(&b, "    %s enclave=%q nodes=%d\n", gid, p.Enclave, len(p.NodeEntitiesInfoSeq))
		for _, n := range p.NodeEntitiesInfoSeq {
			fmt.Fprintf(&b, "      node %s%s writers=%d readers=%d\n",
				n.NodeNamespace, n.NodeName, len(n.WriterGidSeq), len(n.ReaderGidSeq))
		}
	}

	b.WriteString("  data_writers:\n")
	dumpEntities(&b, c.dataWriters)
	b.WriteString("  data_readers:\n")
	dumpEntities(&b, c.dataReaders)

	b.WriteString("}")
	return b.String()
}

// String makes *GraphCache satisfy fmt.Stringer, delegating to Dump.
func (c *GraphCache) String() string {
	return c.Dump()
}

func dumpEntities(b *strings.Builder, entities map[model.Gid]model.EntityInfo) {
	for _, gid := range sortedGids(entities) {
		e := entities[gid]
		fmt.Fprintf(b, "    %s topic=%s type=%s participant=%s\n", gid, e.TopicName, e.TopicType, e.ParticipantGid)
	}
}

func sortedGids[V any](m map[model.Gid]V) []model.Gid {
	gids := make([]model.Gid, 0, len(m))
	for gid := range m {
		gids = append(gids, gid)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i].Less(gids[j]) })
	return gids
}
