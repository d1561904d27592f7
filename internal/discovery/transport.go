// Package discovery carries ParticipantEntitiesInfo updates between
// processes over a gossip mesh, so every participant's GraphCache
// converges on the same view of the system. See spec §6.
package discovery

import (
	"context"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
)

// Transport delivers ParticipantEntitiesInfo updates to and from peers.
// Publish fans a local mutation out to the mesh; Updates streams every
// update observed, local or remote, until Close closes the channel.
type Transport interface {
	Publish(ctx context.Context, msg model.ParticipantEntitiesInfo) error
	Updates() <-chan model.ParticipantEntitiesInfo
	Close() error
}
