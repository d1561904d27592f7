// Package model holds the shared value types exchanged across the graph
// cache, the QoS negotiation engine, and the discovery transport: Gid,
// the entity/participant records, the QoS profile, and the discovery wire
// messages.
package model

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// GidStorageSize is the ABI-defined byte width of a Gid, matching
// RMW_GID_STORAGE_SIZE in the vendor SDK this library sits on top of.
const GidStorageSize = 24

// Gid is a fixed-width opaque endpoint identifier. It is cheap to copy and
// safe to use as a map key.
type Gid [GidStorageSize]byte

// ZeroGid is the all-zero Gid, used as a sentinel for "no participant".
var ZeroGid = Gid{}

// IsZero reports whether g is the all-zero Gid.
func (g Gid) IsZero() bool {
	return g == ZeroGid
}

// Less reports whether g sorts lexicographically before other, by byte
// value. This matches Compare_rmw_gid_t's std::lexicographical_compare.
func (g Gid) Less(other Gid) bool {
	return string(g[:]) < string(other[:])
}

// Equal reports byte-wise equality. Gid already supports == directly since
// it is a fixed-size array, but Equal is provided for readability at call
// sites that compare through an interface.
func (g Gid) Equal(other Gid) bool {
	return g == other
}

// String renders g as dot-separated hex bytes, matching the debug stream
// operator in gid_utils.cpp.
func (g Gid) String() string {
	parts := make([]string, GidStorageSize)
	for i, b := range g {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ".")
}

// ShortString renders g as a base58 string, suitable for structured log
// fields where the dotted-hex form is too wide.
func (g Gid) ShortString() string {
	return base58.Encode(g[:])
}

// GidFromBytes copies up to GidStorageSize bytes from b into a new Gid.
// Extra bytes are ignored; a short slice leaves the remainder zeroed.
func GidFromBytes(b []byte) Gid {
	var g Gid
	n := copy(g[:], b)
	_ = n
	return g
}

// GidFromHex parses a dot-separated hex string of the form produced by
// Gid.String back into a Gid.
func GidFromHex(s string) (Gid, error) {
	var g Gid
	parts := strings.Split(s, ".")
	if len(parts) != GidStorageSize {
		return g, fmt.Errorf("model: invalid gid hex %q: expected %d bytes, got %d", s, GidStorageSize, len(parts))
	}
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil || len(b) != 1 {
			return g, fmt.Errorf("model: invalid gid hex %q: bad byte %q", s, p)
		}
		g[i] = b[0]
	}
	return g, nil
}
