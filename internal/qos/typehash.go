package qos

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
)

// ParseTypeHashFromUserData extracts the "typehash" entry from a DDS
// USER_DATA QoS blob. The blob is a semicolon-delimited sequence of
// "key=value" pairs, a format no library in this module's dependency
// tree models (it is specific to this wire convention), so it is parsed
// by hand here rather than pulled in as a dependency. Returns the zero
// TypeHash, with no error, if no "typehash" entry is present.
func ParseTypeHashFromUserData(userData []byte) (model.TypeHash, error) {
	kv := parseKeyValue(userData)
	raw, ok := kv["typehash"]
	if !ok {
		return model.TypeHash{}, nil
	}
	return parseTypeHashString(raw)
}

func parseKeyValue(data []byte) map[string]string {
	result := make(map[string]string)
	for _, entry := range strings.Split(string(data), ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			continue
		}
		result[kv[0]] = kv[1]
	}
	return result
}

// parseTypeHashString parses the "RIHS<version>_<hex>" form produced by
// model.TypeHash.String / rosidl_stringify_type_hash.
func parseTypeHashString(s string) (model.TypeHash, error) {
	const prefix = "RIHS"
	if !strings.HasPrefix(s, prefix) || len(s) < len(prefix)+3 {
		return model.TypeHash{}, fmt.Errorf("qos: malformed type hash string %q", s)
	}
	rest := s[len(prefix):]
	underscore := strings.IndexByte(rest, '_')
	if underscore < 0 {
		return model.TypeHash{}, fmt.Errorf("qos: malformed type hash string %q", s)
	}
	version, err := strconv.ParseUint(rest[:underscore], 10, 8)
	if err != nil {
		return model.TypeHash{}, fmt.Errorf("qos: malformed type hash version in %q: %w", s, err)
	}
	value, err := hex.DecodeString(rest[underscore+1:])
	if err != nil {
		return model.TypeHash{}, fmt.Errorf("qos: malformed type hash digest in %q: %w", s, err)
	}
	if len(value) != len(model.TypeHash{}.Value) {
		return model.TypeHash{}, fmt.Errorf("qos: type hash digest in %q has wrong length %d", s, len(value))
	}
	var h model.TypeHash
	h.Version = uint8(version)
	copy(h.Value[:], value)
	return h, nil
}

// EncodeTypeHashForUserDataQoS renders typeHash for inclusion in a DDS
// USER_DATA QoS blob. An unset type hash encodes to the empty string, so
// callers can always append the result without a conditional. Matches
// encode_type_hash_for_user_data_qos.
func EncodeTypeHashForUserDataQoS(typeHash model.TypeHash) string {
	if typeHash.IsUnset() {
		return ""
	}
	return "typehash=" + typeHash.String() + ";"
}
