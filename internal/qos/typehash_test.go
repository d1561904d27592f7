package qos

import (
	"testing"

	"github.com/Postrantor/rmw-dds-common-go/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeThenParseTypeHashRoundTrips(t *testing.T) {
	var hash model.TypeHash
	hash.Version = 1
	for i := range hash.Value {
		hash.Value[i] = byte(i)
	}

	encoded := EncodeTypeHashForUserDataQoS(hash)
	assert.Contains(t, encoded, "typehash=RIHS01_")

	userData := []byte("otherkey=ignored;" + encoded)
	parsed, err := ParseTypeHashFromUserData(userData)
	require.NoError(t, err)
	assert.Equal(t, hash, parsed)
}

func TestEncodeUnsetTypeHashIsEmpty(t *testing.T) {
	assert.Empty(t, EncodeTypeHashForUserDataQoS(model.TypeHash{}))
}

func TestParseTypeHashFromUserDataMissingKeyReturnsZeroValue(t *testing.T) {
	parsed, err := ParseTypeHashFromUserData([]byte("enclave=/;"))
	require.NoError(t, err)
	assert.True(t, parsed.IsUnset())
}

func TestParseTypeHashFromUserDataMalformedStringErrors(t *testing.T) {
	_, err := ParseTypeHashFromUserData([]byte("typehash=not-a-hash;"))
	assert.Error(t, err)
}
