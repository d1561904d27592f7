package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGidHexRoundTrip(t *testing.T) {
	original := GidFromBytes([]byte{0x01, 0x0a, 0xff, 0x00})
	encoded := original.String()

	decoded, err := GidFromHex(encoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestGidFromHexRejectsWrongLength(t *testing.T) {
	_, err := GidFromHex("01.02.03")
	assert.Error(t, err)
}

func TestGidLessIsLexicographic(t *testing.T) {
	a := GidFromBytes([]byte{0x00, 0x01})
	b := GidFromBytes([]byte{0x00, 0x02})

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestZeroGidIsZero(t *testing.T) {
	assert.True(t, ZeroGid.IsZero())
	assert.False(t, GidFromBytes([]byte{0x01}).IsZero())
}

func TestGidShortStringIsStable(t *testing.T) {
	g := GidFromBytes([]byte{0x01, 0x02, 0x03})
	assert.Equal(t, g.ShortString(), g.ShortString())
	assert.NotEmpty(t, g.ShortString())
}
