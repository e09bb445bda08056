package kvstore

import (
	"encoding/binary"

	"github.com/DanieleDiBenedetto/ginger-lib/pkg/ginger/field"
)

// Key prefixes keep leaf keys and coordinate keys from colliding inside the
// same store when a caller chooses to share one handle for both (Tree
// itself uses two separate stores per spec §6, but the encoding is
// collision-safe either way).
const (
	leafPrefix  = 'L'
	coordPrefix = 'C'
)

// EncodeLeafKey produces the canonical key for leaf index idx: a one-byte
// tag followed by a fixed-width big-endian uint64, so keys sort in leaf
// order under the store's natural byte ordering.
func EncodeLeafKey(idx uint64) []byte {
	key := make([]byte, 9)
	key[0] = leafPrefix
	binary.BigEndian.PutUint64(key[1:], idx)
	return key
}

// EncodeCoordKey produces the canonical key for an interesting-node cache
// entry at (height, idx): a one-byte tag, a fixed-width big-endian u64
// height, and a fixed-width big-endian u64 idx, matching spec §6's
// "canonical binary encoding of the pair (height: u64, idx: u64)" literally
// rather than narrowing height to a uint32 on the wire.
func EncodeCoordKey(height uint32, idx uint64) []byte {
	key := make([]byte, 17)
	key[0] = coordPrefix
	binary.BigEndian.PutUint64(key[1:9], uint64(height))
	binary.BigEndian.PutUint64(key[9:], idx)
	return key
}

// EncodeElement and DecodeElement round-trip a field.Element through the
// fixed-width big-endian wire format spec §6 pins for stored values.
func EncodeElement(e field.Element) []byte {
	return e.ToBytes()
}

func DecodeElement(m *field.Modulus, data []byte) (field.Element, error) {
	return m.NewFromBytes(data)
}
