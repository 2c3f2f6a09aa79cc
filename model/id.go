/*
Package model defines the persisted entities of the payment engine.

PURPOSE:
  Client, Transaction, and Dispute are the three domain entities the store
  layer persists. Every entity carries a revision_number/revision_time pair
  so that history can be reconstructed from revision-keyed snapshots even
  though the "current" key is overwritten on each write.

KEY CONCEPTS IN THIS FILE (id.go):
  - ID: the 20-byte fixed-width identifier used as both a sorted-set member
    and a key suffix. Numeric entity ids (client, tx) are widened into an ID
    by big-endian encoding followed by zero-padding; dispute ids are random.

SEE ALSO:
  - client.go, transaction.go, dispute.go: entity definitions
  - codec.go: the compress+encode round trip every Store write uses
*/
package model

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
)

// Length is the fixed width of every ID, matching the backend's sorted-set
// member convention: ids are either inline values or exactly this many bytes.
const Length = 20

// ID is a fixed-width identifier. Numeric ids are big-endian encoded and
// zero-padded at the end, never at the front, so that a 16-bit client id and
// a 32-bit transaction id of equal value map to the same ID; the key prefixes
// in the store keep them apart.
type ID [Length]byte

// IDFromUint16 widens a client id into the fixed-width ID space.
func IDFromUint16(v uint16) ID {
	return idFromUint32(uint32(v))
}

// IDFromUint32 widens a transaction id into the fixed-width ID space.
func IDFromUint32(v uint32) ID {
	return idFromUint32(v)
}

func idFromUint32(v uint32) ID {
	var id ID
	binary.BigEndian.PutUint32(id[:4], v)
	return id
}

// NewRandomID generates a dispute id from a cryptographically random source.
func NewRandomID() ID {
	var id ID
	// crypto/rand.Read never returns a short read without an error.
	if _, err := rand.Read(id[:]); err != nil {
		panic("model: failed to read random bytes: " + err.Error())
	}
	return id
}

// Bytes returns the id as a byte slice for use as a key suffix or sorted-set
// member.
func (id ID) Bytes() []byte {
	return id[:]
}

// String renders the id as lowercase hex, for logging and JSON responses.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}
