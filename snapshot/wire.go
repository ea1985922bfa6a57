package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/xxh3"
)

// Canonical CBOR mode: equal snapshots encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a Snapshot to canonical CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return &s, nil
}

// ContentKey returns the hex xxh3 hash of encoded snapshot bytes.
func ContentKey(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// Key returns the content key of the snapshot's canonical encoding.
func (s *Snapshot) Key() (string, error) {
	data, err := Marshal(s)
	if err != nil {
		return "", err
	}
	return ContentKey(data), nil
}
