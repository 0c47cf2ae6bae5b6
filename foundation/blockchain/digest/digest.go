// Package digest provides the content hashing used to give every record on
// the blockchain its identity.
package digest

import (
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fxamacker/cbor/v2"
	"github.com/holiman/uint256"
)

// Size is the number of bytes in a digest.
const Size = 32

// encMode produces the canonical encoding that is hashed. Core deterministic
// encoding sorts map keys and uses the shortest integer forms so every node
// produces the same bytes for the same value.
var encMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("digest: building cbor encoder: %s", err))
	}
	encMode = em
}

// =============================================================================

// Digest represents a 256 bit SHA-256 hash.
type Digest [Size]byte

// Zero represents a digest of all zeros. The first block in the chain uses it
// as its previous block hash.
var Zero Digest

// Hash canonically serializes the value and returns the SHA-256 of the bytes.
// A value that can't be serialized has no identity, so this panics.
func Hash(value any) Digest {
	data, err := encMode.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("digest: unable to serialize %T: %s", value, err))
	}

	return sha256.Sum256(data)
}

// Marshal returns the canonical encoding of the value. This is the same
// encoding Hash uses.
func Marshal(value any) ([]byte, error) {
	return encMode.Marshal(value)
}

// FromHex converts a 0x prefixed hex string into a digest.
func FromHex(s string) (Digest, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Digest{}, err
	}

	if len(b) != Size {
		return Digest{}, fmt.Errorf("invalid digest length, got %d, exp %d", len(b), Size)
	}

	var d Digest
	copy(d[:], b)

	return d, nil
}

// IsZero reports whether the digest is the zero digest.
func (d Digest) IsZero() bool {
	return d == Zero
}

// Int returns the big-endian integer value of the digest.
func (d Digest) Int() *uint256.Int {
	return new(uint256.Int).SetBytes32(d[:])
}

// MatchesTarget reports whether the integer value of the digest is less than
// or equal to the target.
func (d Digest) MatchesTarget(target *uint256.Int) bool {
	return d.Int().Cmp(target) <= 0
}

// String implements the fmt.Stringer interface.
func (d Digest) String() string {
	return hexutil.Encode(d[:])
}

// MarshalText implements encoding.TextMarshaler so digests render as hex in
// JSON documents and map keys.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	v, err := FromHex(string(text))
	if err != nil {
		return err
	}

	*d = v
	return nil
}
