package wallet

import (
	"encoding/binary"
	"fmt"

	"github.com/tyler-smith/go-bip32"
)

// SeedSize is the length of a BIP-39 seed.
const SeedSize = 64

// ExtendedKey is a BIP-32 node: a key plus chain code and its position in the
// tree. Hardened children need the private key; normal children are derived
// from the parent public key.
type ExtendedKey struct {
	key *bip32.Key
}

// NewMasterKey creates the root node from a BIP-39 seed.
func NewMasterKey(seed []byte) (*ExtendedKey, error) {
	if len(seed) < 16 || len(seed) > SeedSize {
		return nil, fmt.Errorf("%w: seed must be 16..64 bytes, got %d", ErrKeyDerivationFailure, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: master key: %v", ErrKeyDerivationFailure, err)
	}
	return &ExtendedKey{key: master}, nil
}

// Derive returns the child at index (hardened offset already applied). An
// intermediate scalar outside [1, n-1] surfaces as ErrKeyDerivationFailure;
// the index is never silently skipped.
func (k *ExtendedKey) Derive(index uint32) (*ExtendedKey, error) {
	if !k.key.IsPrivate && index >= bip32.FirstHardenedChild {
		return nil, fmt.Errorf("%w: hardened child %d of a public key", ErrKeyDerivationFailure, index)
	}
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("%w: child %d: %v", ErrKeyDerivationFailure, index, err)
	}
	return &ExtendedKey{key: child}, nil
}

// DerivePath walks path from this node.
func (k *ExtendedKey) DerivePath(path DerivationPath) (*ExtendedKey, error) {
	current := k
	for _, seg := range path {
		child, err := current.Derive(seg.Value())
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// IsPrivate reports whether the node carries a private key.
func (k *ExtendedKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// PrivateKey returns the 32-byte scalar, or nil for a public node.
func (k *ExtendedKey) PrivateKey() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	out := make([]byte, 32)
	copy(out[32-len(raw):], raw)
	return out
}

// PublicKey returns the compressed 33-byte public key.
func (k *ExtendedKey) PublicKey() []byte {
	if !k.key.IsPrivate {
		return append([]byte(nil), k.key.Key...)
	}
	return k.key.PublicKey().Key
}

// ChainCode returns a copy of the 32-byte chain code.
func (k *ExtendedKey) ChainCode() []byte {
	return append([]byte(nil), k.key.ChainCode...)
}

// Depth is 0 for the master node.
func (k *ExtendedKey) Depth() uint8 {
	return k.key.Depth
}

// ChildIndex is the child number this node was derived with.
func (k *ExtendedKey) ChildIndex() uint32 {
	if len(k.key.ChildNumber) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(k.key.ChildNumber)
}

// ParentFingerprint is the first four bytes of HASH160 of the parent public key.
func (k *ExtendedKey) ParentFingerprint() uint32 {
	if len(k.key.FingerPrint) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(k.key.FingerPrint)
}

// Neuter returns a public-only copy.
func (k *ExtendedKey) Neuter() *ExtendedKey {
	if !k.key.IsPrivate {
		return k
	}
	return &ExtendedKey{key: k.key.PublicKey()}
}

// String serializes the node as xprv/xpub.
func (k *ExtendedKey) String() string {
	return k.key.String()
}
