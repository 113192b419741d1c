package wallet

import "golang.org/x/crypto/sha3"

// Keccak256 returns the legacy Keccak-256 digest of the concatenated inputs.
// This is the pre-standard padding used by Ethereum, not NIST SHA3-256.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash is Keccak256 returned as a fixed-size array.
func Keccak256Hash(data ...[]byte) (out [32]byte) {
	copy(out[:], Keccak256(data...))
	return out
}
