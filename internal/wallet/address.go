package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the size of an Ethereum account address in bytes.
const AddressLength = 20

// Address is a 20-byte Ethereum account address.
type Address [AddressLength]byte

// PubKeyToAddress computes the address of an uncompressed secp256k1 public key.
// It accepts the raw 64-byte X||Y form or the 65-byte SEC1 form with the 0x04
// prefix, which is stripped before hashing.
func PubKeyToAddress(pub []byte) (Address, error) {
	switch {
	case len(pub) == 65 && pub[0] == 0x04:
		pub = pub[1:]
	case len(pub) == 64:
	default:
		return Address{}, fmt.Errorf("%w: expected 64 bytes, got %d", ErrInvalidPublicKey, len(pub))
	}

	var a Address
	copy(a[:], Keccak256(pub)[12:])
	return a, nil
}

// ParseAddress parses a 0x-prefixed 40-char hex address. Case is ignored, so
// both lowercase and EIP-55 checksummed input round-trip to the same bytes.
func ParseAddress(s string) (Address, error) {
	var a Address
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return a, fmt.Errorf("%w: missing 0x prefix: %q", ErrInvalidAddress, s)
	}
	raw := s[2:]
	if len(raw) != 2*AddressLength {
		return a, fmt.Errorf("%w: expected 40 hex chars, got %d", ErrInvalidAddress, len(raw))
	}
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants; it panics on bad input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}

// Hex returns the lowercase 0x-prefixed form.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Checksum returns the EIP-55 mixed-case form.
func (a Address) Checksum() string {
	lower := hex.EncodeToString(a[:])
	hash := Keccak256([]byte(lower))

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}

// String implements fmt.Stringer with the checksummed form.
func (a Address) String() string {
	return a.Checksum()
}

// IsZero reports whether the address is all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText encodes the address in lowercase hex.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText accepts any case.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
