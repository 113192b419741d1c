package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"
)

// Ethereum BIP-44 constants.
const (
	PurposeBIP44  uint32 = 44
	CoinTypeETH   uint32 = 60
	maxPathDepth         = 255
	hardenedLimit uint32 = bip32.FirstHardenedChild
)

// PathSegment is one level of a BIP-32 derivation path.
type PathSegment struct {
	Index    uint32 // without the hardened offset
	Hardened bool
}

// Value returns the child number passed to BIP-32 derivation.
func (s PathSegment) Value() uint32 {
	if s.Hardened {
		return s.Index + bip32.FirstHardenedChild
	}
	return s.Index
}

func (s PathSegment) String() string {
	if s.Hardened {
		return strconv.FormatUint(uint64(s.Index), 10) + "'"
	}
	return strconv.FormatUint(uint64(s.Index), 10)
}

// DerivationPath is a parsed path like m/44'/60'/0'/0/0. An empty path is the
// master node "m".
type DerivationPath []PathSegment

// DefaultPath returns m/44'/60'/0'/0/{index}.
func DefaultPath(index uint32) DerivationPath {
	return DerivationPath{
		{Index: PurposeBIP44, Hardened: true},
		{Index: CoinTypeETH, Hardened: true},
		{Index: 0, Hardened: true},
		{Index: 0},
		{Index: index},
	}
}

// ParsePath parses m(/N['|h])*. Each N must be below 2^31; the hardened
// marker may be ' or h.
func ParsePath(path string) (DerivationPath, error) {
	path = strings.TrimSpace(path)
	if path != "m" && !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("%w: must start with m/: %q", ErrInvalidDerivationPath, path)
	}

	parts := strings.Split(path, "/")[1:]
	if len(parts) > maxPathDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds %d", ErrInvalidDerivationPath, len(parts), maxPathDepth)
	}

	out := make(DerivationPath, 0, len(parts))
	for i, part := range parts {
		seg := PathSegment{}
		if strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h") || strings.HasSuffix(part, "H") {
			seg.Hardened = true
			part = part[:len(part)-1]
		}
		if part == "" || strings.HasPrefix(part, "+") || strings.HasPrefix(part, "-") {
			return nil, fmt.Errorf("%w: segment %d is empty or signed", ErrInvalidDerivationPath, i+1)
		}

		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d %q: not a number", ErrInvalidDerivationPath, i+1, part)
		}
		if uint32(n) >= hardenedLimit {
			return nil, fmt.Errorf("%w: segment %d index %d out of range", ErrInvalidDerivationPath, i+1, n)
		}
		seg.Index = uint32(n)
		out = append(out, seg)
	}
	return out, nil
}

// MustParsePath panics if path is malformed.
func MustParsePath(path string) DerivationPath {
	p, err := ParsePath(path)
	if err != nil {
		panic(err)
	}
	return p
}

func (p DerivationPath) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, s := range p {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// Values returns the child numbers with the hardened offset applied.
func (p DerivationPath) Values() []uint32 {
	out := make([]uint32, len(p))
	for i, s := range p {
		out[i] = s.Value()
	}
	return out
}

// AddressIndex returns the last segment's index, or 0 for the master path.
func (p DerivationPath) AddressIndex() uint32 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].Index
}

// WithAddressIndex returns a copy with the last segment's index replaced.
// The hardened flag of that segment is preserved. A master path gains a single
// non-hardened segment.
func (p DerivationPath) WithAddressIndex(index uint32) (DerivationPath, error) {
	if index >= hardenedLimit {
		return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidDerivationPath, index)
	}
	if len(p) == 0 {
		return DerivationPath{{Index: index}}, nil
	}
	out := make(DerivationPath, len(p))
	copy(out, p)
	out[len(out)-1].Index = index
	return out, nil
}
