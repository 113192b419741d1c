package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in     string
		values []uint32
		str    string
	}{
		{"m", []uint32{}, "m"},
		{"m/44'/60'/0'/0/0", []uint32{0x8000002c, 0x8000003c, 0x80000000, 0, 0}, "m/44'/60'/0'/0/0"},
		{"m/44h/60h/0h/0/7", []uint32{0x8000002c, 0x8000003c, 0x80000000, 0, 7}, "m/44'/60'/0'/0/7"},
		{"m/2147483647", []uint32{2147483647}, "m/2147483647"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.values, p.Values())
			assert.Equal(t, tt.str, p.String())
		})
	}
}

func TestParsePath_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"44'/60'",
		"m/",
		"m//0",
		"m/44'/60'/",
		"m/abc",
		"m/-1",
		"m/+1",
		"m/2147483648",
		"m/4294967296",
		"n/0",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePath(in)
			assert.ErrorIs(t, err, ErrInvalidDerivationPath)
		})
	}
}

func TestDerivationPath_WithAddressIndex(t *testing.T) {
	p := DefaultPath(0)
	q, err := p.WithAddressIndex(12)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/60'/0'/0/12", q.String())
	assert.Equal(t, uint32(12), q.AddressIndex())
	assert.Equal(t, "m/44'/60'/0'/0/0", p.String(), "original must not change")

	h, err := MustParsePath("m/44'/60'/3'").WithAddressIndex(5)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/60'/5'", h.String())

	_, err = p.WithAddressIndex(1 << 31)
	assert.ErrorIs(t, err, ErrInvalidDerivationPath)
}
