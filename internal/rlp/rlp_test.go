package rlp

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	gethrlp "github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestEncode_Vectors(t *testing.T) {
	lorem := "Lorem ipsum dolor sit amet, consectetur adipisicing elit"
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"empty string", String{}, "80"},
		{"dog", Bytes([]byte("dog")), "83646f67"},
		{"single low byte", String{0x0f}, "0f"},
		{"single high byte", String{0x80}, "8180"},
		{"zero uint", Uint(0), "80"},
		{"fifteen", Uint(15), "0f"},
		{"1024", Uint(1024), "820400"},
		{"zero big", BigInt(big.NewInt(0)), "80"},
		{"nil big", BigInt(nil), "80"},
		{"empty list", List{}, "c0"},
		{"cat dog", List{Bytes([]byte("cat")), Bytes([]byte("dog"))}, "c88363617483646f67"},
		{"nested", List{List{}, List{List{}}, List{List{}, List{List{}}}}, "c7c0c1c0c3c0c1c0"},
		{"long string", Bytes([]byte(lorem)), "b838" + hex.EncodeToString([]byte(lorem))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hex.EncodeToString(Encode(tt.item)))
		})
	}
}

func TestEncode_LongList(t *testing.T) {
	items := make(List, 0, 20)
	for i := 0; i < 20; i++ {
		items = append(items, Bytes([]byte("abcd")))
	}
	enc := Encode(items)
	// 20 * 5 = 100 byte payload needs a long header.
	assert.Equal(t, []byte{0xf8, 100}, enc[:2])
	assert.Len(t, enc, 102)
}

func TestBigInt_NegativePanics(t *testing.T) {
	assert.Panics(t, func() { BigInt(big.NewInt(-1)) })
}

// Zero must never be written as a 0x00 byte, and must decode back to zero.
func TestZeroIsEmptyString(t *testing.T) {
	for _, item := range []String{Uint(0), BigInt(new(big.Int))} {
		enc := Encode(item)
		assert.Equal(t, []byte{0x80}, enc)

		dec, err := Decode(enc)
		require.NoError(t, err)
		s, err := AsString(dec)
		require.NoError(t, err)

		u, err := s.Uint64()
		require.NoError(t, err)
		assert.Zero(t, u)

		b, err := s.BigInt()
		require.NoError(t, err)
		assert.Zero(t, b.Sign())
	}
}

func TestMatchesGethEncoder(t *testing.T) {
	wei, _ := new(big.Int).SetString("10000000000000", 10)
	ours := Encode(List{
		Uint(0),
		Uint(42),
		BigInt(wei),
		BigInt(big.NewInt(0)),
		Bytes(nil),
		Bytes(bytes.Repeat([]byte{0xab}, 60)),
		List{Uint(1), Bytes([]byte("x"))},
	})
	theirs, err := gethrlp.EncodeToBytes([]interface{}{
		uint64(0),
		uint64(42),
		wei,
		big.NewInt(0),
		[]byte{},
		bytes.Repeat([]byte{0xab}, 60),
		[]interface{}{uint64(1), []byte("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, theirs, ours)
}

func TestDecode_RoundTrip(t *testing.T) {
	in := List{
		Uint(7),
		Bytes([]byte(strings.Repeat("z", 300))),
		List{Bytes([]byte("dog")), List{}},
	}
	out, err := Decode(Encode(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"empty", "", ErrTruncated},
		{"truncated string", "83646f", ErrTruncated},
		{"truncated list", "c883636174", ErrTruncated},
		{"trailing", "8080", ErrTrailingBytes},
		{"prefixed low byte", "8100", ErrNonCanonical},
		{"long form for short string", "b80100", ErrNonCanonical},
		{"length leading zero", "b90038" + strings.Repeat("00", 56), ErrNonCanonical},
		{"long list truncated", "f90100", ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(unhex(t, tt.in))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestString_Integers(t *testing.T) {
	_, err := String{0x00, 0x01}.Uint64()
	assert.ErrorIs(t, err, ErrLeadingZero)

	_, err = String(bytes.Repeat([]byte{1}, 9)).Uint64()
	assert.ErrorIs(t, err, ErrUintOverflow)

	v, err := String{0x04, 0x00}.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), v)

	b, err := String(bytes.Repeat([]byte{0xff}, 32)).BigInt()
	require.NoError(t, err)
	assert.Equal(t, 256, b.BitLen())
}

func TestAsList(t *testing.T) {
	_, err := DecodeList([]byte{0x80})
	assert.ErrorIs(t, err, ErrExpectedList)

	l, err := DecodeList([]byte{0xc1, 0x01})
	require.NoError(t, err)
	_, err = AsString(l)
	assert.ErrorIs(t, err, ErrExpectedStr)
}
