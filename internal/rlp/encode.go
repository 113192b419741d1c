// Package rlp implements Recursive Length Prefix encoding as used by Ethereum
// transactions. Items are byte strings or lists of items; integers are
// big-endian with no leading zeros and zero is the empty string.
package rlp

import (
	"encoding/binary"
	"math/big"
)

// Item is a String or a List.
type Item interface {
	encode(dst []byte) []byte
	size() int
}

// String is a raw byte string item.
type String []byte

// List is an ordered list of items.
type List []Item

// Bytes wraps b as a string item.
func Bytes(b []byte) String {
	return String(b)
}

// Uint encodes u as a minimal big-endian string. Zero becomes the empty
// string (0x80), never a 0x00 byte.
func Uint(u uint64) String {
	if u == 0 {
		return String{}
	}
	return String(minimalBigEndian(u))
}

// BigInt encodes a non-negative integer; nil and zero become the empty
// string. Negative values have no RLP form and panic; validate before encoding.
func BigInt(v *big.Int) String {
	if v == nil || v.Sign() == 0 {
		return String{}
	}
	if v.Sign() < 0 {
		panic("rlp: negative integer")
	}
	return String(v.Bytes())
}

// Encode returns the RLP serialization of item.
func Encode(item Item) []byte {
	return item.encode(make([]byte, 0, item.size()))
}

// EncodeList is shorthand for Encode(List(items)).
func EncodeList(items ...Item) []byte {
	return Encode(List(items))
}

func (s String) encode(dst []byte) []byte {
	if len(s) == 1 && s[0] < 0x80 {
		return append(dst, s[0])
	}
	dst = appendHeader(dst, 0x80, 0xb7, uint64(len(s)))
	return append(dst, s...)
}

func (s String) size() int {
	if len(s) == 1 && s[0] < 0x80 {
		return 1
	}
	return headerSize(uint64(len(s))) + len(s)
}

func (l List) encode(dst []byte) []byte {
	dst = appendHeader(dst, 0xc0, 0xf7, uint64(l.payloadSize()))
	for _, it := range l {
		dst = it.encode(dst)
	}
	return dst
}

func (l List) size() int {
	n := l.payloadSize()
	return headerSize(uint64(n)) + n
}

func (l List) payloadSize() int {
	n := 0
	for _, it := range l {
		n += it.size()
	}
	return n
}

// appendHeader writes a short header (short+len) for payloads up to 55 bytes
// and a long header (long+lenOfLen, len) otherwise.
func appendHeader(dst []byte, short, long byte, n uint64) []byte {
	if n <= 55 {
		return append(dst, short+byte(n))
	}
	lb := minimalBigEndian(n)
	dst = append(dst, long+byte(len(lb)))
	return append(dst, lb...)
}

func headerSize(n uint64) int {
	if n <= 55 {
		return 1
	}
	return 1 + len(minimalBigEndian(n))
}

func minimalBigEndian(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	for len(buf) > 1 && buf[0] == 0 {
		buf = buf[1:]
	}
	return buf
}
