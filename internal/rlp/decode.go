package rlp

import (
	"errors"
	"fmt"
	"math/big"
)

// Decoding errors.
var (
	ErrTruncated     = errors.New("rlp: input truncated")
	ErrTrailingBytes = errors.New("rlp: trailing bytes after item")
	ErrNonCanonical  = errors.New("rlp: non-canonical encoding")
	ErrExpectedList  = errors.New("rlp: expected list")
	ErrExpectedStr   = errors.New("rlp: expected string")
	ErrUintOverflow  = errors.New("rlp: integer overflows uint64")
	ErrLeadingZero   = errors.New("rlp: integer has leading zero bytes")
)

// Decode parses exactly one item spanning all of b. Only canonical encodings
// are accepted: minimal length prefixes and no header on single bytes below 0x80.
func Decode(b []byte) (Item, error) {
	item, rest, err := decodeItem(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, len(rest))
	}
	return item, nil
}

// DecodeList decodes b and asserts that the top-level item is a list.
func DecodeList(b []byte) (List, error) {
	item, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return AsList(item)
}

// AsList type-asserts item as a List.
func AsList(item Item) (List, error) {
	l, ok := item.(List)
	if !ok {
		return nil, ErrExpectedList
	}
	return l, nil
}

// AsString type-asserts item as a String.
func AsString(item Item) (String, error) {
	s, ok := item.(String)
	if !ok {
		return nil, ErrExpectedStr
	}
	return s, nil
}

// Uint64 interprets the string as a canonical big-endian integer.
func (s String) Uint64() (uint64, error) {
	if len(s) > 8 {
		return 0, ErrUintOverflow
	}
	if len(s) > 0 && s[0] == 0 {
		return 0, ErrLeadingZero
	}
	var v uint64
	for _, c := range s {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// BigInt interprets the string as a canonical big-endian integer.
func (s String) BigInt() (*big.Int, error) {
	if len(s) > 0 && s[0] == 0 {
		return nil, ErrLeadingZero
	}
	return new(big.Int).SetBytes(s), nil
}

func decodeItem(b []byte) (Item, []byte, error) {
	if len(b) == 0 {
		return nil, nil, ErrTruncated
	}
	prefix := b[0]

	switch {
	case prefix < 0x80:
		return String{prefix}, b[1:], nil

	case prefix < 0xc0:
		offset, size, err := readHeader(b, 0x80, 0xb7)
		if err != nil {
			return nil, nil, err
		}
		payload := b[offset : offset+size]
		if size == 1 && payload[0] < 0x80 {
			return nil, nil, fmt.Errorf("%w: single byte 0x%02x must not be prefixed", ErrNonCanonical, payload[0])
		}
		return String(append([]byte(nil), payload...)), b[offset+size:], nil

	default:
		offset, size, err := readHeader(b, 0xc0, 0xf7)
		if err != nil {
			return nil, nil, err
		}
		payload := b[offset : offset+size]
		list := List{}
		for len(payload) > 0 {
			var it Item
			if it, payload, err = decodeItem(payload); err != nil {
				return nil, nil, err
			}
			list = append(list, it)
		}
		return list, b[offset+size:], nil
	}
}

// readHeader returns the payload offset and size for a string or list header
// and checks that the payload fits in b.
func readHeader(b []byte, short, long byte) (int, int, error) {
	prefix := b[0]
	if prefix <= long {
		size := int(prefix - short)
		if len(b) < 1+size {
			return 0, 0, ErrTruncated
		}
		return 1, size, nil
	}

	lenOfLen := int(prefix - long)
	if len(b) < 1+lenOfLen {
		return 0, 0, ErrTruncated
	}
	lb := b[1 : 1+lenOfLen]
	if lb[0] == 0 {
		return 0, 0, fmt.Errorf("%w: length has leading zero", ErrNonCanonical)
	}
	if lenOfLen > 8 {
		return 0, 0, ErrUintOverflow
	}
	var size uint64
	for _, c := range lb {
		size = size<<8 | uint64(c)
	}
	if size <= 55 {
		return 0, 0, fmt.Errorf("%w: long form for %d-byte payload", ErrNonCanonical, size)
	}
	if size > uint64(len(b)-1-lenOfLen) {
		return 0, 0, ErrTruncated
	}
	return 1 + lenOfLen, int(size), nil
}
