package tx

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/olehkaliuzhnyi/ethwallet/internal/rlp"
	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
)

// DecodeHex decodes a 0x-prefixed signed transaction.
func DecodeHex(s string) (*SignedTransaction, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	return Decode(raw)
}

// Decode parses a signed legacy (EIP-155) or type-2 transaction. Other typed
// envelopes and pre-EIP-155 legacy signatures are rejected.
func Decode(raw []byte) (*SignedTransaction, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedTransaction)
	}

	var (
		tx  Transaction
		sig rlp.List
		err error
	)
	switch {
	case raw[0] >= 0xc0:
		tx, sig, err = decodeLegacy(raw)
	case raw[0] == byte(TypeDynamicFee):
		tx, sig, err = decodeDynamicFee(raw[1:])
	default:
		return nil, fmt.Errorf("%w: envelope 0x%02x", ErrUnsupportedTransactionType, raw[0])
	}
	if err != nil {
		return nil, err
	}

	vals, err := bigInts(sig, "v", "r", "s")
	if err != nil {
		return nil, err
	}
	out := &SignedTransaction{
		Tx:   tx,
		V:    vals[0],
		R:    vals[1],
		S:    vals[2],
		Raw:  append([]byte(nil), raw...),
		Hash: wallet.Keccak256Hash(raw),
	}
	if _, err := out.RecoveryID(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeLegacy(raw []byte) (Transaction, rlp.List, error) {
	fields, err := rlp.DecodeList(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	if len(fields) != 9 {
		return nil, nil, fmt.Errorf("%w: legacy transaction has %d fields, want 9", ErrMalformedTransaction, len(fields))
	}

	nonce, err := uint64At(fields, 0, "nonce")
	if err != nil {
		return nil, nil, err
	}
	amounts, err := bigInts(rlp.List{fields[1], fields[2], fields[4]}, "gasPrice", "gasLimit", "value")
	if err != nil {
		return nil, nil, err
	}
	to, err := addressAt(fields, 3)
	if err != nil {
		return nil, nil, err
	}
	data, err := rlp.AsString(fields[5])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: data: %v", ErrMalformedTransaction, err)
	}

	vs, err := bigInts(fields[6:7], "v")
	if err != nil {
		return nil, nil, err
	}
	v := vs[0]
	if v.Cmp(big.NewInt(35)) < 0 {
		return nil, nil, fmt.Errorf("%w: pre-EIP-155 signature (v=%s)", ErrUnsupportedTransactionType, v)
	}
	// chainId = (v - 35) / 2
	chainID := new(big.Int).Sub(v, big.NewInt(35))
	chainID.Rsh(chainID, 1)
	if chainID.Sign() == 0 {
		return nil, nil, fmt.Errorf("%w: chain id 0", ErrMalformedTransaction)
	}

	tx := &LegacyTx{
		ChainID:  chainID,
		Nonce:    nonce,
		GasPrice: amounts[0],
		GasLimit: amounts[1],
		To:       to,
		Value:    amounts[2],
		Data:     []byte(data),
	}
	return tx, fields[6:9], nil
}

func decodeDynamicFee(body []byte) (Transaction, rlp.List, error) {
	fields, err := rlp.DecodeList(body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	if len(fields) != 12 {
		return nil, nil, fmt.Errorf("%w: type-2 transaction has %d fields, want 12", ErrMalformedTransaction, len(fields))
	}

	nonce, err := uint64At(fields, 1, "nonce")
	if err != nil {
		return nil, nil, err
	}
	amounts, err := bigInts(rlp.List{fields[0], fields[2], fields[3], fields[4], fields[6]},
		"chainId", "maxPriorityFeePerGas", "maxFeePerGas", "gasLimit", "value")
	if err != nil {
		return nil, nil, err
	}
	to, err := addressAt(fields, 5)
	if err != nil {
		return nil, nil, err
	}
	data, err := rlp.AsString(fields[7])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: data: %v", ErrMalformedTransaction, err)
	}
	al, err := decodeAccessList(fields[8])
	if err != nil {
		return nil, nil, err
	}

	tx := &DynamicFeeTx{
		ChainID:              amounts[0],
		Nonce:                nonce,
		MaxPriorityFeePerGas: amounts[1],
		MaxFeePerGas:         amounts[2],
		GasLimit:             amounts[3],
		To:                   to,
		Value:                amounts[4],
		Data:                 []byte(data),
		AccessList:           al,
	}
	return tx, fields[9:12], nil
}

func decodeAccessList(item rlp.Item) (AccessList, error) {
	list, err := rlp.AsList(item)
	if err != nil {
		return nil, fmt.Errorf("%w: access list: %v", ErrMalformedTransaction, err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	out := make(AccessList, 0, len(list))
	for i, entry := range list {
		pair, err := rlp.AsList(entry)
		if err != nil || len(pair) != 2 {
			return nil, fmt.Errorf("%w: access list entry %d", ErrMalformedTransaction, i)
		}
		addr, err := addressAt(pair, 0)
		if err != nil {
			return nil, err
		}
		keys, err := rlp.AsList(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%w: access list entry %d keys", ErrMalformedTransaction, i)
		}
		tuple := AccessTuple{Address: addr}
		for _, k := range keys {
			s, err := rlp.AsString(k)
			if err != nil || len(s) != 32 {
				return nil, fmt.Errorf("%w: access list entry %d storage key", ErrMalformedTransaction, i)
			}
			var key [32]byte
			copy(key[:], s)
			tuple.StorageKeys = append(tuple.StorageKeys, key)
		}
		out = append(out, tuple)
	}
	return out, nil
}

func uint64At(fields rlp.List, i int, name string) (uint64, error) {
	s, err := rlp.AsString(fields[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedTransaction, name, err)
	}
	v, err := s.Uint64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedTransaction, name, err)
	}
	return v, nil
}

func bigInts(items rlp.List, names ...string) ([]*big.Int, error) {
	out := make([]*big.Int, len(items))
	for i, it := range items {
		s, err := rlp.AsString(it)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedTransaction, names[i], err)
		}
		if out[i], err = s.BigInt(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedTransaction, names[i], err)
		}
	}
	return out, nil
}

// addressAt reads a 20-byte recipient. Contract creation (empty to) is not
// produced by this engine and is rejected.
func addressAt(fields rlp.List, i int) (wallet.Address, error) {
	s, err := rlp.AsString(fields[i])
	if err != nil || len(s) != wallet.AddressLength {
		return wallet.Address{}, fmt.Errorf("%w: to must be %d bytes", ErrMalformedTransaction, wallet.AddressLength)
	}
	var a wallet.Address
	copy(a[:], s)
	return a, nil
}
