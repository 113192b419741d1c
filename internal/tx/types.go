package tx

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/olehkaliuzhnyi/ethwallet/internal/rlp"
	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
)

// TxType is the EIP-2718 envelope type.
type TxType uint8

// Supported envelope types.
const (
	TypeLegacy     TxType = 0x00
	TypeDynamicFee TxType = 0x02
)

func (t TxType) String() string {
	switch t {
	case TypeLegacy:
		return "legacy"
	case TypeDynamicFee:
		return "eip1559"
	default:
		return fmt.Sprintf("type-0x%02x", uint8(t))
	}
}

// ParseTxType accepts the names used on the command line and in config.
func ParseTxType(s string) (TxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy", "0", "0x0", "0x00":
		return TypeLegacy, nil
	case "eip1559", "eip-1559", "dynamic", "2", "0x2", "0x02":
		return TypeDynamicFee, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedTransactionType, s)
	}
}

// Ptr returns a pointer to t, for Request.Type.
func (t TxType) Ptr() *TxType {
	return &t
}

// AccessTuple is one EIP-2930 access list entry.
type AccessTuple struct {
	Address     wallet.Address
	StorageKeys [][32]byte
}

// AccessList is an EIP-2930 access list; nil encodes as an empty list.
type AccessList []AccessTuple

func (al AccessList) item() rlp.List {
	out := make(rlp.List, 0, len(al))
	for _, t := range al {
		keys := make(rlp.List, 0, len(t.StorageKeys))
		for _, k := range t.StorageKeys {
			keys = append(keys, rlp.Bytes(k[:]))
		}
		out = append(out, rlp.List{rlp.Bytes(t.Address[:]), keys})
	}
	return out
}

// Transaction is a normalized, fully specified transaction. The concrete type
// is *LegacyTx or *DynamicFeeTx.
type Transaction interface {
	Type() TxType
	// Common returns the fields shared by every envelope type.
	Common() CommonFields

	unsigned() []byte
	signed(v, r, s *big.Int) []byte
}

// CommonFields are present in every transaction type.
type CommonFields struct {
	ChainID  *big.Int
	Nonce    uint64
	GasLimit *big.Int
	To       wallet.Address
	Value    *big.Int
	Data     []byte
}

// LegacyTx is an EIP-155 replay-protected legacy transaction.
type LegacyTx struct {
	ChainID  *big.Int
	Nonce    uint64
	GasPrice *big.Int
	GasLimit *big.Int
	To       wallet.Address
	Value    *big.Int
	Data     []byte
}

// Type implements Transaction.
func (tx *LegacyTx) Type() TxType { return TypeLegacy }

// Common implements Transaction.
func (tx *LegacyTx) Common() CommonFields {
	return CommonFields{tx.ChainID, tx.Nonce, tx.GasLimit, tx.To, tx.Value, tx.Data}
}

func (tx *LegacyTx) fields() rlp.List {
	return rlp.List{
		rlp.Uint(tx.Nonce),
		rlp.BigInt(tx.GasPrice),
		rlp.BigInt(tx.GasLimit),
		rlp.Bytes(tx.To[:]),
		rlp.BigInt(tx.Value),
		rlp.Bytes(tx.Data),
	}
}

// unsigned is RLP([nonce, gasPrice, gasLimit, to, value, data, chainId, 0, 0]).
func (tx *LegacyTx) unsigned() []byte {
	return rlp.Encode(append(tx.fields(), rlp.BigInt(tx.ChainID), rlp.Uint(0), rlp.Uint(0)))
}

func (tx *LegacyTx) signed(v, r, s *big.Int) []byte {
	return rlp.Encode(append(tx.fields(), rlp.BigInt(v), rlp.BigInt(r), rlp.BigInt(s)))
}

// DynamicFeeTx is an EIP-1559 type-2 transaction.
type DynamicFeeTx struct {
	ChainID              *big.Int
	Nonce                uint64
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             *big.Int
	To                   wallet.Address
	Value                *big.Int
	Data                 []byte
	AccessList           AccessList
}

// Type implements Transaction.
func (tx *DynamicFeeTx) Type() TxType { return TypeDynamicFee }

// Common implements Transaction.
func (tx *DynamicFeeTx) Common() CommonFields {
	return CommonFields{tx.ChainID, tx.Nonce, tx.GasLimit, tx.To, tx.Value, tx.Data}
}

func (tx *DynamicFeeTx) fields() rlp.List {
	return rlp.List{
		rlp.BigInt(tx.ChainID),
		rlp.Uint(tx.Nonce),
		rlp.BigInt(tx.MaxPriorityFeePerGas),
		rlp.BigInt(tx.MaxFeePerGas),
		rlp.BigInt(tx.GasLimit),
		rlp.Bytes(tx.To[:]),
		rlp.BigInt(tx.Value),
		rlp.Bytes(tx.Data),
		tx.AccessList.item(),
	}
}

// unsigned is 0x02 || RLP([chainId, nonce, tip, maxFee, gasLimit, to, value, data, accessList]).
func (tx *DynamicFeeTx) unsigned() []byte {
	return append([]byte{byte(TypeDynamicFee)}, rlp.Encode(tx.fields())...)
}

func (tx *DynamicFeeTx) signed(v, r, s *big.Int) []byte {
	body := rlp.Encode(append(tx.fields(), rlp.BigInt(v), rlp.BigInt(r), rlp.BigInt(s)))
	return append([]byte{byte(TypeDynamicFee)}, body...)
}
