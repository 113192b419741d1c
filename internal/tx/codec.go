package tx

import (
	"encoding/hex"

	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
)

// PreparedTransaction is a normalized transaction with its unsigned encoding
// and the Keccak-256 hash that gets signed.
type PreparedTransaction struct {
	Tx          Transaction
	Encoded     []byte
	MessageHash [32]byte
}

// Type returns the envelope type of the prepared transaction.
func (p *PreparedTransaction) Type() TxType {
	return p.Tx.Type()
}

// EncodedHex is the 0x-prefixed unsigned encoding.
func (p *PreparedTransaction) EncodedHex() string {
	return "0x" + hex.EncodeToString(p.Encoded)
}

// Prepare encodes tx in its unsigned form and computes the signing hash.
//
// Legacy:  keccak(RLP([nonce, gasPrice, gasLimit, to, value, data, chainId, 0, 0]))
// EIP-1559: keccak(0x02 || RLP([chainId, nonce, tip, maxFee, gasLimit, to, value, data, accessList]))
func Prepare(tx Transaction) (*PreparedTransaction, error) {
	if tx == nil {
		return nil, ErrUnsupportedTransactionType
	}
	if err := checkAmounts(tx); err != nil {
		return nil, err
	}
	enc := tx.unsigned()
	return &PreparedTransaction{
		Tx:          tx,
		Encoded:     enc,
		MessageHash: wallet.Keccak256Hash(enc),
	}, nil
}

// PrepareRequest normalizes req and prepares the result.
func PrepareRequest(req Request) (*PreparedTransaction, error) {
	tx, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	return Prepare(tx)
}

// checkAmounts guards transactions built directly rather than through
// Request.Normalize; RLP has no encoding for negative or missing integers.
func checkAmounts(tx Transaction) error {
	c := tx.Common()
	if c.ChainID == nil || c.ChainID.Sign() <= 0 {
		return invalidField("chainId", "must be positive")
	}
	if c.GasLimit == nil {
		return missingField("gasLimit")
	}
	if err := nonNegative("gasLimit", c.GasLimit); err != nil {
		return err
	}
	if err := nonNegative("value", c.Value); err != nil {
		return err
	}

	switch t := tx.(type) {
	case *LegacyTx:
		if t.GasPrice == nil {
			return missingField("gasPrice")
		}
		return nonNegative("gasPrice", t.GasPrice)
	case *DynamicFeeTx:
		if t.MaxFeePerGas == nil {
			return missingField("maxFeePerGas")
		}
		if t.MaxPriorityFeePerGas == nil {
			return missingField("maxPriorityFeePerGas")
		}
		if err := nonNegative("maxFeePerGas", t.MaxFeePerGas); err != nil {
			return err
		}
		return nonNegative("maxPriorityFeePerGas", t.MaxPriorityFeePerGas)
	default:
		return ErrUnsupportedTransactionType
	}
}
