package tx

import (
	"math/big"

	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
)

// Request is a loosely specified transaction intent. Exactly one fee set is
// used: GasPrice for legacy, MaxFeePerGas and MaxPriorityFeePerGas for
// EIP-1559. All amounts are wei or gas units.
type Request struct {
	Type                 *TxType
	Nonce                *big.Int
	To                   *wallet.Address
	Value                *big.Int
	Data                 []byte
	ChainID              *big.Int
	GasLimit             *big.Int
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	AccessList           AccessList
}

// ResolveType applies the type selection rule: an explicit type wins,
// otherwise a gas price means legacy and its absence means EIP-1559.
func (r *Request) ResolveType() (TxType, error) {
	if r.Type != nil {
		switch *r.Type {
		case TypeLegacy, TypeDynamicFee:
			return *r.Type, nil
		default:
			return 0, ErrUnsupportedTransactionType
		}
	}
	if r.GasPrice != nil {
		return TypeLegacy, nil
	}
	return TypeDynamicFee, nil
}

// Normalize validates the request and returns the typed transaction. Fee
// fields belonging to the other type are ignored.
func (r *Request) Normalize() (Transaction, error) {
	typ, err := r.ResolveType()
	if err != nil {
		return nil, err
	}

	switch {
	case r.ChainID == nil:
		return nil, missingField("chainId")
	case r.Nonce == nil:
		return nil, missingField("nonce")
	case r.GasLimit == nil:
		return nil, missingField("gasLimit")
	case r.To == nil:
		return nil, missingField("to")
	}

	if r.ChainID.Sign() <= 0 {
		return nil, invalidField("chainId", "must be positive")
	}
	if r.Nonce.Sign() < 0 || !r.Nonce.IsUint64() {
		return nil, invalidField("nonce", "must fit in 64 bits")
	}
	if err := nonNegative("gasLimit", r.GasLimit); err != nil {
		return nil, err
	}
	if err := nonNegative("value", r.Value); err != nil {
		return nil, err
	}

	value := new(big.Int)
	if r.Value != nil {
		value.Set(r.Value)
	}
	data := append([]byte(nil), r.Data...)

	if typ == TypeLegacy {
		if r.GasPrice == nil {
			return nil, missingField("gasPrice")
		}
		if err := nonNegative("gasPrice", r.GasPrice); err != nil {
			return nil, err
		}
		return &LegacyTx{
			ChainID:  new(big.Int).Set(r.ChainID),
			Nonce:    r.Nonce.Uint64(),
			GasPrice: new(big.Int).Set(r.GasPrice),
			GasLimit: new(big.Int).Set(r.GasLimit),
			To:       *r.To,
			Value:    value,
			Data:     data,
		}, nil
	}

	if r.MaxFeePerGas == nil {
		return nil, missingField("maxFeePerGas")
	}
	if r.MaxPriorityFeePerGas == nil {
		return nil, missingField("maxPriorityFeePerGas")
	}
	if err := nonNegative("maxFeePerGas", r.MaxFeePerGas); err != nil {
		return nil, err
	}
	if err := nonNegative("maxPriorityFeePerGas", r.MaxPriorityFeePerGas); err != nil {
		return nil, err
	}
	if r.MaxPriorityFeePerGas.Cmp(r.MaxFeePerGas) > 0 {
		return nil, invalidField("maxPriorityFeePerGas", "exceeds maxFeePerGas")
	}

	return &DynamicFeeTx{
		ChainID:              new(big.Int).Set(r.ChainID),
		Nonce:                r.Nonce.Uint64(),
		MaxPriorityFeePerGas: new(big.Int).Set(r.MaxPriorityFeePerGas),
		MaxFeePerGas:         new(big.Int).Set(r.MaxFeePerGas),
		GasLimit:             new(big.Int).Set(r.GasLimit),
		To:                   *r.To,
		Value:                value,
		Data:                 data,
		AccessList:           append(AccessList(nil), r.AccessList...),
	}, nil
}

func nonNegative(field string, v *big.Int) error {
	if v != nil && v.Sign() < 0 {
		return invalidField(field, "must not be negative")
	}
	return nil
}
