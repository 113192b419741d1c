package tx

import (
	"math/big"

	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
)

// erc20TransferSelector is the first four bytes of keccak("transfer(address,uint256)").
var erc20TransferSelector = wallet.Keccak256([]byte("transfer(address,uint256)"))[:4]

// ERC20TransferData builds the data field of an ERC-20 transfer call. This is
// the only contract call shape the engine encodes.
func ERC20TransferData(to wallet.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
		return nil, invalidField("amount", "must be a uint256")
	}
	data := make([]byte, 4+32+32)
	copy(data, erc20TransferSelector)
	copy(data[4+12:4+32], to[:])
	amount.FillBytes(data[4+32:])
	return data, nil
}
