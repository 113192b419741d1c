// Package chain is the JSON-RPC boundary to an Ethereum node.
package chain

import (
	"context"
	"math/big"

	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
)

// CallMsg is the input of eth_estimateGas.
type CallMsg struct {
	From  wallet.Address
	To    *wallet.Address
	Value *big.Int
	Data  []byte
}

// Client is the set of node operations the engine depends on. Every error is
// an *RPCError.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	GetBalance(ctx context.Context, address wallet.Address) (*big.Int, error)
	// GetNonce returns the pending transaction count: the next unused nonce.
	GetNonce(ctx context.Context, address wallet.Address) (uint64, error)
	GetGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg CallMsg) (*big.Int, error)
	// SendRawTransaction broadcasts signed bytes and returns the node's tx hash.
	SendRawTransaction(ctx context.Context, raw []byte) (string, error)
	// GetTransactionReceipt returns nil, nil while the transaction is pending.
	GetTransactionReceipt(ctx context.Context, hash string) (*models.Receipt, error)
	Close()
}
