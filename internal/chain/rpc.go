package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"github.com/olehkaliuzhnyi/ethwallet/internal/log"
	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
)

// RPCClient implements Client over JSON-RPC 2.0.
type RPCClient struct {
	rpc     *rpc.Client
	timeout time.Duration
	metrics *Metrics
	logger  zerolog.Logger
}

// Option configures an RPCClient.
type Option func(*RPCClient)

// WithTimeout bounds every call that has no earlier context deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *RPCClient) { c.timeout = d }
}

// WithMetrics records call counts and latency.
func WithMetrics(m *Metrics) Option {
	return func(c *RPCClient) { c.metrics = m }
}

// Dial connects to endpoint (http, https, ws or ipc).
func Dial(ctx context.Context, endpoint string, opts ...Option) (*RPCClient, error) {
	rc, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, wrapError("dial", err)
	}
	return NewRPCClient(rc, opts...), nil
}

// NewRPCClient wraps an existing go-ethereum rpc client.
func NewRPCClient(rc *rpc.Client, opts ...Option) *RPCClient {
	c := &RPCClient{
		rpc:     rc,
		timeout: 30 * time.Second,
		logger:  log.WithComponent("chain"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the underlying connection.
func (c *RPCClient) Close() {
	c.rpc.Close()
}

func (c *RPCClient) call(ctx context.Context, result any, method string, args ...any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := wrapError(method, c.rpc.CallContext(ctx, result, method, args...))
	c.metrics.observe(method, start, err)

	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Dur("took", time.Since(start)).Msg("rpc call failed")
		return err
	}
	c.logger.Trace().Str("method", method).Dur("took", time.Since(start)).Msg("rpc call")
	return nil
}

// ChainID implements Client.
func (c *RPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := c.call(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}
	return (*big.Int)(&id), nil
}

// BlockNumber implements Client.
func (c *RPCClient) BlockNumber(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	if err := c.call(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// GetBalance returns the latest balance in wei.
func (c *RPCClient) GetBalance(ctx context.Context, address wallet.Address) (*big.Int, error) {
	var bal hexutil.Big
	if err := c.call(ctx, &bal, "eth_getBalance", address.Hex(), "latest"); err != nil {
		return nil, err
	}
	return (*big.Int)(&bal), nil
}

// GetNonce implements Client.
func (c *RPCClient) GetNonce(ctx context.Context, address wallet.Address) (uint64, error) {
	var n hexutil.Uint64
	if err := c.call(ctx, &n, "eth_getTransactionCount", address.Hex(), "pending"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// GetGasPrice implements Client.
func (c *RPCClient) GetGasPrice(ctx context.Context) (*big.Int, error) {
	var price hexutil.Big
	if err := c.call(ctx, &price, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return (*big.Int)(&price), nil
}

type callArgs struct {
	From  string         `json:"from"`
	To    *string        `json:"to,omitempty"`
	Value *hexutil.Big   `json:"value,omitempty"`
	Data  *hexutil.Bytes `json:"data,omitempty"`
}

func toCallArgs(msg CallMsg) callArgs {
	args := callArgs{From: msg.From.Hex()}
	if msg.To != nil {
		to := msg.To.Hex()
		args.To = &to
	}
	if msg.Value != nil {
		args.Value = (*hexutil.Big)(msg.Value)
	}
	if len(msg.Data) > 0 {
		data := hexutil.Bytes(msg.Data)
		args.Data = &data
	}
	return args
}

// EstimateGas implements Client. Estimation failures are returned as-is;
// EstimateGasLimit applies the fallback policy.
func (c *RPCClient) EstimateGas(ctx context.Context, msg CallMsg) (*big.Int, error) {
	var gas hexutil.Uint64
	if err := c.call(ctx, &gas, "eth_estimateGas", toCallArgs(msg)); err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(uint64(gas)), nil
}

// SendRawTransaction implements Client.
func (c *RPCClient) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	var hash common.Hash
	if err := c.call(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return "", err
	}
	c.logger.Info().Str("tx_hash", hash.Hex()).Msg("transaction broadcast")
	return hash.Hex(), nil
}

type rpcReceipt struct {
	TransactionHash   common.Hash     `json:"transactionHash"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       *hexutil.Big    `json:"blockNumber"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to"`
	ContractAddress   *common.Address `json:"contractAddress"`
	Status            hexutil.Uint64  `json:"status"`
	GasUsed           hexutil.Big     `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice"`
	Type              hexutil.Uint64  `json:"type"`
}

// GetTransactionReceipt implements Client.
func (c *RPCClient) GetTransactionReceipt(ctx context.Context, hash string) (*models.Receipt, error) {
	h, err := parseHash(hash)
	if err != nil {
		return nil, &RPCError{Method: "eth_getTransactionReceipt", Message: err.Error(), Err: err}
	}

	var r *rpcReceipt
	if err := c.call(ctx, &r, "eth_getTransactionReceipt", h); err != nil {
		return nil, err
	}
	if r == nil || r.BlockNumber == nil {
		return nil, nil
	}

	out := &models.Receipt{
		TxHash:      r.TransactionHash.Hex(),
		BlockHash:   r.BlockHash.Hex(),
		BlockNumber: (*big.Int)(r.BlockNumber).Uint64(),
		From:        r.From.Hex(),
		Status:      uint64(r.Status),
		GasUsed:     (*big.Int)(&r.GasUsed),
		Type:        uint8(r.Type),
	}
	if r.To != nil {
		out.To = r.To.Hex()
	}
	if r.ContractAddress != nil {
		out.ContractAddress = r.ContractAddress.Hex()
	}
	if r.EffectiveGasPrice != nil {
		out.EffectiveGasPrice = (*big.Int)(r.EffectiveGasPrice)
	}
	return out, nil
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("tx hash %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("tx hash %q: expected %d bytes, got %d", s, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}
