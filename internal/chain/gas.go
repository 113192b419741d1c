package chain

import (
	"context"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/olehkaliuzhnyi/ethwallet/internal/log"
)

// GasPolicy is the gas limit policy applied around eth_estimateGas.
type GasPolicy struct {
	// TransferGas is the fallback for calls without data.
	TransferGas uint64
	// ContractGas is the fallback for calls with data.
	ContractGas uint64
	// Buffers are added to successful estimates, in percent.
	SimpleBufferPercent  uint64
	ComplexBufferPercent uint64
}

// DefaultGasPolicy is 21000/100000 fallbacks with 10%/20% buffers.
func DefaultGasPolicy() GasPolicy {
	return GasPolicy{
		TransferGas:          21000,
		ContractGas:          100000,
		SimpleBufferPercent:  10,
		ComplexBufferPercent: 20,
	}
}

// Fallback returns the default limit for msg.
func (p GasPolicy) Fallback(msg CallMsg) *big.Int {
	if len(msg.Data) == 0 {
		return new(big.Int).SetUint64(p.TransferGas)
	}
	return new(big.Int).SetUint64(p.ContractGas)
}

// WithBuffer pads an estimate by the buffer for msg's kind.
func (p GasPolicy) WithBuffer(msg CallMsg, estimate *big.Int) *big.Int {
	pct := p.SimpleBufferPercent
	if len(msg.Data) > 0 {
		pct = p.ComplexBufferPercent
	}
	out := new(big.Int).Mul(estimate, new(big.Int).SetUint64(100+pct))
	return out.Div(out, big.NewInt(100))
}

// GasEstimator estimates gas limits. Estimation failure is not fatal: it
// falls back to the policy default, the only failure that is defaulted.
type GasEstimator struct {
	client Client
	policy GasPolicy
	logger zerolog.Logger
}

// NewGasEstimator creates an estimator using client and policy.
func NewGasEstimator(client Client, policy GasPolicy) *GasEstimator {
	return &GasEstimator{
		client: client,
		policy: policy,
		logger: log.WithComponent("gas"),
	}
}

// EstimateGasLimit returns a buffered estimate, or the fallback limit when the
// node cannot estimate. estimated is false when the fallback was used. Only a
// cancelled context is returned as an error.
func (e *GasEstimator) EstimateGasLimit(ctx context.Context, msg CallMsg) (limit *big.Int, estimated bool, err error) {
	gas, err := e.client.EstimateGas(ctx, msg)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		fallback := e.policy.Fallback(msg)
		e.logger.Warn().Err(err).
			Str("from", msg.From.Hex()).
			Int("data_len", len(msg.Data)).
			Str("fallback", fallback.String()).
			Msg("gas estimation failed, using fallback limit")
		return fallback, false, nil
	}

	limit = e.policy.WithBuffer(msg, gas)
	e.logger.Debug().
		Str("estimated", gas.String()).
		Str("with_buffer", limit.String()).
		Msg("gas limit calculated")
	return limit, true, nil
}
