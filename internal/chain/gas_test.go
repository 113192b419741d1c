package chain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olehkaliuzhnyi/ethwallet/internal/chain"
	"github.com/olehkaliuzhnyi/ethwallet/internal/chain/chaintest"
)

func TestGasEstimator_Buffers(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		estimate int64
		want     int64
	}{
		{"simple transfer gets 10%", nil, 21000, 23100},
		{"contract call gets 20%", []byte{0xa9, 0x05, 0x9c, 0xbb}, 50000, 60000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(chaintest.MockClient)
			msg := chain.CallMsg{Data: tt.data}
			client.On("EstimateGas", mock.Anything, msg).Return(big.NewInt(tt.estimate), nil)

			est := chain.NewGasEstimator(client, chain.DefaultGasPolicy())
			limit, estimated, err := est.EstimateGasLimit(context.Background(), msg)
			require.NoError(t, err)
			assert.True(t, estimated)
			assert.Equal(t, tt.want, limit.Int64())
			client.AssertExpectations(t)
		})
	}
}

func TestGasEstimator_Fallback(t *testing.T) {
	rpcErr := &chain.RPCError{Method: "eth_estimateGas", Code: 3, Message: "execution reverted"}
	tests := []struct {
		name string
		data []byte
		want int64
	}{
		{"transfer", nil, 21000},
		{"contract call", []byte{1}, 100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(chaintest.MockClient)
			client.On("EstimateGas", mock.Anything, mock.Anything).Return(nil, rpcErr)

			est := chain.NewGasEstimator(client, chain.DefaultGasPolicy())
			limit, estimated, err := est.EstimateGasLimit(context.Background(), chain.CallMsg{Data: tt.data})
			require.NoError(t, err)
			assert.False(t, estimated)
			assert.Equal(t, tt.want, limit.Int64())
		})
	}
}

func TestGasEstimator_CancelledContext(t *testing.T) {
	client := new(chaintest.MockClient)
	client.On("EstimateGas", mock.Anything, mock.Anything).Return(nil, errors.New("context canceled"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	est := chain.NewGasEstimator(client, chain.DefaultGasPolicy())
	_, _, err := est.EstimateGasLimit(ctx, chain.CallMsg{})
	assert.ErrorIs(t, err, context.Canceled)
}
