// Package chaintest provides a testify mock of chain.Client.
package chaintest

import (
	"context"
	"math/big"

	"github.com/stretchr/testify/mock"

	"github.com/olehkaliuzhnyi/ethwallet/internal/chain"
	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
)

// MockClient implements chain.Client.
type MockClient struct {
	mock.Mock
}

var _ chain.Client = (*MockClient)(nil)

func bigOrNil(v any) *big.Int {
	if v == nil {
		return nil
	}
	return v.(*big.Int)
}

func (m *MockClient) ChainID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockClient) BlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockClient) GetBalance(ctx context.Context, address wallet.Address) (*big.Int, error) {
	args := m.Called(ctx, address)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockClient) GetNonce(ctx context.Context, address wallet.Address) (uint64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockClient) GetGasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockClient) EstimateGas(ctx context.Context, msg chain.CallMsg) (*big.Int, error) {
	args := m.Called(ctx, msg)
	return bigOrNil(args.Get(0)), args.Error(1)
}

func (m *MockClient) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	args := m.Called(ctx, raw)
	return args.String(0), args.Error(1)
}

func (m *MockClient) GetTransactionReceipt(ctx context.Context, hash string) (*models.Receipt, error) {
	args := m.Called(ctx, hash)
	r, _ := args.Get(0).(*models.Receipt)
	return r, args.Error(1)
}

func (m *MockClient) Close() {
	m.Called()
}
