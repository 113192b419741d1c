package tx

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/olehkaliuzhnyi/ethwallet/internal/chain"
	"github.com/olehkaliuzhnyi/ethwallet/internal/config"
	"github.com/olehkaliuzhnyi/ethwallet/internal/listener"
	"github.com/olehkaliuzhnyi/ethwallet/internal/log"
	"github.com/olehkaliuzhnyi/ethwallet/internal/storage"
	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
)

// BuilderConfig holds configurable parameters for the transaction builder.
type BuilderConfig struct {
	Chain      config.ChainConfig
	MaxRetries int
	// RetryBackoff is multiplied by attempt² between broadcast attempts.
	RetryBackoff time.Duration
}

// Builder fills in what a Request leaves open (chain id, nonce, gas limit,
// gas price), signs it and broadcasts it. It is the only part of the module
// that holds state across sends.
type Builder struct {
	client     chain.Client
	gas        *chain.GasEstimator
	poller     *listener.ReceiptPoller
	nonceStore storage.NonceStore
	txStore    storage.TxStore
	logger     zerolog.Logger
	cfg        BuilderConfig
}

// NewBuilder creates a new transaction builder. poller may be nil, in which
// case SendRequest.Wait is ignored.
func NewBuilder(
	cfg BuilderConfig,
	client chain.Client,
	gas *chain.GasEstimator,
	poller *listener.ReceiptPoller,
	nonces storage.NonceStore,
	txs storage.TxStore,
) *Builder {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &Builder{
		client:     client,
		gas:        gas,
		poller:     poller,
		nonceStore: nonces,
		txStore:    txs,
		logger:     log.WithComponent("tx_builder"),
		cfg:        cfg,
	}
}

// SendRequest represents a request to send a transaction.
type SendRequest struct {
	// IdempotencyKey prevents duplicate sends. Empty disables the check.
	IdempotencyKey string
	Key            *wallet.KeyPair
	Tx             Request
	// Wait polls for the receipt after broadcast.
	Wait bool
}

// Send builds, signs and broadcasts a transaction with idempotency.
//
// When Wait is set and the receipt does not arrive in time, the result has a
// pending Confirmation and a nil error: the hash is never lost. A cancelled
// context during the wait returns the result together with ctx.Err().
func (b *Builder) Send(ctx context.Context, req SendRequest) (*models.SentTransaction, error) {
	if req.IdempotencyKey != "" {
		existing, err := b.txStore.Get(req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("tx store get: %w", err)
		}
		if existing != nil {
			b.logger.Info().
				Str("idempotency_key", req.IdempotencyKey).
				Str("tx_hash", existing.Hash).
				Msg("duplicate request, returning existing tx")
			return existing, nil
		}
	}

	if req.Key == nil {
		return nil, fmt.Errorf("%w: no signing key", ErrInvalidPrivateKey)
	}
	from := req.Key.Address

	txReq, reserved, err := b.fill(ctx, from, req.Tx)
	if err != nil {
		return nil, err
	}
	// The local nonce cursor is released whenever the transaction does not
	// reach the node, so the next send asks the chain again.
	release := func() {
		if !reserved {
			return
		}
		if err := b.nonceStore.Reset(from.Hex()); err != nil {
			b.logger.Error().Err(err).Str("from", from.Hex()).Msg("nonce reset failed")
		}
	}

	signed, err := SignRequest(txReq, req.Key.PrivateKey)
	if err != nil {
		release()
		return nil, fmt.Errorf("sign: %w", err)
	}
	common := signed.Tx.Common()

	b.logger.Info().
		Str("type", signed.Type().String()).
		Str("from", from.Checksum()).
		Str("to", common.To.Checksum()).
		Str("value", common.Value.String()).
		Uint64("nonce", common.Nonce).
		Str("gas_limit", common.GasLimit.String()).
		Str("tx_hash", signed.HashHex()).
		Msg("transaction signed")

	if err := b.broadcastWithRetry(ctx, signed); err != nil {
		release()
		return nil, fmt.Errorf("broadcast: %w", err)
	}

	sent := &models.SentTransaction{
		IdempotencyKey: req.IdempotencyKey,
		Hash:           signed.HashHex(),
		From:           from.Checksum(),
		To:             common.To.Checksum(),
		Nonce:          common.Nonce,
		Type:           signed.Type().String(),
		Value:          common.Value,
		GasLimit:       common.GasLimit,
		RawTx:          signed.RawHex(),
		SentAt:         time.Now().UTC(),
		ExplorerURL:    b.cfg.Chain.TxURL(signed.HashHex()),
	}
	if err := b.store(sent); err != nil {
		return sent, err
	}

	if !req.Wait || b.poller == nil {
		return sent, nil
	}

	conf, err := b.poller.Wait(ctx, sent.Hash)
	sent.Confirmation = conf
	if storeErr := b.store(sent); storeErr != nil && err == nil {
		err = storeErr
	}
	return sent, err
}

// fill completes the request from the node and local state. reserved reports
// whether a nonce was taken from the nonce store.
func (b *Builder) fill(ctx context.Context, from wallet.Address, req Request) (Request, bool, error) {
	typ, err := req.ResolveType()
	if err != nil {
		return req, false, err
	}

	if req.ChainID == nil {
		req.ChainID = b.cfg.Chain.ChainIDBig()
	}

	if req.GasLimit == nil {
		limit, estimated, err := b.gas.EstimateGasLimit(ctx, chain.CallMsg{
			From:  from,
			To:    req.To,
			Value: req.Value,
			Data:  req.Data,
		})
		if err != nil {
			return req, false, fmt.Errorf("estimate gas: %w", err)
		}
		if !estimated {
			b.logger.Warn().Str("gas_limit", limit.String()).Msg("using fallback gas limit")
		}
		req.GasLimit = limit
	}

	if typ == TypeLegacy && req.GasPrice == nil {
		price, err := b.client.GetGasPrice(ctx)
		if err != nil {
			return req, false, fmt.Errorf("gas price: %w", err)
		}
		req.GasPrice = price
		req.Type = TypeLegacy.Ptr()
	}

	reserved := false
	if req.Nonce == nil {
		chainNonce, err := b.client.GetNonce(ctx, from)
		if err != nil {
			return req, false, fmt.Errorf("get nonce: %w", err)
		}
		n, err := b.nonceStore.Reserve(from.Hex(), chainNonce)
		if err != nil {
			return req, false, fmt.Errorf("nonce store: %w", err)
		}
		if n != chainNonce {
			b.logger.Debug().Uint64("chain_nonce", chainNonce).Uint64("nonce", n).Msg("using local nonce")
		}
		req.Nonce = new(big.Int).SetUint64(n)
		reserved = true
	}

	return req, reserved, nil
}

func (b *Builder) store(sent *models.SentTransaction) error {
	if sent.IdempotencyKey == "" {
		return nil
	}
	if err := b.txStore.Put(sent.IdempotencyKey, sent); err != nil {
		return fmt.Errorf("tx store put: %w", err)
	}
	return nil
}

// broadcastWithRetry resends the same raw bytes. Only transport failures are
// retried; a node rejection is returned at once.
func (b *Builder) broadcastWithRetry(ctx context.Context, signed *SignedTransaction) error {
	var lastErr error

	for attempt := 1; attempt <= b.cfg.MaxRetries; attempt++ {
		hash, err := b.client.SendRawTransaction(ctx, signed.Raw)
		if err == nil || (attempt > 1 && alreadyKnown(err)) {
			if err == nil && !strings.EqualFold(hash, signed.HashHex()) {
				b.logger.Warn().
					Str("node_hash", hash).
					Str("tx_hash", signed.HashHex()).
					Msg("node returned a different hash")
			}
			b.logger.Info().
				Str("tx_hash", signed.HashHex()).
				Int("attempt", attempt).
				Msg("transaction broadcast successful")
			return nil
		}

		lastErr = err
		if !chain.IsRetryable(err) {
			return err
		}
		b.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_retries", b.cfg.MaxRetries).
			Msg("broadcast attempt failed")

		if attempt == b.cfg.MaxRetries {
			break
		}
		select {
		case <-time.After(time.Duration(attempt*attempt) * b.cfg.RetryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("all %d broadcast attempts failed: %w", b.cfg.MaxRetries, lastErr)
}

// alreadyKnown matches the node rejection for a transaction it already holds,
// which after a lost response means an earlier attempt got through.
func alreadyKnown(err error) bool {
	var re *chain.RPCError
	if !errors.As(err, &re) || re.Transport() {
		return false
	}
	msg := strings.ToLower(re.Message)
	return strings.Contains(msg, "already known") || strings.Contains(msg, "known transaction")
}
