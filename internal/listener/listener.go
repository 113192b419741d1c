// Package listener waits for broadcast transactions to be mined.
package listener

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/olehkaliuzhnyi/ethwallet/internal/log"
	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
)

// ReceiptFetcher is the part of chain.Client the poller needs.
type ReceiptFetcher interface {
	BlockNumber(ctx context.Context) (uint64, error)
	// GetTransactionReceipt returns nil, nil while the transaction is pending.
	GetTransactionReceipt(ctx context.Context, hash string) (*models.Receipt, error)
}

// PollingConfig holds configuration for the receipt poller.
type PollingConfig struct {
	Interval    time.Duration
	MaxAttempts int
	// ConfirmationDepth is the number of blocks, counting the inclusion
	// block, required before a receipt is final. 0 and 1 both mean "mined".
	ConfirmationDepth uint64
}

// DefaultPollingConfig polls every 3s for up to 5 minutes.
func DefaultPollingConfig() PollingConfig {
	return PollingConfig{
		Interval:          3 * time.Second,
		MaxAttempts:       100,
		ConfirmationDepth: 1,
	}
}

// ReceiptPoller polls for receipts at a fixed interval with a bounded number
// of attempts. Running out of attempts is not an error: the result is
// reported as pending and still carries the hash.
type ReceiptPoller struct {
	fetcher ReceiptFetcher
	cfg     PollingConfig
	logger  zerolog.Logger
}

// NewReceiptPoller creates a poller. Zero config fields take defaults.
func NewReceiptPoller(fetcher ReceiptFetcher, cfg PollingConfig) *ReceiptPoller {
	def := DefaultPollingConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	return &ReceiptPoller{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  log.WithComponent("listener"),
	}
}

// Wait polls until the transaction is final, attempts run out or ctx ends.
// On ctx cancellation the pending result is returned together with ctx.Err().
func (p *ReceiptPoller) Wait(ctx context.Context, hash string) (*models.Confirmation, error) {
	result := &models.Confirmation{Hash: hash, Status: models.TxStatusPending}
	logger := p.logger.With().Str("tx_hash", hash).Logger()

	logger.Info().
		Dur("interval", p.cfg.Interval).
		Int("max_attempts", p.cfg.MaxAttempts).
		Uint64("confirmation_depth", p.cfg.ConfirmationDepth).
		Msg("waiting for receipt")

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Block hash of the last receipt seen, for reorg detection.
	var seenBlock string

	for {
		result.Attempts++

		receipt, err := p.fetcher.GetTransactionReceipt(ctx, hash)
		switch {
		case err != nil:
			logger.Warn().Err(err).Int("attempt", result.Attempts).Msg("receipt poll failed")

		case receipt == nil:
			if seenBlock != "" {
				logger.Warn().Str("old_block_hash", seenBlock).Msg("receipt disappeared, chain reorganization")
				result.Reorged = true
				result.Receipt = nil
				result.Confirmations = 0
				seenBlock = ""
			}

		default:
			if seenBlock != "" && seenBlock != receipt.BlockHash {
				logger.Warn().
					Str("old_block_hash", seenBlock).
					Str("new_block_hash", receipt.BlockHash).
					Msg("receipt moved to another block, chain reorganization")
				result.Reorged = true
			}
			seenBlock = receipt.BlockHash
			result.Receipt = receipt

			if p.final(ctx, receipt, result) {
				result.Status = models.TxStatusConfirmed
				if !receipt.Succeeded() {
					result.Status = models.TxStatusFailed
				}
				logger.Info().
					Str("status", string(result.Status)).
					Uint64("block", receipt.BlockNumber).
					Uint64("confirmations", result.Confirmations).
					Msg("transaction final")
				return result, nil
			}
		}

		if result.Attempts >= p.cfg.MaxAttempts {
			logger.Warn().Int("attempts", result.Attempts).Msg("gave up waiting, transaction still pending")
			return result, nil
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

// final updates result.Confirmations and reports whether the receipt has
// reached the configured depth.
func (p *ReceiptPoller) final(ctx context.Context, receipt *models.Receipt, result *models.Confirmation) bool {
	if p.cfg.ConfirmationDepth <= 1 {
		result.Confirmations = 1
		return true
	}

	head, err := p.fetcher.BlockNumber(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("block number poll failed")
		return false
	}
	if head < receipt.BlockNumber {
		result.Confirmations = 0
		return false
	}
	result.Confirmations = head - receipt.BlockNumber + 1
	return result.Confirmations >= p.cfg.ConfirmationDepth
}
