// Package storage holds per-session state of the calling layer: the local
// nonce cursor and idempotency records. The signing engine never touches it.
package storage

import "github.com/olehkaliuzhnyi/ethwallet/pkg/models"

// NonceStore hands out nonces per address so one process never reuses a
// nonce it has already signed with.
type NonceStore interface {
	// Reserve returns max(chainNonce, next local nonce) and advances the local
	// cursor past it.
	Reserve(address string, chainNonce uint64) (uint64, error)
	// Reset forgets the local cursor, e.g. after a failed broadcast, so the
	// next Reserve trusts the chain again.
	Reset(address string) error
}

// TxStore provides idempotent transaction storage.
type TxStore interface {
	// Get returns a previously stored transaction by idempotency key, or nil if not found.
	Get(idempotencyKey string) (*models.SentTransaction, error)
	// Put stores a transaction keyed by idempotency key.
	Put(idempotencyKey string, tx *models.SentTransaction) error
}
