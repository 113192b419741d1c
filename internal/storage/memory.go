package storage

import (
	"strings"
	"sync"

	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
)

// MemoryNonceStore is an in-memory NonceStore. Addresses are compared
// case-insensitively.
type MemoryNonceStore struct {
	mu     sync.Mutex
	nonces map[string]uint64
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{nonces: make(map[string]uint64)}
}

func (s *MemoryNonceStore) Reserve(address string, chainNonce uint64) (uint64, error) {
	key := strings.ToLower(address)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := chainNonce
	if local, ok := s.nonces[key]; ok && local > n {
		n = local
	}
	s.nonces[key] = n + 1
	return n, nil
}

func (s *MemoryNonceStore) Reset(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nonces, strings.ToLower(address))
	return nil
}

// MemoryTxStore is an in-memory TxStore.
type MemoryTxStore struct {
	mu  sync.RWMutex
	txs map[string]*models.SentTransaction
}

func NewMemoryTxStore() *MemoryTxStore {
	return &MemoryTxStore{txs: make(map[string]*models.SentTransaction)}
}

func (s *MemoryTxStore) Get(idempotencyKey string) (*models.SentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txs[idempotencyKey], nil
}

func (s *MemoryTxStore) Put(idempotencyKey string, tx *models.SentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[idempotencyKey] = tx
	return nil
}
