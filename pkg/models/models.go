package models

import (
	"math/big"
	"time"
)

// DerivedAddress holds a generated address with its derivation path
type DerivedAddress struct {
	Address        string `json:"address"`
	DerivationPath string `json:"derivation_path"`
	PublicKey      string `json:"public_key"`
	Index          uint32 `json:"index"`
}

// Receipt is the subset of eth_getTransactionReceipt the engine relies on.
type Receipt struct {
	TxHash            string   `json:"tx_hash"`
	BlockHash         string   `json:"block_hash"`
	BlockNumber       uint64   `json:"block_number"`
	From              string   `json:"from"`
	To                string   `json:"to,omitempty"`
	ContractAddress   string   `json:"contract_address,omitempty"`
	Status            uint64   `json:"status"`
	GasUsed           *big.Int `json:"gas_used"`
	EffectiveGasPrice *big.Int `json:"effective_gas_price,omitempty"`
	Type              uint8    `json:"type"`
}

// Succeeded reports whether the receipt status is 1.
func (r *Receipt) Succeeded() bool {
	return r.Status == 1
}

// TxStatus is the outcome of waiting for a transaction
type TxStatus string

// Confirmation outcomes. Pending is not a failure: the transaction may still be mined.
const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
)

// Confirmation is the result of polling for a receipt. Hash is always set.
type Confirmation struct {
	Hash          string   `json:"hash"`
	Status        TxStatus `json:"status"`
	Receipt       *Receipt `json:"receipt,omitempty"`
	Confirmations uint64   `json:"confirmations"`
	Attempts      int      `json:"attempts"`
	Reorged       bool     `json:"reorged,omitempty"`
}

// SentTransaction records a broadcast transaction for idempotent retries
type SentTransaction struct {
	IdempotencyKey string        `json:"idempotency_key"`
	Hash           string        `json:"hash"`
	From           string        `json:"from"`
	To             string        `json:"to"`
	Nonce          uint64        `json:"nonce"`
	Type           string        `json:"type"`
	Value          *big.Int      `json:"value"`
	GasLimit       *big.Int      `json:"gas_limit"`
	RawTx          string        `json:"raw_tx"`
	SentAt         time.Time     `json:"sent_at"`
	Confirmation   *Confirmation `json:"confirmation,omitempty"`
	ExplorerURL    string        `json:"explorer_url,omitempty"`
}
