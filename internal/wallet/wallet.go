// Package wallet derives Ethereum accounts: BIP-39 mnemonics, BIP-32/BIP-44
// key trees, secp256k1 key pairs and Keccak addresses. Nothing here performs
// I/O or logs; secrets stay in memory owned by the caller.
package wallet

import (
	"encoding/hex"

	"github.com/olehkaliuzhnyi/ethwallet/pkg/models"
)

// KeyPair is a derived account. PrivateKey is the 32-byte scalar, PublicKey
// the 64-byte uncompressed point without the 0x04 prefix.
type KeyPair struct {
	PrivateKey []byte
	PublicKey  []byte
	Address    Address
}

// PrivateKeyHex returns the 0x-prefixed private key. Treat the result as a secret.
func (k *KeyPair) PrivateKeyHex() string {
	return "0x" + hex.EncodeToString(k.PrivateKey)
}

// PublicKeyHex returns the 0x04-prefixed uncompressed public key.
func (k *KeyPair) PublicKeyHex() string {
	return "0x04" + hex.EncodeToString(k.PublicKey)
}

// Zero overwrites the private key bytes.
func (k *KeyPair) Zero() {
	for i := range k.PrivateKey {
		k.PrivateKey[i] = 0
	}
}

// HDWalletInfo records where a KeyPair came from so siblings can be derived
// later. AccountIndex is the address-index segment of DerivationPath.
type HDWalletInfo struct {
	Mnemonic       string
	Seed           []byte
	DerivationPath DerivationPath
	AccountIndex   uint32
}

// Describe renders a key pair as the public DTO used by the CLI.
func Describe(k *KeyPair, path DerivationPath) *models.DerivedAddress {
	return &models.DerivedAddress{
		Address:        k.Address.Checksum(),
		DerivationPath: path.String(),
		PublicKey:      k.PublicKeyHex(),
		Index:          path.AddressIndex(),
	}
}
