package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// DeriveFromMnemonic validates the phrase, builds the BIP-39 seed and walks the
// BIP-32 path to a key pair. path may be empty for m/44'/60'/0'/0/0.
func DeriveFromMnemonic(mnemonic, passphrase, path string) (*KeyPair, *HDWalletInfo, error) {
	dp := DefaultPath(0)
	if strings.TrimSpace(path) != "" {
		var err error
		if dp, err = ParsePath(path); err != nil {
			return nil, nil, err
		}
	}

	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, nil, err
	}

	kp, err := deriveKey(seed, dp)
	if err != nil {
		return nil, nil, err
	}

	info := &HDWalletInfo{
		Mnemonic:       NormalizeMnemonic(mnemonic),
		Seed:           seed,
		DerivationPath: dp,
		AccountIndex:   dp.AddressIndex(),
	}
	return kp, info, nil
}

// DeriveFromPrivateKey imports a raw hex key: optional 0x, exactly 64 hex
// characters, scalar in [1, n-1].
func DeriveFromPrivateKey(privateKeyHex string) (*KeyPair, error) {
	s := strings.TrimSpace(privateKeyHex)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 64 {
		return nil, fmt.Errorf("%w: expected 64 hex chars, got %d", ErrInvalidPrivateKey, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex", ErrInvalidPrivateKey)
	}
	return NewKeyPair(raw)
}

// DeriveChildAddress derives a sibling of the wallet's key: same path with the
// last segment replaced by index. The seed is recomputed from the mnemonic if
// info does not carry one.
func DeriveChildAddress(info *HDWalletInfo, index uint32) (*KeyPair, error) {
	if info == nil {
		return nil, fmt.Errorf("%w: no wallet info", ErrKeyDerivationFailure)
	}
	path, err := info.DerivationPath.WithAddressIndex(index)
	if err != nil {
		return nil, err
	}

	seed := info.Seed
	if len(seed) == 0 {
		if seed, err = SeedFromMnemonic(info.Mnemonic, ""); err != nil {
			return nil, err
		}
	}
	return deriveKey(seed, path)
}

// NewKeyPair computes the public key and address of a 32-byte private key.
func NewKeyPair(privateKey []byte) (*KeyPair, error) {
	if err := ValidatePrivateKey(privateKey); err != nil {
		return nil, err
	}

	_, pub := btcec.PrivKeyFromBytes(privateKey)
	uncompressed := pub.SerializeUncompressed()

	addr, err := PubKeyToAddress(uncompressed)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		PrivateKey: append([]byte(nil), privateKey...),
		PublicKey:  uncompressed[1:],
		Address:    addr,
	}, nil
}

// ValidatePrivateKey checks length and that the scalar is in [1, n-1].
func ValidatePrivateKey(privateKey []byte) error {
	if len(privateKey) != 32 {
		return fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidPrivateKey, len(privateKey))
	}
	var k secp256k1.ModNScalar
	if overflow := k.SetByteSlice(privateKey); overflow {
		return fmt.Errorf("%w: scalar not below curve order", ErrInvalidPrivateKey)
	}
	if k.IsZero() {
		return fmt.Errorf("%w: zero scalar", ErrInvalidPrivateKey)
	}
	return nil
}

// deriveKey walks path from the master node of seed.
func deriveKey(seed []byte, path DerivationPath) (*KeyPair, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	child, err := master.DerivePath(path)
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", path, err)
	}

	kp, err := NewKeyPair(child.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("%w: derived key at %s: %v", ErrKeyDerivationFailure, path, err)
	}
	return kp, nil
}
