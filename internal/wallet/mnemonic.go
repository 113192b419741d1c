package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// Supported mnemonic strengths in bits of entropy.
const (
	Strength12Words = 128
	Strength24Words = 256
)

// GenerateMnemonic returns a fresh English BIP-39 phrase. Strength must be 128
// (12 words) or 256 (24 words).
func GenerateMnemonic(strength int) (string, error) {
	if strength != Strength12Words && strength != Strength24Words {
		return "", fmt.Errorf("%w: unsupported strength %d", ErrInvalidMnemonic, strength)
	}
	entropy, err := bip39.NewEntropy(strength)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("encode mnemonic: %w", err)
	}
	return mnemonic, nil
}

// NormalizeMnemonic collapses runs of whitespace to single spaces.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}

// ValidateMnemonic checks the word count (12 or 24), that every word is in the
// English list and the embedded checksum.
func ValidateMnemonic(mnemonic string) error {
	words := strings.Fields(mnemonic)
	if n := len(words); n != 12 && n != 24 {
		return fmt.Errorf("%w: expected 12 or 24 words, got %d", ErrInvalidMnemonic, n)
	}
	if !bip39.IsMnemonicValid(strings.Join(words, " ")) {
		return fmt.Errorf("%w: unknown word or bad checksum", ErrInvalidMnemonic)
	}
	return nil
}

// SeedFromMnemonic validates the phrase and stretches it into the 64-byte
// BIP-39 seed. An empty passphrase is allowed.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonic(mnemonic), passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return seed, nil
}
