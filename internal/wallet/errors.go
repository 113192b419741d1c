package wallet

import "errors"

// Key derivation errors. Callers match them with errors.Is; the wrapped
// message carries the detail.
var (
	ErrInvalidMnemonic       = errors.New("invalid mnemonic")
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	ErrInvalidPrivateKey     = errors.New("invalid private key")
	ErrKeyDerivationFailure  = errors.New("key derivation failure")
	ErrInvalidPublicKey      = errors.New("invalid public key")
	ErrInvalidAddress        = errors.New("invalid address")
)
