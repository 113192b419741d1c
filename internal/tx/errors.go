package tx

import (
	"errors"
	"fmt"

	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
)

// Transaction codec and signing errors.
var (
	ErrMissingTransactionField    = errors.New("missing transaction field")
	ErrInvalidTransactionField    = errors.New("invalid transaction field")
	ErrUnsupportedTransactionType = errors.New("unsupported transaction type")
	ErrSigningFailure             = errors.New("signing failure")
	ErrMalformedTransaction       = errors.New("malformed transaction")

	// ErrInvalidPrivateKey is the wallet error, re-exported for callers of Sign.
	ErrInvalidPrivateKey = wallet.ErrInvalidPrivateKey
)

// FieldError names the request field that failed validation. It matches
// ErrMissingTransactionField or ErrInvalidTransactionField via errors.Is.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func missingField(field string) *FieldError {
	return &FieldError{Field: field, Err: ErrMissingTransactionField}
}

func invalidField(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason, Err: ErrInvalidTransactionField}
}

func (e *FieldError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Field)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
