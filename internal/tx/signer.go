package tx

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/olehkaliuzhnyi/ethwallet/internal/wallet"
)

// compactSigMagic is the header offset of a compact signature for an
// uncompressed public key: header = 27 + recovery id.
const compactSigMagic = 27

// SignedTransaction is an immutable signed transaction ready for broadcast.
type SignedTransaction struct {
	Tx   Transaction
	V    *big.Int
	R    *big.Int
	S    *big.Int
	Raw  []byte
	Hash [32]byte
}

// Type returns the envelope type.
func (s *SignedTransaction) Type() TxType {
	return s.Tx.Type()
}

// RawHex is the 0x-prefixed wire encoding passed to eth_sendRawTransaction.
func (s *SignedTransaction) RawHex() string {
	return "0x" + hex.EncodeToString(s.Raw)
}

// HashHex is the 0x-prefixed transaction hash, keccak(raw).
func (s *SignedTransaction) HashHex() string {
	return "0x" + hex.EncodeToString(s.Hash[:])
}

// RecoveryID extracts the secp256k1 recovery id (0 or 1) from V.
func (s *SignedTransaction) RecoveryID() (byte, error) {
	return recoveryID(s.Tx, s.V)
}

// Sender recovers the signing address from the signature.
func (s *SignedTransaction) Sender() (wallet.Address, error) {
	recID, err := s.RecoveryID()
	if err != nil {
		return wallet.Address{}, err
	}
	hash := wallet.Keccak256Hash(s.Tx.unsigned())
	pub, err := recoverPublicKey(hash, recID, s.R, s.S)
	if err != nil {
		return wallet.Address{}, err
	}
	return wallet.PubKeyToAddress(pub.SerializeUncompressed())
}

// Sign produces a deterministic (RFC 6979), low-S secp256k1 signature over the
// prepared hash and serializes the signed transaction.
//
// Legacy v = recId + 2*chainId + 35. Typed v = recId.
func Sign(p *PreparedTransaction, privateKey []byte) (*SignedTransaction, error) {
	if p == nil || p.Tx == nil {
		return nil, fmt.Errorf("%w: nothing to sign", ErrSigningFailure)
	}
	if err := wallet.ValidatePrivateKey(privateKey); err != nil {
		return nil, err
	}
	if err := checkAmounts(p.Tx); err != nil {
		return nil, err
	}
	if wallet.Keccak256Hash(p.Tx.unsigned()) != p.MessageHash {
		return nil, fmt.Errorf("%w: message hash does not match transaction", ErrSigningFailure)
	}

	priv, pub := btcec.PrivKeyFromBytes(privateKey)
	compact, err := ecdsa.SignCompact(priv, p.MessageHash[:], false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailure, err)
	}
	if len(compact) != 65 {
		return nil, fmt.Errorf("%w: compact signature is %d bytes", ErrSigningFailure, len(compact))
	}

	recID := compact[0] - compactSigMagic
	if recID > 1 {
		return nil, fmt.Errorf("%w: recovery id %d", ErrSigningFailure, recID)
	}
	rBytes, sBytes := compact[1:33], compact[33:65]
	if err := checkSignatureScalars(rBytes, sBytes); err != nil {
		return nil, err
	}

	r := new(big.Int).SetBytes(rBytes)
	s := new(big.Int).SetBytes(sBytes)

	recovered, err := recoverPublicKey(p.MessageHash, recID, r, s)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(recovered.SerializeCompressed(), pub.SerializeCompressed()) {
		return nil, fmt.Errorf("%w: recovered key does not match signer", ErrSigningFailure)
	}

	v := new(big.Int).SetUint64(uint64(recID))
	if p.Tx.Type() == TypeLegacy {
		// EIP-155
		chainID := p.Tx.Common().ChainID
		v.Add(v, new(big.Int).Lsh(chainID, 1))
		v.Add(v, big.NewInt(35))
	}

	raw := p.Tx.signed(v, r, s)
	return &SignedTransaction{
		Tx:   p.Tx,
		V:    v,
		R:    r,
		S:    s,
		Raw:  raw,
		Hash: wallet.Keccak256Hash(raw),
	}, nil
}

// SignRequest normalizes, prepares and signs in one step.
func SignRequest(req Request, privateKey []byte) (*SignedTransaction, error) {
	p, err := PrepareRequest(req)
	if err != nil {
		return nil, err
	}
	return Sign(p, privateKey)
}

// checkSignatureScalars enforces 0 < r < n and 0 < s <= n/2.
func checkSignatureScalars(r, s []byte) error {
	var rs, ss secp256k1.ModNScalar
	if overflow := rs.SetByteSlice(r); overflow || rs.IsZero() {
		return fmt.Errorf("%w: r out of range", ErrSigningFailure)
	}
	if overflow := ss.SetByteSlice(s); overflow || ss.IsZero() {
		return fmt.Errorf("%w: s out of range", ErrSigningFailure)
	}
	if ss.IsOverHalfOrder() {
		return fmt.Errorf("%w: s is not low-S normalized", ErrSigningFailure)
	}
	return nil
}

func recoveryID(tx Transaction, v *big.Int) (byte, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing v", ErrMalformedTransaction)
	}
	id := new(big.Int).Set(v)
	if tx.Type() == TypeLegacy {
		offset := new(big.Int).Lsh(tx.Common().ChainID, 1)
		offset.Add(offset, big.NewInt(35))
		id.Sub(id, offset)
	}
	if !id.IsUint64() || id.Uint64() > 1 {
		return 0, fmt.Errorf("%w: v %s does not encode a recovery id", ErrMalformedTransaction, v)
	}
	return byte(id.Uint64()), nil
}

func recoverPublicKey(hash [32]byte, recID byte, r, s *big.Int) (*btcec.PublicKey, error) {
	if r.BitLen() > 256 || s.BitLen() > 256 {
		return nil, fmt.Errorf("%w: signature scalar too large", ErrSigningFailure)
	}
	sig := make([]byte, 65)
	sig[0] = compactSigMagic + recID
	r.FillBytes(sig[1:33])
	s.FillBytes(sig[33:65])

	pub, _, err := ecdsa.RecoverCompact(sig, hash[:])
	if err != nil {
		return nil, fmt.Errorf("%w: recover public key: %v", ErrSigningFailure, err)
	}
	return pub, nil
}
