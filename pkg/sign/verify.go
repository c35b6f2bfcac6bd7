// Package sign adapts the ed25519 verifier to the flexible encodings used at
// the host boundary: hashes and signatures arrive as hex or base64.
package sign

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrInvalidLength   = errors.New("invalid length")
	ErrInvalidEncoding = errors.New("invalid encoding")
)

// Verify checks an ed25519 signature over a 32-byte data hash. The hash is
// decoded as hex with a base64 fallback, the signature as base64 with a hex
// fallback. A failed check is a normal false result; only malformed input is
// an error.
func Verify(publicKeyHex, dataHash, signature string) (bool, error) {
	pk, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, fmt.Errorf("%w: public key: %v", ErrInvalidEncoding, err)
	}
	if len(pk) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidLength, ed25519.PublicKeySize, len(pk))
	}

	hash, err := decodeFlexible(dataHash, 32, hex.DecodeString, base64decode)
	if err != nil {
		return false, fmt.Errorf("%w: data hash: %v", ErrInvalidEncoding, err)
	}
	if len(hash) != 32 {
		return false, fmt.Errorf("%w: data hash must be 32 bytes, got %d", ErrInvalidLength, len(hash))
	}

	sig, err := decodeFlexible(signature, ed25519.SignatureSize, base64decode, hex.DecodeString)
	if err != nil {
		return false, fmt.Errorf("%w: signature: %v", ErrInvalidEncoding, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidLength, ed25519.SignatureSize, len(sig))
	}

	return ed25519.Verify(ed25519.PublicKey(pk), hash, sig), nil
}

// decodeFlexible tries the primary decoding and falls back to the secondary.
// A hex string can be a valid base64 payload of the wrong size, so a decode
// of the expected length wins outright. When neither fits, any successful
// decode is still returned so the caller reports the length, not the
// encoding; only input neither decoder accepts is an encoding error.
func decodeFlexible(s string, size int, primary, secondary func(string) ([]byte, error)) ([]byte, error) {
	data, err := primary(s)
	if err == nil && len(data) == size {
		return data, nil
	}
	data2, err2 := secondary(s)
	if err2 == nil && len(data2) == size {
		return data2, nil
	}
	if err == nil {
		return data, nil
	}
	if err2 == nil {
		return data2, nil
	}
	return nil, err
}

func base64decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
