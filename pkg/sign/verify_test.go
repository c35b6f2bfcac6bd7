package sign

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-tvm/testutils"
)

func signedFixture(t *testing.T) (pubHex string, hash, sig []byte) {
	t.Helper()
	ks := testutils.NewTestKeystore(t)
	pubHex = ks.Generate()

	digest := sha256.Sum256([]byte("payload"))
	hash = digest[:]

	sig, err := ks.Sign(pubHex, hash)
	require.NoError(t, err)
	return pubHex, hash, sig
}

func TestVerify(t *testing.T) {
	pubHex, hash, sig := signedFixture(t)

	ok, err := Verify(pubHex, hex.EncodeToString(hash), base64.StdEncoding.EncodeToString(sig))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyAlternateEncodings(t *testing.T) {
	pubHex, hash, sig := signedFixture(t)

	// Hash as base64, signature as hex: both fallbacks in one call.
	ok, err := Verify(pubHex, base64.StdEncoding.EncodeToString(hash), hex.EncodeToString(sig))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyWrongHashIsFalse(t *testing.T) {
	pubHex, _, sig := signedFixture(t)

	other := sha256.Sum256([]byte("other payload"))
	ok, err := Verify(pubHex, hex.EncodeToString(other[:]), base64.StdEncoding.EncodeToString(sig))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyLengthChecks(t *testing.T) {
	pubHex, hash, sig := signedFixture(t)

	_, err := Verify(pubHex, hex.EncodeToString(hash), base64.StdEncoding.EncodeToString(sig[:63]))
	require.ErrorIs(t, err, ErrInvalidLength)

	// A short signature in the fallback encoding is still a length error,
	// not an encoding error.
	_, err = Verify(pubHex, hex.EncodeToString(hash), hex.EncodeToString(sig[:63]))
	require.ErrorIs(t, err, ErrInvalidLength)

	_, err = Verify(pubHex, hex.EncodeToString(hash[:16]), base64.StdEncoding.EncodeToString(sig))
	require.ErrorIs(t, err, ErrInvalidLength)

	_, err = Verify(pubHex, base64.StdEncoding.EncodeToString(hash[:31]), base64.StdEncoding.EncodeToString(sig))
	require.ErrorIs(t, err, ErrInvalidLength)

	shortKey := hex.EncodeToString(make([]byte, ed25519.PublicKeySize-1))
	_, err = Verify(shortKey, hex.EncodeToString(hash), base64.StdEncoding.EncodeToString(sig))
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestVerifyEncodingErrors(t *testing.T) {
	pubHex, hash, sig := signedFixture(t)

	_, err := Verify("not-hex!", hex.EncodeToString(hash), base64.StdEncoding.EncodeToString(sig))
	require.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = Verify(pubHex, "!!neither-hex-nor-base64!!", base64.StdEncoding.EncodeToString(sig))
	require.ErrorIs(t, err, ErrInvalidEncoding)
}
