package bindings

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"

	"github.com/smartcontractkit/chainlink-tvm/pkg/abi"
)

func mustType(t *testing.T, s string, components ...abi.ParamDescriptor) abi.Type {
	t.Helper()
	typ, err := abi.ParseType(s, components)
	require.NoError(t, err)
	return typ
}

func TestParseTokenValueIntegers(t *testing.T) {
	typ := mustType(t, "uint64")

	v, err := parseTokenValue("123", typ)
	require.NoError(t, err)
	require.Equal(t, 0, v.(*big.Int).Cmp(big.NewInt(123)))

	v, err = parseTokenValue("0x7b", typ)
	require.NoError(t, err)
	require.Equal(t, 0, v.(*big.Int).Cmp(big.NewInt(123)))

	v, err = parseTokenValue(float64(123), typ)
	require.NoError(t, err)
	require.Equal(t, 0, v.(*big.Int).Cmp(big.NewInt(123)))

	_, err = parseTokenValue("not a number", typ)
	require.ErrorIs(t, err, abi.ErrInvalidEncoding)

	_, err = parseTokenValue(true, typ)
	require.ErrorIs(t, err, abi.ErrTypeMismatch)
}

func TestParseTokenValueAddress(t *testing.T) {
	typ := mustType(t, "address")

	v, err := parseTokenValue("EQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG", typ)
	require.NoError(t, err)
	require.IsType(t, &address.Address{}, v)

	_, err = parseTokenValue("bogus", typ)
	require.ErrorIs(t, err, ErrAddressParse)
}

func TestParseTokenValueMapSortsIntKeys(t *testing.T) {
	typ := mustType(t, "map(uint32,bool)")

	v, err := parseTokenValue(map[string]any{
		"10": true,
		"2":  false,
		"1":  true,
	}, typ)
	require.NoError(t, err)

	entries := v.([]abi.MapEntry)
	require.Len(t, entries, 3)
	// Numeric order, not lexical: 1, 2, 10.
	require.Equal(t, 0, entries[0].Key.(*big.Int).Cmp(big.NewInt(1)))
	require.Equal(t, 0, entries[1].Key.(*big.Int).Cmp(big.NewInt(2)))
	require.Equal(t, 0, entries[2].Key.(*big.Int).Cmp(big.NewInt(10)))
}

func TestParseTokenValueOptional(t *testing.T) {
	typ := mustType(t, "optional(uint32)")

	v, err := parseTokenValue(nil, typ)
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = parseTokenValue("5", typ)
	require.NoError(t, err)
	require.Equal(t, 0, v.(*big.Int).Cmp(big.NewInt(5)))
}

func TestParseTokensCountMismatch(t *testing.T) {
	params := []abi.Param{{Name: "a", Type: mustType(t, "bool")}}

	_, err := parseTokens(params, map[string]any{})
	require.ErrorIs(t, err, abi.ErrArgumentCountMismatch)

	_, err = parseTokens(params, map[string]any{"b": true})
	require.ErrorIs(t, err, abi.ErrArgumentCountMismatch)
}

func TestTokenToJSONMapKeys(t *testing.T) {
	entries := []abi.MapEntry{
		{Key: big.NewInt(7), Value: big.NewInt(70)},
		{Key: big.NewInt(8), Value: big.NewInt(80)},
	}
	out := tokenToJSON(entries).(map[string]any)
	require.Equal(t, "70", out["7"])
	require.Equal(t, "80", out["8"])
}

func TestTokenToJSONNested(t *testing.T) {
	v := tokenToJSON([]any{big.NewInt(1), nil, []byte{0xFF}})
	list := v.([]any)
	require.Equal(t, "1", list[0])
	require.Nil(t, list[1])
	require.Equal(t, "/w==", list[2])
}
