package message

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/smartcontractkit/chainlink-tvm/pkg/abi"
)

const deployABI = `{
	"ABI version": 2,
	"functions": [],
	"data": [
		{"name": "seed", "type": "uint64", "key": 1}
	]
}`

func testCode() *cell.Cell {
	return cell.BeginCell().MustStoreUInt(0xC0DE, 16).EndCell()
}

// emptyInitData builds a data cell holding an empty init dictionary, the
// shape a compiler emits before deploy-time values are set.
func emptyInitData(t *testing.T) *cell.Cell {
	t.Helper()
	b := cell.BeginCell()
	require.NoError(t, b.StoreDict(cell.NewDict(initDataKeyBits)))
	return b.EndCell()
}

func stateCell(t *testing.T, si *tlb.StateInit) *cell.Cell {
	t.Helper()
	c, err := tlb.ToCell(si)
	require.NoError(t, err)
	return c
}

func TestParseStateRejectsGarbage(t *testing.T) {
	garbage := cell.BeginCell().MustStoreUInt(0xFFFFFFFF, 32).EndCell()
	_, err := ParseState(garbage)
	require.ErrorIs(t, err, ErrInvalidStateInit)
}

func TestCodeToStateSplitState(t *testing.T) {
	code := testCode()
	c := stateCell(t, CodeToState(code))

	gotCode, gotData, err := SplitState(c)
	require.NoError(t, err)
	require.NotNil(t, gotCode)
	require.Nil(t, gotData)
	require.Equal(t, code.Hash(), gotCode.Hash())
}

func TestStateToCellRoundTrip(t *testing.T) {
	si := &tlb.StateInit{Code: testCode(), Data: emptyInitData(t)}
	c, err := StateToCell(si)
	require.NoError(t, err)

	parsed, err := ParseState(c)
	require.NoError(t, err)
	require.Equal(t, si.Code.Hash(), parsed.Code.Hash())
	require.Equal(t, si.Data.Hash(), parsed.Data.Hash())
}

func TestExpectedAddressDeterministic(t *testing.T) {
	contract, err := abi.ParseContract([]byte(deployABI))
	require.NoError(t, err)

	state := stateCell(t, &tlb.StateInit{Code: testCode(), Data: emptyInitData(t)})
	pk := bytes.Repeat([]byte{0x11}, 32)
	initData := map[string]any{"seed": big.NewInt(42)}

	a1, err := ExpectedAddress(state, contract, 0, pk, initData)
	require.NoError(t, err)
	a2, err := ExpectedAddress(state, contract, 0, pk, initData)
	require.NoError(t, err)
	require.Equal(t, a1.String(), a2.String())
}

func TestExpectedAddressSensitivity(t *testing.T) {
	contract, err := abi.ParseContract([]byte(deployABI))
	require.NoError(t, err)

	state := stateCell(t, &tlb.StateInit{Code: testCode(), Data: emptyInitData(t)})
	pk1 := bytes.Repeat([]byte{0x11}, 32)
	pk2 := bytes.Repeat([]byte{0x22}, 32)

	a1, err := ExpectedAddress(state, contract, 0, pk1, nil)
	require.NoError(t, err)
	a2, err := ExpectedAddress(state, contract, 0, pk2, nil)
	require.NoError(t, err)
	require.NotEqual(t, a1.String(), a2.String())

	// Different init data also moves the address.
	a3, err := ExpectedAddress(state, contract, 0, pk1, map[string]any{"seed": big.NewInt(1)})
	require.NoError(t, err)
	a4, err := ExpectedAddress(state, contract, 0, pk1, map[string]any{"seed": big.NewInt(2)})
	require.NoError(t, err)
	require.NotEqual(t, a3.String(), a4.String())
}

func TestExpectedAddressRejectsShortKey(t *testing.T) {
	contract, err := abi.ParseContract([]byte(deployABI))
	require.NoError(t, err)

	state := stateCell(t, &tlb.StateInit{Code: testCode(), Data: emptyInitData(t)})
	_, err = ExpectedAddress(state, contract, 0, []byte{1, 2, 3}, nil)
	require.ErrorIs(t, err, ErrInvalidStateInit)
}

func TestExtractPublicKey(t *testing.T) {
	pk := bytes.Repeat([]byte{0xAB}, 32)
	b := cell.BeginCell()
	require.NoError(t, b.StoreSlice(pk, 256))
	require.NoError(t, b.StoreUInt(0, 64)) // trailing state data

	got, err := ExtractPublicKey(b.EndCell())
	require.NoError(t, err)
	require.Equal(t, pk, got)

	short := cell.BeginCell().MustStoreUInt(1, 8).EndCell()
	_, err = ExtractPublicKey(short)
	require.ErrorIs(t, err, ErrInvalidStateInit)
}
