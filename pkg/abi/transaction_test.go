package abi

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"
)

// Two functions pinned to the same explicit selector but with different
// argument layouts: guessing must fall back to a full decode in declaration
// order.
const collidingABI = `{
	"ABI version": 2,
	"header": ["time", "expire"],
	"functions": [
		{
			"name": "wide",
			"id": "0x12345678",
			"inputs": [{"name": "v", "type": "uint64"}],
			"outputs": []
		},
		{
			"name": "narrow",
			"id": "0x12345678",
			"inputs": [{"name": "v", "type": "uint32"}],
			"outputs": []
		}
	]
}`

func internalAddr() *address.Address {
	return address.MustParseAddr("EQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG")
}

func TestGuessMethodByInput(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)
	inc, err := c.Function("increment")
	require.NoError(t, err)

	body, err := inc.EncodeInput(Headers{Time: 100, Expire: 200}, map[string]any{"by": big.NewInt(3)}, false, nil)
	require.NoError(t, err)

	f, err := c.GuessMethodByInput(body.BeginParse(), AnyMethod(), false)
	require.NoError(t, err)
	require.NotNil(t, f)
	require.Equal(t, "increment", f.Name)
}

func TestGuessMethodNoMatchIsNil(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)

	// A body tagged with a selector no declared function carries.
	stray := cell.BeginCell().
		MustStoreBoolBit(false). // unsigned slot
		MustStoreUInt(111, 64).  // time
		MustStoreUInt(222, 32).  // expire
		MustStoreBoolBit(false). // absent pubkey
		MustStoreUInt(0x0BADF00D, 32).
		EndCell()

	f, err := c.GuessMethodByInput(stray.BeginParse(), AnyMethod(), false)
	require.NoError(t, err)
	require.Nil(t, f)
}

func TestGuessMethodShortBodyIsNil(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)

	short := cell.BeginCell().MustStoreUInt(1, 8).EndCell()
	f, err := c.GuessMethodByInput(short.BeginParse(), AnyMethod(), true)
	require.NoError(t, err)
	require.Nil(t, f)
}

func TestGuessMethodFilterUnknownName(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)

	body := cell.BeginCell().MustStoreUInt(1, 32).EndCell()
	_, err = c.GuessMethodByInput(body.BeginParse(), MethodNamed("missing"), true)
	require.ErrorIs(t, err, ErrFunctionNotFound)
}

// Colliding selectors resolve by declaration order and full body consumption:
// a 32-bit argument body must not match the 64-bit candidate declared first.
func TestGuessMethodCollidingSelectors(t *testing.T) {
	c, err := ParseContract([]byte(collidingABI))
	require.NoError(t, err)

	wide, err := c.Function("wide")
	require.NoError(t, err)
	narrow, err := c.Function("narrow")
	require.NoError(t, err)
	require.Equal(t, wide.InputID, narrow.InputID)

	wideBody, err := wide.EncodeInput(Headers{}, map[string]any{"v": big.NewInt(1)}, true, nil)
	require.NoError(t, err)
	narrowBody, err := narrow.EncodeInput(Headers{}, map[string]any{"v": big.NewInt(1)}, true, nil)
	require.NoError(t, err)

	f, err := c.GuessMethodByInput(wideBody.BeginParse(), AnyMethod(), true)
	require.NoError(t, err)
	require.NotNil(t, f)
	require.Equal(t, "wide", f.Name)

	f, err = c.GuessMethodByInput(narrowBody.BeginParse(), AnyMethod(), true)
	require.NoError(t, err)
	require.NotNil(t, f)
	require.Equal(t, "narrow", f.Name)
}

func TestDecodeFunctionInput(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)
	inc, err := c.Function("increment")
	require.NoError(t, err)

	body, err := inc.EncodeInput(Headers{}, map[string]any{"by": big.NewInt(8)}, true, nil)
	require.NoError(t, err)

	decoded, err := c.DecodeFunctionInput(body.BeginParse(), AnyMethod(), true)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Equal(t, "increment", decoded.Method)
	require.Equal(t, 0, decoded.Input["by"].(*big.Int).Cmp(big.NewInt(8)))

	// Restricting to another method is a clean no-match.
	decoded, err = c.DecodeFunctionInput(body.BeginParse(), MethodNamed("reset"), true)
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecodeFunctionOutput(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)
	inc, err := c.Function("increment")
	require.NoError(t, err)

	body, err := inc.EncodeOutput(map[string]any{"value": big.NewInt(21)})
	require.NoError(t, err)

	decoded, err := c.DecodeFunctionOutput(body.BeginParse(), AnyMethod())
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Equal(t, "increment", decoded.Method)
	require.Equal(t, 0, decoded.Output["value"].(*big.Int).Cmp(big.NewInt(21)))
}

func TestDecodeEventData(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)
	e, err := c.Event("Incremented")
	require.NoError(t, err)

	body, err := e.EncodeData(map[string]any{"value": big.NewInt(5)})
	require.NoError(t, err)

	decoded, err := c.DecodeEventData(body.BeginParse(), AnyMethod())
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Equal(t, "Incremented", decoded.Event)

	decoded, err = c.DecodeEventData(body.BeginParse(), MethodNamed("Other"))
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecodeTransaction(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)
	inc, err := c.Function("increment")
	require.NoError(t, err)

	inBody, err := inc.EncodeInput(Headers{Time: 1, Expire: 2}, map[string]any{"by": big.NewInt(4)}, false, nil)
	require.NoError(t, err)
	outBody, err := inc.EncodeOutput(map[string]any{"value": big.NewInt(14)})
	require.NoError(t, err)

	// A non-matching diagnostic body precedes the answer; it must be skipped.
	noise := cell.BeginCell().MustStoreUInt(0xFFFFFFFF, 32).EndCell()

	tx := &RawTransaction{
		InMessage: RawMessage{Body: inBody},
		OutMessages: []RawMessage{
			{Body: noise},
			{Body: outBody},
		},
	}

	d := NewTransactionDecoder(logger.Test(t), c)
	decoded, err := d.DecodeTransaction(tx, AnyMethod())
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Equal(t, "increment", decoded.Method)
	require.Equal(t, 0, decoded.Input["by"].(*big.Int).Cmp(big.NewInt(4)))
	require.Equal(t, 0, decoded.Output["value"].(*big.Int).Cmp(big.NewInt(14)))
}

func TestDecodeTransactionInternal(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)
	reset, err := c.Function("reset")
	require.NoError(t, err)

	inBody, err := reset.EncodeInput(Headers{}, map[string]any{}, true, nil)
	require.NoError(t, err)

	tx := &RawTransaction{
		InMessage: RawMessage{Body: inBody, Src: internalAddr()},
	}

	d := NewTransactionDecoder(logger.Test(t), c)
	decoded, err := d.DecodeTransaction(tx, AnyMethod())
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Equal(t, "reset", decoded.Method)
	require.Empty(t, decoded.Output)
}

func TestDecodeTransactionNoMatch(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)

	stray := cell.BeginCell().MustStoreUInt(0x0BADF00D, 32).EndCell()
	tx := &RawTransaction{InMessage: RawMessage{Body: stray, Src: internalAddr()}}

	d := NewTransactionDecoder(logger.Test(t), c)
	decoded, err := d.DecodeTransaction(tx, AnyMethod())
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecodeTransactionMissingInBody(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)

	d := NewTransactionDecoder(logger.Test(t), c)

	decoded, err := d.DecodeTransaction(&RawTransaction{}, AnyMethod())
	require.NoError(t, err)
	require.Nil(t, decoded)

	_, err = d.DecodeTransaction(nil, AnyMethod())
	require.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestDecodeTransactionOutputNotFound(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)
	inc, err := c.Function("increment")
	require.NoError(t, err)

	inBody, err := inc.EncodeInput(Headers{}, map[string]any{"by": big.NewInt(1)}, true, nil)
	require.NoError(t, err)

	// increment declares an output, but no outbound body answers the call.
	tx := &RawTransaction{InMessage: RawMessage{Body: inBody, Src: internalAddr()}}

	d := NewTransactionDecoder(logger.Test(t), c)
	_, err = d.DecodeTransaction(tx, AnyMethod())
	require.ErrorIs(t, err, ErrOutputNotFound)
}

func TestDecodeTransactionSkipsInternalOutbound(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)
	inc, err := c.Function("increment")
	require.NoError(t, err)

	inBody, err := inc.EncodeInput(Headers{}, map[string]any{"by": big.NewInt(1)}, true, nil)
	require.NoError(t, err)
	outBody, err := inc.EncodeOutput(map[string]any{"value": big.NewInt(2)})
	require.NoError(t, err)

	// The only matching body targets another contract; answers are read from
	// externally-destined messages only.
	tx := &RawTransaction{
		InMessage:   RawMessage{Body: inBody, Src: internalAddr()},
		OutMessages: []RawMessage{{Body: outBody, Dst: internalAddr()}},
	}

	d := NewTransactionDecoder(logger.Test(t), c)
	_, err = d.DecodeTransaction(tx, AnyMethod())
	require.ErrorIs(t, err, ErrOutputNotFound)
}

func TestDecodeTransactionEvents(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)
	e, err := c.Event("Incremented")
	require.NoError(t, err)

	first, err := e.EncodeData(map[string]any{"value": big.NewInt(1)})
	require.NoError(t, err)
	second, err := e.EncodeData(map[string]any{"value": big.NewInt(2)})
	require.NoError(t, err)

	// A truncated body carrying the event selector sits between two good
	// ones; it must be skipped without aborting extraction.
	corrupt := cell.BeginCell().
		MustStoreUInt(uint64(e.ID), 32).
		MustStoreUInt(0, 8).
		EndCell()

	tx := &RawTransaction{
		OutMessages: []RawMessage{
			{Body: first},
			{Body: corrupt},
			{Body: second, Dst: internalAddr()},
			{Body: nil},
		},
	}

	d := NewTransactionDecoder(logger.Test(t), c)
	events, err := d.DecodeTransactionEvents(tx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "Incremented", events[0].Event)
	require.Equal(t, 0, events[0].Data["value"].(*big.Int).Cmp(big.NewInt(1)))
	require.Equal(t, 0, events[1].Data["value"].(*big.Int).Cmp(big.NewInt(2)))
}

func TestDecodeTransactionEventsNone(t *testing.T) {
	c, err := ParseContract([]byte(counterABI))
	require.NoError(t, err)

	d := NewTransactionDecoder(logger.Test(t), c)
	events, err := d.DecodeTransactionEvents(&RawTransaction{})
	require.NoError(t, err)
	require.Empty(t, events)

	_, err = d.DecodeTransactionEvents(nil)
	require.ErrorIs(t, err, ErrInvalidTransaction)
}
