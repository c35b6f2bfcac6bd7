// Package message assembles unsigned external inbound messages and handles
// contract initial-state images.
package message

import (
	"errors"
	"fmt"
	"time"

	"github.com/raulk/clock"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/smartcontractkit/chainlink-tvm/pkg/abi"
)

var ErrInvalidStateInit = errors.New("invalid state init")

// UnsignedMessage is a ready-to-sign external inbound message: destination,
// optional initial state, the encoded call body and the computed expiration.
// Constructed once and immutable; Cell serializes it to the wire form.
type UnsignedMessage struct {
	DstAddr   *address.Address
	StateInit *tlb.StateInit
	Body      *cell.Cell
	ExpireAt  uint32
}

// Cell serializes the message envelope to its wire cell.
func (m *UnsignedMessage) Cell() (*cell.Cell, error) {
	c, err := tlb.ToCell(&tlb.ExternalMessageIn{
		DstAddr:   m.DstAddr,
		StateInit: m.StateInit,
		Body:      m.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %w", err)
	}
	return c, nil
}

// BuildUnsigned assembles an unsigned external call to the given method.
// The expiration is now+timeout truncated to protocol seconds; the time
// header carries wall-clock milliseconds and the pubkey header stays a
// placeholder until the caller signs. The clock is injectable so expiration
// is testable against a fixed reading.
func BuildUnsigned(clk clock.Clock, dst *address.Address, contract *abi.ContractABI, method string,
	stateInit *tlb.StateInit, args map[string]any, timeout time.Duration) (*UnsignedMessage, error) {

	f, err := contract.Function(method)
	if err != nil {
		return nil, err
	}

	nowMillis := uint64(clk.Now().UnixMilli())
	expireAt := uint32((nowMillis + uint64(timeout.Milliseconds())) / 1000)

	headers := abi.Headers{
		Time:      nowMillis,
		Expire:    expireAt,
		PublicKey: nil,
	}

	body, err := f.EncodeInput(headers, args, false, nil)
	if err != nil {
		return nil, err
	}

	return &UnsignedMessage{
		DstAddr:   dst,
		StateInit: stateInit,
		Body:      body,
		ExpireAt:  expireAt,
	}, nil
}
