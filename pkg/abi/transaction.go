package abi

import (
	"fmt"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// RawMessage is one message of a raw transaction view. Src is nil for an
// externally-originated inbound message; Dst is nil for an
// externally-destined outbound message.
type RawMessage struct {
	Body *cell.Cell
	Src  *address.Address
	Dst  *address.Address
}

// RawTransaction is the minimal view the interpreter needs: the inbound
// message body plus the ordered outbound message bodies.
type RawTransaction struct {
	InMessage   RawMessage
	OutMessages []RawMessage
}

// MethodFilter restricts method guessing to explicit candidates. The zero
// value matches any declared function.
type MethodFilter struct {
	names []string
}

// AnyMethod matches every declared function or event.
func AnyMethod() MethodFilter { return MethodFilter{} }

// MethodNamed restricts matching to the given names.
func MethodNamed(names ...string) MethodFilter { return MethodFilter{names: names} }

// DecodedInput is a matched method invocation with its decoded arguments.
type DecodedInput struct {
	Method string
	Input  map[string]any
}

// DecodedOutput is a matched answer body with its decoded results.
type DecodedOutput struct {
	Method string
	Output map[string]any
}

// DecodedEvent is one decoded event occurrence.
type DecodedEvent struct {
	Event string
	Data  map[string]any
}

// DecodedTransaction is a fully correlated method invocation: the decoded
// input plus the outputs recovered from the transaction's outbound messages.
// Output is empty when the method declares no outputs.
type DecodedTransaction struct {
	Method string
	Input  map[string]any
	Output map[string]any
}

// candidateFunctions resolves the filter to declared functions, preserving
// declaration order. Named candidates must exist.
func (c *ContractABI) candidateFunctions(filter MethodFilter) ([]*Function, error) {
	if len(filter.names) == 0 {
		return c.functionList, nil
	}
	funcs := make([]*Function, 0, len(filter.names))
	for _, name := range filter.names {
		f, err := c.Function(name)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, f)
	}
	return funcs, nil
}

// GuessMethodByInput finds the declared function matching an inbound body.
// Candidates are matched by input selector; colliding selectors are resolved
// by attempting a full decode in declaration order and accepting the first
// body-consuming success. A nil result is the valid no-match outcome.
func (c *ContractABI) GuessMethodByInput(body *cell.Slice, filter MethodFilter, internal bool) (*Function, error) {
	candidates, err := c.candidateFunctions(filter)
	if err != nil {
		return nil, err
	}

	id, err := readInputID(body, c.headers, internal)
	if err != nil {
		// A body too short to carry a selector matches nothing.
		return nil, nil
	}

	for _, f := range candidates {
		if f.InputID != id {
			continue
		}
		probe := body.Copy()
		if _, err := f.DecodeInput(probe, internal); err != nil {
			continue
		}
		if probe.BitsLeft() != 0 || probe.RefsNum() != 0 {
			continue
		}
		return f, nil
	}
	return nil, nil
}

// DecodeFunctionInput matches and decodes an inbound call body. A nil
// function result means no declared method matches.
func (c *ContractABI) DecodeFunctionInput(body *cell.Slice, filter MethodFilter, internal bool) (*DecodedInput, error) {
	f, err := c.GuessMethodByInput(body, filter, internal)
	if err != nil || f == nil {
		return nil, err
	}
	input, err := f.DecodeInput(body, internal)
	if err != nil {
		return nil, err
	}
	return &DecodedInput{Method: f.Name, Input: input}, nil
}

// DecodeFunctionOutput matches and decodes an answer body by output
// selector. A nil result means no declared method matches.
func (c *ContractABI) DecodeFunctionOutput(body *cell.Slice, filter MethodFilter) (*DecodedOutput, error) {
	candidates, err := c.candidateFunctions(filter)
	if err != nil {
		return nil, err
	}
	id, err := readBodyID(body)
	if err != nil {
		return nil, nil
	}
	for _, f := range candidates {
		if f.OutputID != id {
			continue
		}
		output, err := f.DecodeOutput(body)
		if err != nil {
			return nil, err
		}
		return &DecodedOutput{Method: f.Name, Output: output}, nil
	}
	return nil, nil
}

// DecodeEventData matches and decodes an event body by selector. A nil
// result means no declared event matches.
func (c *ContractABI) DecodeEventData(body *cell.Slice, filter MethodFilter) (*DecodedEvent, error) {
	id, err := readBodyID(body)
	if err != nil {
		return nil, nil
	}
	for _, e := range c.eventList {
		if e.ID != id {
			continue
		}
		if len(filter.names) > 0 && !filterHas(filter, e.Name) {
			continue
		}
		data, err := e.DecodeData(body)
		if err != nil {
			return nil, err
		}
		return &DecodedEvent{Event: e.Name, Data: data}, nil
	}
	return nil, nil
}

func filterHas(filter MethodFilter, name string) bool {
	for _, n := range filter.names {
		if n == name {
			return true
		}
	}
	return false
}

// TransactionDecoder interprets raw transaction views against one contract
// ABI. It is stateless beyond the immutable ABI and safe for concurrent use.
type TransactionDecoder struct {
	lggr     logger.SugaredLogger
	contract *ContractABI
}

func NewTransactionDecoder(lggr logger.Logger, contract *ContractABI) *TransactionDecoder {
	return &TransactionDecoder{
		lggr:     logger.Sugared(logger.Named(lggr, "TransactionDecoder")),
		contract: contract,
	}
}

// DecodeTransaction determines which declared method the transaction
// invoked, decodes its input, and correlates the externally-destined
// outbound bodies into the method's declared outputs. A nil result means no
// declared method matches the inbound body; a method with declared outputs
// but no decodable answer body is ErrOutputNotFound.
func (d *TransactionDecoder) DecodeTransaction(tx *RawTransaction, filter MethodFilter) (*DecodedTransaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: missing transaction", ErrInvalidTransaction)
	}
	if tx.InMessage.Body == nil {
		return nil, nil
	}

	internal := tx.InMessage.Src != nil
	body := tx.InMessage.Body.BeginParse()

	method, err := d.contract.GuessMethodByInput(body.Copy(), filter, internal)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, nil
	}

	input, err := method.DecodeInput(body, internal)
	if err != nil {
		return nil, err
	}

	output, err := d.correlateOutputs(tx, method)
	if err != nil {
		return nil, err
	}

	return &DecodedTransaction{Method: method.Name, Input: input, Output: output}, nil
}

// correlateOutputs scans externally-destined outbound bodies for the first
// one tagged with the method's output selector. Bodies that fail to decode
// are skipped: transactions legitimately carry bounce and diagnostic
// messages that do not match.
func (d *TransactionDecoder) correlateOutputs(tx *RawTransaction, method *Function) (map[string]any, error) {
	for i, msg := range tx.OutMessages {
		if msg.Dst != nil {
			continue
		}
		if msg.Body == nil {
			return nil, fmt.Errorf("%w: outbound message %d has no body", ErrInvalidTransaction, i)
		}
		output, err := method.DecodeOutput(msg.Body.BeginParse())
		if err != nil {
			d.lggr.Debugw("skipping non-matching outbound body", "method", method.Name, "index", i, "err", err)
			continue
		}
		return output, nil
	}
	if len(method.Outputs) != 0 {
		return nil, fmt.Errorf("%w: method %q declares %d outputs", ErrOutputNotFound, method.Name, len(method.Outputs))
	}
	return map[string]any{}, nil
}

// DecodeTransactionEvents scans every outbound body for declared event
// selectors and decodes the matches, in outbound order. Per-body failures
// are isolated: one malformed body never aborts extraction of the others.
func (d *TransactionDecoder) DecodeTransactionEvents(tx *RawTransaction) ([]DecodedEvent, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: missing transaction", ErrInvalidTransaction)
	}
	var events []DecodedEvent
	for i, msg := range tx.OutMessages {
		if msg.Body == nil {
			continue
		}
		body := msg.Body.BeginParse()
		id, err := readBodyID(body)
		if err != nil {
			continue
		}
		for _, e := range d.contract.EventsByID(id) {
			data, err := e.DecodeData(body.Copy())
			if err != nil {
				d.lggr.Warnw("failed to decode event body, skipping", "event", e.Name, "index", i, "err", err)
				continue
			}
			events = append(events, DecodedEvent{Event: e.Name, Data: data})
			break
		}
	}
	return events, nil
}
