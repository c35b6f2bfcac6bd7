// Package bindings is the string boundary of the codec: cells travel as
// base64 BOCs, keys and hashes as hex, integers as decimal strings. Hosts
// embedding the library talk to this surface; the typed core lives in
// pkg/abi and pkg/message.
package bindings

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/raulk/clock"
	"github.com/smartcontractkit/chainlink-common/pkg/logger"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/smartcontractkit/chainlink-tvm/pkg/abi"
	"github.com/smartcontractkit/chainlink-tvm/pkg/message"
	"github.com/smartcontractkit/chainlink-tvm/pkg/sign"
	"github.com/smartcontractkit/chainlink-tvm/pkg/tvm"
)

var (
	ErrAddressParse = errors.New("failed to parse address")
	ErrNoExecutor   = errors.New("no executor configured")
)

// runLocalTimeout bounds the synthetic expire header used for local dry runs.
const runLocalTimeout = 60 * time.Second

// Bindings bundles the codec operations behind one handle. The clock is
// injectable for deterministic expirations in tests; the executor is optional
// and only required for RunLocal.
type Bindings struct {
	lggr logger.Logger
	clk  clock.Clock
	exec tvm.Executor
}

type Option func(*Bindings)

func WithClock(clk clock.Clock) Option {
	return func(b *Bindings) { b.clk = clk }
}

func WithExecutor(exec tvm.Executor) Option {
	return func(b *Bindings) { b.exec = exec }
}

func New(lggr logger.Logger, opts ...Option) *Bindings {
	b := &Bindings{
		lggr: logger.Named(lggr, "Bindings"),
		clk:  clock.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// MessageRecord is the boundary form of one transaction message. Body is a
// base64 BOC; Src and Dst are address strings, empty when the message crosses
// the external boundary on that side.
type MessageRecord struct {
	Body string `json:"body,omitempty"`
	Src  string `json:"src,omitempty"`
	Dst  string `json:"dst,omitempty"`
}

// TransactionRecord is the boundary form of a raw transaction view.
type TransactionRecord struct {
	InMessage   MessageRecord   `json:"inMessage"`
	OutMessages []MessageRecord `json:"outMessages"`
}

// DecodedInput is a matched method invocation in boundary form.
type DecodedInput struct {
	Method string         `json:"method"`
	Input  map[string]any `json:"input"`
}

// DecodedOutput is a matched answer body in boundary form.
type DecodedOutput struct {
	Method string         `json:"method"`
	Output map[string]any `json:"output"`
}

// DecodedEvent is one decoded event occurrence in boundary form.
type DecodedEvent struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// DecodedTransaction is a correlated invocation in boundary form.
type DecodedTransaction struct {
	Method string         `json:"method"`
	Input  map[string]any `json:"input"`
	Output map[string]any `json:"output"`
}

// StateParts is a split initial-state image; absent parts are empty.
type StateParts struct {
	Code string `json:"code,omitempty"`
	Data string `json:"data,omitempty"`
}

// UnsignedMessageRecord is a serialized ready-to-sign external message with
// its computed expiration.
type UnsignedMessageRecord struct {
	Message  string `json:"message"`
	ExpireAt uint32 `json:"expireAt"`
}

// ExecutionOutput is the result of a local dry run: the compute exit code and
// the decoded answer, when the run produced one.
type ExecutionOutput struct {
	Code   int32          `json:"code"`
	Output map[string]any `json:"output,omitempty"`
}

// CheckAddress reports whether the string parses as a contract address in
// either the raw or the friendly form.
func (b *Bindings) CheckAddress(addr string) bool {
	_, err := parseAnyAddress(addr)
	return err == nil
}

// PackIntoCell encodes named values against a parameter list into a single
// serialized cell.
func (b *Bindings) PackIntoCell(params []abi.ParamDescriptor, vals map[string]any) (string, error) {
	parsed, err := abi.ParseParams(params)
	if err != nil {
		return "", err
	}
	tokens, err := parseTokens(parsed, vals)
	if err != nil {
		return "", err
	}
	c, err := abi.PackIntoCell(parsed, tokens)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(c.ToBOC()), nil
}

// UnpackFromCell decodes a serialized cell against a parameter list. Unless
// allowPartial is set, the cell must be fully consumed.
func (b *Bindings) UnpackFromCell(params []abi.ParamDescriptor, boc string, allowPartial bool) (map[string]any, error) {
	parsed, err := abi.ParseParams(params)
	if err != nil {
		return nil, err
	}
	c, err := parseCellBase64(boc)
	if err != nil {
		return nil, err
	}
	tokens, err := abi.UnpackFromCell(parsed, c.BeginParse(), allowPartial)
	if err != nil {
		return nil, err
	}
	return tokensToJSON(tokens), nil
}

// ExtractPublicKey reads the contract public key from a deployed account's
// data cell, hex encoded.
func (b *Bindings) ExtractPublicKey(dataBOC string) (string, error) {
	c, err := parseCellBase64(dataBOC)
	if err != nil {
		return "", err
	}
	pk, err := message.ExtractPublicKey(c)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(pk), nil
}

// CodeToState wraps bare contract code into an initial-state image.
func (b *Bindings) CodeToState(codeBOC string) (string, error) {
	code, err := parseCellBase64(codeBOC)
	if err != nil {
		return "", err
	}
	si, err := message.StateToCell(message.CodeToState(code))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(si.ToBOC()), nil
}

// SplitState decomposes an initial-state image into code and data parts.
func (b *Bindings) SplitState(stateBOC string) (*StateParts, error) {
	c, err := parseCellBase64(stateBOC)
	if err != nil {
		return nil, err
	}
	code, data, err := message.SplitState(c)
	if err != nil {
		return nil, err
	}
	parts := &StateParts{}
	if code != nil {
		parts.Code = base64.StdEncoding.EncodeToString(code.ToBOC())
	}
	if data != nil {
		parts.Data = base64.StdEncoding.EncodeToString(data.ToBOC())
	}
	return parts, nil
}

// GetExpectedAddress computes the deterministic deploy address from an
// initial-state image, the declared init data and an optional hex public key.
func (b *Bindings) GetExpectedAddress(stateBOC string, abiJSON []byte, workchain int8,
	publicKeyHex string, initData map[string]any) (string, error) {

	contract, err := abi.ParseContract(abiJSON)
	if err != nil {
		return "", err
	}
	c, err := parseCellBase64(stateBOC)
	if err != nil {
		return "", err
	}

	var pk []byte
	if publicKeyHex != "" {
		pk, err = hex.DecodeString(publicKeyHex)
		if err != nil {
			return "", fmt.Errorf("%w: public key must be hex encoded: %v", abi.ErrInvalidEncoding, err)
		}
	}

	values, err := parseDataValues(contract, initData)
	if err != nil {
		return "", err
	}

	addr, err := message.ExpectedAddress(c, contract, workchain, pk, values)
	if err != nil {
		return "", err
	}
	return addr.StringRaw(), nil
}

// EncodeInternalInput encodes a typed call body for an internal message:
// selector plus arguments, no header section.
func (b *Bindings) EncodeInternalInput(abiJSON []byte, method string, input map[string]any) (string, error) {
	contract, err := abi.ParseContract(abiJSON)
	if err != nil {
		return "", err
	}
	f, err := contract.Function(method)
	if err != nil {
		return "", err
	}
	args, err := parseTokens(f.Inputs, input)
	if err != nil {
		return "", err
	}
	body, err := f.EncodeInput(abi.Headers{}, args, true, nil)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(body.ToBOC()), nil
}

// DecodeInput matches a message body against the contract's declared methods
// and decodes the arguments. A nil result is the valid no-match outcome.
func (b *Bindings) DecodeInput(bodyBOC string, abiJSON []byte, internal bool, methods ...string) (*DecodedInput, error) {
	contract, err := abi.ParseContract(abiJSON)
	if err != nil {
		return nil, err
	}
	body, err := parseCellBase64(bodyBOC)
	if err != nil {
		return nil, err
	}
	decoded, err := contract.DecodeFunctionInput(body.BeginParse(), methodFilter(methods), internal)
	if err != nil || decoded == nil {
		return nil, err
	}
	return &DecodedInput{Method: decoded.Method, Input: tokensToJSON(decoded.Input)}, nil
}

// DecodeOutput matches an answer body by output selector and decodes the
// results. A nil result is the valid no-match outcome.
func (b *Bindings) DecodeOutput(bodyBOC string, abiJSON []byte, methods ...string) (*DecodedOutput, error) {
	contract, err := abi.ParseContract(abiJSON)
	if err != nil {
		return nil, err
	}
	body, err := parseCellBase64(bodyBOC)
	if err != nil {
		return nil, err
	}
	decoded, err := contract.DecodeFunctionOutput(body.BeginParse(), methodFilter(methods))
	if err != nil || decoded == nil {
		return nil, err
	}
	return &DecodedOutput{Method: decoded.Method, Output: tokensToJSON(decoded.Output)}, nil
}

// DecodeEvent matches an outbound body against the contract's declared
// events. A nil result is the valid no-match outcome.
func (b *Bindings) DecodeEvent(bodyBOC string, abiJSON []byte, events ...string) (*DecodedEvent, error) {
	contract, err := abi.ParseContract(abiJSON)
	if err != nil {
		return nil, err
	}
	body, err := parseCellBase64(bodyBOC)
	if err != nil {
		return nil, err
	}
	decoded, err := contract.DecodeEventData(body.BeginParse(), methodFilter(events))
	if err != nil || decoded == nil {
		return nil, err
	}
	return &DecodedEvent{Event: decoded.Event, Data: tokensToJSON(decoded.Data)}, nil
}

// DecodeTransaction interprets a raw transaction view: which declared method
// the inbound body invoked, its arguments, and the correlated outputs.
func (b *Bindings) DecodeTransaction(tx *TransactionRecord, abiJSON []byte, methods ...string) (*DecodedTransaction, error) {
	contract, err := abi.ParseContract(abiJSON)
	if err != nil {
		return nil, err
	}
	raw, err := parseTransaction(tx)
	if err != nil {
		return nil, err
	}
	decoder := abi.NewTransactionDecoder(b.lggr, contract)
	decoded, err := decoder.DecodeTransaction(raw, methodFilter(methods))
	if err != nil || decoded == nil {
		return nil, err
	}
	return &DecodedTransaction{
		Method: decoded.Method,
		Input:  tokensToJSON(decoded.Input),
		Output: tokensToJSON(decoded.Output),
	}, nil
}

// DecodeTransactionEvents extracts every decodable declared event from the
// transaction's outbound bodies, in outbound order.
func (b *Bindings) DecodeTransactionEvents(tx *TransactionRecord, abiJSON []byte) ([]DecodedEvent, error) {
	contract, err := abi.ParseContract(abiJSON)
	if err != nil {
		return nil, err
	}
	raw, err := parseTransaction(tx)
	if err != nil {
		return nil, err
	}
	decoder := abi.NewTransactionDecoder(b.lggr, contract)
	decoded, err := decoder.DecodeTransactionEvents(raw)
	if err != nil {
		return nil, err
	}
	events := make([]DecodedEvent, len(decoded))
	for i, e := range decoded {
		events[i] = DecodedEvent{Event: e.Event, Data: tokensToJSON(e.Data)}
	}
	return events, nil
}

// VerifySignature checks an ed25519 signature over a data hash.
func (b *Bindings) VerifySignature(publicKeyHex, dataHash, signature string) (bool, error) {
	return sign.Verify(publicKeyHex, dataHash, signature)
}

// CreateExternalMessageWithoutSignature assembles a ready-to-sign external
// call to the given method with a now+timeout expiration.
func (b *Bindings) CreateExternalMessageWithoutSignature(dst string, abiJSON []byte, method string,
	stateInitBOC string, input map[string]any, timeout time.Duration) (*UnsignedMessageRecord, error) {

	contract, err := abi.ParseContract(abiJSON)
	if err != nil {
		return nil, err
	}
	dstAddr, err := parseAnyAddress(dst)
	if err != nil {
		return nil, err
	}

	var stateInit *message.StateInit
	if stateInitBOC != "" {
		c, err := parseCellBase64(stateInitBOC)
		if err != nil {
			return nil, err
		}
		stateInit, err = message.ParseState(c)
		if err != nil {
			return nil, err
		}
	}

	f, err := contract.Function(method)
	if err != nil {
		return nil, err
	}
	args, err := parseTokens(f.Inputs, input)
	if err != nil {
		return nil, err
	}

	msg, err := message.BuildUnsigned(b.clk, dstAddr, contract, method, stateInit, args, timeout)
	if err != nil {
		return nil, err
	}
	envelope, err := msg.Cell()
	if err != nil {
		return nil, err
	}
	return &UnsignedMessageRecord{
		Message:  base64.StdEncoding.EncodeToString(envelope.ToBOC()),
		ExpireAt: msg.ExpireAt,
	}, nil
}

// RunLocal dry-runs a method against a materialized account state through the
// configured executor and decodes the answer body, when one is produced.
func (b *Bindings) RunLocal(ctx context.Context, accountBOC string, abiJSON []byte, method string,
	input map[string]any) (*ExecutionOutput, error) {

	if b.exec == nil {
		return nil, ErrNoExecutor
	}
	contract, err := abi.ParseContract(abiJSON)
	if err != nil {
		return nil, err
	}
	account, err := parseCellBase64(accountBOC)
	if err != nil {
		return nil, err
	}
	f, err := contract.Function(method)
	if err != nil {
		return nil, err
	}
	args, err := parseTokens(f.Inputs, input)
	if err != nil {
		return nil, err
	}

	nowMillis := uint64(b.clk.Now().UnixMilli())
	headers := abi.Headers{
		Time:   nowMillis,
		Expire: uint32((nowMillis + uint64(runLocalTimeout.Milliseconds())) / 1000),
	}
	body, err := f.EncodeInput(headers, args, false, nil)
	if err != nil {
		return nil, err
	}

	result, err := b.exec.RunLocal(ctx, account, body)
	if err != nil {
		return nil, err
	}

	out := &ExecutionOutput{Code: int32(result.ExitCode)}
	for _, msg := range result.OutMessages {
		output, err := f.DecodeOutput(msg.BeginParse())
		if err != nil {
			continue
		}
		out.Output = tokensToJSON(output)
		break
	}
	return out, nil
}

func methodFilter(names []string) abi.MethodFilter {
	if len(names) == 0 {
		return abi.AnyMethod()
	}
	return abi.MethodNamed(names...)
}

func parseAnyAddress(s string) (*address.Address, error) {
	if a, err := address.ParseAddr(s); err == nil {
		return a, nil
	}
	a, err := address.ParseRawAddr(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrAddressParse, s)
	}
	return a, nil
}

func parseCellBase64(s string) (*cell.Cell, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: cell must be base64 encoded: %v", abi.ErrInvalidEncoding, err)
	}
	c, err := cell.FromBOC(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", abi.ErrInvalidEncoding, err)
	}
	return c, nil
}

// parseTransaction lifts a boundary transaction record to the typed view.
// Empty bodies stay nil; the interpreter decides how to treat them.
func parseTransaction(tx *TransactionRecord) (*abi.RawTransaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: missing transaction", abi.ErrInvalidTransaction)
	}
	in, err := parseMessage(tx.InMessage)
	if err != nil {
		return nil, fmt.Errorf("inbound message: %w", err)
	}
	raw := &abi.RawTransaction{InMessage: in}
	for i, m := range tx.OutMessages {
		out, err := parseMessage(m)
		if err != nil {
			return nil, fmt.Errorf("outbound message %d: %w", i, err)
		}
		raw.OutMessages = append(raw.OutMessages, out)
	}
	return raw, nil
}

func parseMessage(m MessageRecord) (abi.RawMessage, error) {
	var out abi.RawMessage
	if m.Body != "" {
		body, err := parseCellBase64(m.Body)
		if err != nil {
			return out, err
		}
		out.Body = body
	}
	if m.Src != "" {
		src, err := parseAnyAddress(m.Src)
		if err != nil {
			return out, err
		}
		out.Src = src
	}
	if m.Dst != "" {
		dst, err := parseAnyAddress(m.Dst)
		if err != nil {
			return out, err
		}
		out.Dst = dst
	}
	return out, nil
}

// parseDataValues converts boundary init-data values against the contract's
// declared data params. Unknown names are ignored to match loose host input.
func parseDataValues(contract *abi.ContractABI, initData map[string]any) (map[string]any, error) {
	if len(initData) == 0 {
		return nil, nil
	}
	values := make(map[string]any, len(initData))
	for _, dp := range contract.Data {
		v, ok := initData[dp.Name]
		if !ok {
			continue
		}
		parsed, err := parseTokenValue(v, dp.Type)
		if err != nil {
			return nil, fmt.Errorf("data param %q: %w", dp.Name, err)
		}
		values[dp.Name] = parsed
	}
	return values, nil
}
