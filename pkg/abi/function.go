package abi

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

const (
	// External message bodies reserve a 512-bit ed25519 signature slot.
	signatureBits = 512

	inputIDMask  = 0x7FFFFFFF
	outputIDFlag = 0x80000000
)

// Function is an immutable declared method: ordered input/output parameters
// and the selectors derived from the canonical signature. The input selector
// tags inbound call bodies, the output selector tags answer bodies.
type Function struct {
	Name    string
	Inputs  []Param
	Outputs []Param

	InputID  uint32
	OutputID uint32

	headers []string
	version int
}

func newFunction(desc functionDescriptor, headers []string, version int) (*Function, error) {
	inputs, err := ParseParams(desc.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := ParseParams(desc.Outputs)
	if err != nil {
		return nil, err
	}

	f := &Function{
		Name:    desc.Name,
		Inputs:  inputs,
		Outputs: outputs,
		headers: headers,
		version: version,
	}

	if desc.ID != "" {
		id, err := parseExplicitID(desc.ID)
		if err != nil {
			return nil, err
		}
		f.InputID = id
		f.OutputID = id
	} else {
		id := signatureID(functionSignature(desc.Name, inputs, outputs, version))
		f.InputID = id & inputIDMask
		f.OutputID = id | outputIDFlag
	}
	return f, nil
}

func parseExplicitID(s string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id %q", ErrMalformedABI, s)
	}
	return uint32(id), nil
}

// functionSignature renders the canonical signature the selector is derived
// from: name(in1,...)(out1,...)vN. Any change to a parameter type changes
// the selector.
func functionSignature(name string, inputs, outputs []Param, version int) string {
	var sb strings.Builder
	sb.WriteString(name)
	writeTypeList(&sb, inputs)
	writeTypeList(&sb, outputs)
	fmt.Fprintf(&sb, "v%d", version)
	return sb.String()
}

func writeTypeList(sb *strings.Builder, params []Param) {
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Type.String())
	}
	sb.WriteByte(')')
}

// signatureID hashes the canonical signature and truncates to the selector
// width. Encode and method guessing must agree on this derivation.
func signatureID(signature string) uint32 {
	h := sha256.Sum256([]byte(signature))
	return binary.BigEndian.Uint32(h[:4])
}

// EncodeInput encodes headers and arguments into a call body. For external
// calls (internal=false) the signature slot and declared headers precede the
// selector; a nil signature reserves an empty slot for the unsigned path.
// Internal calls carry neither signature nor headers.
func (f *Function) EncodeInput(headers Headers, args map[string]any, internal bool, signature []byte) (*cell.Cell, error) {
	if len(args) != len(f.Inputs) {
		return nil, fmt.Errorf("%w: function %q expects %d arguments, got %d",
			ErrArgumentCountMismatch, f.Name, len(f.Inputs), len(args))
	}

	b := cell.BeginCell()
	if !internal {
		if err := storeHeaders(b, f.headers, headers, signature); err != nil {
			return nil, fmt.Errorf("function %q: %w", f.Name, err)
		}
	}
	if err := b.StoreUInt(uint64(f.InputID), 32); err != nil {
		return nil, err
	}
	for _, p := range f.Inputs {
		v, ok := args[p.Name]
		if !ok {
			return nil, fmt.Errorf("%w: function %q: missing argument %q",
				ErrArgumentCountMismatch, f.Name, p.Name)
		}
		if err := storeValue(b, v, p.Type); err != nil {
			return nil, fmt.Errorf("function %q: argument %q: %w", f.Name, p.Name, err)
		}
	}
	return b.EndCell(), nil
}

// DecodeInput decodes a call body into named arguments. The body's leading
// selector must equal the function's input selector.
func (f *Function) DecodeInput(s *cell.Slice, internal bool) (map[string]any, error) {
	if !internal {
		if err := skipHeaders(s, f.headers); err != nil {
			return nil, fmt.Errorf("function %q: %w", f.Name, err)
		}
	}
	id, err := s.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", f.Name, underflow(err))
	}
	if uint32(id) != f.InputID {
		return nil, fmt.Errorf("%w: function %q: body selector %08x, want %08x",
			ErrSelectorMismatch, f.Name, id, f.InputID)
	}
	args, err := loadParams(s, f.Inputs)
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", f.Name, err)
	}
	return args, nil
}

// EncodeOutput encodes an answer body: the output selector followed by the
// declared results. Used to fabricate contract answers in mocks and tools.
func (f *Function) EncodeOutput(out map[string]any) (*cell.Cell, error) {
	if len(out) != len(f.Outputs) {
		return nil, fmt.Errorf("%w: function %q declares %d outputs, got %d",
			ErrArgumentCountMismatch, f.Name, len(f.Outputs), len(out))
	}
	b := cell.BeginCell()
	if err := b.StoreUInt(uint64(f.OutputID), 32); err != nil {
		return nil, err
	}
	for _, p := range f.Outputs {
		v, ok := out[p.Name]
		if !ok {
			return nil, fmt.Errorf("%w: function %q: missing output %q",
				ErrArgumentCountMismatch, f.Name, p.Name)
		}
		if err := storeValue(b, v, p.Type); err != nil {
			return nil, fmt.Errorf("function %q: output %q: %w", f.Name, p.Name, err)
		}
	}
	return b.EndCell(), nil
}

// DecodeOutput decodes an answer body, keyed by the output selector.
func (f *Function) DecodeOutput(s *cell.Slice) (map[string]any, error) {
	id, err := s.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", f.Name, underflow(err))
	}
	if uint32(id) != f.OutputID {
		return nil, fmt.Errorf("%w: function %q: body selector %08x, want %08x",
			ErrSelectorMismatch, f.Name, id, f.OutputID)
	}
	out, err := loadParams(s, f.Outputs)
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", f.Name, err)
	}
	return out, nil
}

// storeHeaders writes the signature slot and declared header fields, in
// declaration order, ahead of the selector.
func storeHeaders(b *cell.Builder, declared []string, h Headers, signature []byte) error {
	if signature != nil {
		if len(signature) != signatureBits/8 {
			return fmt.Errorf("%w: signature must be %d bytes", ErrInvalidEncoding, signatureBits/8)
		}
		if err := b.StoreBoolBit(true); err != nil {
			return err
		}
		if err := b.StoreSlice(signature, signatureBits); err != nil {
			return err
		}
	} else if err := b.StoreBoolBit(false); err != nil {
		return err
	}

	for _, name := range declared {
		var err error
		switch name {
		case HeaderTime:
			err = storeValue(b, h.Time, Type{Kind: KindTime})
		case HeaderExpire:
			err = storeValue(b, h.Expire, Type{Kind: KindExpire})
		case HeaderPubkey:
			if h.PublicKey == nil {
				err = storeValue(b, nil, Type{Kind: KindPublicKey})
			} else {
				err = storeValue(b, h.PublicKey, Type{Kind: KindPublicKey})
			}
		}
		if err != nil {
			return fmt.Errorf("header %q: %w", name, err)
		}
	}
	return nil
}

// skipHeaders advances past the signature slot and declared header fields of
// an external body, leaving the slice at the selector.
func skipHeaders(s *cell.Slice, declared []string) error {
	signed, err := s.LoadBoolBit()
	if err != nil {
		return underflow(err)
	}
	if signed {
		if _, err := s.LoadSlice(signatureBits); err != nil {
			return underflow(err)
		}
	}
	for _, name := range declared {
		var typ Type
		switch name {
		case HeaderTime:
			typ = Type{Kind: KindTime}
		case HeaderExpire:
			typ = Type{Kind: KindExpire}
		case HeaderPubkey:
			typ = Type{Kind: KindPublicKey}
		}
		if _, err := loadValue(s, typ); err != nil {
			return fmt.Errorf("header %q: %w", name, err)
		}
	}
	return nil
}

// readInputID reads the leading input selector of a body without consuming
// the caller's slice.
func readInputID(s *cell.Slice, declared []string, internal bool) (uint32, error) {
	probe := s.Copy()
	if !internal {
		if err := skipHeaders(probe, declared); err != nil {
			return 0, err
		}
	}
	id, err := probe.LoadUInt(32)
	if err != nil {
		return 0, underflow(err)
	}
	return uint32(id), nil
}

// readBodyID reads the leading selector of an answer or event body.
func readBodyID(s *cell.Slice) (uint32, error) {
	id, err := s.Copy().LoadUInt(32)
	if err != nil {
		return 0, underflow(err)
	}
	return uint32(id), nil
}
