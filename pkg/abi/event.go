package abi

import (
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Event is an immutable declared event signature. Events are emitted as
// externally-destined outbound message bodies tagged with the event selector.
type Event struct {
	Name   string
	Inputs []Param
	ID     uint32
}

func newEvent(desc eventDescriptor, version int) (*Event, error) {
	inputs, err := ParseParams(desc.Inputs)
	if err != nil {
		return nil, err
	}
	e := &Event{Name: desc.Name, Inputs: inputs}
	if desc.ID != "" {
		id, err := parseExplicitID(desc.ID)
		if err != nil {
			return nil, err
		}
		e.ID = id
	} else {
		e.ID = signatureID(eventSignature(desc.Name, inputs, version)) & inputIDMask
	}
	return e, nil
}

// eventSignature is the canonical event form: name(in1,...)vN. Events have
// no output list.
func eventSignature(name string, inputs []Param, version int) string {
	var sb strings.Builder
	sb.WriteString(name)
	writeTypeList(&sb, inputs)
	fmt.Fprintf(&sb, "v%d", version)
	return sb.String()
}

// EncodeData encodes an event body: the event selector followed by the
// declared fields. Used to fabricate emitted events in mocks and tools.
func (e *Event) EncodeData(data map[string]any) (*cell.Cell, error) {
	if len(data) != len(e.Inputs) {
		return nil, fmt.Errorf("%w: event %q declares %d fields, got %d",
			ErrArgumentCountMismatch, e.Name, len(e.Inputs), len(data))
	}
	b := cell.BeginCell()
	if err := b.StoreUInt(uint64(e.ID), 32); err != nil {
		return nil, err
	}
	for _, p := range e.Inputs {
		v, ok := data[p.Name]
		if !ok {
			return nil, fmt.Errorf("%w: event %q: missing field %q",
				ErrArgumentCountMismatch, e.Name, p.Name)
		}
		if err := storeValue(b, v, p.Type); err != nil {
			return nil, fmt.Errorf("event %q: field %q: %w", e.Name, p.Name, err)
		}
	}
	return b.EndCell(), nil
}

// DecodeData decodes an event body, keyed by the event selector.
func (e *Event) DecodeData(s *cell.Slice) (map[string]any, error) {
	id, err := s.LoadUInt(32)
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", e.Name, underflow(err))
	}
	if uint32(id) != e.ID {
		return nil, fmt.Errorf("%w: event %q: body selector %08x, want %08x",
			ErrSelectorMismatch, e.Name, id, e.ID)
	}
	data, err := loadParams(s, e.Inputs)
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", e.Name, err)
	}
	return data, nil
}
