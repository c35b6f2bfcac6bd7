package abi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParamDescriptor is the JSON form of a declared parameter.
type ParamDescriptor struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Components []ParamDescriptor `json:"components,omitempty"`
}

type functionDescriptor struct {
	Name    string            `json:"name"`
	Inputs  []ParamDescriptor `json:"inputs"`
	Outputs []ParamDescriptor `json:"outputs"`
	ID      string            `json:"id,omitempty"`
}

type eventDescriptor struct {
	Name   string            `json:"name"`
	Inputs []ParamDescriptor `json:"inputs"`
	ID     string            `json:"id,omitempty"`
}

type dataDescriptor struct {
	ParamDescriptor
	Key uint64 `json:"key"`
}

type contractDescriptor struct {
	ABIVersion int                  `json:"ABI version"`
	Version    string               `json:"version"`
	Header     []string             `json:"header"`
	Functions  []functionDescriptor `json:"functions"`
	Events     []eventDescriptor    `json:"events"`
	Data       []dataDescriptor     `json:"data"`
}

// DataParam is a static init-data parameter with its dictionary key.
type DataParam struct {
	Param
	Key uint64
}

// ContractABI is the parsed contract descriptor: functions and events keyed
// by name and by selector, plus the declared header schema and static data
// layout. Built once and read-only thereafter; safe for concurrent use.
type ContractABI struct {
	Version int
	Data    []DataParam

	headers      []string
	functions    map[string]*Function
	functionList []*Function
	byInputID    map[uint32][]*Function
	byOutputID   map[uint32][]*Function
	events       map[string]*Event
	eventList    []*Event
	eventsByID   map[uint32][]*Event
}

// ParseContract parses a JSON contract descriptor.
func ParseContract(descriptor []byte) (*ContractABI, error) {
	var desc contractDescriptor
	if err := json.Unmarshal(descriptor, &desc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedABI, err)
	}

	version := desc.ABIVersion
	if desc.Version != "" {
		major, _, _ := strings.Cut(desc.Version, ".")
		v, err := strconv.Atoi(major)
		if err != nil {
			return nil, fmt.Errorf("%w: bad version %q", ErrMalformedABI, desc.Version)
		}
		version = v
	}
	if version == 0 {
		version = 2
	}

	c := &ContractABI{
		Version:    version,
		functions:  make(map[string]*Function, len(desc.Functions)),
		byInputID:  make(map[uint32][]*Function),
		byOutputID: make(map[uint32][]*Function),
		events:     make(map[string]*Event, len(desc.Events)),
		eventsByID: make(map[uint32][]*Event),
	}

	seenHeaders := make(map[string]bool, len(desc.Header))
	for _, h := range desc.Header {
		switch h {
		case HeaderTime, HeaderExpire, HeaderPubkey:
		default:
			return nil, fmt.Errorf("%w: unknown header %q", ErrMalformedABI, h)
		}
		if seenHeaders[h] {
			return nil, fmt.Errorf("%w: duplicate header %q", ErrMalformedABI, h)
		}
		seenHeaders[h] = true
		c.headers = append(c.headers, h)
	}

	for _, fd := range desc.Functions {
		if _, dup := c.functions[fd.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate function %q", ErrMalformedABI, fd.Name)
		}
		f, err := newFunction(fd, c.headers, version)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", fd.Name, err)
		}
		c.functions[fd.Name] = f
		c.functionList = append(c.functionList, f)
		c.byInputID[f.InputID] = append(c.byInputID[f.InputID], f)
		c.byOutputID[f.OutputID] = append(c.byOutputID[f.OutputID], f)
	}

	for _, ed := range desc.Events {
		if _, dup := c.events[ed.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate event %q", ErrMalformedABI, ed.Name)
		}
		e, err := newEvent(ed, version)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", ed.Name, err)
		}
		c.events[ed.Name] = e
		c.eventList = append(c.eventList, e)
		c.eventsByID[e.ID] = append(c.eventsByID[e.ID], e)
	}

	for _, dd := range desc.Data {
		typ, err := ParseType(dd.Type, dd.Components)
		if err != nil {
			return nil, fmt.Errorf("data param %q: %w", dd.Name, err)
		}
		c.Data = append(c.Data, DataParam{Param: Param{Name: dd.Name, Type: typ}, Key: dd.Key})
	}

	return c, nil
}

// ParseParams resolves a descriptor list to typed parameters.
func ParseParams(descs []ParamDescriptor) ([]Param, error) {
	params := make([]Param, 0, len(descs))
	for _, d := range descs {
		typ, err := ParseType(d.Type, d.Components)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", d.Name, err)
		}
		params = append(params, Param{Name: d.Name, Type: typ})
	}
	return params, nil
}

// Function returns the declared function by name.
func (c *ContractABI) Function(name string) (*Function, error) {
	f, ok := c.functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	return f, nil
}

// Event returns the declared event by name.
func (c *ContractABI) Event(name string) (*Event, error) {
	e, ok := c.events[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEventNotFound, name)
	}
	return e, nil
}

// Functions returns all declared functions in declaration order.
func (c *ContractABI) Functions() []*Function { return c.functionList }

// Events returns all declared events in declaration order.
func (c *ContractABI) Events() []*Event { return c.eventList }

// Headers returns the declared header field names in declaration order.
func (c *ContractABI) Headers() []string { return c.headers }

// FunctionsByInputID returns candidates whose input selector equals id, in
// declaration order. An empty result is a valid no-match outcome.
func (c *ContractABI) FunctionsByInputID(id uint32) []*Function { return c.byInputID[id] }

// FunctionsByOutputID returns candidates whose output selector equals id.
func (c *ContractABI) FunctionsByOutputID(id uint32) []*Function { return c.byOutputID[id] }

// EventsByID returns candidates whose selector equals id.
func (c *ContractABI) EventsByID(id uint32) []*Event { return c.eventsByID[id] }
