package abi

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the value categories of the contract ABI type system.
type Kind uint8

const (
	KindUint Kind = iota
	KindInt
	KindBool
	KindCell
	KindAddress
	KindBytes
	KindFixedBytes
	KindString
	KindArray
	KindFixedArray
	KindTuple
	KindMap
	KindOptional
	KindTime
	KindExpire
	KindPublicKey
)

// Type describes a declared parameter type. Bits is the width of integer
// kinds, Size the byte length of fixedbytes and the element count of fixed
// arrays. Elem holds the element type of arrays/optionals and the value type
// of maps; Key holds the map key type. Components are the named fields of a
// tuple.
type Type struct {
	Kind       Kind
	Bits       uint
	Size       int
	Key        *Type
	Elem       *Type
	Components []Param
}

// Param is a named, typed parameter owned by a function or event signature.
type Param struct {
	Name string
	Type Type
}

// ParseType parses an ABI type string such as "uint128", "map(uint32,address)"
// or "tuple[2]". Tuple components come from the descriptor's "components"
// list and apply to the innermost tuple.
func ParseType(s string, components []ParamDescriptor) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, fmt.Errorf("%w: empty type", ErrMalformedABI)
	}

	// Array suffixes bind outermost: "uint8[4][]" is an array of fixed arrays.
	if strings.HasSuffix(s, "]") {
		i := strings.LastIndex(s, "[")
		if i < 0 {
			return Type{}, fmt.Errorf("%w: unbalanced brackets in %q", ErrMalformedABI, s)
		}
		elem, err := ParseType(s[:i], components)
		if err != nil {
			return Type{}, err
		}
		dims := s[i+1 : len(s)-1]
		if dims == "" {
			return Type{Kind: KindArray, Elem: &elem}, nil
		}
		n, err := strconv.Atoi(dims)
		if err != nil || n <= 0 {
			return Type{}, fmt.Errorf("%w: invalid array size in %q", ErrMalformedABI, s)
		}
		return Type{Kind: KindFixedArray, Size: n, Elem: &elem}, nil
	}

	switch {
	case s == "bool":
		return Type{Kind: KindBool}, nil
	case s == "cell":
		return Type{Kind: KindCell}, nil
	case s == "address":
		return Type{Kind: KindAddress}, nil
	case s == "bytes":
		return Type{Kind: KindBytes}, nil
	case s == "string":
		return Type{Kind: KindString}, nil
	case s == "time":
		return Type{Kind: KindTime}, nil
	case s == "expire":
		return Type{Kind: KindExpire}, nil
	case s == "pubkey":
		return Type{Kind: KindPublicKey}, nil
	case s == "tuple":
		if len(components) == 0 {
			return Type{}, fmt.Errorf("%w: tuple without components", ErrMalformedABI)
		}
		fields, err := ParseParams(components)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindTuple, Components: fields}, nil
	case strings.HasPrefix(s, "optional(") && strings.HasSuffix(s, ")"):
		elem, err := ParseType(s[len("optional("):len(s)-1], components)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindOptional, Elem: &elem}, nil
	case strings.HasPrefix(s, "map(") && strings.HasSuffix(s, ")"):
		inner := s[len("map(") : len(s)-1]
		keyStr, valStr, ok := splitTopLevel(inner)
		if !ok {
			return Type{}, fmt.Errorf("%w: invalid map type %q", ErrMalformedABI, s)
		}
		key, err := ParseType(keyStr, nil)
		if err != nil {
			return Type{}, err
		}
		switch key.Kind {
		case KindUint, KindInt, KindAddress:
		default:
			return Type{}, fmt.Errorf("%w: unsupported map key type %q", ErrMalformedABI, keyStr)
		}
		val, err := ParseType(valStr, components)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindMap, Key: &key, Elem: &val}, nil
	case strings.HasPrefix(s, "fixedbytes"):
		n, err := strconv.Atoi(s[len("fixedbytes"):])
		if err != nil || n < 1 || n > 32 {
			return Type{}, fmt.Errorf("%w: invalid fixedbytes width in %q", ErrMalformedABI, s)
		}
		return Type{Kind: KindFixedBytes, Size: n}, nil
	case strings.HasPrefix(s, "uint"):
		bits, err := parseIntWidth(s[len("uint"):])
		if err != nil {
			return Type{}, fmt.Errorf("%w: invalid integer width in %q", ErrMalformedABI, s)
		}
		return Type{Kind: KindUint, Bits: bits}, nil
	case strings.HasPrefix(s, "int"):
		bits, err := parseIntWidth(s[len("int"):])
		if err != nil {
			return Type{}, fmt.Errorf("%w: invalid integer width in %q", ErrMalformedABI, s)
		}
		return Type{Kind: KindInt, Bits: bits}, nil
	}
	return Type{}, fmt.Errorf("%w: unknown type %q", ErrMalformedABI, s)
}

func parseIntWidth(s string) (uint, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 256 {
		return 0, fmt.Errorf("width out of range")
	}
	return uint(n), nil
}

// splitTopLevel splits "K,V" at the first comma outside parentheses.
func splitTopLevel(s string) (string, string, bool) {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// String renders the canonical form used in signature derivation. Tuples
// render as a parenthesized component list.
func (t Type) String() string {
	switch t.Kind {
	case KindUint:
		return fmt.Sprintf("uint%d", t.Bits)
	case KindInt:
		return fmt.Sprintf("int%d", t.Bits)
	case KindBool:
		return "bool"
	case KindCell:
		return "cell"
	case KindAddress:
		return "address"
	case KindBytes:
		return "bytes"
	case KindFixedBytes:
		return fmt.Sprintf("fixedbytes%d", t.Size)
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindExpire:
		return "expire"
	case KindPublicKey:
		return "pubkey"
	case KindArray:
		return t.Elem.String() + "[]"
	case KindFixedArray:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Size)
	case KindTuple:
		parts := make([]string, len(t.Components))
		for i, c := range t.Components {
			parts[i] = c.Type.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	case KindMap:
		return fmt.Sprintf("map(%s,%s)", t.Key.String(), t.Elem.String())
	case KindOptional:
		return fmt.Sprintf("optional(%s)", t.Elem.String())
	}
	return "unknown"
}
