package abi

import (
	"fmt"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// storeValue appends v to the builder per the declared type's bit-exact
// layout. The builder is treated as an opaque bit/ref sink; overflow surfaces
// as the underlying cell error.
func storeValue(b *cell.Builder, v any, t Type) error {
	switch t.Kind {
	case KindUint, KindInt:
		bi, ok := toBigInt(v)
		if !ok {
			return fmt.Errorf("%w: expected integer, got %T", ErrTypeMismatch, v)
		}
		signed := t.Kind == KindInt
		if !fitsWidth(bi, t.Bits, signed) {
			return fmt.Errorf("%w: value %s does not fit %s", ErrTypeMismatch, bi, t)
		}
		if signed {
			return b.StoreBigInt(bi, uint(t.Bits))
		}
		return b.StoreBigUInt(bi, uint(t.Bits))

	case KindBool:
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: expected bool, got %T", ErrTypeMismatch, v)
		}
		return b.StoreBoolBit(bv)

	case KindCell:
		c, ok := v.(*cell.Cell)
		if !ok || c == nil {
			return fmt.Errorf("%w: expected cell, got %T", ErrTypeMismatch, v)
		}
		return b.StoreRef(c)

	case KindAddress:
		a, ok := v.(*address.Address)
		if !ok || a == nil {
			return fmt.Errorf("%w: expected address, got %T", ErrTypeMismatch, v)
		}
		return b.StoreAddr(a)

	case KindBytes:
		data, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("%w: expected bytes, got %T", ErrTypeMismatch, v)
		}
		rb := cell.BeginCell()
		if err := rb.StoreBinarySnake(data); err != nil {
			return err
		}
		return b.StoreRef(rb.EndCell())

	case KindFixedBytes:
		data, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("%w: expected bytes, got %T", ErrTypeMismatch, v)
		}
		if len(data) != t.Size {
			return fmt.Errorf("%w: expected %d bytes, got %d", ErrTypeMismatch, t.Size, len(data))
		}
		return b.StoreSlice(data, uint(t.Size)*8)

	case KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: expected string, got %T", ErrTypeMismatch, v)
		}
		rb := cell.BeginCell()
		if err := rb.StoreStringSnake(s); err != nil {
			return err
		}
		return b.StoreRef(rb.EndCell())

	case KindArray:
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%w: expected array, got %T", ErrTypeMismatch, v)
		}
		if err := b.StoreUInt(uint64(len(items)), 32); err != nil {
			return err
		}
		return storeIndexedDict(b, items, *t.Elem)

	case KindFixedArray:
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%w: expected array, got %T", ErrTypeMismatch, v)
		}
		if len(items) != t.Size {
			return fmt.Errorf("%w: expected %d elements, got %d", ErrTypeMismatch, t.Size, len(items))
		}
		return storeIndexedDict(b, items, *t.Elem)

	case KindTuple:
		fields, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: expected tuple fields, got %T", ErrTypeMismatch, v)
		}
		for _, c := range t.Components {
			fv, ok := fields[c.Name]
			if !ok {
				return fmt.Errorf("%w: missing tuple field %q", ErrTypeMismatch, c.Name)
			}
			if err := storeValue(b, fv, c.Type); err != nil {
				return fmt.Errorf("field %q: %w", c.Name, err)
			}
		}
		return nil

	case KindMap:
		entries, ok := v.([]MapEntry)
		if !ok {
			return fmt.Errorf("%w: expected map entries, got %T", ErrTypeMismatch, v)
		}
		dict := cell.NewDict(dictKeyBits(*t.Key))
		for i, e := range entries {
			kb := cell.BeginCell()
			if err := storeValue(kb, e.Key, *t.Key); err != nil {
				return fmt.Errorf("map key %d: %w", i, err)
			}
			vb := cell.BeginCell()
			if err := storeValue(vb, e.Value, *t.Elem); err != nil {
				return fmt.Errorf("map value %d: %w", i, err)
			}
			if err := dict.Set(kb.EndCell(), vb.EndCell()); err != nil {
				return fmt.Errorf("map entry %d: %w", i, err)
			}
		}
		return b.StoreDict(dict)

	case KindOptional:
		if v == nil {
			return b.StoreBoolBit(false)
		}
		if err := b.StoreBoolBit(true); err != nil {
			return err
		}
		return storeValue(b, v, *t.Elem)

	case KindTime:
		ts, ok := v.(uint64)
		if !ok {
			return fmt.Errorf("%w: expected uint64 time, got %T", ErrTypeMismatch, v)
		}
		return b.StoreUInt(ts, 64)

	case KindExpire:
		e, ok := v.(uint32)
		if !ok {
			return fmt.Errorf("%w: expected uint32 expire, got %T", ErrTypeMismatch, v)
		}
		return b.StoreUInt(uint64(e), 32)

	case KindPublicKey:
		if v == nil {
			return b.StoreBoolBit(false)
		}
		pk, ok := v.([]byte)
		if !ok || len(pk) != 32 {
			return fmt.Errorf("%w: expected 32-byte public key, got %T", ErrTypeMismatch, v)
		}
		if err := b.StoreBoolBit(true); err != nil {
			return err
		}
		return b.StoreSlice(pk, 256)
	}
	return fmt.Errorf("%w: cannot encode kind %d", ErrTypeMismatch, t.Kind)
}

// loadValue reads one value of the declared type from the slice. Running out
// of bits or references is ErrCellUnderflow; malformed variable-length data
// is ErrInvalidEncoding.
func loadValue(s *cell.Slice, t Type) (any, error) {
	switch t.Kind {
	case KindUint:
		v, err := s.LoadBigUInt(uint(t.Bits))
		if err != nil {
			return nil, underflow(err)
		}
		return v, nil

	case KindInt:
		v, err := s.LoadBigInt(uint(t.Bits))
		if err != nil {
			return nil, underflow(err)
		}
		return v, nil

	case KindBool:
		v, err := s.LoadBoolBit()
		if err != nil {
			return nil, underflow(err)
		}
		return v, nil

	case KindCell:
		ref, err := s.LoadRef()
		if err != nil {
			return nil, underflow(err)
		}
		c, err := ref.ToCell()
		if err != nil {
			return nil, underflow(err)
		}
		return c, nil

	case KindAddress:
		a, err := s.LoadAddr()
		if err != nil {
			return nil, fmt.Errorf("%w: bad address: %v", ErrInvalidEncoding, err)
		}
		return a, nil

	case KindBytes:
		ref, err := s.LoadRef()
		if err != nil {
			return nil, underflow(err)
		}
		data, err := ref.LoadBinarySnake()
		if err != nil {
			return nil, fmt.Errorf("%w: bad byte snake: %v", ErrInvalidEncoding, err)
		}
		return data, nil

	case KindFixedBytes:
		data, err := s.LoadSlice(uint(t.Size) * 8)
		if err != nil {
			return nil, underflow(err)
		}
		return data, nil

	case KindString:
		ref, err := s.LoadRef()
		if err != nil {
			return nil, underflow(err)
		}
		str, err := ref.LoadStringSnake()
		if err != nil {
			return nil, fmt.Errorf("%w: bad string snake: %v", ErrInvalidEncoding, err)
		}
		return str, nil

	case KindArray:
		n, err := s.LoadUInt(32)
		if err != nil {
			return nil, underflow(err)
		}
		return loadIndexedDict(s, int(n), *t.Elem)

	case KindFixedArray:
		return loadIndexedDict(s, t.Size, *t.Elem)

	case KindTuple:
		fields := make(map[string]any, len(t.Components))
		for _, c := range t.Components {
			fv, err := loadValue(s, c.Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", c.Name, err)
			}
			fields[c.Name] = fv
		}
		return fields, nil

	case KindMap:
		dict, err := s.LoadDict(dictKeyBits(*t.Key))
		if err != nil {
			return nil, underflow(err)
		}
		kvs, err := dict.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("%w: bad dictionary: %v", ErrInvalidEncoding, err)
		}
		entries := make([]MapEntry, 0, len(kvs))
		for _, kv := range kvs {
			key, err := loadValue(kv.Key, *t.Key)
			if err != nil {
				return nil, fmt.Errorf("map key: %w", err)
			}
			val, err := loadValue(kv.Value, *t.Elem)
			if err != nil {
				return nil, fmt.Errorf("map value: %w", err)
			}
			entries = append(entries, MapEntry{Key: key, Value: val})
		}
		return entries, nil

	case KindOptional:
		present, err := s.LoadBoolBit()
		if err != nil {
			return nil, underflow(err)
		}
		if !present {
			return nil, nil
		}
		return loadValue(s, *t.Elem)

	case KindTime:
		v, err := s.LoadUInt(64)
		if err != nil {
			return nil, underflow(err)
		}
		return v, nil

	case KindExpire:
		v, err := s.LoadUInt(32)
		if err != nil {
			return nil, underflow(err)
		}
		return uint32(v), nil

	case KindPublicKey:
		present, err := s.LoadBoolBit()
		if err != nil {
			return nil, underflow(err)
		}
		if !present {
			return nil, nil
		}
		pk, err := s.LoadSlice(256)
		if err != nil {
			return nil, underflow(err)
		}
		return pk, nil
	}
	return nil, fmt.Errorf("%w: cannot decode kind %d", ErrInvalidEncoding, t.Kind)
}

// Arrays serialize as a dictionary keyed by the 32-bit element index.
func storeIndexedDict(b *cell.Builder, items []any, elem Type) error {
	dict := cell.NewDict(32)
	for i, item := range items {
		kb := cell.BeginCell()
		if err := kb.StoreUInt(uint64(i), 32); err != nil {
			return err
		}
		vb := cell.BeginCell()
		if err := storeValue(vb, item, elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := dict.Set(kb.EndCell(), vb.EndCell()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return b.StoreDict(dict)
}

func loadIndexedDict(s *cell.Slice, n int, elem Type) ([]any, error) {
	dict, err := s.LoadDict(32)
	if err != nil {
		return nil, underflow(err)
	}
	kvs, err := dict.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: bad dictionary: %v", ErrInvalidEncoding, err)
	}
	if len(kvs) != n {
		return nil, fmt.Errorf("%w: array declares %d elements, dictionary has %d", ErrInvalidEncoding, n, len(kvs))
	}
	items := make([]any, n)
	for _, kv := range kvs {
		idx, err := kv.Key.LoadUInt(32)
		if err != nil {
			return nil, underflow(err)
		}
		if idx >= uint64(n) {
			return nil, fmt.Errorf("%w: array index %d out of range", ErrInvalidEncoding, idx)
		}
		items[idx], err = loadValue(kv.Value, elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", idx, err)
		}
	}
	return items, nil
}

func dictKeyBits(key Type) uint {
	if key.Kind == KindAddress {
		// Standard internal address layout width.
		return 267
	}
	return uint(key.Bits)
}

func underflow(err error) error {
	return fmt.Errorf("%w: %v", ErrCellUnderflow, err)
}

// PackIntoCell encodes a typed argument list into a standalone cell.
func PackIntoCell(params []Param, tokens map[string]any) (*cell.Cell, error) {
	b := cell.BeginCell()
	if err := storeParams(b, params, tokens); err != nil {
		return nil, err
	}
	return b.EndCell(), nil
}

// UnpackFromCell decodes a typed argument list from a cell. Unless
// allowPartial is set, trailing bits or references are an encoding error.
func UnpackFromCell(params []Param, s *cell.Slice, allowPartial bool) (map[string]any, error) {
	tokens, err := loadParams(s, params)
	if err != nil {
		return nil, err
	}
	if !allowPartial && (s.BitsLeft() != 0 || s.RefsNum() != 0) {
		return nil, fmt.Errorf("%w: incomplete deserialization", ErrInvalidEncoding)
	}
	return tokens, nil
}

func storeParams(b *cell.Builder, params []Param, tokens map[string]any) error {
	if len(tokens) != len(params) {
		return fmt.Errorf("%w: expected %d values, got %d", ErrArgumentCountMismatch, len(params), len(tokens))
	}
	for _, p := range params {
		v, ok := tokens[p.Name]
		if !ok {
			return fmt.Errorf("%w: missing value for %q", ErrArgumentCountMismatch, p.Name)
		}
		if err := storeValue(b, v, p.Type); err != nil {
			return fmt.Errorf("param %q: %w", p.Name, err)
		}
	}
	return nil
}

func loadParams(s *cell.Slice, params []Param) (map[string]any, error) {
	tokens := make(map[string]any, len(params))
	for _, p := range params {
		v, err := loadValue(s, p.Type)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", p.Name, err)
		}
		tokens[p.Name] = v
	}
	return tokens, nil
}
