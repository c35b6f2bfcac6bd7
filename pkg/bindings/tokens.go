package bindings

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/smartcontractkit/chainlink-tvm/pkg/abi"
)

// The host boundary speaks JSON-native values: integers as decimal or 0x
// strings, cells as base64 BOCs, byte params as hex in and base64 out,
// addresses as raw "wc:hex" or friendly strings. These helpers convert
// between that surface and the codec's typed values.

func parseTokens(params []abi.Param, vals map[string]any) (map[string]any, error) {
	if len(vals) != len(params) {
		return nil, fmt.Errorf("%w: expected %d values, got %d", abi.ErrArgumentCountMismatch, len(params), len(vals))
	}
	tokens := make(map[string]any, len(params))
	for _, p := range params {
		v, ok := vals[p.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing value for %q", abi.ErrArgumentCountMismatch, p.Name)
		}
		parsed, err := parseTokenValue(v, p.Type)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", p.Name, err)
		}
		tokens[p.Name] = parsed
	}
	return tokens, nil
}

func parseTokenValue(v any, t abi.Type) (any, error) {
	switch t.Kind {
	case abi.KindUint, abi.KindInt:
		bi, err := parseBigInt(v)
		if err != nil {
			return nil, err
		}
		return bi, nil

	case abi.KindBool:
		bv, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected bool, got %T", abi.ErrTypeMismatch, v)
		}
		return bv, nil

	case abi.KindCell:
		if c, ok := v.(*cell.Cell); ok {
			return c, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected base64 cell, got %T", abi.ErrTypeMismatch, v)
		}
		return parseCellBase64(s)

	case abi.KindAddress:
		if a, ok := v.(*address.Address); ok {
			return a, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected address string, got %T", abi.ErrTypeMismatch, v)
		}
		return parseAnyAddress(s)

	case abi.KindBytes, abi.KindFixedBytes:
		if data, ok := v.([]byte); ok {
			return data, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected hex bytes, got %T", abi.ErrTypeMismatch, v)
		}
		data, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: bytes must be hex encoded: %v", abi.ErrInvalidEncoding, err)
		}
		return data, nil

	case abi.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", abi.ErrTypeMismatch, v)
		}
		return s, nil

	case abi.KindArray, abi.KindFixedArray:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected array, got %T", abi.ErrTypeMismatch, v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			parsed, err := parseTokenValue(item, *t.Elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = parsed
		}
		return out, nil

	case abi.KindTuple:
		fields, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected object, got %T", abi.ErrTypeMismatch, v)
		}
		return parseTokens(t.Components, fields)

	case abi.KindMap:
		if entries, ok := v.([]abi.MapEntry); ok {
			return entries, nil
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected object, got %T", abi.ErrTypeMismatch, v)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sortMapKeys(keys, t.Key.Kind)
		entries := make([]abi.MapEntry, 0, len(obj))
		for _, k := range keys {
			key, err := parseTokenValue(k, *t.Key)
			if err != nil {
				return nil, fmt.Errorf("map key %q: %w", k, err)
			}
			val, err := parseTokenValue(obj[k], *t.Elem)
			if err != nil {
				return nil, fmt.Errorf("map value %q: %w", k, err)
			}
			entries = append(entries, abi.MapEntry{Key: key, Value: val})
		}
		return entries, nil

	case abi.KindOptional:
		if v == nil {
			return nil, nil
		}
		return parseTokenValue(v, *t.Elem)

	case abi.KindTime:
		bi, err := parseBigInt(v)
		if err != nil {
			return nil, err
		}
		return bi.Uint64(), nil

	case abi.KindExpire:
		bi, err := parseBigInt(v)
		if err != nil {
			return nil, err
		}
		return uint32(bi.Uint64()), nil

	case abi.KindPublicKey:
		if v == nil {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected hex public key, got %T", abi.ErrTypeMismatch, v)
		}
		pk, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: public key must be hex encoded: %v", abi.ErrInvalidEncoding, err)
		}
		return pk, nil
	}
	return nil, fmt.Errorf("%w: unsupported kind %d", abi.ErrTypeMismatch, t.Kind)
}

func parseBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		return x, nil
	case string:
		base := 10
		s := x
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			base, s = 16, s[2:]
		}
		bi, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, fmt.Errorf("%w: bad integer %q", abi.ErrInvalidEncoding, x)
		}
		return bi, nil
	case json.Number:
		bi, ok := new(big.Int).SetString(x.String(), 10)
		if !ok {
			return nil, fmt.Errorf("%w: bad integer %q", abi.ErrInvalidEncoding, x)
		}
		return bi, nil
	case float64:
		return big.NewInt(int64(x)), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	}
	return nil, fmt.Errorf("%w: expected integer, got %T", abi.ErrTypeMismatch, v)
}

// sortMapKeys orders JSON map keys deterministically: numerically for
// integer keys, lexically otherwise.
func sortMapKeys(keys []string, kind abi.Kind) {
	if kind == abi.KindAddress {
		sort.Strings(keys)
		return
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aerr := parseBigInt(keys[i])
		b, berr := parseBigInt(keys[j])
		if aerr != nil || berr != nil {
			return keys[i] < keys[j]
		}
		return a.Cmp(b) < 0
	})
}

// tokensToJSON renders decoded token values back to the boundary form.
func tokensToJSON(tokens map[string]any) map[string]any {
	out := make(map[string]any, len(tokens))
	for k, v := range tokens {
		out[k] = tokenToJSON(v)
	}
	return out
}

func tokenToJSON(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *big.Int:
		return x.String()
	case bool, string, uint32, uint64:
		return x
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	case *cell.Cell:
		return base64.StdEncoding.EncodeToString(x.ToBOC())
	case *address.Address:
		return x.StringRaw()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = tokenToJSON(item)
		}
		return out
	case map[string]any:
		return tokensToJSON(x)
	case []abi.MapEntry:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[mapKeyString(e.Key)] = tokenToJSON(e.Value)
		}
		return out
	}
	return v
}

func mapKeyString(k any) string {
	switch x := k.(type) {
	case *big.Int:
		return x.String()
	case *address.Address:
		return x.StringRaw()
	}
	return fmt.Sprint(k)
}
