package message

import (
	"fmt"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/smartcontractkit/chainlink-tvm/pkg/abi"
)

// Static init data is a dictionary keyed by 64-bit indices; the contract's
// public key lives at key 0, declared data params at their descriptor keys.
const (
	initDataKeyBits = 64
	pubkeyDataKey   = 0
)

// StateInit aliases the wire form so boundary callers need not import tlb.
type StateInit = tlb.StateInit

// ParseState parses a serialized initial-state cell.
func ParseState(c *cell.Cell) (*tlb.StateInit, error) {
	var si tlb.StateInit
	if err := tlb.LoadFromCell(&si, c.BeginParse()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStateInit, err)
	}
	return &si, nil
}

// CodeToState wraps bare contract code into an initial-state image with no
// data part.
func CodeToState(code *cell.Cell) *tlb.StateInit {
	return &tlb.StateInit{Code: code}
}

// StateToCell serializes an initial-state image back to its cell form.
func StateToCell(si *tlb.StateInit) (*cell.Cell, error) {
	c, err := tlb.ToCell(si)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStateInit, err)
	}
	return c, nil
}

// SplitState decomposes an initial-state cell into its code and data parts.
// Either part may be nil.
func SplitState(c *cell.Cell) (code, data *cell.Cell, err error) {
	si, err := ParseState(c)
	if err != nil {
		return nil, nil, err
	}
	return si.Code, si.Data, nil
}

// ExpectedAddress computes the deterministic address a contract deploys to:
// the declared init data and optional public key are inserted into the state
// image's data dictionary, and the address is derived from the resulting
// state hash.
func ExpectedAddress(stateCell *cell.Cell, contract *abi.ContractABI, workchain int8,
	publicKey []byte, initData map[string]any) (*address.Address, error) {

	si, err := ParseState(stateCell)
	if err != nil {
		return nil, err
	}

	if si.Data != nil {
		data, err := insertInitData(si.Data, contract, publicKey, initData)
		if err != nil {
			return nil, err
		}
		si.Data = data
	}

	hashed, err := tlb.ToCell(si)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStateInit, err)
	}
	return address.NewAddress(0, byte(workchain), hashed.Hash()), nil
}

// insertInitData sets the public key and declared data params in the state's
// init-data dictionary.
func insertInitData(data *cell.Cell, contract *abi.ContractABI, publicKey []byte, values map[string]any) (*cell.Cell, error) {
	dict, err := data.BeginParse().LoadDict(initDataKeyBits)
	if err != nil {
		return nil, fmt.Errorf("%w: data is not an init dictionary: %v", ErrInvalidStateInit, err)
	}

	if publicKey != nil {
		if len(publicKey) != 32 {
			return nil, fmt.Errorf("%w: public key must be 32 bytes", ErrInvalidStateInit)
		}
		kb := cell.BeginCell()
		if err := kb.StoreUInt(pubkeyDataKey, initDataKeyBits); err != nil {
			return nil, err
		}
		vb := cell.BeginCell()
		if err := vb.StoreSlice(publicKey, 256); err != nil {
			return nil, err
		}
		if err := dict.Set(kb.EndCell(), vb.EndCell()); err != nil {
			return nil, fmt.Errorf("failed to set public key: %w", err)
		}
	}

	for _, dp := range contract.Data {
		v, ok := values[dp.Name]
		if !ok {
			continue
		}
		kb := cell.BeginCell()
		if err := kb.StoreUInt(dp.Key, initDataKeyBits); err != nil {
			return nil, err
		}
		packed, err := abi.PackIntoCell([]abi.Param{dp.Param}, map[string]any{dp.Name: v})
		if err != nil {
			return nil, fmt.Errorf("data param %q: %w", dp.Name, err)
		}
		if err := dict.Set(kb.EndCell(), packed); err != nil {
			return nil, fmt.Errorf("failed to set data param %q: %w", dp.Name, err)
		}
	}

	b := cell.BeginCell()
	if err := b.StoreDict(dict); err != nil {
		return nil, err
	}
	return b.EndCell(), nil
}

// ExtractPublicKey reads the contract public key from the leading 256 bits
// of a deployed contract's data cell.
func ExtractPublicKey(data *cell.Cell) ([]byte, error) {
	pk, err := data.BeginParse().LoadSlice(256)
	if err != nil {
		return nil, fmt.Errorf("%w: data holds no public key: %v", ErrInvalidStateInit, err)
	}
	return pk, nil
}
