package abi

import "errors"

// Sentinel errors returned by the ABI model and codec. Callers match them
// with errors.Is; wrapped messages carry the function/event name and stage.
var (
	ErrMalformedABI          = errors.New("malformed contract abi")
	ErrFunctionNotFound      = errors.New("function not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrArgumentCountMismatch = errors.New("argument count mismatch")
	ErrSelectorMismatch      = errors.New("selector mismatch")
	ErrCellUnderflow         = errors.New("cell underflow")
	ErrInvalidEncoding       = errors.New("invalid encoding")
	ErrOutputNotFound        = errors.New("output not found")
	ErrInvalidTransaction    = errors.New("invalid transaction record")
)
