package tvm

import (
	"context"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// ExecutionResult is what a local run of the VM reports back: the compute
// phase exit code and the outbound message bodies the contract produced.
type ExecutionResult struct {
	ExitCode    ExitCode
	OutMessages []*cell.Cell
}

// Executor runs a message against a materialized account state without
// touching a network. The codec treats it as an opaque collaborator; callers
// plug in an emulator or a node-side implementation.
type Executor interface {
	RunLocal(ctx context.Context, accountState *cell.Cell, message *cell.Cell) (*ExecutionResult, error)
}
