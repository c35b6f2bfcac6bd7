// Package tvm holds the local-execution collaborator surface: the exit codes
// a TVM compute phase reports and the executor interface the codec consumes.
package tvm

import "fmt"

// ExitCode is the result code of a TVM compute phase. Codes below 40 are
// fixed by the VM; codes from 40 up are raised by the standard contract
// runtime.
type ExitCode int32

func (c ExitCode) IsSuccess() bool {
	return c == ExitCodeSuccess || c == ExitCodeSuccessVariant
}

const (
	ExitCodeSuccess                   ExitCode = 0  // Standard successful execution exit code.
	ExitCodeSuccessVariant            ExitCode = 1  // Alternative successful execution exit code.
	ExitCodeStackUnderflow            ExitCode = 2  // Stack underflow.
	ExitCodeStackOverflow             ExitCode = 3  // Stack overflow.
	ExitCodeIntegerOverflow           ExitCode = 4  // Integer overflow.
	ExitCodeIntegerOutOfExpectedRange ExitCode = 5  // Range check error.
	ExitCodeInvalidOpcode             ExitCode = 6  // Invalid TVM opcode.
	ExitCodeTypeCheckError            ExitCode = 7  // Type check error.
	ExitCodeCellOverflow              ExitCode = 8  // Cell overflow.
	ExitCodeCellUnderflow             ExitCode = 9  // Cell underflow.
	ExitCodeDictionaryError           ExitCode = 10 // Dictionary error.
	ExitCodeUnknownError              ExitCode = 11 // Unknown error, may be thrown by user programs.
	ExitCodeFatalError                ExitCode = 12 // Fatal error, thrown by TVM in situations deemed impossible.
	ExitCodeOutOfGasError             ExitCode = 13 // Out of gas error.

	ExitCodeMessageSenderNotAllowed ExitCode = 40 // Message sender is not allowed to call this method.
	ExitCodeReplayProtection        ExitCode = 52 // Replay protection rejected the message timestamp.
	ExitCodeMessageExpired          ExitCode = 57 // External inbound message expired before processing.
	ExitCodeInvalidFunctionID       ExitCode = 60 // No method with the requested function id.
)

var exitCodeNames = map[ExitCode]string{
	ExitCodeSuccess:                   "success",
	ExitCodeSuccessVariant:            "success (alternative)",
	ExitCodeStackUnderflow:            "stack underflow",
	ExitCodeStackOverflow:             "stack overflow",
	ExitCodeIntegerOverflow:           "integer overflow",
	ExitCodeIntegerOutOfExpectedRange: "integer out of expected range",
	ExitCodeInvalidOpcode:             "invalid opcode",
	ExitCodeTypeCheckError:            "type check error",
	ExitCodeCellOverflow:              "cell overflow",
	ExitCodeCellUnderflow:             "cell underflow",
	ExitCodeDictionaryError:           "dictionary error",
	ExitCodeUnknownError:              "unknown error",
	ExitCodeFatalError:                "fatal error",
	ExitCodeOutOfGasError:             "out of gas",
	ExitCodeMessageSenderNotAllowed:   "message sender not allowed",
	ExitCodeInvalidFunctionID:         "invalid function id",
	ExitCodeMessageExpired:            "message expired",
	ExitCodeReplayProtection:          "replay protection",
}

func (c ExitCode) Describe() string {
	if name, ok := exitCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("exit code %d", int32(c))
}
