package tvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCodeIsSuccess(t *testing.T) {
	require.True(t, ExitCodeSuccess.IsSuccess())
	require.True(t, ExitCodeSuccessVariant.IsSuccess())
	require.False(t, ExitCodeCellUnderflow.IsSuccess())
	require.False(t, ExitCodeMessageExpired.IsSuccess())
}

func TestExitCodeDescribe(t *testing.T) {
	require.Equal(t, "out of gas", ExitCodeOutOfGasError.Describe())
	require.Equal(t, "message expired", ExitCodeMessageExpired.Describe())
	require.Equal(t, "exit code 99", ExitCode(99).Describe())
}
