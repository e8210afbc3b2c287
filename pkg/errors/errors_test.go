package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndCode(t *testing.T) {
	base := fmt.Errorf("boom")
	err := Wrap(CodeInvalidInput, "query too long", base)

	require.EqualError(t, err, "query too long: boom")
	require.True(t, IsCode(err, CodeInvalidInput))
	require.ErrorIs(t, err, base)

	wrapped := fmt.Errorf("outer: %w", err)
	require.Equal(t, CodeInvalidInput, CodeOf(wrapped))
	require.False(t, IsCode(wrapped, CodeStoreError))
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(CodeInvalidToken, "token expired", nil)
	require.EqualError(t, err, "token expired")
	require.Equal(t, "", CodeOf(fmt.Errorf("plain")))
}
