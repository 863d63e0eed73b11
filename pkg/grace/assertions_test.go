package grace_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sre-norns/glance/pkg/grace"
	"github.com/stretchr/testify/require"
)

func TestActionableError(t *testing.T) {
	err := grace.RaiseError("server to respond", "connection refused", "start the server")

	require.Equal(t, "server to respond", err.WhatExpected())
	require.Equal(t, "connection refused", err.WhatHappened())
	require.Equal(t, "start the server", err.WhatToDo())
	require.Equal(t, "expected: server to respond, got: connection refused; What to do: start the server", err.Error())
	require.Nil(t, errors.Unwrap(err))
}

func TestActionableError_Wrapping(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := grace.WrapError(cause, "a", "b", "c")

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, fmt.Errorf("outer: %w", err), cause)

	var actionable grace.Error
	require.True(t, errors.As(fmt.Errorf("outer: %w", err), &actionable))
	require.Equal(t, "c", actionable.WhatToDo())
}
